package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"recruit_backend/internal/config"
	"recruit_backend/internal/evaluator"
	"recruit_backend/internal/grading"
	"recruit_backend/internal/model"
	"recruit_backend/internal/proctoring"
	"recruit_backend/internal/recommendation"
	"recruit_backend/internal/repository"
	"recruit_backend/internal/scoring"
	"recruit_backend/internal/skillgap"
	"recruit_backend/internal/util"
	"recruit_backend/pkg/lock"
	"recruit_backend/pkg/logger"
	"recruit_backend/pkg/monitoring"
	"recruit_backend/pkg/queue"
	"recruit_backend/pkg/tracing"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type FinalizeTrigger string

const (
	TriggerSubmit FinalizeTrigger = "submit"
	TriggerExpiry FinalizeTrigger = "expiry"
)

// 排名、投递与归档的总时限
const afterScoringTimeout = 30 * time.Second

// ReevaluationPublisher 待复评任务的投递方（RabbitMQ）
type ReevaluationPublisher interface {
	PublishReevaluation(ctx context.Context, job queue.ReevaluationJob) error
}

// ArtifactStore 评估报告归档
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// ApplicationService 申请生命周期：开始作答、逐题提交、监考事件、交卷评估、人工覆盖与复评
type ApplicationService struct {
	Apps        *repository.ApplicationRepository
	Assessments *repository.AssessmentRepository
	Jobs        *JobService
	Events      *repository.ProctoringRepository
	Grader      *grading.Grader
	Ranking     *RankingService
	Policy      *config.PolicyStore
	Locker      lock.Locker

	// 以下依赖可选
	Resume    evaluator.ResumeParser
	Publisher ReevaluationPublisher
	Artifacts ArtifactStore

	Now func() time.Time
}

func NewApplicationService(
	apps *repository.ApplicationRepository,
	assessments *repository.AssessmentRepository,
	jobs *JobService,
	events *repository.ProctoringRepository,
	grader *grading.Grader,
	ranking *RankingService,
	policy *config.PolicyStore,
	locker lock.Locker,
) *ApplicationService {
	return &ApplicationService{
		Apps:        apps,
		Assessments: assessments,
		Jobs:        jobs,
		Events:      events,
		Grader:      grader,
		Ranking:     ranking,
		Policy:      policy,
		Locker:      locker,
		Now:         time.Now,
	}
}

func appLockKey(id uint) string {
	return fmt.Sprintf("application:%d", id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *ApplicationService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// grader 每次调用按当前策略的超时配置生成，策略热加载后立即生效
func (s *ApplicationService) grader(policy config.ScoringPolicy) *grading.Grader {
	g := *s.Grader
	if policy.EvaluatorTimeout > 0 {
		g.EvaluatorTimeout = policy.EvaluatorTimeout
	}
	if policy.ExecutorTimeout > 0 {
		g.ExecutorTimeout = policy.ExecutorTimeout
	}
	return &g
}

func (s *ApplicationService) loadApp(id uint) (*model.Application, error) {
	app, err := s.Apps.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}

func (s *ApplicationService) loadAssessment(id uint) (*model.Assessment, error) {
	a, err := s.Assessments.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAssessmentNotFound
		}
		return nil, err
	}
	return a, nil
}

func verifyAccess(app *model.Application, token string) error {
	if token == "" || subtle.ConstantTimeCompare([]byte(app.AccessToken), []byte(token)) != 1 {
		return util.ErrInvalidAccessToken
	}
	return nil
}

func expired(app *model.Application, a *model.Assessment, now time.Time) bool {
	deadline, limited := app.Deadline(a.Duration)
	return limited && !now.Before(deadline)
}

type InviteRequest struct {
	CandidateName  string   `json:"candidateName" binding:"required"`
	CandidateEmail string   `json:"candidateEmail" binding:"required,email"`
	ResumeText     string   `json:"resumeText"`
	ResumeSkills   []string `json:"resumeSkills"`
}

type InviteResponse struct {
	Application *model.Application `json:"application"`
	LinkToken   string             `json:"linkToken"`
	AccessToken string             `json:"accessToken"`
}

// Invite 招聘方邀请候选人，生成 pending 状态的申请
func (s *ApplicationService) Invite(actor *util.Claims, jobID uint, req InviteRequest) (*InviteResponse, error) {
	job, err := s.Jobs.Get(actor, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == model.JobClosed {
		return nil, util.ErrJobClosed
	}
	a, err := s.Assessments.FindByJobID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAssessmentNotFound
		}
		return nil, err
	}

	email := normalizeEmail(req.CandidateEmail)
	if _, err := s.Apps.FindByJobAndEmail(jobID, email); err == nil {
		return nil, util.ErrDuplicateApplication
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	app := &model.Application{
		JobID:            jobID,
		AssessmentID:     a.ID,
		CandidateName:    strings.TrimSpace(req.CandidateName),
		CandidateEmail:   email,
		AccessToken:      model.GenerateUUID(),
		Status:           model.StatusPending,
		StatusSource:     model.SourceAuto,
		CredibilityScore: proctoring.MaxCredibility,
		ResumeText:       req.ResumeText,
		ResumeSkills:     req.ResumeSkills,
	}
	if err := s.Apps.Create(app); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrDuplicateApplication
		}
		return nil, err
	}

	logger.Log.Info("candidate invited", zap.Uint("jobId", jobID), zap.Uint("applicationId", app.ID))
	return &InviteResponse{Application: app, LinkToken: a.LinkToken, AccessToken: app.AccessToken}, nil
}

type StartRequest struct {
	CandidateName  string   `json:"candidateName" binding:"required"`
	CandidateEmail string   `json:"candidateEmail" binding:"required,email"`
	AccessToken    string   `json:"accessToken"` // 续答或受邀时必填
	ResumeText     string   `json:"resumeText"`
	ResumeSkills   []string `json:"resumeSkills"`
}

type StartResponse struct {
	ApplicationID uint                    `json:"applicationId"`
	AccessToken   string                  `json:"accessToken"`
	Status        model.ApplicationStatus `json:"status"`
	Title         string                  `json:"title"`
	StartedAt     time.Time               `json:"startedAt"`
	Deadline      *time.Time              `json:"deadline,omitempty"`
	Duration      int                     `json:"duration"`
	Resumed       bool                    `json:"resumed"`
	Questions     []model.PublicQuestion  `json:"questions"`
	Answered      []string                `json:"answered"`
}

func startResponse(app *model.Application, a *model.Assessment, resumed bool) *StartResponse {
	resp := &StartResponse{
		ApplicationID: app.ID,
		AccessToken:   app.AccessToken,
		Status:        app.Status,
		Title:         a.Title,
		StartedAt:     *app.StartedAt,
		Duration:      a.Duration,
		Resumed:       resumed,
		Questions:     a.PublicQuestions(),
		Answered:      make([]string, 0, len(app.Answers)),
	}
	if deadline, ok := app.Deadline(a.Duration); ok {
		resp.Deadline = &deadline
	}
	for _, ans := range app.Answers {
		resp.Answered = append(resp.Answered, ans.QuestionID)
	}
	return resp
}

// Start 通过公开链接开始作答。重新进入作答中的申请不会重置计时，剩余时间始终由 startedAt 推算
func (s *ApplicationService) Start(ctx context.Context, linkToken string, req StartRequest) (*StartResponse, error) {
	a, err := s.Assessments.FindByLinkToken(linkToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAssessmentNotFound
		}
		return nil, err
	}
	job, err := s.Jobs.Get(nil, a.JobID)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(req.CandidateEmail)
	now := s.now()

	existing, err := s.Apps.FindByJobAndEmail(job.ID, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if job.Status == model.JobClosed {
			return nil, util.ErrJobClosed
		}
		app := &model.Application{
			JobID:            job.ID,
			AssessmentID:     a.ID,
			CandidateName:    strings.TrimSpace(req.CandidateName),
			CandidateEmail:   email,
			AccessToken:      model.GenerateUUID(),
			Status:           model.StatusInProgress,
			StatusSource:     model.SourceAuto,
			StartedAt:        &now,
			CredibilityScore: proctoring.MaxCredibility,
			ResumeText:       req.ResumeText,
			ResumeSkills:     req.ResumeSkills,
		}
		if err := s.Apps.Create(app); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, util.ErrDuplicateApplication
			}
			return nil, err
		}
		logger.Log.Info("assessment started", zap.Uint("applicationId", app.ID), zap.Uint("jobId", job.ID))
		return startResponse(app, a, false), nil
	}
	if err != nil {
		return nil, err
	}

	// 同一 (job, email) 已存在申请，只有持有访问令牌的本人可以继续
	if req.AccessToken == "" {
		return nil, util.ErrDuplicateApplication
	}
	if err := verifyAccess(existing, req.AccessToken); err != nil {
		return nil, err
	}

	switch existing.Status {
	case model.StatusPending:
		if job.Status == model.JobClosed {
			return nil, util.ErrJobClosed
		}
		ok, err := s.Apps.TransitionStatus(existing.ID,
			[]model.ApplicationStatus{model.StatusPending}, model.StatusInProgress, model.SourceAuto,
			map[string]interface{}{"started_at": now})
		if err != nil {
			return nil, err
		}
		if !ok {
			// 并发的另一次 start 已经开始计时
			return s.resume(ctx, existing.ID, a)
		}
		existing.Status = model.StatusInProgress
		existing.StartedAt = &now
		if req.ResumeText != "" || len(req.ResumeSkills) > 0 {
			existing.ResumeText = req.ResumeText
			existing.ResumeSkills = req.ResumeSkills
			if err := s.Apps.UpdateResume(existing); err != nil {
				logger.Log.Warn("failed to store resume", zap.Uint("applicationId", existing.ID), zap.Error(err))
			}
		}
		logger.Log.Info("assessment started", zap.Uint("applicationId", existing.ID), zap.Uint("jobId", job.ID))
		return startResponse(existing, a, false), nil
	case model.StatusInProgress:
		return s.resume(ctx, existing.ID, a)
	default:
		return nil, util.ErrInvalidTransition
	}
}

func (s *ApplicationService) resume(ctx context.Context, id uint, a *model.Assessment) (*StartResponse, error) {
	app, err := s.loadApp(id)
	if err != nil {
		return nil, err
	}
	if app.Status != model.StatusInProgress {
		return nil, util.ErrInvalidTransition
	}
	if expired(app, a, s.now()) {
		if _, err := s.Finalize(ctx, app.ID, TriggerExpiry); err != nil {
			logger.Log.Error("finalize on expiry failed", zap.Uint("applicationId", app.ID), zap.Error(err))
		}
		return nil, util.ErrAttemptExpired
	}
	return startResponse(app, a, true), nil
}

// SubmitAnswer 逐题提交，按 questionId 覆盖。评分在锁外进行；
// 较慢的旧提交不会覆盖已写入的较新提交
func (s *ApplicationService) SubmitAnswer(ctx context.Context, appID uint, token, questionID string, payload model.AnswerPayload) error {
	arrived := s.now()

	app, err := s.loadApp(appID)
	if err != nil {
		return err
	}
	if err := verifyAccess(app, token); err != nil {
		return err
	}
	if app.Status != model.StatusInProgress {
		return util.ErrNotInProgress
	}
	a, err := s.loadAssessment(app.AssessmentID)
	if err != nil {
		return err
	}
	if expired(app, a, arrived) {
		if _, err := s.Finalize(ctx, app.ID, TriggerExpiry); err != nil {
			logger.Log.Error("finalize on expiry failed", zap.Uint("applicationId", app.ID), zap.Error(err))
		}
		return util.ErrAttemptExpired
	}

	q, ok := a.QuestionByID(questionID)
	if !ok {
		return util.ErrQuestionNotFound
	}
	if err := grading.Validate(q, payload); err != nil {
		return fmt.Errorf("%w: %v", util.ErrInvalidAnswer, err)
	}

	res, err := s.grader(s.Policy.Get()).Grade(ctx, q, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrInvalidAnswer, err)
	}
	monitoring.GradingOutcomes.WithLabelValues(string(q.Type), string(res.Outcome)).Inc()
	answer := res.Answer(q.ID, payload, arrived)

	release, err := s.Locker.Acquire(ctx, appLockKey(appID))
	if err != nil {
		return err
	}
	defer release()

	app, err = s.loadApp(appID)
	if err != nil {
		return err
	}
	if app.Status != model.StatusInProgress {
		return util.ErrNotInProgress
	}
	if prev, ok := app.AnswerFor(q.ID); ok && prev.SubmittedAt.After(arrived) {
		return nil
	}
	app.UpsertAnswer(answer)
	saved, err := s.Apps.UpdateAnswersIfInProgress(app)
	if err != nil {
		return err
	}
	if !saved {
		return util.ErrNotInProgress
	}
	return nil
}

type ProctoringEventRequest struct {
	EventID    string                    `json:"eventId" binding:"required"`
	Type       model.ProctoringEventType `json:"type" binding:"required"`
	Severity   model.Severity            `json:"severity"`
	OccurredAt time.Time                 `json:"occurredAt"`
	Metadata   map[string]interface{}    `json:"metadata"`
}

// RecordProctoringEvents 批量写入监考事件，重复的 eventId 被忽略；返回新接收的条数
func (s *ApplicationService) RecordProctoringEvents(ctx context.Context, appID uint, token string, reqs []ProctoringEventRequest) (int, error) {
	app, err := s.loadApp(appID)
	if err != nil {
		return 0, err
	}
	if err := verifyAccess(app, token); err != nil {
		return 0, err
	}
	if app.Status != model.StatusInProgress {
		return 0, util.ErrNotInProgress
	}

	now := s.now()
	events := make([]model.ProctoringEvent, 0, len(reqs))
	for _, r := range reqs {
		if strings.TrimSpace(r.EventID) == "" || !r.Type.Valid() {
			return 0, fmt.Errorf("%w: %q", util.ErrInvalidEvent, r.EventID)
		}
		occurred := r.OccurredAt
		if occurred.IsZero() {
			occurred = now
		}
		events = append(events, model.ProctoringEvent{
			ApplicationID: app.ID,
			EventID:       r.EventID,
			Type:          r.Type,
			Severity:      r.Severity,
			OccurredAt:    occurred,
			Metadata:      r.Metadata,
		})
	}

	inserted, err := s.Events.InsertEvents(events)
	if err != nil {
		return 0, err
	}
	for _, e := range inserted {
		monitoring.ProctoringEvents.WithLabelValues(string(e.Type)).Inc()
	}
	if len(inserted) > 0 {
		if err := s.refreshProctoring(ctx, app.ID); err != nil {
			// 交卷时会再次汇总
			logger.Log.Warn("failed to refresh credibility", zap.Uint("applicationId", app.ID), zap.Error(err))
		}
	}
	return len(inserted), nil
}

// refreshProctoring 作答过程中实时更新可信度，便于招聘方查看
func (s *ApplicationService) refreshProctoring(ctx context.Context, appID uint) error {
	release, err := s.Locker.Acquire(ctx, appLockKey(appID))
	if err != nil {
		return err
	}
	defer release()

	app, err := s.loadApp(appID)
	if err != nil {
		return err
	}
	if app.Status != model.StatusInProgress {
		return nil
	}
	events, err := s.Events.ListByApplication(appID)
	if err != nil {
		return err
	}
	applyProctoring(app, proctoring.Aggregate(proctoring.FromModels(events), s.Policy.Get()))
	return s.Apps.UpdateProctoring(app)
}

// applyProctoring 可信度只降不升（策略热加载调低扣分也不会回升）
func applyProctoring(app *model.Application, res proctoring.Result) {
	app.Proctoring = res.Summary
	app.CredibilityScore = math.Min(app.CredibilityScore, res.CredibilityScore)
}

type SubmitResult struct {
	ApplicationID uint                    `json:"applicationId"`
	Status        model.ApplicationStatus `json:"status"`
	TotalScore    float64                 `json:"totalScore"`
	CompletedAt   *time.Time              `json:"completedAt,omitempty"`
}

// Submit 候选人主动交卷，只返回有限的摘要
func (s *ApplicationService) Submit(ctx context.Context, appID uint, token string) (*SubmitResult, error) {
	app, err := s.loadApp(appID)
	if err != nil {
		return nil, err
	}
	if err := verifyAccess(app, token); err != nil {
		return nil, err
	}
	app, err = s.Finalize(ctx, appID, TriggerSubmit)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{
		ApplicationID: app.ID,
		Status:        app.Status,
		TotalScore:    app.TotalScore,
		CompletedAt:   app.CompletedAt,
	}, nil
}

// Finalize in-progress → completed，并按岗位门槛自动流转。
// 已完成的申请直接返回已存储的结果，不重新评分；pending 申请不能交卷。
// 任一阶段失败都不会阻止进入 completed，失败原因记入 ReviewReasons 等待人工复核
func (s *ApplicationService) Finalize(ctx context.Context, appID uint, trigger FinalizeTrigger) (*model.Application, error) {
	release, err := s.Locker.Acquire(ctx, appLockKey(appID))
	if err != nil {
		return nil, err
	}
	defer release()

	app, err := s.loadApp(appID)
	if err != nil {
		return nil, err
	}
	if app.Status.Finished() {
		return app, nil
	}
	if app.Status != model.StatusInProgress {
		return nil, util.ErrNotInProgress
	}

	ctx, span := tracing.Tracer.Start(ctx, "application.finalize")
	defer span.End()

	a, err := s.loadAssessment(app.AssessmentID)
	if err != nil {
		return nil, err
	}
	job, err := s.Jobs.Get(nil, app.JobID)
	if err != nil {
		return nil, err
	}
	policy := s.Policy.Get()

	pending := s.evaluate(ctx, app, a, job, policy)

	now := s.now()
	app.CompletedAt = &now
	app.StatusSource = model.SourceAuto
	app.Status = decideStatus(app, job.Criteria, policy)

	saved, err := s.Apps.SaveIfStatus(app, model.StatusInProgress)
	if err != nil {
		return nil, err
	}
	if !saved {
		return s.loadApp(appID)
	}

	monitoring.FinalizedApplications.WithLabelValues(string(app.Status), string(trigger)).Inc()
	logger.Log.Info("application finalized",
		zap.Uint("applicationId", app.ID),
		zap.Uint("jobId", app.JobID),
		zap.String("trigger", string(trigger)),
		zap.String("status", string(app.Status)),
		zap.Float64("weightedScore", app.WeightedScore),
		zap.Float64("credibility", app.CredibilityScore),
		zap.Bool("needsReview", app.NeedsReview))

	s.afterScoring(ctx, app, pending, true)
	return app, nil
}

// evaluate 依次运行各阶段并把结果写入 app，返回仍待复评的题目。
// 各阶段相互隔离：一个阶段失败只记录原因，其余阶段照常执行
func (s *ApplicationService) evaluate(ctx context.Context, app *model.Application, a *model.Assessment, job *model.Job, policy config.ScoringPolicy) []string {
	var reasons []string
	failed := map[string]bool{}
	stage := func(name string, fn func(ctx context.Context) error) {
		sctx, span := tracing.StartStage(ctx, name, app.ID)
		err := runIsolated(sctx, fn)
		tracing.EndStage(span, err)
		if err != nil {
			failed[name] = true
			monitoring.FinalizeStageFailures.WithLabelValues(name).Inc()
			logger.Log.Warn("finalize stage failed", zap.String("stage", name), zap.Uint("applicationId", app.ID), zap.Error(err))
			reasons = append(reasons, fmt.Sprintf("%s: %v", name, err))
		}
	}

	stage("regrade", func(ctx context.Context) error {
		return s.regradePending(ctx, app, a, policy)
	})

	var scores scoring.Scores
	stage("scoring", func(context.Context) error {
		scores = scoring.Aggregate(app.Answers, a.Questions, job.Criteria.SkillWeights, a.ScoringPolicy)
		app.TotalScore = scores.TotalScore
		app.WeightedScore = scores.WeightedScore
		app.DetailedScores = scores.Detailed
		return nil
	})
	if len(scores.Ungraded) > 0 {
		reasons = append(reasons, fmt.Sprintf("pending re-evaluation: %s", strings.Join(scores.Ungraded, ", ")))
	}
	for _, ans := range app.Answers {
		if ans.Outcome == model.OutcomeExecutionFailed {
			reasons = append(reasons, fmt.Sprintf("code execution failed for question %s: %s", ans.QuestionID, ans.Evaluation.FailureReason))
		}
	}

	stage("proctoring", func(context.Context) error {
		events, err := s.Events.ListByApplication(app.ID)
		if err != nil {
			return err
		}
		applyProctoring(app, proctoring.Aggregate(proctoring.FromModels(events), policy))
		if app.Proctoring.FlaggedForReview {
			reasons = append(reasons, "proctoring thresholds exceeded")
		}
		return nil
	})

	stage("skill_gap", func(ctx context.Context) error {
		if len(app.ResumeSkills) == 0 && strings.TrimSpace(app.ResumeText) != "" && s.Resume != nil {
			profile, err := s.Resume.ParseResume(ctx, app.ResumeText)
			if err != nil {
				return fmt.Errorf("resume parsing failed: %w", err)
			}
			app.ResumeSkills = profile.Skills
		}
		app.SkillGaps = skillgap.Reconcile(app.ResumeSkills, skillgap.Performance(app.Answers, a.Questions), policy)
		return nil
	})

	stage("recommendation", func(context.Context) error {
		out := recommendation.Recommend(recommendation.Input{
			WeightedScore:       app.WeightedScore,
			CredibilityScore:    app.CredibilityScore,
			SkillGaps:           app.SkillGaps,
			UngradedAnswers:     len(scores.Ungraded),
			// 简历解析失败时缺口列表为空，不能当作"没有缺口"
			SkillGapUnavailable: failed["skill_gap"],
		}, job.Criteria, policy)
		app.AIRecommendation = out.Recommendation
		app.AIReasoning = out.Reasoning
		return nil
	})

	app.NeedsReview = len(reasons) > 0
	app.ReviewReasons = reasons
	return scores.Ungraded
}

// runIsolated 把阶段内的 panic 转成 error
func runIsolated(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// regradePending 对待复评或执行失败的题目重新评分一次
func (s *ApplicationService) regradePending(ctx context.Context, app *model.Application, a *model.Assessment, policy config.ScoringPolicy) error {
	g := s.grader(policy)
	for i, ans := range app.Answers {
		if ans.Outcome == model.OutcomeGraded {
			continue
		}
		q, ok := a.QuestionByID(ans.QuestionID)
		if !ok {
			continue
		}
		res, err := g.Grade(ctx, q, ans.Payload)
		if err != nil {
			return err
		}
		monitoring.GradingOutcomes.WithLabelValues(string(q.Type), string(res.Outcome)).Inc()
		if res.Outcome == model.OutcomeGraded {
			app.Answers[i] = res.Answer(ans.QuestionID, ans.Payload, ans.SubmittedAt)
		}
	}
	return nil
}

// decideStatus 岗位门槛是自动流转的唯一依据，推荐结论仅供参考
func decideStatus(app *model.Application, c model.QualificationCriteria, policy config.ScoringPolicy) model.ApplicationStatus {
	if app.NeedsReview {
		return model.StatusCompleted
	}
	if c.AutoShortlist && app.WeightedScore >= c.MinimumScore &&
		app.CredibilityScore > policy.IntegrityFloor && !skillgap.HasHighSeverity(app.SkillGaps) {
		return model.StatusShortlisted
	}
	if c.AutoReject && app.WeightedScore < c.AutoRejectBelow {
		return model.StatusRejected
	}
	return model.StatusCompleted
}

// afterScoring 重排名、投递复评任务、归档报告，均为尽力而为。
// 状态已落库，调用方断开后仍须完成排名，所以不继承请求的取消信号
func (s *ApplicationService) afterScoring(ctx context.Context, app *model.Application, pending []string, publish bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), afterScoringTimeout)
	defer cancel()
	if s.Ranking != nil {
		standings, err := s.Ranking.Recompute(ctx, app.JobID)
		if err != nil {
			logger.Log.Error("rank recompute failed", zap.Uint("jobId", app.JobID), zap.Error(err))
		}
		for _, st := range standings {
			if st.ApplicationID == app.ID {
				app.Rank = st.Rank
				app.Percentile = st.Percentile
			}
		}
	}

	if publish && len(pending) > 0 && s.Publisher != nil {
		err := s.Publisher.PublishReevaluation(ctx, queue.ReevaluationJob{
			ApplicationID: app.ID,
			JobID:         app.JobID,
			Reason:        strings.Join(pending, ","),
			EnqueuedAt:    s.now(),
		})
		if err != nil {
			logger.Log.Warn("failed to enqueue re-evaluation", zap.Uint("applicationId", app.ID), zap.Error(err))
		}
	}

	if s.Artifacts != nil {
		if err := s.archiveReport(ctx, app); err != nil {
			logger.Log.Warn("failed to archive report", zap.Uint("applicationId", app.ID), zap.Error(err))
		}
	}
}

type OverrideRequest struct {
	Status model.ApplicationStatus `json:"status" binding:"required"`
	Note   string                  `json:"note"`
}

// Override 招聘方人工设定 shortlisted/rejected，任何状态下均可执行且优先于自动结果
func (s *ApplicationService) Override(ctx context.Context, actor *util.Claims, appID uint, req OverrideRequest) (*model.Application, error) {
	if req.Status != model.StatusShortlisted && req.Status != model.StatusRejected {
		return nil, util.ErrInvalidTransition
	}

	release, err := s.Locker.Acquire(ctx, appLockKey(appID))
	if err != nil {
		return nil, err
	}
	defer release()

	app, err := s.loadApp(appID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Jobs.Get(actor, app.JobID); err != nil {
		return nil, err
	}

	var by uint
	if actor != nil {
		by = actor.UserID
	}
	from := app.Status
	app.Status = req.Status
	app.StatusSource = model.SourceManual
	if req.Note != "" {
		app.ReviewReasons = append(app.ReviewReasons, fmt.Sprintf("override by %d: %s", by, req.Note))
	}
	if err := s.Apps.Save(app); err != nil {
		return nil, err
	}

	logger.Log.Info("status overridden",
		zap.Uint("applicationId", app.ID),
		zap.Uint("by", by),
		zap.String("from", string(from)),
		zap.String("to", string(app.Status)))

	if app.CompletedAt != nil && s.Ranking != nil {
		if _, err := s.Ranking.Recompute(ctx, app.JobID); err != nil {
			logger.Log.Error("rank recompute failed", zap.Uint("jobId", app.JobID), zap.Error(err))
		}
	}
	return app, nil
}

// Reevaluate 重新评估已完成的申请（重试待复评题目并重新聚合）。
// 只有状态仍为自动 completed 的申请会重新应用岗位门槛，人工覆盖的结果保持不变
func (s *ApplicationService) Reevaluate(ctx context.Context, actor *util.Claims, appID uint) (*model.Application, error) {
	release, err := s.Locker.Acquire(ctx, appLockKey(appID))
	if err != nil {
		return nil, err
	}
	defer release()

	app, err := s.loadApp(appID)
	if err != nil {
		return nil, err
	}
	job, err := s.Jobs.Get(actor, app.JobID)
	if err != nil {
		return nil, err
	}
	if !app.Status.Finished() {
		return nil, util.ErrInvalidTransition
	}
	a, err := s.loadAssessment(app.AssessmentID)
	if err != nil {
		return nil, err
	}
	policy := s.Policy.Get()

	pending := s.evaluate(ctx, app, a, job, policy)
	if app.StatusSource == model.SourceAuto && app.Status == model.StatusCompleted {
		app.Status = decideStatus(app, job.Criteria, policy)
	}
	if err := s.Apps.Save(app); err != nil {
		return nil, err
	}

	logger.Log.Info("application re-evaluated",
		zap.Uint("applicationId", app.ID),
		zap.Int("stillPending", len(pending)),
		zap.String("status", string(app.Status)))

	// 复评由队列消费者驱动，失败时依赖消息重投，不再重复投递
	s.afterScoring(ctx, app, pending, false)
	return app, nil
}

// HandleReevaluationJob 队列消费者入口
func (s *ApplicationService) HandleReevaluationJob(ctx context.Context, job queue.ReevaluationJob) error {
	app, err := s.Reevaluate(ctx, nil, job.ApplicationID)
	if err != nil {
		if errors.Is(err, util.ErrApplicationNotFound) {
			return nil
		}
		return err
	}
	if n := ungradedCount(app); n > 0 {
		// 返回 error 让消费者 nack，消息重投一次
		return fmt.Errorf("application %d still has %d ungraded answers", app.ID, n)
	}
	return nil
}

func ungradedCount(app *model.Application) int {
	n := 0
	for _, ans := range app.Answers {
		if !ans.Graded() {
			n++
		}
	}
	return n
}

// ReevaluatePending 对标记待复核的申请批量复评，jobID 为 0 表示全部岗位
func (s *ApplicationService) ReevaluatePending(ctx context.Context, jobID uint) (int, error) {
	apps, err := s.Apps.ListNeedsReview(jobID)
	if err != nil {
		return 0, err
	}
	cleared := 0
	for _, app := range apps {
		updated, err := s.Reevaluate(ctx, nil, app.ID)
		if err != nil {
			logger.Log.Warn("re-evaluation failed", zap.Uint("applicationId", app.ID), zap.Error(err))
			continue
		}
		if !updated.NeedsReview {
			cleared++
		}
	}
	return cleared, nil
}

// ExpireOverdueAttempts 后台任务：超过 startedAt + duration 的作答按超时交卷处理
func (s *ApplicationService) ExpireOverdueAttempts(ctx context.Context) (int, error) {
	now := s.now()
	candidates, err := s.Apps.ListInProgressStartedBefore(now)
	if err != nil {
		return 0, err
	}

	assessments := map[uint]*model.Assessment{}
	finalized := 0
	for i := range candidates {
		app := &candidates[i]
		a, ok := assessments[app.AssessmentID]
		if !ok {
			a, err = s.loadAssessment(app.AssessmentID)
			if err != nil {
				logger.Log.Warn("assessment lookup failed", zap.Uint("applicationId", app.ID), zap.Error(err))
				continue
			}
			assessments[app.AssessmentID] = a
		}
		if !expired(app, a, now) {
			continue
		}
		if _, err := s.Finalize(ctx, app.ID, TriggerExpiry); err != nil {
			logger.Log.Error("finalize on expiry failed", zap.Uint("applicationId", app.ID), zap.Error(err))
			continue
		}
		finalized++
	}
	return finalized, nil
}

func (s *ApplicationService) Get(actor *util.Claims, appID uint) (*model.Application, error) {
	app, err := s.loadApp(appID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Jobs.Get(actor, app.JobID); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *ApplicationService) ListByJob(actor *util.Claims, jobID uint, status model.ApplicationStatus, page, limit int) ([]model.Application, int64, error) {
	if _, err := s.Jobs.Get(actor, jobID); err != nil {
		return nil, 0, err
	}
	return s.Apps.ListByJob(jobID, status, page, limit)
}
