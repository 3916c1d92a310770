package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"recruit_backend/internal/config"
	"recruit_backend/internal/evaluator"
	"recruit_backend/internal/grading"
	"recruit_backend/internal/model"
	"recruit_backend/internal/ranking"
	"recruit_backend/internal/repository"
	"recruit_backend/internal/util"
	"recruit_backend/pkg/lock"
	"recruit_backend/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeText struct {
	mu    sync.Mutex
	score float64
	err   error
	calls int
	hook  func() // 每次调用时执行
}

func (f *fakeText) EvaluateText(ctx context.Context, q model.Question, answer string) (*grading.TextEvaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.hook != nil {
		f.hook()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &grading.TextEvaluation{Score: f.score, Feedback: "ok", Evaluator: "fake"}, nil
}

func (f *fakeText) set(score float64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.score, f.err = score, err
}

func (f *fakeText) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type failingResume struct{}

func (failingResume) ParseResume(ctx context.Context, resumeText string) (*evaluator.ResumeProfile, error) {
	return nil, errors.New("resume service unavailable")
}

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []queue.ReevaluationJob
}

func (p *recordingPublisher) PublishReevaluation(ctx context.Context, job queue.ReevaluationJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return nil
}

type memArtifacts struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *memArtifacts) SaveArtifact(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[key] = body
	return "/uploads/" + key, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db          *gorm.DB
	jobs        *JobService
	assessments *AssessmentService
	apps        *ApplicationService
	ranking     *RankingService
	text        *fakeText
	publisher   *recordingPublisher
	artifacts   *memArtifacts
	clock       *clock
	recruiter   *util.Claims
	job         *model.Job
	assessment  *model.Assessment
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Job{}, &model.Assessment{}, &model.Application{}, &model.ProctoringEvent{}))
	return db
}

var defaultCriteria = model.QualificationCriteria{
	MinimumScore:    60,
	AutoShortlist:   true,
	AutoReject:      true,
	AutoRejectBelow: 40,
}

func newFixture(t *testing.T, criteria model.QualificationCriteria) *fixture {
	t.Helper()
	db := newTestDB(t)

	appRepo := repository.NewApplicationRepository(db)
	asmRepo := repository.NewAssessmentRepository(db)
	jobs := NewJobService(repository.NewJobRepository(db))
	locker := lock.NewLocalLocker()
	rs := NewRankingService(db, appRepo, locker, nil)

	text := &fakeText{score: 76}
	grader := grading.NewGrader(text, nil, time.Second, time.Second)
	policy := config.NewPolicyStore(config.DefaultScoringPolicy())

	f := &fixture{
		db:        db,
		jobs:      jobs,
		ranking:   rs,
		text:      text,
		publisher: &recordingPublisher{},
		artifacts: &memArtifacts{},
		clock:     &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		recruiter: &util.Claims{UserID: 7, Role: util.RoleRecruiter},
	}
	f.assessments = NewAssessmentService(asmRepo, jobs, appRepo)
	f.apps = NewApplicationService(appRepo, asmRepo, jobs, repository.NewProctoringRepository(db), grader, rs, policy, locker)
	f.apps.Publisher = f.publisher
	f.apps.Artifacts = f.artifacts
	f.apps.Now = f.clock.Now

	job, err := jobs.Create(f.recruiter, JobRequest{Title: "Backend Engineer", Criteria: criteria})
	require.NoError(t, err)
	f.job = job

	a, err := f.assessments.Create(f.recruiter, job.ID, AssessmentRequest{
		Title:    "Backend screening",
		Duration: 30,
		Questions: []model.Question{
			{ID: "essay", Type: model.QuestionSubjective, Prompt: "Describe a rollout plan", Points: 100, Skill: "communication"},
		},
	})
	require.NoError(t, err)
	f.assessment = a
	return f
}

func (f *fixture) start(t *testing.T, email string) *StartResponse {
	t.Helper()
	resp, err := f.apps.Start(context.Background(), f.assessment.LinkToken, StartRequest{
		CandidateName:  email,
		CandidateEmail: email,
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) answer(t *testing.T, s *StartResponse, text string) {
	t.Helper()
	err := f.apps.SubmitAnswer(context.Background(), s.ApplicationID, s.AccessToken, "essay",
		model.AnswerPayload{Kind: model.QuestionSubjective, Text: text})
	require.NoError(t, err)
}

func TestFinalize_AutoShortlist(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	ctx := context.Background()
	s := f.start(t, "ada@example.com")
	f.answer(t, s, "canary, then ramp")

	copyPaste := []ProctoringEventRequest{{EventID: "evt-1", Type: model.EventCopyPaste}}
	n, err := f.apps.RecordProctoringEvents(ctx, s.ApplicationID, s.AccessToken, copyPaste)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	// 客户端重试同一事件
	n, err = f.apps.RecordProctoringEvents(ctx, s.ApplicationID, s.AccessToken, copyPaste)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	res, err := f.apps.Submit(ctx, s.ApplicationID, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.StatusShortlisted, res.Status)
	assert.Equal(t, 76.0, res.TotalScore)

	app, err := f.apps.Get(f.recruiter, s.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, 76.0, app.WeightedScore)
	assert.Equal(t, 95.0, app.CredibilityScore)
	assert.Equal(t, 1, app.Proctoring.CopyPasteEvents)
	assert.Equal(t, model.SourceAuto, app.StatusSource)
	assert.Equal(t, model.Hire, app.AIRecommendation)
	assert.False(t, app.NeedsReview)
	assert.Equal(t, 1, app.Rank)
	assert.Equal(t, 0, app.Percentile)
	assert.Contains(t, f.artifacts.files, fmt.Sprintf("reports/job-%d/application-%d.json", f.job.ID, app.ID))
	assert.Empty(t, f.publisher.jobs)
}

func TestFinalize_IsIdempotent(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	ctx := context.Background()
	s := f.start(t, "grace@example.com")
	f.answer(t, s, "answer")

	first, err := f.apps.Submit(ctx, s.ApplicationID, s.AccessToken)
	require.NoError(t, err)
	calls := f.text.count()

	f.text.set(10, nil)
	f.clock.Advance(time.Minute)
	second, err := f.apps.Submit(ctx, s.ApplicationID, s.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.TotalScore, second.TotalScore)
	assert.True(t, first.CompletedAt.Equal(*second.CompletedAt))
	assert.Equal(t, calls, f.text.count(), "finished applications are not re-scored")

	_, err = f.apps.Finalize(ctx, s.ApplicationID, TriggerExpiry)
	require.NoError(t, err)
}

func TestFinalize_AutoReject(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	f.text.set(25, nil)
	s := f.start(t, "low@example.com")
	f.answer(t, s, "not sure")

	res, err := f.apps.Submit(context.Background(), s.ApplicationID, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, res.Status)
}

func TestFinalize_BetweenThresholdsStaysCompleted(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	f.text.set(50, nil)
	s := f.start(t, "mid@example.com")
	f.answer(t, s, "partial")

	res, err := f.apps.Submit(context.Background(), s.ApplicationID, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, res.Status)
}

func TestFinalize_EvaluatorFailureNeedsReview(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	ctx := context.Background()
	f.text.set(0, errors.New("evaluator timeout"))
	s := f.start(t, "linus@example.com")
	f.answer(t, s, "answer")

	res, err := f.apps.Submit(ctx, s.ApplicationID, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, res.Status, "no auto transition while answers are ungraded")

	app, err := f.apps.Get(f.recruiter, s.ApplicationID)
	require.NoError(t, err)
	assert.True(t, app.NeedsReview)
	assert.Equal(t, model.Maybe, app.AIRecommendation)
	assert.Nil(t, app.Answers[0].Score)
	require.Len(t, f.publisher.jobs, 1)
	assert.Equal(t, app.ID, f.publisher.jobs[0].ApplicationID)

	// 仍然失败时返回 error，消息会被重投
	assert.Error(t, f.apps.HandleReevaluationJob(ctx, f.publisher.jobs[0]))

	f.text.set(76, nil)
	require.NoError(t, f.apps.HandleReevaluationJob(ctx, f.publisher.jobs[0]))

	app, err = f.apps.Get(f.recruiter, s.ApplicationID)
	require.NoError(t, err)
	assert.False(t, app.NeedsReview)
	assert.Equal(t, 76.0, app.WeightedScore)
	assert.Equal(t, model.StatusShortlisted, app.Status)
	assert.Len(t, f.publisher.jobs, 1, "re-evaluation does not enqueue itself again")
}

func TestFinalize_CallerCancelledStillRanks(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	f.text.set(0, errors.New("evaluator timeout"))
	s := f.start(t, "hedy@example.com")
	f.answer(t, s, "answer")

	// 候选人在复评阶段断开连接
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.text.set(90, nil)
	f.text.hook = cancel

	res, err := f.apps.Submit(ctx, s.ApplicationID, s.AccessToken)
	require.NoError(t, err)
	require.Error(t, ctx.Err())
	assert.Equal(t, model.StatusShortlisted, res.Status)

	app, err := f.apps.Get(f.recruiter, s.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, 1, app.Rank)
	assert.Contains(t, f.artifacts.files, fmt.Sprintf("reports/job-%d/application-%d.json", f.job.ID, app.ID))

	board, err := f.ranking.Leaderboard(context.Background(), f.job.ID)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, app.ID, board[0].ApplicationID)
}

func TestFinalize_ResumeParseFailureDowngradesRecommendation(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	f.apps.Resume = failingResume{}
	f.text.set(95, nil)

	resp, err := f.apps.Start(context.Background(), f.assessment.LinkToken, StartRequest{
		CandidateName:  "Barbara",
		CandidateEmail: "barbara@example.com",
		ResumeText:     "Go, Kubernetes, PostgreSQL",
	})
	require.NoError(t, err)
	f.answer(t, resp, "blue/green with automated rollback")

	res, err := f.apps.Submit(context.Background(), resp.ApplicationID, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, res.Status)

	app, err := f.apps.Get(f.recruiter, resp.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, 95.0, app.WeightedScore)
	assert.Equal(t, model.Maybe, app.AIRecommendation)
	assert.Contains(t, app.AIReasoning, "skill gaps are unknown")
	assert.NotContains(t, app.AIReasoning, "no major skill gaps")
	assert.True(t, app.NeedsReview)
	require.NotEmpty(t, app.ReviewReasons)
	assert.Contains(t, app.ReviewReasons[0], "resume parsing failed")
}

func TestFinalize_CredibilityAtFloorIsNotShortlisted(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	ctx := context.Background()
	s := f.start(t, "floor@example.com")
	f.answer(t, s, "answer")

	// high 20 + medium 10，信誉分正好等于下限 70
	_, err := f.apps.RecordProctoringEvents(ctx, s.ApplicationID, s.AccessToken, []ProctoringEventRequest{
		{EventID: "s-1", Type: model.EventSuspicious, Severity: model.SeverityLevelHigh},
		{EventID: "s-2", Type: model.EventSuspicious, Severity: model.SeverityLevelMedium},
	})
	require.NoError(t, err)

	res, err := f.apps.Submit(ctx, s.ApplicationID, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, res.Status)

	app, err := f.apps.Get(f.recruiter, s.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, 70.0, app.CredibilityScore)
	assert.False(t, app.NeedsReview)
	assert.Equal(t, model.Maybe, app.AIRecommendation)
}

func TestStart_DuplicateAndResume(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	ctx := context.Background()
	s := f.start(t, "Ada@Example.com")

	_, err := f.apps.Start(ctx, f.assessment.LinkToken, StartRequest{CandidateName: "Ada", CandidateEmail: "ada@example.com"})
	assert.ErrorIs(t, err, util.ErrDuplicateApplication)

	_, err = f.apps.Start(ctx, f.assessment.LinkToken, StartRequest{CandidateName: "Ada", CandidateEmail: "ada@example.com", AccessToken: "wrong"})
	assert.ErrorIs(t, err, util.ErrInvalidAccessToken)

	f.clock.Advance(10 * time.Minute)
	resumed, err := f.apps.Start(ctx, f.assessment.LinkToken, StartRequest{CandidateName: "Ada", CandidateEmail: "ada@example.com", AccessToken: s.AccessToken})
	require.NoError(t, err)
	assert.True(t, resumed.Resumed)
	assert.True(t, s.StartedAt.Equal(resumed.StartedAt), "resuming must not reset the timer")
	require.NotNil(t, resumed.Deadline)
	assert.True(t, resumed.Deadline.Equal(s.StartedAt.Add(30*time.Minute)))
}

func TestStart_UnknownLink(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	_, err := f.apps.Start(context.Background(), "missing", StartRequest{CandidateName: "x", CandidateEmail: "x@example.com"})
	assert.ErrorIs(t, err, util.ErrAssessmentNotFound)
}

func TestInvite_ThenStart(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	ctx := context.Background()

	inv, err := f.apps.Invite(f.recruiter, f.job.ID, InviteRequest{CandidateName: "Barbara", CandidateEmail: "barbara@example.com"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, inv.Application.Status)
	assert.Equal(t, f.assessment.LinkToken, inv.LinkToken)

	_, err = f.apps.Invite(f.recruiter, f.job.ID, InviteRequest{CandidateName: "Barbara", CandidateEmail: "barbara@example.com"})
	assert.ErrorIs(t, err, util.ErrDuplicateApplication)

	// pending 申请不能交卷
	_, err = f.apps.Submit(ctx, inv.Application.ID, inv.AccessToken)
	assert.ErrorIs(t, err, util.ErrNotInProgress)

	s, err := f.apps.Start(ctx, f.assessment.LinkToken, StartRequest{
		CandidateName:  "Barbara",
		CandidateEmail: "barbara@example.com",
		AccessToken:    inv.AccessToken,
		ResumeSkills:   []string{"Communication"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, s.Status)
	assert.False(t, s.Resumed)

	f.text.set(30, nil)
	f.answer(t, s, "short")
	_, err = f.apps.Submit(ctx, s.ApplicationID, s.AccessToken)
	require.NoError(t, err)

	app, err := f.apps.Get(f.recruiter, s.ApplicationID)
	require.NoError(t, err)
	require.NotEmpty(t, app.SkillGaps)
	assert.Equal(t, model.SeverityHigh, app.SkillGaps[0].Severity)
	assert.Equal(t, model.StatusRejected, app.Status)
}

func TestInvite_OtherRecruiterDenied(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	other := &util.Claims{UserID: 99, Role: util.RoleRecruiter}
	_, err := f.apps.Invite(other, f.job.ID, InviteRequest{CandidateName: "x", CandidateEmail: "x@example.com"})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestSubmitAnswer_Validation(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	ctx := context.Background()
	s := f.start(t, "val@example.com")

	err := f.apps.SubmitAnswer(ctx, s.ApplicationID, s.AccessToken, "nope", model.AnswerPayload{Kind: model.QuestionSubjective})
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)

	choice := 1
	err = f.apps.SubmitAnswer(ctx, s.ApplicationID, s.AccessToken, "essay", model.AnswerPayload{Kind: model.QuestionObjective, Choice: &choice})
	assert.ErrorIs(t, err, util.ErrInvalidAnswer)

	err = f.apps.SubmitAnswer(ctx, s.ApplicationID, "bad-token", "essay", model.AnswerPayload{Kind: model.QuestionSubjective, Text: "x"})
	assert.ErrorIs(t, err, util.ErrInvalidAccessToken)
}

func TestSubmitAnswer_ResubmissionOverwrites(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	s := f.start(t, "again@example.com")

	f.text.set(20, nil)
	f.answer(t, s, "first")
	f.clock.Advance(time.Minute)
	f.text.set(90, nil)
	f.answer(t, s, "second")

	app, err := f.apps.Get(f.recruiter, s.ApplicationID)
	require.NoError(t, err)
	require.Len(t, app.Answers, 1)
	assert.Equal(t, "second", app.Answers[0].Payload.Text)
	assert.Equal(t, 90.0, *app.Answers[0].Score)
}

func TestSubmitAnswer_AfterDeadlineFinalizes(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	ctx := context.Background()
	s := f.start(t, "late@example.com")
	f.answer(t, s, "in time")

	f.clock.Advance(31 * time.Minute)
	err := f.apps.SubmitAnswer(ctx, s.ApplicationID, s.AccessToken, "essay", model.AnswerPayload{Kind: model.QuestionSubjective, Text: "too late"})
	assert.ErrorIs(t, err, util.ErrAttemptExpired)

	app, err := f.apps.Get(f.recruiter, s.ApplicationID)
	require.NoError(t, err)
	assert.True(t, app.Status.Finished())
	assert.Equal(t, "in time", app.Answers[0].Payload.Text)

	_, err = f.apps.RecordProctoringEvents(ctx, s.ApplicationID, s.AccessToken, []ProctoringEventRequest{{EventID: "e", Type: model.EventTabSwitch}})
	assert.ErrorIs(t, err, util.ErrNotInProgress)
}

func TestExpireOverdueAttempts(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	ctx := context.Background()
	early := f.start(t, "early@example.com")
	f.clock.Advance(20 * time.Minute)
	later := f.start(t, "later@example.com")

	f.clock.Advance(15 * time.Minute)
	n, err := f.apps.ExpireOverdueAttempts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	app, err := f.apps.Get(f.recruiter, early.ApplicationID)
	require.NoError(t, err)
	assert.True(t, app.Status.Finished())
	// 没有作答，0 分
	assert.Equal(t, model.StatusRejected, app.Status)

	app, err = f.apps.Get(f.recruiter, later.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, app.Status)
}

func TestRecordProctoringEvents_InvalidType(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	s := f.start(t, "evt@example.com")
	_, err := f.apps.RecordProctoringEvents(context.Background(), s.ApplicationID, s.AccessToken,
		[]ProctoringEventRequest{{EventID: "x", Type: "screenshot"}})
	assert.ErrorIs(t, err, util.ErrInvalidEvent)
}

func TestRanking_TieBreakByCompletion(t *testing.T) {
	f := newFixture(t, model.QualificationCriteria{MinimumScore: 60})
	ctx := context.Background()

	submit := func(email string, score float64) uint {
		f.text.set(score, nil)
		s := f.start(t, email)
		f.answer(t, s, "answer")
		f.clock.Advance(time.Minute)
		_, err := f.apps.Submit(ctx, s.ApplicationID, s.AccessToken)
		require.NoError(t, err)
		return s.ApplicationID
	}
	first := submit("first@example.com", 80)
	low := submit("low@example.com", 60)
	second := submit("second@example.com", 80)

	board, err := f.ranking.Leaderboard(ctx, f.job.ID)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, []uint{first, second, low}, []uint{board[0].ApplicationID, board[1].ApplicationID, board[2].ApplicationID})
	assert.Equal(t, []int{1, 2, 3}, []int{board[0].Rank, board[1].Rank, board[2].Rank})
	assert.Equal(t, 33, board[0].Percentile)
	assert.Equal(t, 33, board[1].Percentile)
	assert.Equal(t, 0, board[2].Percentile)

	app, err := f.apps.Get(f.recruiter, low)
	require.NoError(t, err)
	assert.Equal(t, 3, app.Rank)
}

func TestRanking_ConcurrentSubmits(t *testing.T) {
	f := newFixture(t, model.QualificationCriteria{MinimumScore: 60})
	const n = 8

	started := make([]*StartResponse, n)
	for i := 0; i < n; i++ {
		f.text.set(float64(50+i*5), nil)
		started[i] = f.start(t, fmt.Sprintf("c%d@example.com", i))
		f.answer(t, started[i], "answer")
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i, s := range started {
		wg.Add(1)
		go func(i int, s *StartResponse) {
			defer wg.Done()
			_, errs[i] = f.apps.Submit(context.Background(), s.ApplicationID, s.AccessToken)
		}(i, s)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	board, err := f.ranking.Leaderboard(context.Background(), f.job.ID)
	require.NoError(t, err)
	require.Len(t, board, n)

	pool, err := f.apps.Apps.ListRankingPool(f.job.ID)
	require.NoError(t, err)
	want := map[uint]int{}
	for _, st := range ranking.Rank(ranking.EntriesFromApplications(pool)) {
		want[st.ApplicationID] = st.Rank
	}

	seen := map[int]bool{}
	for _, s := range started {
		app, err := f.apps.Get(f.recruiter, s.ApplicationID)
		require.NoError(t, err)
		assert.Equal(t, want[app.ID], app.Rank, "application %d", app.ID)
		seen[app.Rank] = true
	}
	for r := 1; r <= n; r++ {
		assert.True(t, seen[r], "rank %d missing", r)
	}
	// 分数最高的排第一
	assert.Equal(t, started[n-1].ApplicationID, board[0].ApplicationID)
}

func TestOverride_WinsOverReevaluation(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	ctx := context.Background()
	f.text.set(20, nil)
	s := f.start(t, "override@example.com")
	f.answer(t, s, "weak")
	res, err := f.apps.Submit(ctx, s.ApplicationID, s.AccessToken)
	require.NoError(t, err)
	require.Equal(t, model.StatusRejected, res.Status)

	_, err = f.apps.Override(ctx, f.recruiter, s.ApplicationID, OverrideRequest{Status: model.StatusCompleted})
	assert.ErrorIs(t, err, util.ErrInvalidTransition)

	app, err := f.apps.Override(ctx, f.recruiter, s.ApplicationID, OverrideRequest{Status: model.StatusShortlisted, Note: "strong interview"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusShortlisted, app.Status)
	assert.Equal(t, model.SourceManual, app.StatusSource)

	app, err = f.apps.Reevaluate(ctx, f.recruiter, s.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusShortlisted, app.Status)
}

func TestReevaluate_RequiresFinishedApplication(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	s := f.start(t, "early-re@example.com")
	_, err := f.apps.Reevaluate(context.Background(), f.recruiter, s.ApplicationID)
	assert.ErrorIs(t, err, util.ErrInvalidTransition)
}

func TestReport(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	ctx := context.Background()
	s := f.start(t, "report@example.com")
	f.answer(t, s, "answer")
	_, err := f.apps.RecordProctoringEvents(ctx, s.ApplicationID, s.AccessToken,
		[]ProctoringEventRequest{{EventID: "t1", Type: model.EventTabSwitch}})
	require.NoError(t, err)
	_, err = f.apps.Submit(ctx, s.ApplicationID, s.AccessToken)
	require.NoError(t, err)

	report, err := f.apps.Report(f.recruiter, s.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", report.JobTitle)
	assert.Len(t, report.ProctoringEvents, 1)
	assert.Empty(t, report.PendingReevaluation)
	assert.Len(t, report.Questions, 1)
}

func TestAssessmentUpdate_LockedOnceStarted(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	duration := 45
	_, err := f.assessments.Update(f.recruiter, f.assessment.ID, AssessmentUpdateRequest{Duration: &duration})
	require.NoError(t, err)

	f.start(t, "lock@example.com")

	_, err = f.assessments.Update(f.recruiter, f.assessment.ID, AssessmentUpdateRequest{Duration: &duration})
	assert.ErrorIs(t, err, util.ErrAssessmentLocked)

	title := "Renamed"
	a, err := f.assessments.Update(f.recruiter, f.assessment.ID, AssessmentUpdateRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", a.Title)
}

func TestJobService_ValidateCriteria(t *testing.T) {
	assert.NoError(t, ValidateCriteria(defaultCriteria))
	assert.ErrorIs(t, ValidateCriteria(model.QualificationCriteria{MinimumScore: 120}), util.ErrInvalidCriteria)
	assert.ErrorIs(t, ValidateCriteria(model.QualificationCriteria{MinimumScore: 50, AutoRejectBelow: 60}), util.ErrInvalidCriteria)
	assert.ErrorIs(t, ValidateCriteria(model.QualificationCriteria{SkillWeights: model.SkillWeights{Coding: -1}}), util.ErrInvalidCriteria)
}

func TestClosedJobBlocksNewStarts(t *testing.T) {
	f := newFixture(t, defaultCriteria)
	require.NoError(t, f.jobs.Close(f.recruiter, f.job.ID))
	_, err := f.apps.Start(context.Background(), f.assessment.LinkToken, StartRequest{CandidateName: "x", CandidateEmail: "x@example.com"})
	assert.ErrorIs(t, err, util.ErrJobClosed)
}
