package service

import (
	"errors"
	"fmt"

	"recruit_backend/internal/model"
	"recruit_backend/internal/repository"
	"recruit_backend/internal/util"

	"gorm.io/gorm"
)

type AssessmentService struct {
	Repo *repository.AssessmentRepository
	Jobs *JobService
	Apps *repository.ApplicationRepository
}

func NewAssessmentService(repo *repository.AssessmentRepository, jobs *JobService, apps *repository.ApplicationRepository) *AssessmentService {
	return &AssessmentService{Repo: repo, Jobs: jobs, Apps: apps}
}

type AssessmentRequest struct {
	Title         string              `json:"title" binding:"required"`
	Duration      int                 `json:"duration"` // 分钟，0 表示不限时
	PassingScore  float64             `json:"passingScore"`
	ScoringPolicy model.ScoringPolicy `json:"scoringPolicy"`
	Questions     []model.Question    `json:"questions" binding:"required,min=1"`
}

// ValidateQuestions 校验题目定义并为缺省 id 的题目生成 id
func ValidateQuestions(questions []model.Question) error {
	seen := make(map[string]bool, len(questions))
	for i := range questions {
		q := &questions[i]
		if q.ID == "" {
			q.ID = model.GenerateUUID()
		}
		if seen[q.ID] {
			return fmt.Errorf("%w: duplicate question id %q", util.ErrInvalidQuestion, q.ID)
		}
		seen[q.ID] = true

		if !q.Type.Valid() {
			return fmt.Errorf("%w: question %q has unknown type %q", util.ErrInvalidQuestion, q.ID, q.Type)
		}
		if q.Points <= 0 {
			return fmt.Errorf("%w: question %q must have positive points", util.ErrInvalidQuestion, q.ID)
		}
		if q.Category != "" && !q.Category.Valid() {
			return fmt.Errorf("%w: question %q has unknown category %q", util.ErrInvalidQuestion, q.ID, q.Category)
		}
		switch q.Type {
		case model.QuestionObjective:
			if len(q.Options) < 2 || q.CorrectIndex == nil || *q.CorrectIndex < 0 || *q.CorrectIndex >= len(q.Options) {
				return fmt.Errorf("%w: objective question %q needs options and a valid correctIndex", util.ErrInvalidQuestion, q.ID)
			}
		case model.QuestionCoding:
			if len(q.TestCases) == 0 || q.LanguageID <= 0 {
				return fmt.Errorf("%w: coding question %q needs test cases and a languageId", util.ErrInvalidQuestion, q.ID)
			}
		}
	}
	return nil
}

func (s *AssessmentService) Create(actor *util.Claims, jobID uint, req AssessmentRequest) (*model.Assessment, error) {
	job, err := s.Jobs.Get(actor, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == model.JobClosed {
		return nil, util.ErrJobClosed
	}
	if _, err := s.Repo.FindByJobID(jobID); err == nil {
		return nil, util.ErrAssessmentExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := ValidateQuestions(req.Questions); err != nil {
		return nil, err
	}

	policy := req.ScoringPolicy
	if policy == "" {
		policy = model.ScoreAllQuestions
	}
	if policy != model.ScoreAllQuestions && policy != model.ScoreAnsweredOnly {
		return nil, fmt.Errorf("%w: unknown scoring policy %q", util.ErrInvalidQuestion, policy)
	}

	a := &model.Assessment{
		JobID:         jobID,
		Title:         req.Title,
		Duration:      req.Duration,
		PassingScore:  req.PassingScore,
		LinkToken:     model.GenerateUUID(),
		ScoringPolicy: policy,
		Questions:     req.Questions,
	}
	if err := s.Repo.Create(a); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrAssessmentExists
		}
		return nil, err
	}
	return a, nil
}

// AssessmentUpdateRequest 未提供的字段保持不变
type AssessmentUpdateRequest struct {
	Title         *string              `json:"title"`
	Duration      *int                 `json:"duration"`
	PassingScore  *float64             `json:"passingScore"`
	ScoringPolicy *model.ScoringPolicy `json:"scoringPolicy"`
	Questions     []model.Question     `json:"questions"`
}

func (r AssessmentUpdateRequest) changesScoring() bool {
	return r.Duration != nil || r.PassingScore != nil || r.ScoringPolicy != nil || r.Questions != nil
}

// Update 一旦有候选人开始作答，题目、时长与计分策略即被锁定，只允许修改标题
func (s *AssessmentService) Update(actor *util.Claims, id uint, req AssessmentUpdateRequest) (*model.Assessment, error) {
	a, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.Jobs.Get(actor, a.JobID); err != nil {
		return nil, err
	}

	if req.changesScoring() {
		started, err := s.Apps.CountStartedByAssessment(a.ID)
		if err != nil {
			return nil, err
		}
		if started > 0 {
			return nil, util.ErrAssessmentLocked
		}
	}

	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Duration != nil {
		a.Duration = *req.Duration
	}
	if req.PassingScore != nil {
		a.PassingScore = *req.PassingScore
	}
	if req.ScoringPolicy != nil {
		if *req.ScoringPolicy != model.ScoreAllQuestions && *req.ScoringPolicy != model.ScoreAnsweredOnly {
			return nil, fmt.Errorf("%w: unknown scoring policy %q", util.ErrInvalidQuestion, *req.ScoringPolicy)
		}
		a.ScoringPolicy = *req.ScoringPolicy
	}
	if req.Questions != nil {
		if len(req.Questions) == 0 {
			return nil, fmt.Errorf("%w: assessment needs at least one question", util.ErrInvalidQuestion)
		}
		if err := ValidateQuestions(req.Questions); err != nil {
			return nil, err
		}
		a.Questions = req.Questions
	}
	if err := s.Repo.Update(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AssessmentService) GetForRecruiter(actor *util.Claims, id uint) (*model.Assessment, error) {
	a, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.Jobs.Get(actor, a.JobID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AssessmentService) GetByJob(actor *util.Claims, jobID uint) (*model.Assessment, error) {
	if _, err := s.Jobs.Get(actor, jobID); err != nil {
		return nil, err
	}
	a, err := s.Repo.FindByJobID(jobID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAssessmentNotFound
	}
	return a, err
}

func (s *AssessmentService) get(id uint) (*model.Assessment, error) {
	a, err := s.Repo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAssessmentNotFound
	}
	return a, err
}
