package service

import (
	"errors"
	"fmt"
	"strings"

	"recruit_backend/internal/model"
	"recruit_backend/internal/repository"
	"recruit_backend/internal/util"

	"gorm.io/gorm"
)

type JobService struct {
	Repo *repository.JobRepository
}

func NewJobService(repo *repository.JobRepository) *JobService {
	return &JobService{Repo: repo}
}

type JobRequest struct {
	Title       string                      `json:"title" binding:"required"`
	Description string                      `json:"description"`
	Criteria    model.QualificationCriteria `json:"qualificationCriteria"`
}

// ValidateCriteria 录用门槛的基本合法性检查
func ValidateCriteria(c model.QualificationCriteria) error {
	if c.MinimumScore < 0 || c.MinimumScore > 100 {
		return fmt.Errorf("%w: minimumScore must be within 0-100", util.ErrInvalidCriteria)
	}
	if c.AutoRejectBelow < 0 || c.AutoRejectBelow > c.MinimumScore {
		return fmt.Errorf("%w: autoRejectBelow must be within 0 and minimumScore", util.ErrInvalidCriteria)
	}
	w := c.SkillWeights
	if w.Technical < 0 || w.ProblemSolving < 0 || w.Communication < 0 || w.Coding < 0 {
		return fmt.Errorf("%w: skill weights must not be negative", util.ErrInvalidCriteria)
	}
	return nil
}

func (s *JobService) Create(actor *util.Claims, req JobRequest) (*model.Job, error) {
	if err := ValidateCriteria(req.Criteria); err != nil {
		return nil, err
	}
	job := &model.Job{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      model.JobOpen,
		RecruiterID: actor.UserID,
		Criteria:    req.Criteria,
	}
	if err := s.Repo.Create(job); err != nil {
		return nil, err
	}
	return job, nil
}

// Get 只返回当前招聘方自己的岗位，管理员不受限
func (s *JobService) Get(actor *util.Claims, id uint) (*model.Job, error) {
	job, err := s.Repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrJobNotFound
		}
		return nil, err
	}
	if actor != nil && actor.Role != util.RoleAdmin && job.RecruiterID != actor.UserID {
		return nil, util.ErrPermissionDenied
	}
	return job, nil
}

func (s *JobService) List(actor *util.Claims, status model.JobStatus, page, limit int) ([]model.Job, int64, error) {
	recruiterID := actor.UserID
	if actor.Role == util.RoleAdmin {
		recruiterID = 0
	}
	return s.Repo.List(recruiterID, status, page, limit)
}

func (s *JobService) Update(actor *util.Claims, id uint, req JobRequest) (*model.Job, error) {
	job, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateCriteria(req.Criteria); err != nil {
		return nil, err
	}
	job.Title = strings.TrimSpace(req.Title)
	job.Description = req.Description
	job.Criteria = req.Criteria
	if err := s.Repo.Update(job); err != nil {
		return nil, err
	}
	return job, nil
}

// UpdateCriteria 新门槛只影响之后的聚合与自动流转，已完成的申请不回溯
func (s *JobService) UpdateCriteria(actor *util.Claims, id uint, criteria model.QualificationCriteria) (*model.Job, error) {
	job, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateCriteria(criteria); err != nil {
		return nil, err
	}
	job.Criteria = criteria
	if err := s.Repo.Update(job); err != nil {
		return nil, err
	}
	return job, nil
}

// Close 软关闭，岗位与申请记录保留
func (s *JobService) Close(actor *util.Claims, id uint) error {
	if _, err := s.Get(actor, id); err != nil {
		return err
	}
	return s.Repo.UpdateStatus(id, model.JobClosed)
}
