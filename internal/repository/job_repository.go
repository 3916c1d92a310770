package repository

import (
	"recruit_backend/internal/model"

	"gorm.io/gorm"
)

type JobRepository struct {
	DB *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{DB: db}
}

func (r *JobRepository) WithTx(tx *gorm.DB) *JobRepository {
	return &JobRepository{DB: tx}
}

func (r *JobRepository) Create(job *model.Job) error {
	return r.DB.Create(job).Error
}

func (r *JobRepository) FindByID(id uint) (*model.Job, error) {
	var job model.Job
	err := r.DB.First(&job, id).Error
	return &job, err
}

// List recruiterID 为 0 时不按招聘方过滤（管理员）
func (r *JobRepository) List(recruiterID uint, status model.JobStatus, page, limit int) ([]model.Job, int64, error) {
	var jobs []model.Job
	var total int64
	query := r.DB.Model(&model.Job{})
	if recruiterID > 0 {
		query = query.Where("recruiter_id = ?", recruiterID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&jobs).Error
	return jobs, total, err
}

func (r *JobRepository) Update(job *model.Job) error {
	return r.DB.Save(job).Error
}

func (r *JobRepository) UpdateStatus(id uint, status model.JobStatus) error {
	return r.DB.Model(&model.Job{}).Where("id = ?", id).Update("status", status).Error
}
