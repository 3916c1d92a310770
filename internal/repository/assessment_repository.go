package repository

import (
	"recruit_backend/internal/model"

	"gorm.io/gorm"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

func (r *AssessmentRepository) WithTx(tx *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: tx}
}

func (r *AssessmentRepository) Create(a *model.Assessment) error {
	return r.DB.Create(a).Error
}

func (r *AssessmentRepository) FindByID(id uint) (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.First(&a, id).Error
	return &a, err
}

func (r *AssessmentRepository) FindByJobID(jobID uint) (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.Where("job_id = ?", jobID).First(&a).Error
	return &a, err
}

func (r *AssessmentRepository) FindByLinkToken(token string) (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.Where("link_token = ?", token).First(&a).Error
	return &a, err
}

func (r *AssessmentRepository) Update(a *model.Assessment) error {
	return r.DB.Save(a).Error
}
