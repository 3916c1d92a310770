package repository

import (
	"time"

	"recruit_backend/internal/model"
	"recruit_backend/internal/ranking"

	"gorm.io/gorm"
)

type ApplicationRepository struct {
	DB *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{DB: db}
}

func (r *ApplicationRepository) WithTx(tx *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{DB: tx}
}

// Create 违反 (job_id, candidate_email) 唯一约束时返回 gorm.ErrDuplicatedKey（需开启 TranslateError）
func (r *ApplicationRepository) Create(app *model.Application) error {
	return r.DB.Create(app).Error
}

func (r *ApplicationRepository) FindByID(id uint) (*model.Application, error) {
	var app model.Application
	err := r.DB.First(&app, id).Error
	return &app, err
}

func (r *ApplicationRepository) FindByJobAndEmail(jobID uint, email string) (*model.Application, error) {
	var app model.Application
	err := r.DB.Where("job_id = ? AND candidate_email = ?", jobID, email).First(&app).Error
	return &app, err
}

func (r *ApplicationRepository) ListByJob(jobID uint, status model.ApplicationStatus, page, limit int) ([]model.Application, int64, error) {
	var apps []model.Application
	var total int64
	query := r.DB.Model(&model.Application{}).Where("job_id = ?", jobID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&apps).Error
	return apps, total, err
}

// ListRankingPool 排名池：已完成作答（completed 及之后）且有完成时间的申请
func (r *ApplicationRepository) ListRankingPool(jobID uint) ([]model.Application, error) {
	var apps []model.Application
	err := r.DB.Where("job_id = ? AND completed_at IS NOT NULL AND status IN ?", jobID,
		[]model.ApplicationStatus{model.StatusCompleted, model.StatusShortlisted, model.StatusRejected}).
		Order("id asc").
		Find(&apps).Error
	return apps, err
}

// UpdateRanks 整池重写 rank/percentile，调用方负责事务与串行化
func (r *ApplicationRepository) UpdateRanks(standings []ranking.Standing) error {
	for _, s := range standings {
		err := r.DB.Model(&model.Application{}).
			Where("id = ?", s.ApplicationID).
			UpdateColumns(map[string]interface{}{
				"pool_rank":  s.Rank,
				"percentile": s.Percentile,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// TransitionStatus 条件更新，返回是否真正发生了状态变化
func (r *ApplicationRepository) TransitionStatus(id uint, from []model.ApplicationStatus, to model.ApplicationStatus, source model.StatusSource, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":        to,
		"status_source": source,
	}
	for k, v := range extra {
		updates[k] = v
	}
	res := r.DB.Model(&model.Application{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// UpdateAnswersIfInProgress 只在作答中时写入答案
func (r *ApplicationRepository) UpdateAnswersIfInProgress(app *model.Application) (bool, error) {
	res := r.DB.Model(app).
		Where("status = ?", model.StatusInProgress).
		Select("answers").
		Updates(app)
	return res.RowsAffected > 0, res.Error
}

func (r *ApplicationRepository) UpdateResume(app *model.Application) error {
	return r.DB.Model(app).
		Select("resume_text", "resume_skills").
		Updates(app).Error
}

func (r *ApplicationRepository) UpdateProctoring(app *model.Application) error {
	return r.DB.Model(app).
		Select("proctoring", "credibility_score").
		Updates(app).Error
}

// SaveIfStatus 以 expected 状态为条件写回整行，用于 finalize 的 compare-and-set
func (r *ApplicationRepository) SaveIfStatus(app *model.Application, expected model.ApplicationStatus) (bool, error) {
	res := r.DB.Model(app).
		Where("status = ?", expected).
		Select("*").
		Omit("id", "created_at", "deleted_at").
		Updates(app)
	return res.RowsAffected > 0, res.Error
}

func (r *ApplicationRepository) Save(app *model.Application) error {
	return r.DB.Save(app).Error
}

// CountStartedByAssessment 已开始作答（非 pending）的申请数，用于锁定题目
func (r *ApplicationRepository) CountStartedByAssessment(assessmentID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Application{}).
		Where("assessment_id = ? AND status <> ?", assessmentID, model.StatusPending).
		Count(&count).Error
	return count, err
}

// ListInProgressStartedBefore 超时扫描的候选集，精确截止时间在 service 中按 assessment.duration 判断
func (r *ApplicationRepository) ListInProgressStartedBefore(t time.Time) ([]model.Application, error) {
	var apps []model.Application
	err := r.DB.Where("status = ? AND started_at IS NOT NULL AND started_at < ?", model.StatusInProgress, t).
		Find(&apps).Error
	return apps, err
}

func (r *ApplicationRepository) ListNeedsReview(jobID uint) ([]model.Application, error) {
	var apps []model.Application
	query := r.DB.Where("needs_review = ?", true)
	if jobID > 0 {
		query = query.Where("job_id = ?", jobID)
	}
	err := query.Order("id asc").Find(&apps).Error
	return apps, err
}
