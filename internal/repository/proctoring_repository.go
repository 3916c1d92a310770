package repository

import (
	"recruit_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProctoringRepository struct {
	DB *gorm.DB
}

func NewProctoringRepository(db *gorm.DB) *ProctoringRepository {
	return &ProctoringRepository{DB: db}
}

// InsertEvents 按 (application_id, event_id) 去重插入，返回实际新增的事件
func (r *ProctoringRepository) InsertEvents(events []model.ProctoringEvent) ([]model.ProctoringEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}
	var inserted []model.ProctoringEvent
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		for i := range events {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "application_id"}, {Name: "event_id"}},
				DoNothing: true,
			}).Create(&events[i])
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				inserted = append(inserted, events[i])
			}
		}
		return nil
	})
	return inserted, err
}

func (r *ProctoringRepository) ListByApplication(applicationID uint) ([]model.ProctoringEvent, error) {
	var events []model.ProctoringEvent
	err := r.DB.Where("application_id = ?", applicationID).Order("occurred_at asc, id asc").Find(&events).Error
	return events, err
}
