package model

import (
	"time"

	"gorm.io/datatypes"
)

type ProctoringEventType string

const (
	EventTabSwitch  ProctoringEventType = "tab_switch"
	EventCopyPaste  ProctoringEventType = "copy_paste"
	EventSuspicious ProctoringEventType = "suspicious"
)

func (t ProctoringEventType) Valid() bool {
	switch t {
	case EventTabSwitch, EventCopyPaste, EventSuspicious:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLevelLow    Severity = "low"
	SeverityLevelMedium Severity = "medium"
	SeverityLevelHigh   Severity = "high"
)

// ProctoringEvent 监考遥测事件，(application_id, event_id) 唯一，客户端重试不会重复扣分
type ProctoringEvent struct {
	BaseModel
	ApplicationID uint                `gorm:"uniqueIndex:idx_application_event;not null" json:"applicationId"`
	EventID       string              `gorm:"uniqueIndex:idx_application_event;size:64;not null" json:"eventId"`
	Type          ProctoringEventType `gorm:"size:20;not null" json:"type"`
	Severity      Severity            `gorm:"size:10" json:"severity,omitempty"`
	OccurredAt    time.Time           `json:"occurredAt"`
	Metadata      datatypes.JSONMap   `gorm:"type:text" json:"metadata,omitempty"`
}

func (ProctoringEvent) TableName() string {
	return "proctoring_events"
}
