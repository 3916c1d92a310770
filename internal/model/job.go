package model

type JobStatus string

const (
	JobOpen   JobStatus = "open"
	JobClosed JobStatus = "closed"
)

// SkillWeights 各能力维度在加权总分中的权重，约定总和为 100
type SkillWeights struct {
	Technical      float64 `json:"technical"`
	ProblemSolving float64 `json:"problemSolving"`
	Communication  float64 `json:"communication"`
	Coding         float64 `json:"coding"`
}

// QualificationCriteria 岗位录用门槛
type QualificationCriteria struct {
	MinimumScore    float64      `json:"minimumScore"`
	AutoShortlist   bool         `json:"autoShortlist"`
	AutoReject      bool         `json:"autoReject"`
	AutoRejectBelow float64      `json:"autoRejectBelow"`
	SkillWeights    SkillWeights `gorm:"serializer:json;type:text" json:"skillWeights"`
}

// swagger:model Job
type Job struct {
	BaseModel
	Title       string                `gorm:"size:255;not null" json:"title"`
	Description string                `gorm:"type:text" json:"description"`
	Status      JobStatus             `gorm:"size:20;default:'open';index" json:"status"`
	RecruiterID uint                  `gorm:"index" json:"recruiterId"`
	Criteria    QualificationCriteria `gorm:"embedded;embeddedPrefix:criteria_" json:"qualificationCriteria"`
}

func (Job) TableName() string {
	return "jobs"
}
