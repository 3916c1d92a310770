package model

type ScoringPolicy string

const (
	// ScoreAllQuestions 分母为全部题目满分之和，未作答计 0 分
	ScoreAllQuestions ScoringPolicy = "all_questions"
	// ScoreAnsweredOnly 分母只统计已作答题目
	ScoreAnsweredOnly ScoringPolicy = "answered_only"
)

// swagger:model Assessment
type Assessment struct {
	BaseModel
	JobID         uint          `gorm:"uniqueIndex;not null" json:"jobId"`
	Title         string        `gorm:"size:255;not null" json:"title"`
	Duration      int           `gorm:"default:0" json:"duration"` // Minutes
	PassingScore  float64       `json:"passingScore"`
	LinkToken     string        `gorm:"size:36;uniqueIndex;not null" json:"linkToken"`
	ScoringPolicy ScoringPolicy `gorm:"size:20;default:'all_questions'" json:"scoringPolicy"`
	Questions     []Question    `gorm:"serializer:json;type:text" json:"questions"`
}

func (Assessment) TableName() string {
	return "assessments"
}

func (a *Assessment) QuestionByID(id string) (Question, bool) {
	for _, q := range a.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

func (a *Assessment) PublicQuestions() []PublicQuestion {
	res := make([]PublicQuestion, len(a.Questions))
	for i, q := range a.Questions {
		res[i] = q.Public()
	}
	return res
}
