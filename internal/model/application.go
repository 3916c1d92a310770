package model

import "time"

type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusInProgress  ApplicationStatus = "in-progress"
	StatusCompleted   ApplicationStatus = "completed"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusRejected    ApplicationStatus = "rejected"
)

// Finished 表示已完成作答（completed 及之后的状态）
func (s ApplicationStatus) Finished() bool {
	return s == StatusCompleted || s == StatusShortlisted || s == StatusRejected
}

type StatusSource string

const (
	SourceAuto   StatusSource = "auto"
	SourceManual StatusSource = "manual"
)

type Recommendation string

const (
	StrongHire Recommendation = "strong-hire"
	Hire       Recommendation = "hire"
	Maybe      Recommendation = "maybe"
	NoHire     Recommendation = "no-hire"
)

// AnswerPayload 按题型打标签的作答内容
type AnswerPayload struct {
	Kind       QuestionType `json:"kind"`
	Choice     *int         `json:"choice,omitempty"`
	Text       string       `json:"text,omitempty"`
	Code       string       `json:"code,omitempty"`
	LanguageID int          `json:"languageId,omitempty"`
}

type GradeOutcome string

const (
	OutcomeGraded          GradeOutcome = "graded"
	OutcomeUngraded        GradeOutcome = "ungraded"
	OutcomeExecutionFailed GradeOutcome = "execution_failed"
)

type Evaluation struct {
	Feedback      string   `json:"feedback,omitempty"`
	Strengths     []string `json:"strengths,omitempty"`
	Improvements  []string `json:"improvements,omitempty"`
	Confidence    float64  `json:"confidence,omitempty"`
	TestsPassed   int      `json:"testsPassed,omitempty"`
	TestsTotal    int      `json:"testsTotal,omitempty"`
	FailureReason string   `json:"failureReason,omitempty"`
	Evaluator     string   `json:"evaluator,omitempty"`
}

// Answer 单题作答及评分结果，Score 为 nil 表示待复评
type Answer struct {
	QuestionID  string        `json:"questionId"`
	Payload     AnswerPayload `json:"payload"`
	Outcome     GradeOutcome  `json:"outcome"`
	IsCorrect   *bool         `json:"isCorrect,omitempty"`
	Score       *float64      `json:"score"`
	MaxScore    float64       `json:"maxScore"`
	Evaluation  Evaluation    `json:"evaluation"`
	SubmittedAt time.Time     `json:"submittedAt"`
}

func (a Answer) Graded() bool {
	return a.Score != nil
}

type DetailedScores struct {
	Technical      float64 `json:"technical"`
	ProblemSolving float64 `json:"problemSolving"`
	Communication  float64 `json:"communication"`
	Coding         float64 `json:"coding"`
}

func (d DetailedScores) Get(c Category) float64 {
	switch c {
	case CategoryTechnical:
		return d.Technical
	case CategoryProblemSolving:
		return d.ProblemSolving
	case CategoryCommunication:
		return d.Communication
	case CategoryCoding:
		return d.Coding
	}
	return 0
}

func (d *DetailedScores) Set(c Category, v float64) {
	switch c {
	case CategoryTechnical:
		d.Technical = v
	case CategoryProblemSolving:
		d.ProblemSolving = v
	case CategoryCommunication:
		d.Communication = v
	case CategoryCoding:
		d.Coding = v
	}
}

type ProctoringSummary struct {
	TabSwitches        int     `json:"tabSwitches"`
	CopyPasteEvents    int     `json:"copyPasteEvents"`
	SuspiciousActivity int     `json:"suspiciousActivity"`
	TotalDeduction     float64 `json:"totalDeduction"`
	FlaggedForReview   bool    `json:"flaggedForReview"`
}

type GapSeverity string

const (
	SeverityHigh     GapSeverity = "high"
	SeverityMedium   GapSeverity = "medium"
	SeverityPositive GapSeverity = "positive"
)

type SkillGap struct {
	Skill       string      `json:"skill"`
	Claimed     bool        `json:"claimed"`
	ActualScore float64     `json:"actualScore"`
	Severity    GapSeverity `json:"severity"`
	Flag        string      `json:"flag"`
}

// swagger:model Application
type Application struct {
	BaseModel
	JobID            uint              `gorm:"uniqueIndex:idx_job_candidate;not null" json:"jobId"`
	AssessmentID     uint              `gorm:"index;not null" json:"assessmentId"`
	CandidateName    string            `gorm:"size:255" json:"candidateName"`
	CandidateEmail   string            `gorm:"uniqueIndex:idx_job_candidate;size:255;not null" json:"candidateEmail"`
	AccessToken      string            `gorm:"size:36;index" json:"-"`
	Status           ApplicationStatus `gorm:"size:20;default:'pending';index" json:"status"`
	StatusSource     StatusSource      `gorm:"size:10;default:'auto'" json:"statusSource"`
	StartedAt        *time.Time        `json:"startedAt,omitempty"`
	CompletedAt      *time.Time        `gorm:"index" json:"completedAt,omitempty"`
	Answers          []Answer          `gorm:"serializer:json;type:text" json:"answers"`
	TotalScore       float64           `json:"totalScore"`
	WeightedScore    float64           `gorm:"index" json:"weightedScore"`
	DetailedScores   DetailedScores    `gorm:"serializer:json;type:text" json:"detailedScores"`
	Rank             int               `gorm:"column:pool_rank" json:"rank"`
	Percentile       int               `json:"percentile"`
	CredibilityScore float64           `gorm:"default:100" json:"credibilityScore"`
	Proctoring       ProctoringSummary `gorm:"serializer:json;type:text" json:"proctoring"`
	ResumeText       string            `gorm:"type:text" json:"-"`
	ResumeSkills     []string          `gorm:"serializer:json;type:text" json:"resumeSkills"`
	SkillGaps        []SkillGap        `gorm:"serializer:json;type:text" json:"skillGaps"`
	AIRecommendation Recommendation    `gorm:"size:20" json:"aiRecommendation"`
	AIReasoning      string            `gorm:"type:text" json:"aiReasoning"`
	NeedsReview      bool              `gorm:"default:false;index" json:"needsReview"`
	ReviewReasons    []string          `gorm:"serializer:json;type:text" json:"reviewReasons"`
}

func (Application) TableName() string {
	return "applications"
}

// AnswerFor returns the stored answer for a question, if any.
func (a *Application) AnswerFor(questionID string) (Answer, bool) {
	for _, ans := range a.Answers {
		if ans.QuestionID == questionID {
			return ans, true
		}
	}
	return Answer{}, false
}

// UpsertAnswer 按 questionId 覆盖，重复提交不会产生重复记录
func (a *Application) UpsertAnswer(ans Answer) {
	for i := range a.Answers {
		if a.Answers[i].QuestionID == ans.QuestionID {
			a.Answers[i] = ans
			return
		}
	}
	a.Answers = append(a.Answers, ans)
}

// Deadline returns startedAt + duration; zero duration means no limit.
func (a *Application) Deadline(durationMinutes int) (time.Time, bool) {
	if a.StartedAt == nil || durationMinutes <= 0 {
		return time.Time{}, false
	}
	return a.StartedAt.Add(time.Duration(durationMinutes) * time.Minute), true
}
