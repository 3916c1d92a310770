package model

type QuestionType string

const (
	QuestionObjective  QuestionType = "objective"
	QuestionSubjective QuestionType = "subjective"
	QuestionCoding     QuestionType = "coding"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionObjective, QuestionSubjective, QuestionCoding:
		return true
	}
	return false
}

// Category 是加权评分使用的能力维度
type Category string

const (
	CategoryTechnical      Category = "technical"
	CategoryProblemSolving Category = "problemSolving"
	CategoryCommunication  Category = "communication"
	CategoryCoding         Category = "coding"
)

var Categories = []Category{CategoryTechnical, CategoryProblemSolving, CategoryCommunication, CategoryCoding}

func (c Category) Valid() bool {
	switch c {
	case CategoryTechnical, CategoryProblemSolving, CategoryCommunication, CategoryCoding:
		return true
	}
	return false
}

type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
}

// Question 按值内嵌在 Assessment 中
type Question struct {
	ID           string       `json:"id"`
	Type         QuestionType `json:"type"`
	Prompt       string       `json:"prompt"`
	Options      []string     `json:"options,omitempty"`
	CorrectIndex *int         `json:"correctIndex,omitempty"`
	TestCases    []TestCase   `json:"testCases,omitempty"`
	LanguageID   int          `json:"languageId,omitempty"` // Judge0 language id
	Rubric       string       `json:"rubric,omitempty"`
	Points       float64      `json:"points"`
	Difficulty   string       `json:"difficulty"`
	Skill        string       `json:"skill"`
	Category     Category     `json:"category,omitempty"`
}

// ResolvedCategory returns the explicit category or the default for the question type.
func (q Question) ResolvedCategory() Category {
	if q.Category.Valid() {
		return q.Category
	}
	switch q.Type {
	case QuestionObjective:
		return CategoryTechnical
	case QuestionCoding:
		return CategoryCoding
	default:
		return CategoryCommunication
	}
}

// PublicQuestion 是候选人可见的题目（不含答案与测试用例期望输出）
type PublicQuestion struct {
	ID         string       `json:"id"`
	Type       QuestionType `json:"type"`
	Prompt     string       `json:"prompt"`
	Options    []string     `json:"options,omitempty"`
	TestInputs []string     `json:"testInputs,omitempty"`
	LanguageID int          `json:"languageId,omitempty"`
	Points     float64      `json:"points"`
	Difficulty string       `json:"difficulty"`
}

func (q Question) Public() PublicQuestion {
	p := PublicQuestion{
		ID:         q.ID,
		Type:       q.Type,
		Prompt:     q.Prompt,
		Options:    q.Options,
		LanguageID: q.LanguageID,
		Points:     q.Points,
		Difficulty: q.Difficulty,
	}
	for _, tc := range q.TestCases {
		p.TestInputs = append(p.TestInputs, tc.Input)
	}
	return p
}
