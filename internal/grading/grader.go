// Package grading scores a single answer against a single question.
package grading

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"recruit_backend/internal/model"
)

var ErrPayloadMismatch = errors.New("answer payload does not match question type")

// TextEvaluation 主观题评估服务的返回
type TextEvaluation struct {
	Score        float64
	Feedback     string
	Strengths    []string
	Improvements []string
	Confidence   float64
	Evaluator    string
}

// TextEvaluator 外部主观题评估服务
type TextEvaluator interface {
	EvaluateText(ctx context.Context, q model.Question, answer string) (*TextEvaluation, error)
}

// TestResult 单个测试用例的执行结果
type TestResult struct {
	Passed bool
	Detail string
}

// CodeExecutor 外部代码执行服务，按 tests 顺序返回每个用例的结果
type CodeExecutor interface {
	Execute(ctx context.Context, code string, languageID int, tests []model.TestCase) ([]TestResult, error)
}

// Result 单题评分结果。Outcome 为 ungraded 时 Score 为 nil
type Result struct {
	Outcome   model.GradeOutcome
	Score     *float64
	MaxScore  float64
	IsCorrect *bool
	Metadata  model.Evaluation
}

// Answer converts the result into the stored answer for the payload.
func (r Result) Answer(questionID string, payload model.AnswerPayload, at time.Time) model.Answer {
	return model.Answer{
		QuestionID:  questionID,
		Payload:     payload,
		Outcome:     r.Outcome,
		IsCorrect:   r.IsCorrect,
		Score:       r.Score,
		MaxScore:    r.MaxScore,
		Evaluation:  r.Metadata,
		SubmittedAt: at,
	}
}

type Grader struct {
	Text             TextEvaluator
	Code             CodeExecutor
	EvaluatorTimeout time.Duration
	ExecutorTimeout  time.Duration
}

func NewGrader(text TextEvaluator, code CodeExecutor, evaluatorTimeout, executorTimeout time.Duration) *Grader {
	return &Grader{
		Text:             text,
		Code:             code,
		EvaluatorTimeout: evaluatorTimeout,
		ExecutorTimeout:  executorTimeout,
	}
}

// Validate checks that the payload carries the fields its tag requires.
func Validate(q model.Question, p model.AnswerPayload) error {
	if p.Kind != q.Type {
		return fmt.Errorf("%w: question %s is %s, got %s", ErrPayloadMismatch, q.ID, q.Type, p.Kind)
	}
	switch p.Kind {
	case model.QuestionObjective:
		if p.Choice == nil {
			return fmt.Errorf("%w: objective answer requires a choice", ErrPayloadMismatch)
		}
		if *p.Choice < 0 || *p.Choice >= len(q.Options) {
			return fmt.Errorf("%w: choice %d out of range", ErrPayloadMismatch, *p.Choice)
		}
	case model.QuestionCoding:
		if p.Code == "" {
			return fmt.Errorf("%w: coding answer requires code", ErrPayloadMismatch)
		}
	}
	return nil
}

// Grade 按 payload 的标签分派评分策略；只有参数不合法时返回 error
func (g *Grader) Grade(ctx context.Context, q model.Question, p model.AnswerPayload) (Result, error) {
	if err := Validate(q, p); err != nil {
		return Result{}, err
	}

	switch p.Kind {
	case model.QuestionObjective:
		return gradeObjective(q, p), nil
	case model.QuestionSubjective:
		return g.gradeSubjective(ctx, q, p), nil
	case model.QuestionCoding:
		return g.gradeCoding(ctx, q, p), nil
	}
	return Result{}, fmt.Errorf("%w: unknown kind %q", ErrPayloadMismatch, p.Kind)
}

func gradeObjective(q model.Question, p model.AnswerPayload) Result {
	correct := q.CorrectIndex != nil && *p.Choice == *q.CorrectIndex
	score := 0.0
	if correct {
		score = q.Points
	}
	return Result{
		Outcome:   model.OutcomeGraded,
		Score:     &score,
		MaxScore:  q.Points,
		IsCorrect: &correct,
	}
}

func (g *Grader) gradeSubjective(ctx context.Context, q model.Question, p model.AnswerPayload) Result {
	res := Result{Outcome: model.OutcomeUngraded, MaxScore: q.Points}
	if g.Text == nil {
		res.Metadata.FailureReason = "no text evaluator configured"
		return res
	}

	ctx, cancel := withTimeout(ctx, g.EvaluatorTimeout)
	defer cancel()

	eval, err := g.Text.EvaluateText(ctx, q, p.Text)
	if err != nil {
		res.Metadata.FailureReason = err.Error()
		return res
	}
	if eval == nil || math.IsNaN(eval.Score) {
		res.Metadata.FailureReason = "evaluator returned no usable score"
		return res
	}

	score := clamp(eval.Score, 0, q.Points)
	res.Outcome = model.OutcomeGraded
	res.Score = &score
	res.Metadata = model.Evaluation{
		Feedback:     eval.Feedback,
		Strengths:    eval.Strengths,
		Improvements: eval.Improvements,
		Confidence:   eval.Confidence,
		Evaluator:    eval.Evaluator,
	}
	return res
}

func (g *Grader) gradeCoding(ctx context.Context, q model.Question, p model.AnswerPayload) Result {
	zero := 0.0
	incorrect := false
	total := len(q.TestCases)
	failed := Result{
		Outcome:   model.OutcomeExecutionFailed,
		Score:     &zero,
		MaxScore:  q.Points,
		IsCorrect: &incorrect,
		Metadata:  model.Evaluation{TestsTotal: total},
	}

	if total == 0 {
		failed.Metadata.FailureReason = "question declares no test cases"
		return failed
	}
	if g.Code == nil {
		failed.Metadata.FailureReason = "no code executor configured"
		return failed
	}

	lang := p.LanguageID
	if lang == 0 {
		lang = q.LanguageID
	}

	ctx, cancel := withTimeout(ctx, g.ExecutorTimeout)
	defer cancel()

	results, err := g.Code.Execute(ctx, p.Code, lang, q.TestCases)
	if err != nil {
		failed.Metadata.FailureReason = err.Error()
		return failed
	}
	if len(results) != total {
		failed.Metadata.FailureReason = fmt.Sprintf("executor returned %d results for %d test cases", len(results), total)
		return failed
	}

	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	score := q.Points * float64(passed) / float64(total)
	allPassed := passed == total
	return Result{
		Outcome:   model.OutcomeGraded,
		Score:     &score,
		MaxScore:  q.Points,
		IsCorrect: &allPassed,
		Metadata: model.Evaluation{
			TestsPassed: passed,
			TestsTotal:  total,
		},
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
