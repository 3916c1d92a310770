package evaluator

import (
	"context"
	"fmt"
	"strings"

	"recruit_backend/internal/grading"
	"recruit_backend/internal/model"
)

const textEvaluatorSystem = "You are a strict technical interviewer grading a candidate's written answer. " +
	"Grade only against the question and rubric. Return ONLY a JSON object."

// LLMTextEvaluator 主观题评估，实现 grading.TextEvaluator
type LLMTextEvaluator struct {
	completer Completer
}

func NewLLMTextEvaluator(c Completer) *LLMTextEvaluator {
	return &LLMTextEvaluator{completer: c}
}

type textVerdict struct {
	Score        *float64 `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Confidence   float64  `json:"confidence"`
}

func (e *LLMTextEvaluator) EvaluateText(ctx context.Context, q model.Question, answer string) (*grading.TextEvaluation, error) {
	resp, err := e.completer.Complete(ctx, textEvaluatorSystem, buildTextPrompt(q, answer))
	if err != nil {
		return nil, err
	}

	var v textVerdict
	if err := decodeJSON(resp, &v); err != nil {
		return nil, err
	}
	if v.Score == nil {
		return nil, fmt.Errorf("model response has no score")
	}
	// 超出范围的分数由 grader 统一截断
	return &grading.TextEvaluation{
		Score:        *v.Score,
		Feedback:     v.Feedback,
		Strengths:    v.Strengths,
		Improvements: v.Improvements,
		Confidence:   v.Confidence,
		Evaluator:    e.completer.Name(),
	}, nil
}

func buildTextPrompt(q model.Question, answer string) string {
	var sb strings.Builder
	sb.WriteString("## QUESTION\n")
	sb.WriteString(q.Prompt)
	sb.WriteString("\n\n")
	if q.Rubric != "" {
		sb.WriteString("## RUBRIC\n")
		sb.WriteString(q.Rubric)
		sb.WriteString("\n\n")
	}
	if q.Skill != "" {
		sb.WriteString(fmt.Sprintf("Skill assessed: %s\n", q.Skill))
	}
	sb.WriteString(fmt.Sprintf("Maximum points: %g\n\n", q.Points))
	sb.WriteString("## CANDIDATE ANSWER\n")
	sb.WriteString(truncate(answer, 6000))
	sb.WriteString("\n\n")
	sb.WriteString("Respond in the following JSON format:\n")
	sb.WriteString("{\n")
	sb.WriteString(fmt.Sprintf(`  "score": <0-%g>,`+"\n", q.Points))
	sb.WriteString(`  "feedback": "<one paragraph>",` + "\n")
	sb.WriteString(`  "strengths": ["<strength>"],` + "\n")
	sb.WriteString(`  "improvements": ["<improvement>"],` + "\n")
	sb.WriteString(`  "confidence": <0-1>` + "\n")
	sb.WriteString("}\n")
	return sb.String()
}
