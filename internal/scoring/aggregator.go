// Package scoring combines per-question results into category, total and weighted scores.
package scoring

import (
	"math"

	"recruit_backend/internal/model"
)

// Scores 是一次聚合的完整输出
type Scores struct {
	TotalScore     float64              `json:"totalScore"`
	WeightedScore  float64              `json:"weightedScore"`
	Detailed       model.DetailedScores `json:"detailedScores"`
	Ungraded       []string             `json:"ungraded,omitempty"`
	AchievedPoints float64              `json:"achievedPoints"`
	PossiblePoints float64              `json:"possiblePoints"`
}

type tally struct {
	achieved float64
	possible float64
}

func (t tally) percent() float64 {
	if t.possible <= 0 {
		return 0
	}
	return 100 * t.achieved / t.possible
}

// Aggregate 是 (answers, questions, weights, policy) 的纯函数，重复执行结果一致。
// 未作答题目计 0 分但计入分母（answered_only 策略除外）；待复评题目既不计入分子也不计入分母。
func Aggregate(answers []model.Answer, questions []model.Question, weights model.SkillWeights, policy model.ScoringPolicy) Scores {
	byQuestion := make(map[string]model.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	var total tally
	categories := make(map[model.Category]*tally, len(model.Categories))
	var out Scores

	for _, q := range questions {
		cat := q.ResolvedCategory()
		ans, answered := byQuestion[q.ID]

		if answered && !ans.Graded() {
			out.Ungraded = append(out.Ungraded, q.ID)
			continue
		}
		if !answered && policy == model.ScoreAnsweredOnly {
			continue
		}

		achieved := 0.0
		if answered {
			achieved = math.Max(0, math.Min(*ans.Score, q.Points))
		}

		total.achieved += achieved
		total.possible += q.Points

		t, ok := categories[cat]
		if !ok {
			t = &tally{}
			categories[cat] = t
		}
		t.achieved += achieved
		t.possible += q.Points
	}

	out.AchievedPoints = round2(total.achieved)
	out.PossiblePoints = round2(total.possible)
	out.TotalScore = round2(total.percent())

	present := make(map[model.Category]bool, len(categories))
	for cat, t := range categories {
		if t.possible > 0 {
			present[cat] = true
			out.Detailed.Set(cat, round2(t.percent()))
		}
	}

	out.WeightedScore = round2(Weighted(out.Detailed, weights, present, out.TotalScore))
	return out
}

// Weighted 计算 Σ(category×weight)/Σ(weight)，只统计本次测评实际覆盖的维度；
// 覆盖维度的权重和为 0 时退化为总分
func Weighted(detailed model.DetailedScores, weights model.SkillWeights, present map[model.Category]bool, fallback float64) float64 {
	var num, den float64
	for _, cat := range model.Categories {
		if present != nil && !present[cat] {
			continue
		}
		w := WeightFor(weights, cat)
		if w <= 0 {
			continue
		}
		num += detailed.Get(cat) * w
		den += w
	}
	if den == 0 {
		return fallback
	}
	return num / den
}

func WeightFor(w model.SkillWeights, c model.Category) float64 {
	switch c {
	case model.CategoryTechnical:
		return w.Technical
	case model.CategoryProblemSolving:
		return w.ProblemSolving
	case model.CategoryCommunication:
		return w.Communication
	case model.CategoryCoding:
		return w.Coding
	}
	return 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
