// Package recommendation derives an advisory hiring recommendation.
// Status transitions are decided by the job's thresholds, not by this package.
package recommendation

import (
	"fmt"
	"strings"

	"recruit_backend/internal/config"
	"recruit_backend/internal/model"
)

// Signal 导致降级为 maybe / no-hire 的具体原因
type Signal string

const (
	SignalLowIntegrity    Signal = "low integrity"
	SignalSkillGap        Signal = "skill gap"
	SignalBorderline      Signal = "borderline score"
	SignalUngraded        Signal = "ungraded answers"
	SignalBelowReject     Signal = "below reject threshold"
	// 技能差距阶段失败，无法确认是否存在缺口
	SignalSkillGapUnknown Signal = "skill-gap evaluation unavailable"
)

type Input struct {
	WeightedScore       float64
	CredibilityScore    float64
	SkillGaps           []model.SkillGap
	UngradedAnswers     int
	// SkillGapUnavailable 为 true 时 SkillGaps 不可信（简历解析或对比失败）
	SkillGapUnavailable bool
}

type Output struct {
	Recommendation model.Recommendation `json:"aiRecommendation"`
	Reasoning      string               `json:"aiReasoning"`
	Signals        []Signal             `json:"signals,omitempty"`
}

// Recommend 按以下顺序判定：
//  1. 存在待复评答案 → maybe（分数尚不完整）
//  2. 低于 autoRejectBelow → no-hire
//  3. 达到 minimumScore 且诚信分高于下限、无 high 级技能缺口、技能对比已完成 → hire，分数达到 StrongHireScore 时为 strong-hire
//  4. 其余 → maybe，并在 reasoning 中写明原因
func Recommend(in Input, criteria model.QualificationCriteria, policy config.ScoringPolicy) Output {
	if in.UngradedAnswers > 0 {
		return Output{
			Recommendation: model.Maybe,
			Reasoning:      fmt.Sprintf("%d answer(s) could not be evaluated yet; weighted score %.2f is provisional and needs manual review.", in.UngradedAnswers, in.WeightedScore),
			Signals:        []Signal{SignalUngraded},
		}
	}

	if criteria.AutoRejectBelow > 0 && in.WeightedScore < criteria.AutoRejectBelow {
		return Output{
			Recommendation: model.NoHire,
			Reasoning:      fmt.Sprintf("Weighted score %.2f is below the reject threshold of %.2f.", in.WeightedScore, criteria.AutoRejectBelow),
			Signals:        []Signal{SignalBelowReject},
		}
	}

	if in.WeightedScore < criteria.MinimumScore {
		return Output{
			Recommendation: model.Maybe,
			Reasoning:      fmt.Sprintf("Weighted score %.2f is below the minimum of %.2f but above the reject threshold.", in.WeightedScore, criteria.MinimumScore),
			Signals:        []Signal{SignalBorderline},
		}
	}

	var (
		signals []Signal
		reasons []string
	)
	if in.CredibilityScore <= policy.IntegrityFloor {
		signals = append(signals, SignalLowIntegrity)
		reasons = append(reasons, fmt.Sprintf("credibility %.0f is not above the integrity floor of %.0f", in.CredibilityScore, policy.IntegrityFloor))
	}
	if high := highGaps(in.SkillGaps); len(high) > 0 {
		signals = append(signals, SignalSkillGap)
		reasons = append(reasons, fmt.Sprintf("claimed skills performed poorly: %s", strings.Join(high, ", ")))
	}
	if in.SkillGapUnavailable {
		signals = append(signals, SignalSkillGapUnknown)
		reasons = append(reasons, "resume skills could not be compared with assessment results, so skill gaps are unknown")
	}
	if len(signals) > 0 {
		return Output{
			Recommendation: model.Maybe,
			Reasoning:      fmt.Sprintf("Passing weighted score %.2f, but %s.", in.WeightedScore, strings.Join(reasons, "; ")),
			Signals:        signals,
		}
	}

	if in.WeightedScore >= policy.StrongHireScore {
		return Output{
			Recommendation: model.StrongHire,
			Reasoning:      fmt.Sprintf("Weighted score %.2f meets the strong-hire bar of %.2f with credibility %.0f and no major skill gaps.", in.WeightedScore, policy.StrongHireScore, in.CredibilityScore),
		}
	}
	return Output{
		Recommendation: model.Hire,
		Reasoning:      fmt.Sprintf("Weighted score %.2f meets the minimum of %.2f with credibility %.0f and no major skill gaps.", in.WeightedScore, criteria.MinimumScore, in.CredibilityScore),
	}
}

func highGaps(gaps []model.SkillGap) []string {
	var out []string
	for _, g := range gaps {
		if g.Severity == model.SeverityHigh {
			out = append(out, g.Skill)
		}
	}
	return out
}
