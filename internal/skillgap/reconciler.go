// Package skillgap compares resume-claimed skills with measured assessment performance.
package skillgap

import (
	"math"
	"sort"
	"strings"

	"recruit_backend/internal/config"
	"recruit_backend/internal/model"
)

const (
	FlagPerformsPoorly   = "claims skill, performs poorly"
	FlagBelowExpectation = "claims skill, performs below expectation"
	FlagUnclaimedStrong  = "strong performance on unclaimed skill"
)

// Normalize 统一技能名称的大小写与空白
func Normalize(skill string) string {
	return strings.ToLower(strings.Join(strings.Fields(skill), " "))
}

// Performance 按题目声明的 skill 汇总得分率。未作答计 0，待复评的题目不作为证据
func Performance(answers []model.Answer, questions []model.Question) map[string]float64 {
	byQuestion := make(map[string]model.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	achieved := map[string]float64{}
	possible := map[string]float64{}
	for _, q := range questions {
		skill := Normalize(q.Skill)
		if skill == "" || q.Points <= 0 {
			continue
		}
		ans, answered := byQuestion[q.ID]
		if answered && !ans.Graded() {
			continue
		}
		possible[skill] += q.Points
		if answered {
			achieved[skill] += math.Max(0, math.Min(*ans.Score, q.Points))
		}
	}

	out := make(map[string]float64, len(possible))
	for skill, p := range possible {
		out[skill] = math.Round(100*achieved[skill]/p*100) / 100
	}
	return out
}

// Reconcile 生成技能差距列表。简历声明但没有任何题目考察的技能不产生条目：没有证据不等于有差距
func Reconcile(claimed []string, performance map[string]float64, policy config.ScoringPolicy) []model.SkillGap {
	claimedSet := make(map[string]bool, len(claimed))
	for _, s := range claimed {
		if n := Normalize(s); n != "" {
			claimedSet[n] = true
		}
	}

	gaps := []model.SkillGap{}
	for skill := range claimedSet {
		actual, assessed := performance[skill]
		if !assessed {
			continue
		}
		switch {
		case actual < policy.GapLowThreshold:
			gaps = append(gaps, model.SkillGap{Skill: skill, Claimed: true, ActualScore: actual, Severity: model.SeverityHigh, Flag: FlagPerformsPoorly})
		case actual < policy.GapPassThreshold:
			gaps = append(gaps, model.SkillGap{Skill: skill, Claimed: true, ActualScore: actual, Severity: model.SeverityMedium, Flag: FlagBelowExpectation})
		}
	}

	if policy.ReportUnclaimedStrengths {
		for skill, actual := range performance {
			if claimedSet[skill] || actual < policy.GapPassThreshold {
				continue
			}
			gaps = append(gaps, model.SkillGap{Skill: skill, Claimed: false, ActualScore: actual, Severity: model.SeverityPositive, Flag: FlagUnclaimedStrong})
		}
	}

	sort.Slice(gaps, func(i, j int) bool {
		ri, rj := severityRank(gaps[i].Severity), severityRank(gaps[j].Severity)
		if ri != rj {
			return ri < rj
		}
		if gaps[i].ActualScore != gaps[j].ActualScore {
			return gaps[i].ActualScore < gaps[j].ActualScore
		}
		return gaps[i].Skill < gaps[j].Skill
	})
	return gaps
}

// HasHighSeverity reports whether any claimed skill performs poorly.
func HasHighSeverity(gaps []model.SkillGap) bool {
	for _, g := range gaps {
		if g.Severity == model.SeverityHigh {
			return true
		}
	}
	return false
}

func severityRank(s model.GapSeverity) int {
	switch s {
	case model.SeverityHigh:
		return 0
	case model.SeverityMedium:
		return 1
	default:
		return 2
	}
}
