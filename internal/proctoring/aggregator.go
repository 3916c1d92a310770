// Package proctoring folds behavioral telemetry into a credibility score.
package proctoring

import (
	"math"

	"recruit_backend/internal/config"
	"recruit_backend/internal/model"
)

const MaxCredibility = 100.0

type Event struct {
	ID       string
	Type     model.ProctoringEventType
	Severity model.Severity
}

type Result struct {
	CredibilityScore float64
	Summary          model.ProctoringSummary
}

// Aggregate 按事件 ID 去重后累加扣分。扣分只与各类事件的数量有关，与到达顺序无关
func Aggregate(events []Event, policy config.ScoringPolicy) Result {
	seen := make(map[string]struct{}, len(events))
	var summary model.ProctoringSummary
	bySeverity := map[model.Severity]int{}

	for _, e := range events {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}

		switch e.Type {
		case model.EventTabSwitch:
			summary.TabSwitches++
		case model.EventCopyPaste:
			summary.CopyPasteEvents++
		case model.EventSuspicious:
			summary.SuspiciousActivity++
			bySeverity[normalizeSeverity(e.Severity)]++
		}
	}

	// 先计数再按固定顺序计算，避免浮点累加顺序影响结果
	deduction := float64(summary.TabSwitches)*policy.TabSwitchPenalty +
		float64(summary.CopyPasteEvents)*policy.CopyPastePenalty
	for _, sev := range []model.Severity{model.SeverityLevelLow, model.SeverityLevelMedium, model.SeverityLevelHigh} {
		deduction += float64(bySeverity[sev]) * SeverityPenalty(policy, sev)
	}
	deduction = math.Min(math.Max(deduction, 0), MaxCredibility)
	summary.TotalDeduction = deduction
	summary.FlaggedForReview = summary.TabSwitches > policy.TabSwitchReviewThreshold ||
		summary.CopyPasteEvents > policy.CopyPasteReviewThreshold

	return Result{
		CredibilityScore: MaxCredibility - deduction,
		Summary:          summary,
	}
}

// 未声明或未知的严重程度按 low 处理
func normalizeSeverity(sev model.Severity) model.Severity {
	switch sev {
	case model.SeverityLevelMedium, model.SeverityLevelHigh:
		return sev
	}
	return model.SeverityLevelLow
}

func SeverityPenalty(policy config.ScoringPolicy, sev model.Severity) float64 {
	return math.Max(0, policy.SeverityPenalties[string(normalizeSeverity(sev))])
}

// FromModels converts stored events.
func FromModels(events []model.ProctoringEvent) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = Event{ID: e.EventID, Type: e.Type, Severity: e.Severity}
	}
	return out
}
