package proctoring

import (
	"fmt"
	"math/rand"
	"testing"

	"recruit_backend/internal/config"
	"recruit_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func policy() config.ScoringPolicy {
	return config.DefaultScoringPolicy()
}

func TestAggregate_NoEvents(t *testing.T) {
	r := Aggregate(nil, policy())
	assert.Equal(t, 100.0, r.CredibilityScore)
	assert.False(t, r.Summary.FlaggedForReview)
}

func TestAggregate_Deductions(t *testing.T) {
	events := []Event{
		{ID: "1", Type: model.EventTabSwitch},
		{ID: "2", Type: model.EventTabSwitch},
		{ID: "3", Type: model.EventCopyPaste},
		{ID: "4", Type: model.EventSuspicious, Severity: model.SeverityLevelHigh},
		{ID: "5", Type: model.EventSuspicious, Severity: "unknown"},
	}

	r := Aggregate(events, policy())
	// 2*2 + 5 + 20 + 5
	assert.Equal(t, 66.0, r.CredibilityScore)
	assert.Equal(t, 2, r.Summary.TabSwitches)
	assert.Equal(t, 1, r.Summary.CopyPasteEvents)
	assert.Equal(t, 2, r.Summary.SuspiciousActivity)
	assert.Equal(t, 34.0, r.Summary.TotalDeduction)
}

func TestAggregate_DuplicateEventDeductedOnce(t *testing.T) {
	events := []Event{
		{ID: "cp-1", Type: model.EventCopyPaste},
		{ID: "cp-1", Type: model.EventCopyPaste},
	}

	r := Aggregate(events, policy())
	assert.Equal(t, 95.0, r.CredibilityScore)
	assert.Equal(t, 1, r.Summary.CopyPasteEvents)
}

func TestAggregate_FloorsAtZero(t *testing.T) {
	var events []Event
	for i := 0; i < 20; i++ {
		events = append(events, Event{ID: fmt.Sprintf("s%d", i), Type: model.EventSuspicious, Severity: model.SeverityLevelHigh})
	}

	r := Aggregate(events, policy())
	assert.Equal(t, 0.0, r.CredibilityScore)
}

func TestAggregate_ReviewThresholds(t *testing.T) {
	var events []Event
	for i := 0; i < 5; i++ {
		events = append(events, Event{ID: fmt.Sprintf("t%d", i), Type: model.EventTabSwitch})
	}
	assert.False(t, Aggregate(events, policy()).Summary.FlaggedForReview)

	events = append(events, Event{ID: "t5", Type: model.EventTabSwitch})
	assert.True(t, Aggregate(events, policy()).Summary.FlaggedForReview)

	var copies []Event
	for i := 0; i < 4; i++ {
		copies = append(copies, Event{ID: fmt.Sprintf("c%d", i), Type: model.EventCopyPaste})
	}
	assert.True(t, Aggregate(copies, policy()).Summary.FlaggedForReview)
}

func TestAggregate_OrderIndependentAndMonotonic(t *testing.T) {
	types := []model.ProctoringEventType{model.EventTabSwitch, model.EventCopyPaste, model.EventSuspicious}
	severities := []model.Severity{model.SeverityLevelLow, model.SeverityLevelMedium, model.SeverityLevelHigh}

	rng := rand.New(rand.NewSource(42))
	var events []Event
	for i := 0; i < 30; i++ {
		events = append(events, Event{
			ID:       fmt.Sprintf("e%d", i),
			Type:     types[rng.Intn(len(types))],
			Severity: severities[rng.Intn(len(severities))],
		})
	}

	want := Aggregate(events, policy())
	for i := 0; i < 10; i++ {
		shuffled := append([]Event(nil), events...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Aggregate(shuffled, policy()))
	}

	prev := 100.0
	for i := range events {
		r := Aggregate(events[:i+1], policy())
		assert.LessOrEqual(t, r.CredibilityScore, prev)
		assert.GreaterOrEqual(t, r.CredibilityScore, 0.0)
		prev = r.CredibilityScore
	}
}
