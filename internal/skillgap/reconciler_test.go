package skillgap

import (
	"testing"

	"recruit_backend/internal/config"
	"recruit_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func questions() []model.Question {
	return []model.Question{
		{ID: "g1", Type: model.QuestionObjective, Skill: "Go", Points: 10},
		{ID: "g2", Type: model.QuestionCoding, Skill: "go", Points: 10},
		{ID: "s1", Type: model.QuestionObjective, Skill: "SQL", Points: 10},
		{ID: "k1", Type: model.QuestionSubjective, Skill: "Kubernetes", Points: 10},
		{ID: "r1", Type: model.QuestionSubjective, Skill: "Rust", Points: 10},
	}
}

func TestPerformance(t *testing.T) {
	answers := []model.Answer{
		{QuestionID: "g1", Score: f(10)},
		{QuestionID: "g2", Score: f(2)},
		{QuestionID: "k1", Score: f(9)},
		{QuestionID: "r1", Outcome: model.OutcomeUngraded},
	}

	perf := Performance(answers, questions())
	assert.Equal(t, 60.0, perf["go"])
	assert.Equal(t, 0.0, perf["sql"])
	assert.Equal(t, 90.0, perf["kubernetes"])
	_, hasRust := perf["rust"]
	assert.False(t, hasRust)
}

func TestReconcile_Severities(t *testing.T) {
	perf := map[string]float64{"go": 30, "sql": 55, "python": 95, "kubernetes": 90}
	gaps := Reconcile([]string{"Go", " SQL ", "Python"}, perf, config.DefaultScoringPolicy())

	require.Len(t, gaps, 3)
	assert.Equal(t, model.SkillGap{Skill: "go", Claimed: true, ActualScore: 30, Severity: model.SeverityHigh, Flag: FlagPerformsPoorly}, gaps[0])
	assert.Equal(t, model.SeverityMedium, gaps[1].Severity)
	assert.Equal(t, "sql", gaps[1].Skill)
	assert.Equal(t, model.SeverityPositive, gaps[2].Severity)
	assert.Equal(t, "kubernetes", gaps[2].Skill)
	assert.False(t, gaps[2].Claimed)
	assert.True(t, HasHighSeverity(gaps))
}

func TestReconcile_UnassessedClaimNeverAGap(t *testing.T) {
	perf := map[string]float64{"go": 100}
	gaps := Reconcile([]string{"COBOL", "Haskell", "go"}, perf, config.DefaultScoringPolicy())

	for _, g := range gaps {
		assert.NotEqual(t, "cobol", g.Skill)
		assert.NotEqual(t, "haskell", g.Skill)
	}
	assert.Empty(t, gaps)
}

func TestReconcile_UnclaimedStrengthsCanBeDisabled(t *testing.T) {
	p := config.DefaultScoringPolicy()
	p.ReportUnclaimedStrengths = false

	gaps := Reconcile(nil, map[string]float64{"go": 100}, p)
	assert.Empty(t, gaps)
	assert.False(t, HasHighSeverity(gaps))
}
