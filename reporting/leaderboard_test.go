package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saggiatore/saggiatore-go/models"
)

func scoredResult(modelID, category string, overall float64, metrics models.EvalMetrics) *models.SessionResult {
	return &models.SessionResult{
		ModelID:          modelID,
		ScenarioCategory: category,
		Status:           models.StatusCompleted,
		Metrics:          &metrics,
		OverallScore:     overall,
	}
}

func TestLeaderboardRankings(t *testing.T) {
	lb := NewLeaderboard()
	lb.AddAll([]*models.SessionResult{
		scoredResult("gpt-4o", "visa_application", 0.9, models.EvalMetrics{
			ToolAccuracy: 0.9, Empathy: 0.9, FactualCorrectness: 0.9, Completeness: 0.9, SafetyCompliance: 0.9,
		}),
		scoredResult("gpt-4o", "humanitarian", 0.7, models.EvalMetrics{
			ToolAccuracy: 0.7, Empathy: 0.7, FactualCorrectness: 0.7, Completeness: 0.7, SafetyCompliance: 0.7,
		}),
		scoredResult("llama-3.3-70b-versatile", "visa_application", 0.6, models.EvalMetrics{
			ToolAccuracy: 0.6, Empathy: 0.6, FactualCorrectness: 0.6, Completeness: 0.6, SafetyCompliance: 0.6,
		}),
	})

	entries := lb.Rankings()
	require.Len(t, entries, 2)

	// Ranked by overall score descending.
	assert.Equal(t, "gpt-4o", entries[0].ModelID)
	assert.Equal(t, 0.8, entries[0].OverallScore)
	assert.Equal(t, 2, entries[0].TotalEvaluations)
	assert.InDelta(t, 0.8, entries[0].Metrics.ToolAccuracy, 1e-9)

	assert.Equal(t, "llama-3.3-70b-versatile", entries[1].ModelID)
	assert.Equal(t, 0.6, entries[1].OverallScore)

	// Per-category averages, zero for uncovered categories.
	assert.InDelta(t, 0.9, entries[0].CategoryScores["visa_application"], 1e-9)
	assert.InDelta(t, 0.7, entries[0].CategoryScores["humanitarian"], 1e-9)
	assert.Equal(t, 0.0, entries[0].CategoryScores["deportation_defense"])
}

func TestLeaderboardSkipsUnscoredSessions(t *testing.T) {
	lb := NewLeaderboard()
	lb.Add(&models.SessionResult{
		ModelID: "gpt-4o",
		Status:  models.StatusFailed,
	})
	lb.Add(scoredResult("gpt-4o", "visa_application", 0.9, models.EvalMetrics{ToolAccuracy: 0.9}))

	entries := lb.Rankings()
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].TotalEvaluations)
	assert.Equal(t, 0.9, entries[0].OverallScore)
}

func TestLeaderboardAllUnscored(t *testing.T) {
	lb := NewLeaderboard()
	lb.Add(&models.SessionResult{ModelID: "gpt-4o", Status: models.StatusFailed})
	assert.Empty(t, lb.Rankings())
}

func TestLeaderboardRoundsOverall(t *testing.T) {
	lb := NewLeaderboard()
	lb.Add(scoredResult("gpt-4o", "visa_application", 0.6, models.EvalMetrics{}))
	lb.Add(scoredResult("gpt-4o", "visa_application", 0.7, models.EvalMetrics{}))
	lb.Add(scoredResult("gpt-4o", "visa_application", 0.7, models.EvalMetrics{}))

	entries := lb.Rankings()
	require.Len(t, entries, 1)
	assert.Equal(t, 0.667, entries[0].OverallScore)
}
