// Package reporting aggregates session results into rankings, renders
// them for the terminal, exports them to files, and syncs them to the
// web UI ingestion endpoint.
package reporting

import (
	"math"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"

	"github.com/saggiatore/saggiatore-go/models"
)

// Leaderboard aggregates session results into per-model rankings.
type Leaderboard struct {
	results []*models.SessionResult
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{}
}

func (lb *Leaderboard) Add(result *models.SessionResult) {
	lb.results = append(lb.results, result)
}

func (lb *Leaderboard) AddAll(results []*models.SessionResult) {
	lb.results = append(lb.results, results...)
}

// Rankings computes per-model aggregates: metrics and overall score
// averaged over scored sessions, a per-category breakdown (zero for
// uncovered categories), ranked by overall score descending.
func (lb *Leaderboard) Rankings() []models.LeaderboardEntry {
	byModel := lo.GroupBy(lb.results, func(r *models.SessionResult) string {
		return r.ModelID
	})

	var entries []models.LeaderboardEntry
	for modelID, results := range byModel {
		scored := lo.Filter(results, func(r *models.SessionResult, _ int) bool {
			return r.Metrics != nil
		})
		if len(scored) == 0 {
			continue
		}
		n := float64(len(scored))

		avgMetrics := models.EvalMetrics{
			ToolAccuracy:       lo.SumBy(scored, func(r *models.SessionResult) float64 { return r.Metrics.ToolAccuracy }) / n,
			Empathy:            lo.SumBy(scored, func(r *models.SessionResult) float64 { return r.Metrics.Empathy }) / n,
			FactualCorrectness: lo.SumBy(scored, func(r *models.SessionResult) float64 { return r.Metrics.FactualCorrectness }) / n,
			Completeness:       lo.SumBy(scored, func(r *models.SessionResult) float64 { return r.Metrics.Completeness }) / n,
			SafetyCompliance:   lo.SumBy(scored, func(r *models.SessionResult) float64 { return r.Metrics.SafetyCompliance }) / n,
		}
		avgOverall := lo.SumBy(scored, func(r *models.SessionResult) float64 { return r.OverallScore }) / n

		categoryScores := map[string]float64{}
		for _, category := range models.Categories {
			categoryResults := lo.Filter(scored, func(r *models.SessionResult, _ int) bool {
				return r.ScenarioCategory == category
			})
			if len(categoryResults) == 0 {
				categoryScores[category] = 0
				continue
			}
			categoryScores[category] = lo.SumBy(categoryResults, func(r *models.SessionResult) float64 {
				return r.OverallScore
			}) / float64(len(categoryResults))
		}

		entries = append(entries, models.LeaderboardEntry{
			ModelID:          modelID,
			DisplayName:      modelID,
			OverallScore:     math.Round(avgOverall*1000) / 1000,
			TotalEvaluations: len(scored),
			Metrics:          avgMetrics,
			CategoryScores:   categoryScores,
		})
	}

	slices.SortFunc(entries, func(a, b models.LeaderboardEntry) int {
		switch {
		case a.OverallScore > b.OverallScore:
			return -1
		case a.OverallScore < b.OverallScore:
			return 1
		}
		return 0
	})
	return entries
}
