package reporting

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/saggiatore/saggiatore-go/evaluation"
	"github.com/saggiatore/saggiatore-go/models"
)

const maxExportedContentLen = 500

// Exporter writes run artifacts (sessions, leaderboard, summary) to an
// output directory, prefixed with the run ID.
type Exporter struct {
	OutputDir string
	RunID     string
}

func NewExporter(outputDir, runID string) *Exporter {
	return &Exporter{OutputDir: outputDir, RunID: runID}
}

// WriteAll exports the session transcripts, the leaderboard (JSON and
// CSV) and the run summary. Returns the paths of the written files.
func (e *Exporter) WriteAll(results []*models.SessionResult, entries []models.LeaderboardEntry) ([]string, error) {
	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	writers := []struct {
		name  string
		write func(string) error
	}{
		{e.RunID + "_sessions.json", func(path string) error { return e.writeSessions(path, results) }},
		{e.RunID + "_leaderboard.json", func(path string) error { return writeJSON(path, entries) }},
		{e.RunID + "_leaderboard.csv", func(path string) error { return e.writeLeaderboardCSV(path, entries) }},
		{e.RunID + "_summary.json", func(path string) error { return e.writeSummary(path, results, entries) }},
	}
	for _, w := range writers {
		path := filepath.Join(e.OutputDir, w.name)
		if err := w.write(path); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", w.name, err)
		}
		log.Infof("exported %s", path)
		written = append(written, path)
	}
	return written, nil
}

// writeSessions exports the session results with transcripts sanitized
// for sharing: message content capped at 500 characters and the system
// prompt redacted.
func (e *Exporter) writeSessions(path string, results []*models.SessionResult) error {
	sanitized := make([]*models.SessionResult, 0, len(results))
	for _, result := range results {
		copied := *result
		copied.Messages = sanitizeMessages(result.Messages)
		sanitized = append(sanitized, &copied)
	}
	return writeJSON(path, sanitized)
}

func sanitizeMessages(messages []*models.ConversationMessage) []*models.ConversationMessage {
	sanitized := make([]*models.ConversationMessage, 0, len(messages))
	for _, msg := range messages {
		copied := *msg
		if copied.Role == "system" {
			copied.Content = "[system prompt]"
		} else {
			copied.Content = truncateContent(copied.Content)
		}
		sanitized = append(sanitized, &copied)
	}
	return sanitized
}

// truncateContent caps content at 500 characters, cutting on a rune
// boundary so multibyte text (country flags, names) survives intact.
func truncateContent(content string) string {
	runes := []rune(content)
	if len(runes) <= maxExportedContentLen {
		return content
	}
	return string(runes[:maxExportedContentLen]) + "..."
}

func (e *Exporter) writeLeaderboardCSV(path string, entries []models.LeaderboardEntry) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{
		"rank", "model_id", "overall_score", "total_evaluations",
		"tool_accuracy", "factual_correctness", "completeness", "empathy", "safety_compliance",
	}
	for _, category := range models.Categories {
		header = append(header, "cat_"+category)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, entry := range entries {
		row := []string{
			fmt.Sprintf("%d", i+1),
			entry.ModelID,
			fmt.Sprintf("%.3f", entry.OverallScore),
			fmt.Sprintf("%d", entry.TotalEvaluations),
			fmt.Sprintf("%.3f", entry.Metrics.ToolAccuracy),
			fmt.Sprintf("%.3f", entry.Metrics.FactualCorrectness),
			fmt.Sprintf("%.3f", entry.Metrics.Completeness),
			fmt.Sprintf("%.3f", entry.Metrics.Empathy),
			fmt.Sprintf("%.3f", entry.Metrics.SafetyCompliance),
		}
		for _, category := range models.Categories {
			row = append(row, fmt.Sprintf("%.3f", entry.CategoryScores[category]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

type runSummary struct {
	RunID             string             `json:"run_id"`
	Timestamp         time.Time          `json:"timestamp"`
	TotalSessions     int                `json:"total_sessions"`
	Completed         int                `json:"completed"`
	Failed            int                `json:"failed"`
	Scored            int                `json:"scored"`
	Models            []string           `json:"models"`
	ScenariosRun      []string           `json:"scenarios_run"`
	CategoriesCovered []string           `json:"categories_covered"`
	MetricWeights     map[string]float64 `json:"metric_weights"`
	TopModel          string             `json:"top_model,omitempty"`
	TopOverallScore   float64            `json:"top_overall_score,omitempty"`
}

func (e *Exporter) writeSummary(path string, results []*models.SessionResult, entries []models.LeaderboardEntry) error {
	summary := runSummary{
		RunID:         e.RunID,
		Timestamp:     time.Now(),
		TotalSessions: len(results),
		Models: lo.Uniq(lo.Map(results, func(r *models.SessionResult, _ int) string {
			return r.ModelID
		})),
		ScenariosRun: lo.Compact(lo.Uniq(lo.Map(results, func(r *models.SessionResult, _ int) string {
			return r.ScenarioTitle
		}))),
		CategoriesCovered: lo.Compact(lo.Uniq(lo.Map(results, func(r *models.SessionResult, _ int) string {
			return r.ScenarioCategory
		}))),
		MetricWeights: evaluation.MetricWeights,
	}
	for _, result := range results {
		switch result.Status {
		case models.StatusCompleted:
			summary.Completed++
		case models.StatusFailed:
			summary.Failed++
		}
		if result.Metrics != nil {
			summary.Scored++
		}
	}
	if len(entries) > 0 {
		summary.TopModel = entries[0].ModelID
		summary.TopOverallScore = entries[0].OverallScore
	}
	return writeJSON(path, summary)
}

func writeJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadSessions reads an exported sessions file back in, for the
// leaderboard and show commands.
func LoadSessions(path string) ([]*models.SessionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions file: %w", err)
	}
	var results []*models.SessionResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse sessions file: %w", err)
	}
	return results, nil
}
