package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/saggiatore/saggiatore-go/models"
)

// SyncClient pushes run results to the Convex ingestion endpoint that
// backs the web leaderboard. Sync is best effort: failures are logged
// and never abort a run.
type SyncClient struct {
	IngestURL  string
	Token      string
	HTTPClient *http.Client
}

func NewSyncClient(ingestURL, token string) *SyncClient {
	return &SyncClient{
		IngestURL:  ingestURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether both the ingestion URL and token are set.
func (c *SyncClient) Enabled() bool {
	return c.IngestURL != "" && c.Token != ""
}

// Every ingest record carries a kind discriminator; the endpoint
// receives separate POSTs for the run, each session, and the
// leaderboard.
type syncMessage struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	TurnNumber int    `json:"turnNumber"`
	Timestamp  int64  `json:"timestamp"`
	ToolCalls  []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"toolCalls,omitempty"`
}

type syncSession struct {
	Kind              string              `json:"kind"`
	RunID             string              `json:"runId"`
	ScenarioTitle     string              `json:"scenarioTitle"`
	ScenarioCategory  string              `json:"scenarioCategory"`
	ModelID           string              `json:"modelId"`
	PersonaName       string              `json:"personaName"`
	Status            string              `json:"status"`
	TotalTurns        int                 `json:"totalTurns"`
	OverallScore      float64             `json:"overallScore"`
	Metrics           *models.EvalMetrics `json:"metrics,omitempty"`
	FailureAnalysis   []string            `json:"failureAnalysis,omitempty"`
	GalileoConsoleURL string              `json:"galileoConsoleUrl,omitempty"`
	Messages          []syncMessage       `json:"messages"`
}

type syncLeaderboardEntry struct {
	RunID            string             `json:"runId"`
	Rank             int                `json:"rank"`
	ModelID          string             `json:"modelId"`
	DisplayName      string             `json:"displayName"`
	OverallScore     float64            `json:"overallScore"`
	TotalEvaluations int                `json:"totalEvaluations"`
	Metrics          models.EvalMetrics `json:"metrics"`
	CategoryScores   map[string]float64 `json:"categoryScores"`
}

type syncRunRecord struct {
	Kind          string `json:"kind"`
	RunID         string `json:"runId"`
	StartedAt     int64  `json:"startedAt"`
	TotalSessions int    `json:"totalSessions"`
}

type syncLeaderboardRecord struct {
	Kind    string                 `json:"kind"`
	RunID   string                 `json:"runId"`
	Entries []syncLeaderboardEntry `json:"entries"`
}

// SyncRun pushes a complete run to the ingestion endpoint as separate
// records: one run POST, one POST per session, one leaderboard POST.
// Each failure is logged and the remaining records are still sent.
func (c *SyncClient) SyncRun(ctx context.Context, runID string, results []*models.SessionResult, entries []models.LeaderboardEntry) {
	if !c.Enabled() {
		log.Debug("convex sync disabled, skipping")
		return
	}

	synced := 0
	if err := c.post(ctx, syncRunRecord{
		Kind:          "run",
		RunID:         runID,
		StartedAt:     time.Now().UnixMilli(),
		TotalSessions: len(results),
	}); err != nil {
		log.Warnf("convex run sync failed: %s", err.Error())
	} else {
		synced++
	}

	for _, result := range results {
		if err := c.post(ctx, buildSyncSession(runID, result)); err != nil {
			log.Warnf("convex session sync failed for %s: %s", result.ScenarioTitle, err.Error())
			continue
		}
		synced++
	}

	if len(entries) > 0 {
		record := syncLeaderboardRecord{Kind: "leaderboard", RunID: runID}
		for i, entry := range entries {
			record.Entries = append(record.Entries, syncLeaderboardEntry{
				RunID:            runID,
				Rank:             i + 1,
				ModelID:          entry.ModelID,
				DisplayName:      entry.DisplayName,
				OverallScore:     entry.OverallScore,
				TotalEvaluations: entry.TotalEvaluations,
				Metrics:          entry.Metrics,
				CategoryScores:   entry.CategoryScores,
			})
		}
		if err := c.post(ctx, record); err != nil {
			log.Warnf("convex leaderboard sync failed: %s", err.Error())
		} else {
			synced++
		}
	}

	log.Infof("synced run %s to web leaderboard (%d records)", runID, synced)
}

func buildSyncSession(runID string, result *models.SessionResult) syncSession {
	session := syncSession{
		Kind:              "session",
		RunID:             runID,
		ScenarioTitle:     result.ScenarioTitle,
		ScenarioCategory:  result.ScenarioCategory,
		ModelID:           result.ModelID,
		PersonaName:       result.PersonaName,
		Status:            result.Status,
		TotalTurns:        result.TotalTurns,
		OverallScore:      result.OverallScore,
		Metrics:           result.Metrics,
		FailureAnalysis:   result.FailureAnalysis,
		GalileoConsoleURL: result.GalileoConsoleURL,
	}

	// Messages carry synthesized millisecond timestamps so the web UI
	// can order them even though the log only records turn numbers.
	baseTS := result.StartedAt.UnixMilli()
	for i, msg := range sanitizeMessages(result.Messages) {
		synced := syncMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			TurnNumber: msg.TurnNumber,
			Timestamp:  baseTS + int64(i)*1000,
		}
		for _, call := range msg.ToolCalls {
			synced.ToolCalls = append(synced.ToolCalls, struct {
				ID        string `json:"id"`
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			}{ID: call.ID, Name: call.Name, Arguments: call.Arguments})
		}
		session.Messages = append(session.Messages, synced)
	}
	return session
}

func (c *SyncClient) post(ctx context.Context, payload any) error {
	bodyJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.IngestURL, bytes.NewBuffer(bodyJSON))
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", "Bearer "+c.Token)
	req.Header.Add("Content-Type", "application/json")
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return fmt.Errorf("ingest endpoint returned HTTP %d", res.StatusCode)
	}
	return nil
}
