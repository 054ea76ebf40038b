package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/saggiatore/saggiatore-go/models"
)

const (
	DefaultGalileoBaseURL = "https://api.galileo.ai/v2"
	defaultConsoleURL     = "https://console.galileo.ai"

	maxPollAttempts = 12
	pollInterval    = 15 * time.Second
)

// Scorer keys the log stream is expected to produce.
var expectedMetricKeys = []string{
	"toolSelectionQuality",
	"toolErrorRate",
	"toxicityGpt",
	"promptInjectionGpt",
	"factuality",
	"completenessGpt",
	"empathy",
}

// GalileoClient logs conversation traces to the Galileo scoring service
// and polls for scorer results.
type GalileoClient struct {
	APIKey    string
	Project   string
	LogStream string
	BaseURL   string

	HTTPClient      *http.Client
	MaxPollAttempts int
	PollInterval    time.Duration
}

func NewGalileoClient(apiKey, project, logStream string) *GalileoClient {
	return &GalileoClient{
		APIKey:          apiKey,
		Project:         project,
		LogStream:       logStream,
		BaseURL:         DefaultGalileoBaseURL,
		HTTPClient:      &http.Client{Timeout: 30 * time.Second},
		MaxPollAttempts: maxPollAttempts,
		PollInterval:    pollInterval,
	}
}

type traceSpan struct {
	Type   string   `json:"type"`
	Name   string   `json:"name,omitempty"`
	Input  string   `json:"input"`
	Output string   `json:"output"`
	Model  string   `json:"model,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

type tracePayload struct {
	Name        string      `json:"name"`
	SessionName string      `json:"sessionName"`
	Input       string      `json:"input"`
	Output      string      `json:"output"`
	Tags        []string    `json:"tags,omitempty"`
	Spans       []traceSpan `json:"spans"`
}

type traceSearchRequest struct {
	Filters []traceSearchFilter `json:"filters"`
	Limit   int                 `json:"limit"`
}

type traceSearchFilter struct {
	ColumnID string `json:"columnId"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
	Type     string `json:"type"`
}

type traceSearchResponse struct {
	Records []struct {
		Name    string         `json:"name"`
		Metrics map[string]any `json:"metrics"`
	} `json:"records"`
}

// EvaluateSession logs the session transcript as a trace, polls for
// scorer results, and fills in the session's metrics, overall score and
// failure analysis. Scores that never become available are not an
// error: the trace ID is kept and a note is added instead.
func (c *GalileoClient) EvaluateSession(ctx context.Context, result *models.SessionResult) error {
	traceName := fmt.Sprintf("immigration-eval-%s-%d-%s",
		result.ModelID, time.Now().Unix(), uuid.NewString()[:8])
	sessionName := fmt.Sprintf("eval-%s-%d", result.ModelID, time.Now().Unix())

	payload := c.buildTrace(result, traceName, sessionName)
	if err := c.logTrace(ctx, payload); err != nil {
		return fmt.Errorf("failed to log trace: %w", err)
	}
	log.Infof("trace flushed to galileo: %s", traceName)

	rawScores, err := c.pollForScores(ctx, traceName)
	if err != nil {
		return err
	}
	if rawScores == nil {
		log.Warnf("galileo scores not ready after polling for %s", result.ModelID)
		result.GalileoTraceID = traceName
		result.FailureAnalysis = []string{
			"Galileo scores not available after polling. Check Galileo Console.",
		}
		return nil
	}

	metrics := MapScorerScores(rawScores)
	result.Metrics = &metrics
	result.OverallScore = ComputeOverallScore(metrics)
	result.FailureAnalysis = GenerateFailureAnalysis(metrics)
	result.GalileoTraceID = traceName
	result.GalileoConsoleURL = fmt.Sprintf("%s/project/%s/traces/%s",
		defaultConsoleURL, c.Project, traceName)

	log.Infof("galileo evaluation complete: %s | score: %.3f",
		result.ModelID, result.OverallScore)
	return nil
}

// buildTrace converts the conversation log into a trace: one LLM span
// per assistant message (paired with the preceding user input) and one
// tool span per tool call (paired with its tool response).
func (c *GalileoClient) buildTrace(result *models.SessionResult, traceName, sessionName string) *tracePayload {
	var systemPrompt string
	for _, msg := range result.Messages {
		if msg.Role == "system" {
			systemPrompt = msg.Content
			break
		}
	}

	input := "Immigration consultation"
	if first, ok := lo.Find(result.Messages, func(m *models.ConversationMessage) bool {
		return m.Role == "user"
	}); ok {
		input = first.Content
	}

	var output string
	for i := len(result.Messages) - 1; i >= 0; i-- {
		if result.Messages[i].Role == "assistant" && result.Messages[i].Content != "" {
			output = result.Messages[i].Content
			break
		}
	}

	payload := &tracePayload{
		Name:        traceName,
		SessionName: sessionName,
		Input:       input,
		Output:      output,
		Tags:        []string{"saggiatore-go", result.ModelID, "immigration"},
	}

	for _, msg := range result.Messages {
		if msg.Role == "assistant" && msg.Content != "" {
			precedingInput := systemPrompt
			for _, prev := range result.Messages {
				if prev.TurnNumber < msg.TurnNumber && prev.Role == "user" {
					precedingInput = prev.Content
				}
			}
			payload.Spans = append(payload.Spans, traceSpan{
				Type:   "llm",
				Input:  precedingInput,
				Output: msg.Content,
				Model:  result.ModelID,
				Tags:   []string{fmt.Sprintf("turn-%d", msg.TurnNumber)},
			})
		}
		for _, call := range msg.ToolCalls {
			toolOutput := ""
			if toolMsg, ok := lo.Find(result.Messages, func(m *models.ConversationMessage) bool {
				return m.Role == "tool" && m.ToolCallID == call.ID
			}); ok {
				toolOutput = toolMsg.Content
			}
			payload.Spans = append(payload.Spans, traceSpan{
				Type:   "tool",
				Name:   call.Name,
				Input:  call.Arguments,
				Output: toolOutput,
			})
		}
	}
	return payload
}

func (c *GalileoClient) logTrace(ctx context.Context, payload *tracePayload) error {
	url := fmt.Sprintf("%s/projects/%s/streams/%s/traces",
		c.BaseURL, c.Project, c.LogStream)
	return c.post(ctx, url, payload, nil)
}

// pollForScores polls the scoring service until the expected scorer
// keys are available: up to MaxPollAttempts attempts, PollInterval
// apart, accepting partial results after four attempts. A nil map with
// nil error means the scores never became available.
func (c *GalileoClient) pollForScores(ctx context.Context, traceName string) (map[string]float64, error) {
	for attempt := 0; attempt < c.MaxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.PollInterval):
		}

		metrics, err := c.fetchTraceMetrics(ctx, traceName)
		if err != nil {
			log.Warnf("galileo polling attempt %d failed: %s", attempt+1, err.Error())
			continue
		}
		if len(metrics) == 0 {
			continue
		}

		found := lo.Filter(expectedMetricKeys, func(key string, _ int) bool {
			_, ok := metrics[key]
			return ok
		})
		missing, _ := lo.Difference(expectedMetricKeys, found)
		log.Infof("galileo poll %d/%d: found [%s], missing [%s]",
			attempt+1, c.MaxPollAttempts,
			strings.Join(found, ", "), strings.Join(missing, ", "))

		if len(missing) == 0 {
			log.Infof("all galileo metrics retrieved on attempt %d", attempt+1)
			return metrics, nil
		}
		if attempt >= 3 {
			log.Infof("accepting partial galileo scores after %d attempts", attempt+1)
			return metrics, nil
		}
	}
	return nil, nil
}

func (c *GalileoClient) fetchTraceMetrics(ctx context.Context, traceName string) (map[string]float64, error) {
	url := fmt.Sprintf("%s/projects/%s/streams/%s/traces/search",
		c.BaseURL, c.Project, c.LogStream)
	request := traceSearchRequest{
		Filters: []traceSearchFilter{
			{ColumnID: "name", Operator: "eq", Value: traceName, Type: "text"},
		},
		Limit: 1,
	}
	var response traceSearchResponse
	if err := c.post(ctx, url, request, &response); err != nil {
		return nil, err
	}
	if len(response.Records) == 0 {
		return nil, nil
	}
	// Scorers may attach non-numeric diagnostics; keep numbers only.
	numeric := map[string]float64{}
	for key, value := range response.Records[0].Metrics {
		if number, ok := value.(float64); ok {
			numeric[key] = number
		}
	}
	return numeric, nil
}

func (c *GalileoClient) post(ctx context.Context, url string, payload any, out any) error {
	bodyJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(bodyJSON))
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", "Bearer "+c.APIKey)
	req.Header.Add("Content-Type", "application/json")
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 300))
		return fmt.Errorf("galileo API error: HTTP %d %s", res.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
