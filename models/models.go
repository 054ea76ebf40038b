// Package models defines the shared data records: the JSON data files
// (personas, tools, scenarios), the model registry entries, and the
// runtime session/leaderboard records.
package models

import "time"

// ---------------------------------------------------------------------------
// Data file records (loaded from data/*.json)
// ---------------------------------------------------------------------------

// Persona is an immigration client persona used in evaluation scenarios.
type Persona struct {
	Name            string   `json:"name"`
	Age             int      `json:"age"`
	Nationality     string   `json:"nationality"`
	CountryFlag     string   `json:"countryFlag"`
	CurrentStatus   string   `json:"currentStatus"`
	VisaType        string   `json:"visaType"`
	ComplexityLevel string   `json:"complexityLevel"`
	Backstory       string   `json:"backstory"`
	Goals           []string `json:"goals"`
	Challenges      []string `json:"challenges"`
	FamilyInfo      string   `json:"familyInfo,omitempty"`
	EmploymentInfo  string   `json:"employmentInfo,omitempty"`
	EducationInfo   string   `json:"educationInfo,omitempty"`
	Tags            []string `json:"tags"`
}

// ToolParameter is a parameter definition for a simulated tool.
type ToolParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ToolDefinition is a simulated immigration tool (API endpoint).
type ToolDefinition struct {
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	Parameters        []ToolParameter `json:"parameters"`
	ReturnType        string          `json:"returnType"`
	ReturnDescription string          `json:"returnDescription"`
}

// Scenario combines a persona with a specific situation to evaluate.
type Scenario struct {
	Title           string   `json:"title"`
	Category        string   `json:"category"`
	Complexity      string   `json:"complexity"`
	Description     string   `json:"description"`
	PersonaIndex    int      `json:"personaIndex"`
	ExpectedTools   []string `json:"expectedTools"`
	SuccessCriteria []string `json:"successCriteria"`
	MaxTurns        int      `json:"maxTurns"`
}

// Scenario categories, in display order.
var Categories = []string{
	"visa_application",
	"status_change",
	"family_immigration",
	"deportation_defense",
	"humanitarian",
}

var CategoryDisplay = map[string]string{
	"visa_application":    "Visa Application",
	"status_change":       "Status Change",
	"family_immigration":  "Family Immigration",
	"deportation_defense": "Deportation Defense",
	"humanitarian":        "Humanitarian",
}

// ---------------------------------------------------------------------------
// Runtime records
// ---------------------------------------------------------------------------

// ModelConfig is a registry entry for a model under evaluation.
type ModelConfig struct {
	ModelID       string `json:"model_id"`
	DisplayName   string `json:"display_name"`
	Provider      string `json:"provider"`
	APIModel      string `json:"api_model"`
	EnvKey        string `json:"env_key"`
	SupportsTools bool   `json:"supports_tools"`
}

// EvalMetrics holds the five scored dimensions for a session.
type EvalMetrics struct {
	ToolAccuracy       float64 `json:"tool_accuracy"`
	Empathy            float64 `json:"empathy"`
	FactualCorrectness float64 `json:"factual_correctness"`
	Completeness       float64 `json:"completeness"`
	SafetyCompliance   float64 `json:"safety_compliance"`
}

// LoggedToolCall is a tool invocation as recorded in the conversation log.
type LoggedToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ConversationMessage is a single message in a conversation log.
type ConversationMessage struct {
	Role       string            `json:"role"`
	Content    string            `json:"content"`
	TurnNumber int               `json:"turn_number"`
	ToolCalls  []*LoggedToolCall `json:"tool_calls,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
}

// Session statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusTimeout   = "timeout"
)

// SessionResult is the complete result of a single evaluation session.
type SessionResult struct {
	ScenarioTitle     string                 `json:"scenario_title"`
	ScenarioCategory  string                 `json:"scenario_category"`
	ModelID           string                 `json:"model_id"`
	PersonaName       string                 `json:"persona_name"`
	Status            string                 `json:"status"`
	TotalTurns        int                    `json:"total_turns"`
	Messages          []*ConversationMessage `json:"messages,omitempty"`
	Metrics           *EvalMetrics           `json:"metrics,omitempty"`
	OverallScore      float64                `json:"overall_score"`
	FailureAnalysis   []string               `json:"failure_analysis,omitempty"`
	GalileoTraceID    string                 `json:"galileo_trace_id,omitempty"`
	GalileoConsoleURL string                 `json:"galileo_console_url,omitempty"`
	StartedAt         time.Time              `json:"started_at"`
	CompletedAt       *time.Time             `json:"completed_at,omitempty"`
}

// LeaderboardEntry aggregates a model's scores across all evaluated scenarios.
type LeaderboardEntry struct {
	ModelID          string             `json:"model_id"`
	DisplayName      string             `json:"display_name"`
	OverallScore     float64            `json:"overall_score"`
	TotalEvaluations int                `json:"total_evaluations"`
	Metrics          EvalMetrics        `json:"metrics"`
	CategoryScores   map[string]float64 `json:"category_scores"`
}
