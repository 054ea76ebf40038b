package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saggiatore/saggiatore-go/models"
)

func TestRenderLeaderboardEmpty(t *testing.T) {
	out := RenderLeaderboard(nil)
	assert.Contains(t, out, "No evaluation results")
}

func TestRenderLeaderboard(t *testing.T) {
	lb := NewLeaderboard()
	lb.Add(scoredResult("gpt-4o", "visa_application", 0.85, models.EvalMetrics{
		ToolAccuracy: 0.9, Empathy: 0.8, FactualCorrectness: 0.85, Completeness: 0.8, SafetyCompliance: 0.9,
	}))

	out := RenderLeaderboard(lb.Rankings())
	assert.Contains(t, out, "Saggiatore Leaderboard")
	assert.Contains(t, out, "gpt-4o")
	assert.Contains(t, out, "0.850")
	assert.Contains(t, out, "Category Breakdown")
	assert.Contains(t, out, "Weights:")
	assert.Contains(t, out, "Tool Accuracy: 25%")
}

func TestRenderSession(t *testing.T) {
	result := exportableResult()
	result.Messages = append(result.Messages, &models.ConversationMessage{
		Role:       "assistant",
		TurnNumber: 2,
		ToolCalls: []*models.LoggedToolCall{
			{ID: "call_1", Name: "check_case_status", Arguments: `{"receipt_number": "X"}`},
		},
	}, &models.ConversationMessage{
		Role:       "tool",
		Content:    `{"status": "ok"}`,
		TurnNumber: 2,
		ToolCallID: "call_1",
	})
	result.FailureAnalysis = []string{"Low empathy — responses may lack sensitivity."}
	result.GalileoConsoleURL = "https://console.galileo.ai/project/p/traces/t"

	out := RenderSession(result)
	assert.Contains(t, out, "OPT filing window")
	assert.Contains(t, out, "Ahmed Hassan")
	assert.Contains(t, out, "Tool Call: check_case_status")
	assert.Contains(t, out, "Tool Response (turn 2)")
	assert.Contains(t, out, "Low empathy")
	assert.Contains(t, out, "console.galileo.ai")
	assert.NotContains(t, out, "immigration assistant with detailed instructions",
		"system prompt must not be rendered")
}

func TestRenderToolResponseTruncatesLongOutput(t *testing.T) {
	long := `{"a":1,"b":2,"c":3,"d":4,"e":5,"f":6,"g":7,"h":8,"i":9,"j":10,"k":11,"l":12}`
	out := renderToolResponse(long, 2)
	assert.Contains(t, out, "more lines)")
}

func TestScoreCell(t *testing.T) {
	assert.Contains(t, scoreCell(0.9), "0.900")
	assert.Contains(t, scoreCell(0.65), "0.650")
	assert.Contains(t, scoreCell(0.2), "0.200")
	assert.Contains(t, scoreCell(0), "—")
}
