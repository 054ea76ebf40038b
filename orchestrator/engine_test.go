package orchestrator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saggiatore/saggiatore-go/engines"
	"github.com/saggiatore/saggiatore-go/models"
)

// fakeAgent is a scripted agent under test with native tool support.
type fakeAgent struct {
	responses []*engines.ChatMessage
	tools     []engines.ToolSpecs
}

func (f *fakeAgent) next() (*engines.ChatMessage, error) {
	if len(f.responses) == 0 {
		return nil, fmt.Errorf("no scripted responses left")
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	return next, nil
}

func (f *fakeAgent) Chat(prompt *engines.ChatPrompt) (*engines.ChatMessage, error) {
	return f.next()
}

func (f *fakeAgent) SetTools(specs ...engines.ToolSpecs) {
	f.tools = specs
}

func (f *fakeAgent) ChatWithTools(prompt *engines.ChatPrompt) (*engines.ChatMessage, error) {
	return f.next()
}

// textOnlyAgent has no native tool support.
type textOnlyAgent struct {
	responses []string
}

func (f *textOnlyAgent) Chat(prompt *engines.ChatPrompt) (*engines.ChatMessage, error) {
	if len(f.responses) == 0 {
		return nil, fmt.Errorf("no scripted responses left")
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	return &engines.ChatMessage{Role: engines.ConvRoleAssistant, Text: next}, nil
}

var testToolDefs = []models.ToolDefinition{
	{
		Name:              "check_case_status",
		Description:       "Look up a USCIS case.",
		ReturnType:        "object",
		ReturnDescription: "Case status.",
		Parameters: []models.ToolParameter{
			{Name: "receipt_number", Type: "string", Description: "Receipt number", Required: true},
		},
	},
}

var testModelConfig = models.ModelConfig{
	ModelID:       "gpt-4o",
	Provider:      "openai",
	APIModel:      "gpt-4o",
	SupportsTools: true,
}

func roles(messages []*models.ConversationMessage) []string {
	out := make([]string, 0, len(messages))
	for _, msg := range messages {
		out = append(out, msg.Role)
	}
	return out
}

func TestRunSessionWithToolCalls(t *testing.T) {
	simulator := &fakeSimulator{responses: []string{
		"Hi, I'm Ahmed. Can you check my case MSC2190012345?",
		`{"status": "Case Was Received", "form": "I-765"}`,
		"Thank you! How long will it take?",
	}}
	agent := &fakeAgent{responses: []*engines.ChatMessage{
		{
			Role: engines.ConvRoleAssistant,
			ToolCalls: []*engines.ToolCall{
				{
					ID:   "call_1",
					Type: "function",
					Function: engines.FunctionCall{
						Name: "check_case_status",
						Args: `{"receipt_number": "MSC2190012345"}`,
					},
				},
			},
		},
		{Role: engines.ConvRoleAssistant, Text: "Your case was received."},
		{Role: engines.ConvRoleAssistant, Text: "Typically three to five months."},
	}}

	engine := NewEngine(testToolDefs, simulator)
	result := engine.RunSession(testScenario, testPersona, testModelConfig, agent)

	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.Equal(t, "OPT filing window", result.ScenarioTitle)
	assert.Equal(t, "visa_application", result.ScenarioCategory)
	assert.Equal(t, "gpt-4o", result.ModelID)
	assert.Equal(t, "Ahmed Hassan", result.PersonaName)
	assert.Equal(t, 4, result.TotalTurns)
	require.NotNil(t, result.CompletedAt)

	assert.Equal(t, []string{
		"system", "user", "assistant", "tool", "assistant", "user", "assistant",
	}, roles(result.Messages))

	// Tool specs were registered with the agent.
	require.Len(t, agent.tools, 1)
	assert.Equal(t, "check_case_status", agent.tools[0].Name)

	toolCallMsg := result.Messages[2]
	require.Len(t, toolCallMsg.ToolCalls, 1)
	assert.Equal(t, "call_1", toolCallMsg.ToolCalls[0].ID)
	assert.Equal(t, "check_case_status", toolCallMsg.ToolCalls[0].Name)

	toolMsg := result.Messages[3]
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.JSONEq(t, `{"status": "Case Was Received", "form": "I-765"}`, toolMsg.Content)

	assert.Equal(t, "Your case was received.", result.Messages[4].Content)
	assert.Equal(t, "Thank you! How long will it take?", result.Messages[5].Content)
	assert.Equal(t, "Typically three to five months.", result.Messages[6].Content)
}

func TestRunSessionWithoutNativeTools(t *testing.T) {
	simulator := &fakeSimulator{responses: []string{
		"Hi, I need help.",
		"Thanks, anything else?",
	}}
	agent := &textOnlyAgent{responses: []string{
		"Happy to help with your immigration question.",
		"That covers everything.",
	}}

	engine := NewEngine(testToolDefs, simulator)
	result := engine.RunSession(testScenario, testPersona, testModelConfig, agent)

	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.Equal(t, []string{"system", "user", "assistant", "user", "assistant"}, roles(result.Messages))
}

func TestRunSessionPersonaFailure(t *testing.T) {
	simulator := &fakeSimulator{err: fmt.Errorf("simulator down")}
	agent := &fakeAgent{}

	engine := NewEngine(testToolDefs, simulator)
	result := engine.RunSession(testScenario, testPersona, testModelConfig, agent)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Equal(t, 0, result.TotalTurns)
	require.Len(t, result.FailureAnalysis, 1)
	assert.Contains(t, result.FailureAnalysis[0], "Session error:")
	assert.Contains(t, result.FailureAnalysis[0], "persona simulator failed")
	// The partial transcript (just the system prompt) is preserved.
	assert.Equal(t, []string{"system"}, roles(result.Messages))
}

func TestRunSessionAgentFailure(t *testing.T) {
	simulator := &fakeSimulator{responses: []string{"Hi, I need help."}}
	agent := &fakeAgent{} // no scripted responses: first agent call fails

	engine := NewEngine(testToolDefs, simulator)
	result := engine.RunSession(testScenario, testPersona, testModelConfig, agent)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Equal(t, 1, result.TotalTurns)
	require.Len(t, result.FailureAnalysis, 1)
	assert.Contains(t, result.FailureAnalysis[0], "agent turn failed")
}

func TestRunSessionUnknownToolCall(t *testing.T) {
	simulator := &fakeSimulator{responses: []string{
		"Hi, I need help.",
		"Thanks.",
	}}
	agent := &fakeAgent{responses: []*engines.ChatMessage{
		{
			Role: engines.ConvRoleAssistant,
			ToolCalls: []*engines.ToolCall{
				{
					ID:       "call_1",
					Type:     "function",
					Function: engines.FunctionCall{Name: "no_such_tool", Args: `{}`},
				},
			},
		},
		{Role: engines.ConvRoleAssistant, Text: "Sorry, let me answer directly."},
		{Role: engines.ConvRoleAssistant, Text: "All done."},
	}}

	engine := NewEngine(testToolDefs, simulator)
	result := engine.RunSession(testScenario, testPersona, testModelConfig, agent)

	assert.Equal(t, models.StatusCompleted, result.Status)
	toolMsg := result.Messages[3]
	assert.Equal(t, "tool", toolMsg.Role)
	assert.Contains(t, toolMsg.Content, "unknown tool: no_such_tool")
}

func TestRunSessionToolLoopBudget(t *testing.T) {
	simulator := &fakeSimulator{responses: []string{
		"Hi, I need help.",
		`{"status": "ok"}`, `{"status": "ok"}`,
		"Thanks.",
	}}
	toolCallResponse := func() *engines.ChatMessage {
		return &engines.ChatMessage{
			Role: engines.ConvRoleAssistant,
			ToolCalls: []*engines.ToolCall{
				{
					ID:       "call_loop",
					Type:     "function",
					Function: engines.FunctionCall{Name: "check_case_status", Args: `{"receipt_number": "X"}`},
				},
			},
		}
	}
	agent := &fakeAgent{responses: []*engines.ChatMessage{
		toolCallResponse(), toolCallResponse(), toolCallResponse(),
		toolCallResponse(), toolCallResponse(),
		{Role: engines.ConvRoleAssistant, Text: "never reached in turn 2"},
	}}

	engine := NewEngine(testToolDefs, simulator)
	engine.MaxToolIterations = 2
	scenario := testScenario
	scenario.MaxTurns = 2
	result := engine.RunSession(scenario, testPersona, testModelConfig, agent)

	// The agent kept calling tools, so its turn ended with empty text
	// after the iteration budget.
	assert.Equal(t, models.StatusCompleted, result.Status)
	last := result.Messages[len(result.Messages)-1]
	assert.Equal(t, "assistant", last.Role)
	assert.Equal(t, "", last.Content)
}
