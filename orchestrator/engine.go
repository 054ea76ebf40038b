// Package orchestrator runs simulated multi-turn evaluation sessions.
//
// Three actors take part in every session:
//  1. the persona simulator (cheap model) playing the immigration client,
//  2. the agent under test (the model being evaluated),
//  3. the tool simulator (cheap model) fabricating tool API responses.
//
// The outer loop alternates persona and agent turns up to the scenario's
// turn budget. The agent's turn runs an inner sub-loop that executes
// native tool calls against the simulated tools.
package orchestrator

import (
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/saggiatore/saggiatore-go/engines"
	"github.com/saggiatore/saggiatore-go/memory"
	"github.com/saggiatore/saggiatore-go/models"
	toolsPkg "github.com/saggiatore/saggiatore-go/tools"
)

const defaultMaxToolIterations = 5

type Engine struct {
	ToolDefs          []models.ToolDefinition
	Simulator         engines.LLM
	MaxToolIterations int
	ArgPreprocessors  []toolsPkg.PreprocessingTool
}

func NewEngine(toolDefs []models.ToolDefinition, simulator engines.LLM) *Engine {
	return &Engine{
		ToolDefs:          toolDefs,
		Simulator:         simulator,
		MaxToolIterations: defaultMaxToolIterations,
		ArgPreprocessors: []toolsPkg.PreprocessingTool{
			toolsPkg.NewArgFixer(simulator, 3),
		},
	}
}

// RunSession runs a complete evaluation session and returns its result.
// Any failure mid-session produces a "failed" result carrying the
// partial transcript; RunSession itself never returns an error.
func (e *Engine) RunSession(
	scenario models.Scenario,
	persona models.Persona,
	modelConfig models.ModelConfig,
	agent engines.LLM,
) *models.SessionResult {
	startedAt := time.Now()
	messagesLog := []*models.ConversationMessage{}

	fail := func(err error) *models.SessionResult {
		log.Errorf("session failed: %s | model: %s | error: %s",
			scenario.Title, modelConfig.ModelID, err.Error())
		completedAt := time.Now()
		totalTurns := 0
		for _, msg := range messagesLog {
			if msg.Role == "user" || msg.Role == "assistant" {
				totalTurns++
			}
		}
		return &models.SessionResult{
			ScenarioTitle:    scenario.Title,
			ScenarioCategory: scenario.Category,
			ModelID:          modelConfig.ModelID,
			PersonaName:      persona.Name,
			Status:           models.StatusFailed,
			TotalTurns:       totalTurns,
			Messages:         messagesLog,
			FailureAnalysis:  []string{fmt.Sprintf("Session error: %s", err.Error())},
			StartedAt:        startedAt,
			CompletedAt:      &completedAt,
		}
	}

	agentSystemPrompt := BuildAgentSystemPrompt(e.ToolDefs)
	simulatedTools := toolsPkg.NewSimulatedTools(e.ToolDefs, e.Simulator)
	toolsByName := map[string]toolsPkg.Tool{}
	for _, tool := range simulatedTools {
		toolsByName[tool.Name()] = tool
	}

	agentWithTools, nativeTools := agent.(engines.LLMWithTools)
	nativeTools = nativeTools && modelConfig.SupportsTools && len(simulatedTools) > 0
	if nativeTools {
		agentWithTools.SetTools(toolsPkg.Specs(simulatedTools)...)
	}

	messagesLog = append(messagesLog, &models.ConversationMessage{
		Role:       "system",
		Content:    agentSystemPrompt,
		TurnNumber: 0,
	})

	personaSim := NewPersonaSimulator(persona, scenario, e.Simulator)

	log.Infof("session start: %s | model: %s | persona: %s",
		scenario.Title, modelConfig.ModelID, persona.Name)

	mem := memory.NewBufferedMemory(0)
	if err := mem.Add(&engines.ChatMessage{
		Role: engines.ConvRoleSystem,
		Text: agentSystemPrompt,
	}); err != nil {
		return fail(err)
	}

	initialMsg, err := personaSim.InitialMessage()
	if err != nil {
		return fail(fmt.Errorf("persona simulator failed: %w", err))
	}

	turnNumber := 1
	messagesLog = append(messagesLog, &models.ConversationMessage{
		Role:       "user",
		Content:    initialMsg,
		TurnNumber: turnNumber,
	})
	turnNumber++

	// Flat user/assistant history from the persona's perspective.
	chatHistory := []*engines.ChatMessage{}
	currentInput := initialMsg

	for turnNumber <= scenario.MaxTurns {
		agentResponse, toolMessages, err := e.agentTurn(
			agent, agentWithTools, nativeTools, mem, toolsByName, currentInput, turnNumber,
		)
		if err != nil {
			return fail(fmt.Errorf("agent turn failed: %w", err))
		}
		messagesLog = append(messagesLog, toolMessages...)
		messagesLog = append(messagesLog, &models.ConversationMessage{
			Role:       "assistant",
			Content:    agentResponse,
			TurnNumber: turnNumber,
		})

		chatHistory = append(chatHistory,
			&engines.ChatMessage{Role: engines.ConvRoleUser, Text: currentInput},
			&engines.ChatMessage{Role: engines.ConvRoleAssistant, Text: agentResponse},
		)
		turnNumber++
		if turnNumber > scenario.MaxTurns {
			break
		}

		personaMsg, err := personaSim.Respond(chatHistory)
		if err != nil {
			return fail(fmt.Errorf("persona simulator failed: %w", err))
		}
		messagesLog = append(messagesLog, &models.ConversationMessage{
			Role:       "user",
			Content:    personaMsg,
			TurnNumber: turnNumber,
		})
		currentInput = personaMsg
		turnNumber++
	}

	log.Infof("session complete: %s | model: %s | turns: %d",
		scenario.Title, modelConfig.ModelID, turnNumber-1)

	completedAt := time.Now()
	return &models.SessionResult{
		ScenarioTitle:    scenario.Title,
		ScenarioCategory: scenario.Category,
		ModelID:          modelConfig.ModelID,
		PersonaName:      persona.Name,
		Status:           models.StatusCompleted,
		TotalTurns:       turnNumber - 1,
		Messages:         messagesLog,
		StartedAt:        startedAt,
		CompletedAt:      &completedAt,
	}
}

// agentTurn sends the persona's message to the agent and resolves any
// tool calls it makes, up to MaxToolIterations rounds. It returns the
// agent's final text plus the logged tool-call/tool-response messages.
func (e *Engine) agentTurn(
	agent engines.LLM,
	agentWithTools engines.LLMWithTools,
	nativeTools bool,
	mem memory.Memory,
	toolsByName map[string]toolsPkg.Tool,
	input string,
	turnNumber int,
) (string, []*models.ConversationMessage, error) {
	toolLog := []*models.ConversationMessage{}
	prompt, err := mem.PromptWithContext(&engines.ChatMessage{
		Role: engines.ConvRoleUser,
		Text: input,
	})
	if err != nil {
		return "", nil, err
	}

	for i := 0; i < e.MaxToolIterations; i++ {
		var response *engines.ChatMessage
		if nativeTools {
			response, err = agentWithTools.ChatWithTools(prompt)
		} else {
			response, err = agent.Chat(prompt)
		}
		if err != nil {
			return "", nil, err
		}
		if err := mem.Add(response); err != nil {
			return "", nil, err
		}
		if len(response.ToolCalls) == 0 {
			return response.Text, toolLog, nil
		}

		callIDs := make([]string, len(response.ToolCalls))
		loggedCalls := make([]*models.LoggedToolCall, 0, len(response.ToolCalls))
		for i, call := range response.ToolCalls {
			callIDs[i] = call.ID
			if callIDs[i] == "" {
				callIDs[i] = fmt.Sprintf("call_%s_%d", call.Function.Name, turnNumber)
			}
			loggedCalls = append(loggedCalls, &models.LoggedToolCall{
				ID:        callIDs[i],
				Name:      call.Function.Name,
				Arguments: call.Function.Args,
			})
		}
		toolLog = append(toolLog, &models.ConversationMessage{
			Role:       "assistant",
			Content:    "",
			TurnNumber: turnNumber,
			ToolCalls:  loggedCalls,
		})

		toolResults := []*engines.ChatMessage{}
		for i, call := range response.ToolCalls {
			output := e.executeToolCall(toolsByName, call)
			toolLog = append(toolLog, &models.ConversationMessage{
				Role:       "tool",
				Content:    string(output),
				TurnNumber: turnNumber,
				ToolCallID: callIDs[i],
			})
			toolResults = append(toolResults, &engines.ChatMessage{
				Role:       engines.ConvRoleTool,
				Text:       string(output),
				ToolCallID: callIDs[i],
				Name:       call.Function.Name,
			})
		}

		prompt, err = mem.PromptWithContext(toolResults...)
		if err != nil {
			return "", nil, err
		}
	}

	return "", toolLog, nil
}

func (e *Engine) executeToolCall(toolsByName map[string]toolsPkg.Tool, call *engines.ToolCall) json.RawMessage {
	tool, ok := toolsByName[call.Function.Name]
	if !ok {
		return errorJSON(fmt.Sprintf("unknown tool: %s", call.Function.Name))
	}
	args := json.RawMessage(call.Function.Args)
	for _, preprocessor := range e.ArgPreprocessors {
		fixed, err := preprocessor.Process(args)
		if err != nil {
			log.Debugf("arg preprocessing failed for %s: %s", call.Function.Name, err.Error())
			return errorJSON(fmt.Sprintf("invalid tool arguments: %s", err.Error()))
		}
		args = fixed
	}
	output, err := tool.Execute(args)
	if err != nil {
		return errorJSON(err.Error())
	}
	return output
}

func errorJSON(message string) json.RawMessage {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return json.RawMessage(`{"error": "tool call failed"}`)
	}
	return payload
}
