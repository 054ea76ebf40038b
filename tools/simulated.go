package tools

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/saggiatore/saggiatore-go/engines"
	"github.com/saggiatore/saggiatore-go/models"
)

// SimulatedTool fabricates an immigration tool API. Executing it asks the
// simulator LLM for a realistic JSON response instead of calling a real
// backend. Simulation failures are returned as an error JSON payload so
// the conversation degrades instead of aborting.
type SimulatedTool struct {
	definition models.ToolDefinition
	simulator  engines.LLM
	schema     *engines.ParameterSpecs
}

func NewSimulatedTool(definition models.ToolDefinition, simulator engines.LLM) *SimulatedTool {
	return &SimulatedTool{
		definition: definition,
		simulator:  simulator,
		schema:     buildArgsSchema(definition),
	}
}

// NewSimulatedTools converts tool definitions to simulated tools backed
// by the given simulator engine.
func NewSimulatedTools(definitions []models.ToolDefinition, simulator engines.LLM) []Tool {
	simulated := make([]Tool, 0, len(definitions))
	for _, definition := range definitions {
		simulated = append(simulated, NewSimulatedTool(definition, simulator))
	}
	return simulated
}

func (t *SimulatedTool) Name() string {
	return t.definition.Name
}

func (t *SimulatedTool) Description() string {
	return t.definition.Description
}

func (t *SimulatedTool) ArgsSchema() *engines.ParameterSpecs {
	return t.schema
}

func (t *SimulatedTool) Execute(args json.RawMessage) (json.RawMessage, error) {
	prompt := &engines.ChatPrompt{
		History: []*engines.ChatMessage{
			{
				Role: engines.ConvRoleSystem,
				Text: t.simulatorPrompt(),
			},
			{
				Role: engines.ConvRoleUser,
				Text: fmt.Sprintf("Arguments: %s", string(args)),
			},
		},
	}
	response, err := t.simulator.Chat(prompt)
	if err != nil {
		log.Debugf("tool simulation error for %s: %s", t.definition.Name, err.Error())
		return errorPayload(fmt.Sprintf("Tool simulation error: %s", err.Error())), nil
	}
	if response.Text == "" {
		return errorPayload("Tool simulation failed"), nil
	}
	return json.RawMessage(response.Text), nil
}

func (t *SimulatedTool) simulatorPrompt() string {
	return fmt.Sprintf(
		"You are a simulated immigration tool API. You return realistic, "+
			"plausible JSON responses for immigration-related tool calls.\n\n"+
			"Tool: %s\n"+
			"Description: %s\n"+
			"Expected return: %s — %s\n\n"+
			"Return a realistic JSON response based on the arguments provided. "+
			"Make the data plausible and detailed for an immigration context. "+
			"Return ONLY valid JSON, no explanation.",
		t.definition.Name,
		t.definition.Description,
		t.definition.ReturnType,
		t.definition.ReturnDescription,
	)
}

func errorPayload(message string) json.RawMessage {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return json.RawMessage(`{"error": "tool simulation failed"}`)
	}
	return payload
}

// buildArgsSchema derives a JSON-schema-shaped parameter spec from the
// tool's declared parameters.
func buildArgsSchema(definition models.ToolDefinition) *engines.ParameterSpecs {
	schema := &engines.ParameterSpecs{
		Type:       "object",
		Properties: map[string]*engines.ParameterSpecs{},
	}
	for _, param := range definition.Parameters {
		schema.Properties[param.Name] = &engines.ParameterSpecs{
			Type:        param.Type,
			Description: param.Description,
		}
		if param.Required {
			schema.Required = append(schema.Required, param.Name)
		}
	}
	return schema
}
