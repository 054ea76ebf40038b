package orchestrator

import (
	"github.com/saggiatore/saggiatore-go/engines"
	"github.com/saggiatore/saggiatore-go/models"
)

const personaFallbackMessage = "I'm not sure what to say."

// PersonaSimulator roleplays the immigration client in a multi-turn
// conversation. Its system prompt carries the full persona character
// sheet plus the scenario.
//
// Perspective flipping: from the persona's point of view its own past
// messages are `assistant` messages, and the agent's messages are
// `user` messages.
type PersonaSimulator struct {
	persona      models.Persona
	scenario     models.Scenario
	engine       engines.LLM
	systemPrompt string
}

func NewPersonaSimulator(persona models.Persona, scenario models.Scenario, engine engines.LLM) *PersonaSimulator {
	return &PersonaSimulator{
		persona:      persona,
		scenario:     scenario,
		engine:       engine,
		systemPrompt: BuildPersonaSystemPrompt(persona, scenario),
	}
}

// InitialMessage generates the persona's opening message. The history is
// empty, so the persona introduces itself based on the system prompt.
func (sim *PersonaSimulator) InitialMessage() (string, error) {
	prompt := &engines.ChatPrompt{
		History: []*engines.ChatMessage{
			{Role: engines.ConvRoleSystem, Text: sim.systemPrompt},
		},
	}
	response, err := sim.engine.Chat(prompt)
	if err != nil {
		return "", err
	}
	if response.Text == "" {
		return personaFallbackMessage, nil
	}
	return response.Text, nil
}

// Respond generates the persona's next message given the conversation so
// far, flipping each message's role into the persona's perspective.
// System and tool messages are skipped.
func (sim *PersonaSimulator) Respond(history []*engines.ChatMessage) (string, error) {
	perspective := []*engines.ChatMessage{
		{Role: engines.ConvRoleSystem, Text: sim.systemPrompt},
	}
	for _, msg := range history {
		switch msg.Role {
		case engines.ConvRoleUser:
			// The persona's own previous messages.
			perspective = append(perspective, &engines.ChatMessage{
				Role: engines.ConvRoleAssistant,
				Text: msg.Text,
			})
		case engines.ConvRoleAssistant:
			if msg.Text == "" {
				continue
			}
			// The agent's messages appear as user to the persona.
			perspective = append(perspective, &engines.ChatMessage{
				Role: engines.ConvRoleUser,
				Text: msg.Text,
			})
		}
	}
	response, err := sim.engine.Chat(&engines.ChatPrompt{History: perspective})
	if err != nil {
		return "", err
	}
	if response.Text == "" {
		return personaFallbackMessage, nil
	}
	return response.Text, nil
}
