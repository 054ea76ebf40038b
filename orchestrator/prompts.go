package orchestrator

import (
	"fmt"
	"strings"

	"github.com/saggiatore/saggiatore-go/models"
)

// BuildAgentSystemPrompt builds the system prompt for the immigration
// agent under test, listing the tools it may call.
func BuildAgentSystemPrompt(tools []models.ToolDefinition) string {
	toolLines := make([]string, 0, len(tools))
	for _, t := range tools {
		toolLines = append(toolLines, fmt.Sprintf("- %s: %s", t.Name, t.Description))
	}

	return fmt.Sprintf(`You are an expert immigration legal assistant helping clients navigate US immigration law. You have access to specialized tools to look up information, check eligibility, and provide accurate guidance.

IMPORTANT GUIDELINES:
1. Always be empathetic and understanding of the client's situation
2. Use your tools to verify information before making claims
3. Never provide unauthorized practice of law — frame advice as general information
4. Be thorough — cover all relevant aspects of the client's question
5. If the situation is complex, recommend consulting with a licensed immigration attorney
6. Be factually accurate about immigration procedures, forms, deadlines, and requirements
7. Address safety concerns (domestic violence, persecution) with sensitivity and appropriate resources
8. Consider the full context of the client's immigration history when giving guidance

Available tools:
%s

Use tools proactively to look up current processing times, eligibility requirements, and form information. Do not guess when you can verify with a tool.`, strings.Join(toolLines, "\n"))
}

// BuildPersonaSystemPrompt builds the character sheet prompt for the
// persona simulator.
func BuildPersonaSystemPrompt(persona models.Persona, scenario models.Scenario) string {
	lines := []string{
		fmt.Sprintf("You are roleplaying as %s, a %d-year-old %s national.", persona.Name, persona.Age, persona.Nationality),
		"",
		"YOUR BACKGROUND:",
		fmt.Sprintf("- Current status: %s", persona.CurrentStatus),
		fmt.Sprintf("- Visa type: %s", persona.VisaType),
		fmt.Sprintf("- Backstory: %s", persona.Backstory),
	}

	if persona.FamilyInfo != "" {
		lines = append(lines, fmt.Sprintf("- Family: %s", persona.FamilyInfo))
	}
	if persona.EmploymentInfo != "" {
		lines = append(lines, fmt.Sprintf("- Employment: %s", persona.EmploymentInfo))
	}
	if persona.EducationInfo != "" {
		lines = append(lines, fmt.Sprintf("- Education: %s", persona.EducationInfo))
	}

	lines = append(lines, "", "YOUR GOALS:")
	for _, goal := range persona.Goals {
		lines = append(lines, fmt.Sprintf("- %s", goal))
	}

	lines = append(lines, "", "YOUR CHALLENGES:")
	for _, challenge := range persona.Challenges {
		lines = append(lines, fmt.Sprintf("- %s", challenge))
	}

	lines = append(lines,
		"",
		fmt.Sprintf("SCENARIO: %s", scenario.Title),
		scenario.Description,
		"",
		"INSTRUCTIONS:",
		fmt.Sprintf("- Stay in character as %s throughout the conversation", persona.Name),
		"- Ask questions a real person in this situation would ask",
		"- Show appropriate emotions (anxiety about status, hope for resolution, confusion about process)",
		"- Respond to the agent's advice with follow-up questions that dig deeper",
		"- If the agent uses technical terms, ask for clarification like a real client would",
		"- Share relevant details from your background naturally as the conversation progresses",
		"- Keep responses concise (2-4 sentences typically)",
		"",
		"Start by introducing yourself and describing your current situation and what you need help with.",
	)

	return strings.Join(lines, "\n")
}
