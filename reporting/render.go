package reporting

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/saggiatore/saggiatore-go/evaluation"
	"github.com/saggiatore/saggiatore-go/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mediumStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	personaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	agentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	toolStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

func scoreCell(score float64) string {
	switch {
	case score >= 0.8:
		return goodStyle.Render(fmt.Sprintf("%.3f", score))
	case score >= 0.6:
		return mediumStyle.Render(fmt.Sprintf("%.3f", score))
	case score > 0:
		return badStyle.Render(fmt.Sprintf("%.3f", score))
	default:
		return dimStyle.Render("—")
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(_, _ int) lipgloss.Style { return cellStyle }).
		Headers(headers...)
}

// RenderLeaderboard renders the ranked leaderboard, the per-category
// breakdown and the metric weights footer.
func RenderLeaderboard(entries []models.LeaderboardEntry) string {
	if len(entries) == 0 {
		return mediumStyle.Render("No evaluation results to display.")
	}

	var sections []string

	main := newTable("Rank", "Model", "Overall", "Tool Acc.", "Factual", "Complete", "Empathy", "Safety", "Sessions")
	for i, entry := range entries {
		main.Row(
			fmt.Sprintf("#%d", i+1),
			entry.ModelID,
			scoreCell(entry.OverallScore),
			scoreCell(entry.Metrics.ToolAccuracy),
			scoreCell(entry.Metrics.FactualCorrectness),
			scoreCell(entry.Metrics.Completeness),
			scoreCell(entry.Metrics.Empathy),
			scoreCell(entry.Metrics.SafetyCompliance),
			fmt.Sprintf("%d", entry.TotalEvaluations),
		)
	}
	sections = append(sections, titleStyle.Render("Saggiatore Leaderboard"), main.Render())

	hasCategoryScores := false
	for _, entry := range entries {
		for _, score := range entry.CategoryScores {
			if score > 0 {
				hasCategoryScores = true
			}
		}
	}
	if hasCategoryScores {
		headers := append([]string{"Model"}, categoryDisplayNames()...)
		breakdown := newTable(headers...)
		for _, entry := range entries {
			row := []string{entry.ModelID}
			for _, category := range models.Categories {
				row = append(row, scoreCell(entry.CategoryScores[category]))
			}
			breakdown.Row(row...)
		}
		sections = append(sections, titleStyle.Render("Category Breakdown"), breakdown.Render())
	}

	sections = append(sections, dimStyle.Render("Weights: "+weightsFooter()))
	return strings.Join(sections, "\n")
}

func categoryDisplayNames() []string {
	names := make([]string, 0, len(models.Categories))
	for _, category := range models.Categories {
		names = append(names, models.CategoryDisplay[category])
	}
	return names
}

var weightLabels = []struct {
	key   string
	label string
}{
	{"tool_accuracy", "Tool Accuracy"},
	{"empathy", "Empathy"},
	{"factual_correctness", "Factual Correctness"},
	{"completeness", "Completeness"},
	{"safety_compliance", "Safety Compliance"},
}

func weightsFooter() string {
	parts := make([]string, 0, len(weightLabels))
	for _, w := range weightLabels {
		parts = append(parts, fmt.Sprintf("%s: %.0f%%", w.label, evaluation.MetricWeights[w.key]*100))
	}
	return strings.Join(parts, " | ")
}

// RenderSession renders a full session transcript with color-coded
// messages, evaluation scores and failure analysis.
func RenderSession(result *models.SessionResult) string {
	var sections []string

	statusStyle := goodStyle
	if result.Status != models.StatusCompleted {
		statusStyle = badStyle
	}
	header := fmt.Sprintf("%s\nModel: %s | Persona: %s | Status: %s | Turns: %d",
		titleStyle.Render(result.ScenarioTitle),
		agentStyle.Render(result.ModelID),
		personaStyle.Render(result.PersonaName),
		statusStyle.Render(result.Status),
		result.TotalTurns,
	)
	sections = append(sections, panelStyle.Render(header))

	for _, msg := range result.Messages {
		switch msg.Role {
		case "system":
			// The system prompt is omitted from the transcript display.
		case "user":
			sections = append(sections, renderSpeaker(personaStyle, result.PersonaName, msg.TurnNumber, msg.Content))
		case "assistant":
			if len(msg.ToolCalls) > 0 {
				sections = append(sections, renderToolCalls(msg.ToolCalls, msg.TurnNumber))
			}
			if msg.Content != "" {
				sections = append(sections, renderSpeaker(agentStyle, result.ModelID, msg.TurnNumber, msg.Content))
			}
		case "tool":
			sections = append(sections, renderToolResponse(msg.Content, msg.TurnNumber))
		}
	}

	if result.Metrics != nil {
		m := result.Metrics
		scores := fmt.Sprintf(
			"Overall: %s\nTool Accuracy:       %.3f\nFactual Correctness: %.3f\nCompleteness:        %.3f\nEmpathy:             %.3f\nSafety Compliance:   %.3f",
			goodStyle.Bold(true).Render(fmt.Sprintf("%.3f", result.OverallScore)),
			m.ToolAccuracy, m.FactualCorrectness, m.Completeness, m.Empathy, m.SafetyCompliance,
		)
		sections = append(sections, panelStyle.Render(scores))
	}

	for _, analysis := range result.FailureAnalysis {
		sections = append(sections, mediumStyle.Render("! "+analysis))
	}

	if result.GalileoConsoleURL != "" {
		sections = append(sections, dimStyle.Render("Galileo Console: "+result.GalileoConsoleURL))
	}

	return strings.Join(sections, "\n\n")
}

func renderSpeaker(style lipgloss.Style, name string, turn int, content string) string {
	header := fmt.Sprintf("%s %s", style.Bold(true).Render(name), dimStyle.Render(fmt.Sprintf("(turn %d)", turn)))
	return header + "\n" + style.Render(content)
}

func renderToolCalls(calls []*models.LoggedToolCall, turn int) string {
	var lines []string
	for _, call := range calls {
		lines = append(lines, fmt.Sprintf("%s %s",
			toolStyle.Bold(true).Render("Tool Call: "+call.Name),
			dimStyle.Render(fmt.Sprintf("(turn %d)", turn)),
		))
		lines = append(lines, toolStyle.Render(indentJSON(call.Arguments)))
	}
	return strings.Join(lines, "\n")
}

func renderToolResponse(content string, turn int) string {
	formatted := indentJSON(content)
	lines := strings.Split(formatted, "\n")
	if len(lines) > 10 {
		lines = append(lines[:8], fmt.Sprintf("... (%d more lines)", len(lines)-8))
	}
	return dimStyle.Render(fmt.Sprintf("Tool Response (turn %d):\n%s", turn, strings.Join(lines, "\n")))
}

func indentJSON(raw string) string {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return raw
	}
	formatted, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return raw
	}
	return string(formatted)
}

// RenderPersonas renders the persona listing table.
func RenderPersonas(personas []models.Persona) string {
	t := newTable("#", "Name", "Nationality", "Status", "Visa Type", "Complexity")
	for i, p := range personas {
		t.Row(
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%s %s", p.CountryFlag, p.Name),
			p.Nationality,
			p.CurrentStatus,
			p.VisaType,
			complexityCell(p.ComplexityLevel),
		)
	}
	title := titleStyle.Render(fmt.Sprintf("Immigration Client Personas (%d)", len(personas)))
	return title + "\n" + t.Render()
}

// RenderScenarios renders the scenario listing table.
func RenderScenarios(scenarios []models.Scenario, personas []models.Persona) string {
	t := newTable("#", "Title", "Category", "Complexity", "Persona", "Tools", "Turns")
	for i, s := range scenarios {
		personaName := "?"
		if s.PersonaIndex >= 0 && s.PersonaIndex < len(personas) {
			personaName = personas[s.PersonaIndex].Name
		}
		category := s.Category
		if display, ok := models.CategoryDisplay[s.Category]; ok {
			category = display
		}
		t.Row(
			fmt.Sprintf("%d", i),
			s.Title,
			category,
			complexityCell(s.Complexity),
			personaName,
			fmt.Sprintf("%d", len(s.ExpectedTools)),
			fmt.Sprintf("%d", s.MaxTurns),
		)
	}
	title := titleStyle.Render(fmt.Sprintf("Evaluation Scenarios (%d)", len(scenarios)))
	return title + "\n" + t.Render()
}

// RenderModels renders the model registry table with availability.
func RenderModels(registry []models.ModelConfig, availableIDs map[string]bool) string {
	t := newTable("Model ID", "Display Name", "Provider", "Tools", "Status")
	for _, m := range registry {
		status := badStyle.Render("Missing " + m.EnvKey)
		if availableIDs[m.ModelID] {
			status = goodStyle.Render("Ready")
		}
		toolSupport := dimStyle.Render("No")
		if m.SupportsTools {
			toolSupport = goodStyle.Render("Yes")
		}
		t.Row(m.ModelID, m.DisplayName, m.Provider, toolSupport, status)
	}
	return titleStyle.Render("Model Registry") + "\n" + t.Render()
}

func complexityCell(level string) string {
	switch level {
	case "low":
		return goodStyle.Render(level)
	case "medium":
		return mediumStyle.Render(level)
	case "high":
		return badStyle.Render(level)
	}
	return level
}
