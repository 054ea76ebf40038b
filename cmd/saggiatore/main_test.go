package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saggiatore/saggiatore-go/config"
	"github.com/saggiatore/saggiatore-go/models"
)

var testScenarios = []models.Scenario{
	{Title: "EB-2 backlog", Category: "visa_application"},
	{Title: "OPT filing window", Category: "visa_application"},
	{Title: "Parole expiring", Category: "humanitarian"},
	{Title: "Cancellation screening", Category: "deportation_defense"},
}

func scenarioTitles(scenarios []models.Scenario) []string {
	titles := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		titles = append(titles, s.Title)
	}
	return titles
}

func TestSelectScenarios(t *testing.T) {
	tests := []struct {
		name     string
		indices  []string
		category string
		want     []string
		wantErr  string
	}{
		{
			name: "no flags selects everything",
			want: []string{"EB-2 backlog", "OPT filing window", "Parole expiring", "Cancellation screening"},
		},
		{
			name:    "single index",
			indices: []string{"2"},
			want:    []string{"Parole expiring"},
		},
		{
			name:    "multiple indices keep given order",
			indices: []string{"3", "0"},
			want:    []string{"Cancellation screening", "EB-2 backlog"},
		},
		{
			name:    "duplicate indices collapse",
			indices: []string{"1", "1", "2"},
			want:    []string{"OPT filing window", "Parole expiring"},
		},
		{
			name:    "all sentinel selects everything",
			indices: []string{"all"},
			want:    []string{"EB-2 backlog", "OPT filing window", "Parole expiring", "Cancellation screening"},
		},
		{
			name:    "out of range index",
			indices: []string{"0", "9"},
			wantErr: "scenario index 9 out of range (0-3)",
		},
		{
			name:    "non-numeric index",
			indices: []string{"two"},
			wantErr: `invalid scenario index "two"`,
		},
		{
			name:     "category filter",
			category: "visa_application",
			want:     []string{"EB-2 backlog", "OPT filing window"},
		},
		{
			name:     "unknown category",
			category: "tax_law",
			wantErr:  `no scenarios in category "tax_law"`,
		},
		{
			name:     "indices win over category",
			indices:  []string{"2"},
			category: "visa_application",
			want:     []string{"Parole expiring"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectScenarios(testScenarios, tt.indices, tt.category)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, scenarioTitles(got))
		})
	}
}

func TestSelectModels(t *testing.T) {
	settings := &config.Settings{OpenAIAPIKey: "sk-openai"}

	selected, err := selectModels(settings, nil)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "gpt-4o", selected[0].ModelID)

	selected, err = selectModels(settings, []string{"gpt-4o"})
	require.NoError(t, err)
	assert.Len(t, selected, 1)

	_, err = selectModels(settings, []string{"no-such-model"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown model")

	_, err = selectModels(settings, []string{"llama-3.3-70b-versatile"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")

	_, err = selectModels(&config.Settings{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no models available")
}

func TestGalileoEnabled(t *testing.T) {
	configured := &config.Settings{GalileoAPIKey: "gal-key"}
	unconfigured := &config.Settings{}

	assert.True(t, galileoEnabled(configured, false, false))
	assert.True(t, galileoEnabled(configured, true, false))
	assert.False(t, galileoEnabled(configured, false, true), "--no-galileo wins")
	// A --galileo request without a key warns and runs unscored
	// instead of failing the whole run.
	assert.False(t, galileoEnabled(unconfigured, true, false))
	assert.False(t, galileoEnabled(unconfigured, false, false))
}

func TestPickSessions(t *testing.T) {
	results := []*models.SessionResult{
		{ScenarioTitle: "first"},
		{ScenarioTitle: "second"},
	}

	picked, err := pickSessions(results, 0)
	require.NoError(t, err)
	require.Len(t, picked, 1)
	assert.Equal(t, "first", picked[0].ScenarioTitle)

	picked, err = pickSessions(results, 1)
	require.NoError(t, err)
	assert.Equal(t, "second", picked[0].ScenarioTitle)

	picked, err = pickSessions(results, -1)
	require.NoError(t, err)
	assert.Len(t, picked, 2)

	_, err = pickSessions(results, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session index 2 out of range (0-1)")
}
