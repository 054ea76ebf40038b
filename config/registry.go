package config

import "github.com/saggiatore/saggiatore-go/models"

// DefaultModels is the default model registry.
var DefaultModels = []models.ModelConfig{
	{
		ModelID:       "gpt-4o",
		DisplayName:   "GPT-4o",
		Provider:      "openai",
		APIModel:      "gpt-4o",
		EnvKey:        "OPENAI_API_KEY",
		SupportsTools: true,
	},
	{
		ModelID:       "claude-sonnet-4-5",
		DisplayName:   "Claude Sonnet 4.5",
		Provider:      "openrouter",
		APIModel:      "anthropic/claude-sonnet-4.5",
		EnvKey:        "OPENROUTER_API_KEY",
		SupportsTools: true,
	},
	{
		ModelID:       "llama-3.3-70b-versatile",
		DisplayName:   "Llama 3.3 70B",
		Provider:      "groq",
		APIModel:      "llama-3.3-70b-versatile",
		EnvKey:        "GROQ_API_KEY",
		SupportsTools: true,
	},
}

// AvailableModels returns registry entries whose API keys are configured.
func AvailableModels(settings *Settings) []models.ModelConfig {
	var available []models.ModelConfig
	for _, model := range DefaultModels {
		if settings.KeyFor(model.EnvKey) != "" {
			available = append(available, model)
		}
	}
	return available
}

// ModelByID looks a model up in the registry.
func ModelByID(modelID string) (models.ModelConfig, bool) {
	for _, model := range DefaultModels {
		if model.ModelID == modelID {
			return model, true
		}
	}
	return models.ModelConfig{}, false
}
