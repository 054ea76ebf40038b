// Package config loads application settings from the environment and
// holds the default model registry.
package config

import "github.com/spf13/viper"

// Settings holds API keys and service configuration, loaded from a .env
// file and environment variables.
type Settings struct {
	OpenAIAPIKey     string
	OpenRouterAPIKey string
	GroqAPIKey       string

	GalileoAPIKey    string
	GalileoProject   string
	GalileoLogStream string

	// Cheap, fast model for persona + tool simulation.
	SimulatorModel string

	ConvexIngestURL   string
	ConvexIngestToken string
}

// Load reads settings from .env (if present) and environment variables.
func Load() *Settings {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("galileo_project", "saggiatore-go")
	v.SetDefault("galileo_log_stream", "immigration-eval")
	v.SetDefault("simulator_model", "gpt-4o-mini")

	// Missing .env is fine, the environment alone may carry the keys.
	_ = v.ReadInConfig()

	return &Settings{
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		OpenRouterAPIKey:  v.GetString("openrouter_api_key"),
		GroqAPIKey:        v.GetString("groq_api_key"),
		GalileoAPIKey:     v.GetString("galileo_api_key"),
		GalileoProject:    v.GetString("galileo_project"),
		GalileoLogStream:  v.GetString("galileo_log_stream"),
		SimulatorModel:    v.GetString("simulator_model"),
		ConvexIngestURL:   v.GetString("convex_ingest_url"),
		ConvexIngestToken: v.GetString("convex_ingest_token"),
	}
}

// KeyFor returns the configured API key for the given env key name.
func (s *Settings) KeyFor(envKey string) string {
	switch envKey {
	case "OPENAI_API_KEY":
		return s.OpenAIAPIKey
	case "OPENROUTER_API_KEY":
		return s.OpenRouterAPIKey
	case "GROQ_API_KEY":
		return s.GroqAPIKey
	}
	return ""
}

// GalileoConfigured reports whether the scoring service key is set.
func (s *Settings) GalileoConfigured() bool {
	return s.GalileoAPIKey != ""
}
