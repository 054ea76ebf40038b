package engines

import "fmt"

// ProviderConfig describes an OpenAI-compatible chat completion endpoint.
type ProviderConfig struct {
	BaseURL        string
	EnvKey         string
	DefaultHeaders map[string]string
}

var ProviderConfigs = map[string]ProviderConfig{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		EnvKey:  "OPENAI_API_KEY",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		EnvKey:  "OPENROUTER_API_KEY",
		DefaultHeaders: map[string]string{
			"X-Title": "Saggiatore Immigration Agent Eval",
		},
	},
	"groq": {
		BaseURL: "https://api.groq.com/openai/v1",
		EnvKey:  "GROQ_API_KEY",
	},
}

// NewProviderEngine returns an engine for the agent under test, routed to
// the given provider. All supported providers speak the OpenAI chat
// completion API, so a single GPT engine with a base URL covers them.
func NewProviderEngine(provider, apiModel, apiKey string) (*GPT, error) {
	cfg, ok := ProviderConfigs[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s not configured", cfg.EnvKey)
	}
	engine := NewGPTEngine(apiKey, apiModel)
	if provider != "openai" {
		engine.BaseURL = cfg.BaseURL
	}
	engine.DefaultHeaders = cfg.DefaultHeaders
	return engine, nil
}

// NewSimulatorEngine returns a cheap, fast engine used for both the
// persona simulator and the tool response simulator.
func NewSimulatorEngine(apiKey, model string) *GPT {
	engine := NewGPTEngine(apiKey, model)
	engine.MaxTokens = 500
	return engine
}
