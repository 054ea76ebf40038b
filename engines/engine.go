package engines

type LLM interface {
	Chat(prompt *ChatPrompt) (*ChatMessage, error)
}

type LLMWithTools interface {
	LLM
	// Define tools that can be called by the LLM
	// using native tool call functionality.
	// Overrides any previously defined tools.
	// Call this before calling `ChatWithTools`.
	SetTools(specs ...ToolSpecs)
	ChatWithTools(prompt *ChatPrompt) (*ChatMessage, error)
}

type ParameterSpecs struct {
	Type        string                     `json:"type"`
	Description string                     `json:"description,omitempty"`
	Properties  map[string]*ParameterSpecs `json:"properties,omitempty"`
	Required    []string                   `json:"required,omitempty"`
	Items       *ParameterSpecs            `json:"items,omitempty"`
	Enum        []any                      `json:"enum,omitempty"`
}

type ToolSpecs struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  *ParameterSpecs `json:"parameters"`
}
