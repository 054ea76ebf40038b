package engines

type ConvRole string

const (
	ConvRoleUser      ConvRole = "user"
	ConvRoleSystem    ConvRole = "system"
	ConvRoleAssistant ConvRole = "assistant"
	ConvRoleTool      ConvRole = "tool"
)

type ChatMessage struct {
	Role       ConvRole    `json:"role"`
	Text       string      `json:"content"`
	ToolCalls  []*ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	Name       string      `json:"name,omitempty"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name string `json:"name"`
	Args string `json:"arguments"`
}

type ChatPrompt struct {
	History []*ChatMessage
}
