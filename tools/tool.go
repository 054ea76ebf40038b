package tools

import (
	"encoding/json"

	"github.com/saggiatore/saggiatore-go/engines"
)

type Tool interface {
	Execute(args json.RawMessage) (json.RawMessage, error)
	Name() string
	Description() string
	ArgsSchema() *engines.ParameterSpecs
}

// PreprocessingTool repairs or normalises tool-call arguments before
// they reach a tool.
type PreprocessingTool interface {
	Process(args json.RawMessage) (json.RawMessage, error)
}

// Specs returns the native tool-call specs for a set of tools.
func Specs(tools []Tool) []engines.ToolSpecs {
	specs := make([]engines.ToolSpecs, 0, len(tools))
	for _, tool := range tools {
		specs = append(specs, engines.ToolSpecs{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.ArgsSchema(),
		})
	}
	return specs
}
