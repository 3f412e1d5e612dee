package toolregistry

import "context"

// ToolParameter defines a parameter for a tool
type ToolParameter struct {
	Name        string      `json:"name" yaml:"name"`
	Type        string      `json:"type" yaml:"type"`
	Description string      `json:"description" yaml:"description"`
	Required    bool        `json:"required" yaml:"required"`
	Default     interface{} `json:"default,omitempty" yaml:"default,omitempty"`
}

// ToolHandler is the function signature for tool execution
type ToolHandler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// ToolDefinition defines a tool's metadata and handler
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
	Handler     ToolHandler     `json:"-"`
}

// ToolSpec is the immutable discovery view of a tool
type ToolSpec struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Domain      Domain          `json:"domain" yaml:"domain"`
	Parameters  []ToolParameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

func (d ToolDefinition) spec(domain Domain) ToolSpec {
	var params []ToolParameter
	if len(d.Parameters) > 0 {
		params = make([]ToolParameter, len(d.Parameters))
		copy(params, d.Parameters)
	}
	return ToolSpec{
		Name:        d.Name,
		Description: d.Description,
		Domain:      domain,
		Parameters:  params,
	}
}
