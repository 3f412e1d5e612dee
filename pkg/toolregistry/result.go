package toolregistry

import "fmt"

// Result is the normalized outcome of a tool execution
type Result struct {
	Success  bool                   `json:"success"`
	Tool     string                 `json:"tool"`
	Output   interface{}            `json:"output,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Code     ErrorCode              `json:"code,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Succeeded builds a successful result
func Succeeded(tool string, output interface{}) Result {
	return Result{
		Success: true,
		Tool:    tool,
		Output:  output,
	}
}

// Failed builds a failed result, classifying err into a failure code
func Failed(tool string, err error) Result {
	return Result{
		Success: false,
		Tool:    tool,
		Error:   err.Error(),
		Code:    codeFor(err),
	}
}

func unknownTool(tool string) Result {
	return Failed(tool, fmt.Errorf("%w: %s", ErrUnknownTool, tool))
}

// Err returns nil for a successful result and a *ToolError otherwise
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &ToolError{
		Code:    r.Code,
		Tool:    r.Tool,
		Message: r.Error,
	}
}

func (r Result) withMetadata(key string, value interface{}) Result {
	if r.Metadata == nil {
		r.Metadata = make(map[string]interface{})
	}
	r.Metadata[key] = value
	return r
}
