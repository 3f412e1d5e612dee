package toolregistry

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTool indicates no provider exposes the requested tool.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidParameters indicates the parameter bag is missing or has malformed fields.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrHandlerFault indicates the tool handler failed while computing its result.
	ErrHandlerFault = errors.New("tool handler fault")

	// ErrInvalidDomain indicates a domain name that is not a known Domain.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrProviderAbsent indicates a valid domain without a registered provider.
	ErrProviderAbsent = errors.New("no provider registered for domain")

	// ErrNilProvider indicates an attempt to register a nil provider.
	ErrNilProvider = errors.New("provider cannot be nil")
)

// ErrorCode is a short machine-readable failure code carried by a Result
type ErrorCode string

const (
	CodeUnknownTool       ErrorCode = "unknown_tool"
	CodeInvalidParameters ErrorCode = "invalid_parameters"
	CodeHandlerFault      ErrorCode = "handler_fault"
)

func (c ErrorCode) sentinel() error {
	switch c {
	case CodeUnknownTool:
		return ErrUnknownTool
	case CodeInvalidParameters:
		return ErrInvalidParameters
	default:
		return ErrHandlerFault
	}
}

// codeFor classifies an error returned by a handler
func codeFor(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrUnknownTool):
		return CodeUnknownTool
	case errors.Is(err, ErrInvalidParameters):
		return CodeInvalidParameters
	default:
		return CodeHandlerFault
	}
}

// ToolError is the error form of a failed Result
type ToolError struct {
	Code    ErrorCode
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Tool, e.Message)
}

// Is matches the sentinel error for the failure code
func (e *ToolError) Is(target error) bool {
	return target == e.Code.sentinel()
}
