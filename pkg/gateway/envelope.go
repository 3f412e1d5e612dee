package gateway

import (
	"net/http"

	"github.com/harun/toolhub/pkg/toolregistry"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the response shape for a tool invocation on every transport
type Envelope struct {
	Tool   string                 `json:"tool"`
	Result interface{}            `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
	Code   toolregistry.ErrorCode `json:"code,omitempty"`
	Status string                 `json:"status"`
}

// NewEnvelope converts a registry result into the wire envelope
func NewEnvelope(res toolregistry.Result) Envelope {
	if res.Success {
		return Envelope{Tool: res.Tool, Result: res.Output, Status: StatusSuccess}
	}
	return Envelope{Tool: res.Tool, Error: res.Error, Code: res.Code, Status: StatusError}
}

// HTTPStatus maps a failure code to its HTTP status. An empty code is a success.
func HTTPStatus(code toolregistry.ErrorCode) int {
	switch code {
	case "":
		return http.StatusOK
	case toolregistry.CodeUnknownTool:
		return http.StatusNotFound
	case toolregistry.CodeInvalidParameters:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// rpcErrorFor maps a failed result to a JSON-RPC error that carries the envelope as data
func rpcErrorFor(res toolregistry.Result) *RPCError {
	code := InternalError
	switch res.Code {
	case toolregistry.CodeUnknownTool:
		code = NotFound
	case toolregistry.CodeInvalidParameters:
		code = InvalidParams
	}
	return &RPCError{
		Code:    code,
		Message: res.Error,
		Data:    NewEnvelope(res),
	}
}
