package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/harun/toolhub/pkg/toolregistry"
)

// registerBuiltinMethods registers the tool discovery and dispatch RPC methods
func (s *Server) registerBuiltinMethods() {
	_ = s.RegisterMethod("tools.list", s.handleToolsList)
	_ = s.RegisterMethod("tools.domain", s.handleToolsDomain)
	_ = s.RegisterMethod(MethodToolsExecute, s.handleToolsExecute)
	_ = s.RegisterMethod("server.info", s.handleServerInfo)
}

// handleToolsList handles tools.list RPC method
func (s *Server) handleToolsList(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return s.toolList(), nil
}

// handleToolsDomain handles tools.domain RPC method
func (s *Server) handleToolsDomain(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	domain, ok := params["domain"].(string)
	if !ok || domain == "" {
		return nil, &RPCError{Code: InvalidParams, Message: "domain parameter is required and must be a string"}
	}

	listing, err := s.domainListing(domain)
	if err != nil {
		switch {
		case errors.Is(err, toolregistry.ErrInvalidDomain):
			return nil, &RPCError{Code: InvalidParams, Message: err.Error()}
		case errors.Is(err, toolregistry.ErrProviderAbsent):
			return nil, &RPCError{Code: NotFound, Message: err.Error()}
		}
		return nil, err
	}
	return listing, nil
}

// handleToolsExecute handles tools.execute RPC method
func (s *Server) handleToolsExecute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	tool, ok := params["tool"].(string)
	if !ok || tool == "" {
		return nil, &RPCError{Code: InvalidParams, Message: "tool parameter is required and must be a string"}
	}

	var toolParams map[string]interface{}
	if raw, exists := params["params"]; exists && raw != nil {
		toolParams, ok = raw.(map[string]interface{})
		if !ok {
			return nil, &RPCError{Code: InvalidParams, Message: fmt.Sprintf("params must be an object, got %T", raw)}
		}
	}

	res := s.execute(ctx, tool, toolParams)
	if !res.Success {
		return nil, rpcErrorFor(res)
	}
	return NewEnvelope(res), nil
}

// handleServerInfo handles server.info RPC method
func (s *Server) handleServerInfo(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return s.serverInfo(), nil
}
