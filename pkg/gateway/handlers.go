package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/harun/toolhub/internal/tracing"
	"github.com/harun/toolhub/pkg/toolregistry"
)

const maxBodyBytes = 1 << 20

// ServerInfo is the payload of /api/mcp/info and server.info
type ServerInfo struct {
	ServerName  string `json:"server_name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	AuthEnabled bool   `json:"auth_enabled"`
	toolregistry.Summary
}

// ToolList is the payload of /api/mcp/tools and tools.list
type ToolList struct {
	Tools []toolregistry.ToolSpec `json:"tools"`
	Count int                     `json:"count"`
}

// DomainListing is the payload of /api/mcp/tools/{domain} and tools.domain
type DomainListing struct {
	Domain    string                  `json:"domain"`
	ToolCount int                     `json:"tool_count"`
	Tools     []toolregistry.ToolSpec `json:"tools"`
}

type errorBody struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

func (s *Server) registerRESTRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/mcp/info", s.handleInfo)
	mux.HandleFunc("GET /api/mcp/tools", s.handleListTools)
	mux.HandleFunc("GET /api/mcp/tools/{domain}", s.handleDomainTools)
	mux.HandleFunc("POST /api/mcp/tools/{tool}/execute", s.handleExecute)
	mux.HandleFunc("GET /api/mcp/health", s.handleHealth)
}

func (s *Server) serverInfo() ServerInfo {
	return ServerInfo{
		ServerName:  s.serverName,
		Version:     s.version,
		Description: s.description,
		AuthEnabled: s.authEnabled,
		Summary:     s.registry.Summary(),
	}
}

func (s *Server) toolList() ToolList {
	tools := s.registry.ListAllTools()
	return ToolList{Tools: tools, Count: len(tools)}
}

func (s *Server) domainListing(name string) (DomainListing, error) {
	specs, err := s.registry.ListToolsForDomain(name)
	if err != nil {
		return DomainListing{}, err
	}
	domain, _ := toolregistry.ParseDomain(name)
	return DomainListing{Domain: domain.String(), ToolCount: len(specs), Tools: specs}, nil
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.serverInfo())
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.toolList())
}

func (s *Server) handleDomainTools(w http.ResponseWriter, r *http.Request) {
	listing, err := s.domainListing(r.PathValue("domain"))
	switch {
	case err == nil:
		s.writeJSON(w, r, http.StatusOK, listing)
	case errors.Is(err, toolregistry.ErrInvalidDomain):
		s.writeJSON(w, r, http.StatusBadRequest, errorBody{Error: err.Error(), Status: StatusError})
	case errors.Is(err, toolregistry.ErrProviderAbsent):
		s.writeJSON(w, r, http.StatusNotFound, errorBody{Error: err.Error(), Status: StatusError})
	default:
		s.writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: err.Error(), Status: StatusError})
	}
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	tool := r.PathValue("tool")

	params, err := decodeParams(r)
	if err != nil {
		res := toolregistry.Failed(tool, fmt.Errorf("%w: %v", toolregistry.ErrInvalidParameters, err))
		s.writeJSON(w, r, http.StatusBadRequest, NewEnvelope(res))
		return
	}

	logger := tracing.LoggerFromContext(r.Context(), s.logger)
	logger.Info().Str("tool", tool).Int("params", len(params)).Msg("Executing tool over HTTP")

	res := s.execute(r.Context(), tool, params)
	s.writeJSON(w, r, HTTPStatus(res.Code), NewEnvelope(res))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
		"server": s.serverName,
	})
}

// decodeParams reads the request body as a JSON object. An empty body is an empty bag.
func decodeParams(r *http.Request) (map[string]interface{}, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) == 0 {
		return map[string]interface{}{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var params map[string]interface{}
	if err := dec.Decode(&params); err != nil {
		return nil, fmt.Errorf("request body must be a JSON object: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("request body must hold a single JSON object")
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	return params, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger := tracing.LoggerFromContext(r.Context(), s.logger)
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}
