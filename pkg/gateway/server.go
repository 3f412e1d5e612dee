package gateway

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/harun/toolhub/internal/observability"
	"github.com/harun/toolhub/internal/tracing"
	"github.com/harun/toolhub/pkg/toolregistry"
)

// Server exposes a tool registry over REST, JSON-RPC and WebSocket
type Server struct {
	host           string
	port           int
	serverName     string
	version        string
	description    string
	authEnabled    bool
	requestTimeout time.Duration
	tickInterval   time.Duration
	rpm            int
	maxConcurrent  int

	registry    *toolregistry.Registry
	handler     http.Handler
	server      *http.Server
	listener    net.Listener
	upgrader    websocket.Upgrader
	clients     *ClientRegistry
	router      *RPCRouter
	broadcaster *EventBroadcaster
	logger      zerolog.Logger

	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
	tickCancel     context.CancelFunc
	tickWG         sync.WaitGroup
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	ServerName  string
	Version     string
	Description string
	// AuthEnabled is reported in server info only; requests are not authenticated.
	AuthEnabled bool

	RequestTimeout    time.Duration
	TickInterval      time.Duration
	RequestsPerMinute int
	MaxConcurrent     int
	IdempotencyTTL    time.Duration

	Registry *toolregistry.Registry
	Logger   zerolog.Logger
}

// NewServer creates a new gateway server
func NewServer(cfg Config) (*Server, error) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if cfg.ServerName == "" {
		return nil, fmt.Errorf("server name is required")
	}

	clients := NewClientRegistry()
	logger := cfg.Logger.With().Str("component", "gateway").Logger()

	s := &Server{
		host:           cfg.Host,
		port:           cfg.Port,
		serverName:     cfg.ServerName,
		version:        cfg.Version,
		description:    cfg.Description,
		authEnabled:    cfg.AuthEnabled,
		requestTimeout: cfg.RequestTimeout,
		tickInterval:   cfg.TickInterval,
		rpm:            cfg.RequestsPerMinute,
		maxConcurrent:  cfg.MaxConcurrent,
		registry:       cfg.Registry,
		clients:        clients,
		router:         NewRPCRouter(cfg.IdempotencyTTL),
		broadcaster:    NewEventBroadcaster(clients, logger),
		logger:         logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.registerBuiltinMethods()

	mux := http.NewServeMux()
	s.registerRESTRoutes(mux)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("POST /rpc", s.handleRPC)
	mux.Handle("GET /metrics", observability.MetricsHandler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	s.handler = s.instrument(mux)

	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the bound address once Start has succeeded
func (s *Server) Addr() string {
	if s.listener == nil {
		return net.JoinHostPort(s.host, fmt.Sprint(s.port))
	}
	return s.listener.Addr().String()
}

// Start binds the listener and serves in the background
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.host, fmt.Sprint(s.port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Starting gateway server")

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Gateway server error")
		}
	}()

	s.startTickEmitter()
	return nil
}

// Stop drains in-flight requests and shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down gateway server")
	s.stopTickEmitter()

	s.broadcaster.Broadcast("server.shutdown", map[string]interface{}{
		"message": "Server is shutting down",
	})

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("All in-flight requests completed")
	case <-ctx.Done():
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	for _, client := range s.clients.Snapshot() {
		_ = client.Conn.Close()
	}

	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info().Msg("Gateway server stopped")
	return nil
}

func (s *Server) shuttingDown() bool {
	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()
	return s.isShuttingDown
}

func (s *Server) startTickEmitter() {
	if s.tickInterval <= 0 {
		return
	}

	tickCtx, cancel := context.WithCancel(context.Background())
	s.tickCancel = cancel
	s.tickWG.Add(1)

	go func() {
		defer s.tickWG.Done()

		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				s.broadcaster.BroadcastTyped(EventMessage{
					Event:  "tick",
					Stream: StreamTypeLifecycle,
					Phase:  "tick",
					Data: map[string]interface{}{
						"status":  "alive",
						"clients": s.clients.Count(),
					},
				})
			}
		}
	}()
}

func (s *Server) stopTickEmitter() {
	if s.tickCancel != nil {
		s.tickCancel()
		s.tickCancel = nil
	}
	s.tickWG.Wait()
}

// execute dispatches a tool call under the configured request timeout, then
// publishes the outcome to WebSocket clients and the audit log.
func (s *Server) execute(ctx context.Context, tool string, params map[string]interface{}) toolregistry.Result {
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	s.inFlightReqs.Add(1)
	defer s.inFlightReqs.Done()

	start := time.Now()
	done := make(chan toolregistry.Result, 1)
	go func() {
		done <- s.registry.Execute(ctx, tool, params)
	}()

	var res toolregistry.Result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = toolregistry.Failed(tool, fmt.Errorf("%w: %v", toolregistry.ErrHandlerFault, ctx.Err()))
	}
	duration := time.Since(start)

	status := StatusSuccess
	if !res.Success {
		status = StatusError
	}
	event := map[string]interface{}{
		"tool":        tool,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	}
	if domain, ok := res.Metadata["domain"]; ok {
		event["domain"] = domain
	}
	if res.Code != "" {
		event["code"] = string(res.Code)
	}

	s.broadcaster.BroadcastTyped(EventMessage{
		Event:   "tool.executed",
		Stream:  StreamTypeTool,
		Phase:   "end",
		Data:    event,
		TraceID: tracing.GetTraceID(ctx),
	})
	// ctx may already be cancelled by the timeout.
	auditCtx := tracing.Detach(ctx)
	observability.RecordToolAudit(auditCtx, tool, tracing.GetActor(auditCtx), status, event)

	return res
}

// handleWebSocket upgrades the connection and serves JSON-RPC over it
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.shuttingDown() {
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	clientID, err := gonanoid.New()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate client id")
		_ = conn.Close()
		return
	}

	now := time.Now()
	client := &Client{
		ID:           clientID,
		Conn:         conn,
		ConnectedAt:  now,
		LastActivity: now,
		IPAddress:    r.RemoteAddr,
		RateLimiter:  NewClientRateLimiterWithLimits(s.rpm, s.maxConcurrent),
	}
	s.clients.Add(client)

	s.logger.Info().
		Str("clientId", clientID).
		Str("ip", r.RemoteAddr).
		Msg("Client connected")

	if err := client.WriteJSON(Welcome{
		Event:    "connected",
		ClientID: clientID,
		Server:   s.serverName,
		Version:  s.version,
	}); err != nil {
		s.logger.Error().Err(err).Str("clientId", clientID).Msg("Failed to send welcome")
		_ = conn.Close()
		s.clients.Remove(clientID)
		return
	}

	go s.handleClient(client)
}

// handleClient reads messages from a client until the connection closes
func (s *Server) handleClient(client *Client) {
	defer func() {
		_ = client.Conn.Close()
		s.clients.Remove(client.ID)
		s.logger.Info().Str("clientId", client.ID).Msg("Client disconnected")
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Str("clientId", client.ID).Msg("WebSocket error")
			}
			return
		}

		s.clients.Touch(client.ID)
		s.handleMessage(client, message)
	}
}

// handleMessage routes one JSON-RPC message from a client
func (s *Server) handleMessage(client *Client, message []byte) {
	req, err := s.router.ParseRequest(message)
	if err != nil {
		var rpcErr *RPCError
		if !errors.As(err, &rpcErr) {
			rpcErr = &RPCError{Code: ParseError, Message: err.Error()}
		}
		s.send(client, errorResponse("", rpcErr))
		return
	}

	allowed, reason := client.RateLimiter.Acquire()
	if !allowed {
		code := RateLimitExceeded
		if reason == reasonTooConcurrent {
			code = TooManyConcurrent
		}
		s.send(client, errorResponse(req.ID, &RPCError{Code: code, Message: reason}))
		return
	}

	s.inFlightReqs.Add(1)
	go func() {
		defer s.inFlightReqs.Done()
		defer client.RateLimiter.Release()

		ctx := tracing.NewRequestContext(context.Background())
		ctx = tracing.WithActor(ctx, client.ID)

		logger := tracing.LoggerFromContext(ctx, s.logger)
		logger.Debug().
			Str("clientId", client.ID).
			Str("requestId", req.ID).
			Str("method", req.Method).
			Msg("Gateway received WebSocket RPC request")

		s.send(client, s.router.RouteRequest(ctx, req))
	}()
}

func (s *Server) send(client *Client, response *RPCResponse) {
	if err := client.WriteJSON(response); err != nil {
		s.logger.Error().
			Err(err).
			Str("clientId", client.ID).
			Str("requestId", response.ID).
			Msg("Failed to send response")
	}
}

// handleRPC handles single-shot HTTP JSON-RPC requests.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	req, err := s.router.ParseRequest(body)
	if err != nil {
		var rpcErr *RPCError
		if !errors.As(err, &rpcErr) {
			rpcErr = &RPCError{Code: ParseError, Message: err.Error()}
		}
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse("", rpcErr))
		return
	}

	ctx := r.Context()
	logger := tracing.LoggerFromContext(ctx, s.logger)
	logger.Info().
		Str("request_id", req.ID).
		Str("method", req.Method).
		Msg("Gateway received HTTP RPC request")

	s.writeJSON(w, r, http.StatusOK, s.router.RouteRequest(ctx, req))
}

// RegisterMethod registers an RPC method handler
func (s *Server) RegisterMethod(name string, handler RequestHandler) error {
	return s.router.RegisterMethod(name, handler)
}

// Broadcast sends an event to every connected client
func (s *Server) Broadcast(event string, data interface{}) {
	s.broadcaster.Broadcast(event, data)
}

// GetConnectedClients returns information about all connected clients
func (s *Server) GetConnectedClients() []ClientInfo {
	return s.clients.Infos()
}

// instrument assigns a trace id, tags the request with its caller and records request metrics
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-Id")
		if traceID == "" {
			traceID = tracing.NewTraceID()
		}
		w.Header().Set("X-Trace-Id", traceID)

		ctx := tracing.WithTraceID(r.Context(), traceID)
		ctx = tracing.WithActor(ctx, r.RemoteAddr)
		req := r.WithContext(ctx)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)

		route := req.Pattern
		if route == "" {
			route = "unmatched"
		}
		observability.RecordGatewayRequest(route, rec.status)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the WebSocket upgrader take over the connection
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
