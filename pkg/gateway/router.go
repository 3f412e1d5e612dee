package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

const (
	jsonRPCVersion        = "2.0"
	defaultIdempotencyTTL = 5 * time.Minute

	// MethodToolsExecute is the only method whose responses are replayed by idempotency key.
	MethodToolsExecute = "tools.execute"
)

// RPCRouter maps JSON-RPC method names to handlers. tools.execute requests that
// carry an idempotency key get their first response replayed until the key expires.
type RPCRouter struct {
	mu      sync.RWMutex
	methods map[string]RequestHandler
	replay  *replayCache
}

// NewRPCRouter creates a router. A non-positive ttl means five minutes.
func NewRPCRouter(ttl time.Duration) *RPCRouter {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &RPCRouter{
		methods: make(map[string]RequestHandler),
		replay:  newReplayCache(ttl, time.Now),
	}
}

// RegisterMethod installs handler under name, replacing any previous one
func (r *RPCRouter) RegisterMethod(name string, handler RequestHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.mu.Lock()
	r.methods[name] = handler
	r.mu.Unlock()
	return nil
}

// ParseRequest decodes one JSON-RPC request, filling in the protocol version when omitted.
// Numbers in params stay json.Number so large integers keep their precision.
func (r *RPCRouter) ParseRequest(data []byte) (*RPCRequest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var req RPCRequest
	if err := dec.Decode(&req); err != nil {
		return nil, &RPCError{Code: ParseError, Message: "Parse error", Data: err.Error()}
	}

	switch {
	case req.ID == "":
		return nil, &RPCError{Code: InvalidRequest, Message: "Invalid request: missing id field"}
	case req.Method == "":
		return nil, &RPCError{Code: InvalidRequest, Message: "Invalid request: missing method field"}
	}

	if req.JSONRPC == "" {
		req.JSONRPC = jsonRPCVersion
	}
	return &req, nil
}

// RouteRequest runs the handler for req.Method. Handler errors that are *RPCError keep
// their code; anything else is reported as InternalError.
func (r *RPCRouter) RouteRequest(ctx context.Context, req *RPCRequest) *RPCResponse {
	if req == nil {
		return errorResponse("", &RPCError{Code: InvalidRequest, Message: "invalid request"})
	}

	key := replayKey(req.Method, req.IdempotencyKey)
	if resp, ok := r.replay.get(key); ok {
		resp.ID = req.ID
		return &resp
	}

	resp := r.dispatch(ctx, req)
	r.replay.put(key, *resp)
	return resp
}

func (r *RPCRouter) dispatch(ctx context.Context, req *RPCRequest) *RPCResponse {
	r.mu.RLock()
	handler, ok := r.methods[req.Method]
	r.mu.RUnlock()
	if !ok {
		return errorResponse(req.ID, &RPCError{
			Code:    MethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		})
	}

	params := req.Params
	if params == nil {
		params = map[string]interface{}{}
	}

	result, err := handler(ctx, params)
	if err != nil {
		var rpcErr *RPCError
		if !errors.As(err, &rpcErr) {
			rpcErr = &RPCError{Code: InternalError, Message: err.Error()}
		}
		return errorResponse(req.ID, rpcErr)
	}
	return &RPCResponse{ID: req.ID, JSONRPC: jsonRPCVersion, Result: result}
}

// HasMethod reports whether name has a handler
func (r *RPCRouter) HasMethod(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.methods[name]
	return ok
}

// GetMethods returns the registered method names, sorted
func (r *RPCRouter) GetMethods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.methods))
}

func errorResponse(id string, rpcErr *RPCError) *RPCResponse {
	return &RPCResponse{ID: id, JSONRPC: jsonRPCVersion, Error: rpcErr}
}

// replayKey scopes an idempotency key to its method; empty means no replay.
// Read-only methods always run so summaries are never stale.
func replayKey(method, idempotencyKey string) string {
	if idempotencyKey == "" || method != MethodToolsExecute {
		return ""
	}
	return method + ":" + idempotencyKey
}

type replayEntry struct {
	resp    RPCResponse
	expires time.Time
}

// replayCache holds responses by idempotency key. Expired entries are swept on put.
type replayCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]replayEntry
}

func newReplayCache(ttl time.Duration, now func() time.Time) *replayCache {
	return &replayCache{ttl: ttl, now: now, entries: make(map[string]replayEntry)}
}

func (c *replayCache) get(key string) (RPCResponse, bool) {
	if key == "" {
		return RPCResponse{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return RPCResponse{}, false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return RPCResponse{}, false
	}
	return entry.resp.clone(), true
}

func (c *replayCache) put(key string, resp RPCResponse) {
	if key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	maps.DeleteFunc(c.entries, func(_ string, e replayEntry) bool { return now.After(e.expires) })
	c.entries[key] = replayEntry{resp: resp.clone(), expires: now.Add(c.ttl)}
}

// clone copies resp so a replayed response can get a new ID without touching the cached one.
func (resp RPCResponse) clone() RPCResponse {
	out := resp
	if resp.Error != nil {
		e := *resp.Error
		out.Error = &e
	}
	return out
}
