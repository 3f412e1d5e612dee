package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/toolhub/pkg/toolregistry"
	"github.com/harun/toolhub/pkg/toolsets"
)

func newTestServer(t *testing.T, mutate func(*Config)) (*Server, *httptest.Server) {
	t.Helper()

	reg := toolregistry.NewRegistry(zerolog.Nop())
	require.NoError(t, toolsets.RegisterDefaults(reg, toolsets.Options{Logger: zerolog.Nop()}))

	cfg := Config{
		ServerName:  "TestServer",
		Version:     "1.2.3",
		Description: "test server",
		Registry:    reg,
		Logger:      zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	s, err := NewServer(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func registerDataTools(t *testing.T, reg *toolregistry.Registry) {
	t.Helper()
	data := toolregistry.NewToolset(toolregistry.DomainData, zerolog.Nop())
	require.NoError(t, data.Register(toolregistry.ToolDefinition{
		Name:        "broken_query",
		Description: "Always fails",
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return nil, errors.New("database unavailable")
		},
	}))
	require.NoError(t, data.Register(toolregistry.ToolDefinition{
		Name:        "slow_query",
		Description: "Takes a while",
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			time.Sleep(200 * time.Millisecond)
			return "done", nil
		},
	}))
	require.NoError(t, reg.RegisterProvider(data))
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func postJSON(t *testing.T, url, body string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestServer_Info(t *testing.T) {
	_, ts := newTestServer(t, func(c *Config) { c.AuthEnabled = true })

	var info map[string]interface{}
	resp := getJSON(t, ts.URL+"/api/mcp/info", &info)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "TestServer", info["server_name"])
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, true, info["auth_enabled"])
	assert.Equal(t, float64(3), info["total_providers"])
	assert.Equal(t, float64(6), info["total_tools"])

	domains := info["domains"].(map[string]interface{})
	assert.Equal(t, "DemoService", domains["demo"].(map[string]interface{})["provider_kind"])
}

func TestServer_ListTools(t *testing.T) {
	_, ts := newTestServer(t, nil)

	var list ToolList
	resp := getJSON(t, ts.URL+"/api/mcp/tools", &list)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 6, list.Count)
	require.Len(t, list.Tools, 6)
	assert.Equal(t, "reset_password", list.Tools[0].Name)
	assert.Equal(t, toolregistry.DomainTechSupport, list.Tools[0].Domain)
}

func TestServer_DomainTools(t *testing.T) {
	_, ts := newTestServer(t, nil)

	var listing DomainListing
	resp := getJSON(t, ts.URL+"/api/mcp/tools/general", &listing)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "general", listing.Domain)
	assert.Equal(t, 2, listing.ToolCount)

	resp = getJSON(t, ts.URL+"/api/mcp/tools/GENERAL", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = getJSON(t, ts.URL+"/api/mcp/tools/finance", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = getJSON(t, ts.URL+"/api/mcp/tools/data", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Execute(t *testing.T) {
	s, ts := newTestServer(t, nil)
	registerDataTools(t, s.registry)

	tests := []struct {
		name   string
		tool   string
		body   string
		status int
		code   toolregistry.ErrorCode
	}{
		{name: "success", tool: "add_two_numbers", body: `{"a": 2, "b": 3}`, status: http.StatusOK},
		{name: "unknown tool", tool: "does_not_exist", body: `{}`, status: http.StatusNotFound, code: toolregistry.CodeUnknownTool},
		{name: "missing parameter", tool: "add_two_numbers", body: `{"a": 2}`, status: http.StatusBadRequest, code: toolregistry.CodeInvalidParameters},
		{name: "malformed body", tool: "add_two_numbers", body: `[1,2]`, status: http.StatusBadRequest, code: toolregistry.CodeInvalidParameters},
		{name: "trailing data", tool: "add_two_numbers", body: `{"a": 2, "b": 3} {}`, status: http.StatusBadRequest, code: toolregistry.CodeInvalidParameters},
		{name: "out of range integer", tool: "add_two_numbers", body: `{"a": 1e30, "b": 1}`, status: http.StatusBadRequest, code: toolregistry.CodeInvalidParameters},
		{name: "overflowing sum", tool: "add_two_numbers", body: `{"a": 9223372036854775807, "b": 1}`, status: http.StatusBadRequest, code: toolregistry.CodeInvalidParameters},
		{name: "handler fault", tool: "broken_query", body: ``, status: http.StatusInternalServerError, code: toolregistry.CodeHandlerFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env Envelope
			resp := postJSON(t, ts.URL+"/api/mcp/tools/"+tt.tool+"/execute", tt.body, &env)

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.tool, env.Tool)
			assert.Equal(t, tt.code, env.Code)
			if tt.code == "" {
				assert.Equal(t, StatusSuccess, env.Status)
				assert.Equal(t, float64(5), env.Result)
				assert.Empty(t, env.Error)
			} else {
				assert.Equal(t, StatusError, env.Status)
				assert.NotEmpty(t, env.Error)
				assert.Nil(t, env.Result)
			}
		})
	}
}

func TestServer_ExecuteKeepsIntegerPrecision(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Post(ts.URL+"/api/mcp/tools/add_two_numbers/execute", "application/json",
		strings.NewReader(`{"a": 9007199254740993, "b": 0}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var env Envelope
	require.NoError(t, dec.Decode(&env))
	assert.Equal(t, json.Number("9007199254740993"), env.Result)
}

func TestServer_ExecuteFormattedTool(t *testing.T) {
	_, ts := newTestServer(t, nil)

	var env Envelope
	resp := postJSON(t, ts.URL+"/api/mcp/tools/reset_password/execute", `{"username":"jdoe"}`, &env)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out, ok := env.Result.(string)
	require.True(t, ok)
	assert.Contains(t, out, "AGENT SUMMARY: Successfully reset password for user 'jdoe'")
}

func TestServer_RequestTimeout(t *testing.T) {
	s, ts := newTestServer(t, func(c *Config) { c.RequestTimeout = 20 * time.Millisecond })
	registerDataTools(t, s.registry)

	var env Envelope
	resp := postJSON(t, ts.URL+"/api/mcp/tools/slow_query/execute", `{}`, &env)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, toolregistry.CodeHandlerFault, env.Code)
	assert.Contains(t, env.Error, "deadline exceeded")
}

func TestServer_HealthAndTraceID(t *testing.T) {
	_, ts := newTestServer(t, nil)

	var health map[string]string
	resp := getJSON(t, ts.URL+"/api/mcp/health", &health)
	assert.Equal(t, map[string]string{"status": "healthy", "server": "TestServer"}, health)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-Id"))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Trace-Id", "trace-abc")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "trace-abc", resp.Header.Get("X-Trace-Id"))
}

func TestServer_Metrics(t *testing.T) {
	_, ts := newTestServer(t, nil)
	postJSON(t, ts.URL+"/api/mcp/tools/add_two_numbers/execute", `{"a":1,"b":1}`, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "tool_execution_total")
	assert.Contains(t, buf.String(), `tool="add_two_numbers"`)
}

func TestServer_RPC(t *testing.T) {
	_, ts := newTestServer(t, nil)

	t.Run("tools.execute", func(t *testing.T) {
		var resp RPCResponse
		httpResp := postJSON(t, ts.URL+"/rpc",
			`{"id":"1","method":"tools.execute","params":{"tool":"format_text","params":{"text":"hi there","format":"uppercase"}}}`, &resp)

		assert.Equal(t, http.StatusOK, httpResp.StatusCode)
		require.Nil(t, resp.Error)
		result := resp.Result.(map[string]interface{})
		assert.Equal(t, "HI THERE", result["result"])
		assert.Equal(t, StatusSuccess, result["status"])
	})

	t.Run("tools.execute unknown tool", func(t *testing.T) {
		var resp RPCResponse
		postJSON(t, ts.URL+"/rpc", `{"id":"2","method":"tools.execute","params":{"tool":"nope"}}`, &resp)

		require.NotNil(t, resp.Error)
		assert.Equal(t, NotFound, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "nope")
	})

	t.Run("tools.execute bad params", func(t *testing.T) {
		var resp RPCResponse
		postJSON(t, ts.URL+"/rpc", `{"id":"3","method":"tools.execute","params":{"tool":"add_two_numbers","params":"x"}}`, &resp)

		require.NotNil(t, resp.Error)
		assert.Equal(t, InvalidParams, resp.Error.Code)
	})

	t.Run("tools.domain", func(t *testing.T) {
		var resp RPCResponse
		postJSON(t, ts.URL+"/rpc", `{"id":"4","method":"tools.domain","params":{"domain":"data"}}`, &resp)
		require.NotNil(t, resp.Error)
		assert.Equal(t, NotFound, resp.Error.Code)

		postJSON(t, ts.URL+"/rpc", `{"id":"5","method":"tools.domain","params":{"domain":"bogus"}}`, &resp)
		require.NotNil(t, resp.Error)
		assert.Equal(t, InvalidParams, resp.Error.Code)
	})

	t.Run("server.info", func(t *testing.T) {
		var resp RPCResponse
		postJSON(t, ts.URL+"/rpc", `{"id":"6","method":"server.info"}`, &resp)
		require.Nil(t, resp.Error)
		assert.Equal(t, float64(6), resp.Result.(map[string]interface{})["total_tools"])
	})

	t.Run("parse error", func(t *testing.T) {
		var resp RPCResponse
		httpResp := postJSON(t, ts.URL+"/rpc", `{not json`, &resp)
		assert.Equal(t, http.StatusBadRequest, httpResp.StatusCode)
		require.NotNil(t, resp.Error)
		assert.Equal(t, ParseError, resp.Error.Code)
	})
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	var welcome Welcome
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&welcome))
	require.Equal(t, "connected", welcome.Event)
	require.NotEmpty(t, welcome.ClientID)
	return conn
}

// readUntil reads frames until one satisfies match
func readUntil(t *testing.T, conn *websocket.Conn, match func(map[string]interface{}) bool) map[string]interface{} {
	t.Helper()
	for i := 0; i < 10; i++ {
		var msg map[string]interface{}
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
	t.Fatal("expected message not received")
	return nil
}

func TestServer_WebSocketExecute(t *testing.T) {
	s, ts := newTestServer(t, nil)
	conn := dialWS(t, ts)

	assert.Eventually(t, func() bool { return len(s.GetConnectedClients()) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(RPCRequest{
		ID:     "ws-1",
		Method: "tools.execute",
		Params: map[string]interface{}{
			"tool":   "get_user_info",
			"params": map[string]interface{}{"user_id": 7},
		},
	}))

	event := readUntil(t, conn, func(m map[string]interface{}) bool { return m["event"] == "tool.executed" })
	data := event["data"].(map[string]interface{})
	assert.Equal(t, "get_user_info", data["tool"])
	assert.Equal(t, "demo", data["domain"])
	assert.Equal(t, StatusSuccess, data["status"])

	resp := readUntil(t, conn, func(m map[string]interface{}) bool { return m["id"] == "ws-1" })
	result := resp["result"].(map[string]interface{})["result"].(map[string]interface{})
	assert.Equal(t, "User 7", result["name"])
	assert.Equal(t, "000.000.000-07", result["cpf"])
}

func TestServer_BroadcastReachesClients(t *testing.T) {
	s, ts := newTestServer(t, nil)
	conn := dialWS(t, ts)

	assert.Eventually(t, func() bool { return len(s.GetConnectedClients()) == 1 }, time.Second, 10*time.Millisecond)

	s.Broadcast("config.reloaded", map[string]interface{}{"total_tools": 6})

	event := readUntil(t, conn, func(m map[string]interface{}) bool { return m["event"] == "config.reloaded" })
	assert.Equal(t, "event", event["type"])
	assert.Equal(t, float64(6), event["data"].(map[string]interface{})["total_tools"])
}

func TestServer_WebSocketRateLimit(t *testing.T) {
	_, ts := newTestServer(t, func(c *Config) { c.RequestsPerMinute = 1 })
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(RPCRequest{ID: "1", Method: "server.info"}))
	readUntil(t, conn, func(m map[string]interface{}) bool { return m["id"] == "1" })

	require.NoError(t, conn.WriteJSON(RPCRequest{ID: "2", Method: "server.info"}))
	resp := readUntil(t, conn, func(m map[string]interface{}) bool { return m["id"] == "2" })
	errObj := resp["error"].(map[string]interface{})
	assert.Equal(t, float64(RateLimitExceeded), errObj["code"])
}

func TestServer_StartStop(t *testing.T) {
	reg := toolregistry.NewRegistry(zerolog.Nop())
	s, err := NewServer(Config{Host: "127.0.0.1", Port: 0, ServerName: "TestServer", Registry: reg, Logger: zerolog.Nop()})
	require.NoError(t, err)

	require.NoError(t, s.Start())

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestNewServerValidation(t *testing.T) {
	reg := toolregistry.NewRegistry(zerolog.Nop())

	_, err := NewServer(Config{ServerName: "x", Port: 70000, Registry: reg})
	assert.Error(t, err)

	_, err = NewServer(Config{ServerName: "x"})
	assert.Error(t, err)

	_, err = NewServer(Config{Registry: reg})
	assert.Error(t, err)
}
