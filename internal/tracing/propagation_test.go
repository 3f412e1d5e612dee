package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithTraceID(context.Background(), "trace-123")
	ctx = WithActor(ctx, "127.0.0.1:5000")
	ctx = WithTool(ctx, "get_user_info")

	logger := LoggerFromContext(ctx, base)
	logger.Info().Msg("test")

	output := buf.String()
	for _, want := range []string{`"trace_id":"trace-123"`, `"actor":"127.0.0.1:5000"`, `"tool":"get_user_info"`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected log output to contain %s, got %s", want, output)
		}
	}
}

func TestLoggerFromContextWithoutValues(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggerFromContext(context.Background(), zerolog.New(&buf))
	logger.Info().Msg("plain")

	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("Expected no trace_id field, got %s", buf.String())
	}
}

func TestDetach(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	parent = WithTraceID(parent, "trace-456")
	parent = WithActor(parent, "client-1")
	cancel()

	detached := Detach(parent)

	if detached.Err() != nil {
		t.Errorf("Expected detached context to be live, got %v", detached.Err())
	}
	if GetTraceID(detached) != "trace-456" || GetActor(detached) != "client-1" {
		t.Errorf("Expected tracing values to survive, got %+v", FromContext(detached))
	}
}
