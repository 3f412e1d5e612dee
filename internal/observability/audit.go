package observability

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/harun/toolhub/internal/tracing"
)

// Audit event types
const (
	AuditTypeTool   = "tool"
	AuditTypeConfig = "config"
)

// AuditEvent is one line of the audit log.
type AuditEvent struct {
	Type     string
	Actor    string // client id, remote address or "config-watcher"
	Action   string // "execute:<tool>" or "reload"
	Status   string // "success" or "error"
	Metadata map[string]interface{}
}

// AuditLogger writes audit events as JSON lines, one per Record call.
type AuditLogger struct {
	mu     sync.Mutex
	logger zerolog.Logger
	closer io.Closer
}

// NewAuditLogger builds an audit logger writing to logger.
func NewAuditLogger(logger zerolog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

var auditCurrent atomic.Pointer[AuditLogger]

// GetAuditLogger returns the process audit logger, writing to stderr until
// InitAuditLogger points it at a file.
func GetAuditLogger() *AuditLogger {
	if a := auditCurrent.Load(); a != nil {
		return a
	}
	auditCurrent.CompareAndSwap(nil, NewAuditLogger(zerolog.New(os.Stderr)))
	return auditCurrent.Load()
}

// InitAuditLogger appends future audit events to path and closes the previous file.
func InitAuditLogger(path string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	next := &AuditLogger{logger: zerolog.New(file), closer: file}
	if prev := auditCurrent.Swap(next); prev != nil {
		return prev.Close()
	}
	return nil
}

// Record writes event, tagging it with the trace id and tool carried by ctx.
// When ctx holds a recording span the event is attached to it as well.
func (a *AuditLogger) Record(ctx context.Context, event AuditEvent) {
	traceID := tracing.GetTraceID(ctx)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		traceID = sc.TraceID().String()
		trace.SpanFromContext(ctx).AddEvent(event.Action, trace.WithAttributes(
			attribute.String("audit.type", event.Type),
			attribute.String("audit.status", event.Status),
			attribute.String("audit.actor", event.Actor),
		))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry := a.logger.Log().
		Time("timestamp", time.Now()).
		Str("type", event.Type).
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("status", event.Status)
	if traceID != "" {
		entry = entry.Str("trace_id", traceID)
	}
	if tool := tracing.GetTool(ctx); tool != "" {
		entry = entry.Str("tool", tool)
	}
	if len(event.Metadata) > 0 {
		entry = entry.Interface("metadata", event.Metadata)
	}
	entry.Send()
}

// Close releases the underlying file, if any. Later records are dropped.
func (a *AuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

func RecordToolAudit(ctx context.Context, toolName, actor, status string, metadata map[string]interface{}) {
	GetAuditLogger().Record(ctx, AuditEvent{
		Type:     AuditTypeTool,
		Actor:    actor,
		Action:   "execute:" + toolName,
		Status:   status,
		Metadata: metadata,
	})
}

func RecordConfigAudit(ctx context.Context, action, actor, status string, metadata map[string]interface{}) {
	GetAuditLogger().Record(ctx, AuditEvent{
		Type:     AuditTypeConfig,
		Actor:    actor,
		Action:   action,
		Status:   status,
		Metadata: metadata,
	})
}
