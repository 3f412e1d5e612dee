package tracing

import (
	"context"

	"github.com/rs/zerolog"
)

// LoggerFromContext returns baseLogger enriched with the tracing fields present in ctx.
func LoggerFromContext(ctx context.Context, baseLogger zerolog.Logger) zerolog.Logger {
	tc := FromContext(ctx)
	if tc.TraceID == "" && tc.Actor == "" && tc.Tool == "" {
		return baseLogger
	}

	lc := baseLogger.With()
	if tc.TraceID != "" {
		lc = lc.Str("trace_id", tc.TraceID)
	}
	if tc.Actor != "" {
		lc = lc.Str("actor", tc.Actor)
	}
	if tc.Tool != "" {
		lc = lc.Str("tool", tc.Tool)
	}
	return lc.Logger()
}

// Detach copies the tracing values of ctx onto a fresh background context,
// so work can outlive the request that started it without losing its trace.
func Detach(ctx context.Context) context.Context {
	return NewContext(context.Background(), FromContext(ctx))
}
