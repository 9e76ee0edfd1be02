package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const (
	traceIDKey contextKey = iota
	jobIDKey
)

// WithTraceID stores a request or job trace ID for the log handler
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID returns the ID stored with WithTraceID, or ""
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDKey).(string)
	return traceID
}

// EnsureTraceID gives ctx a random trace ID unless it already has one.
// Scheduled cleanings have no request to inherit an ID from.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, uuid.NewString())
}

// WithJobID marks ctx as running on behalf of a cleaning job; every record
// logged with it carries job_id.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey, jobID)
}

// JobIDFromContext returns the ID stored with WithJobID, or ""
func JobIDFromContext(ctx context.Context) string {
	jobID, _ := ctx.Value(jobIDKey).(string)
	return jobID
}
