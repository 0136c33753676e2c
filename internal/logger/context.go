package logger

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// loggerKey is the context key for the request-scoped logger.
type loggerKey struct{}

// ContextWithLogger returns a child context carrying the given logger.
// The HTTP middleware stores a per-request logger (request_id attached)
// this way.
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the context's logger. Contexts without one (background
// jobs, tests) get a no-op logger, so callers never nil-check.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// FromRequest is FromContext over the request context.
func FromRequest(r *http.Request) *zap.Logger {
	return FromContext(r.Context())
}
