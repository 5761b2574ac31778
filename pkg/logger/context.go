package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithFields returns a context carrying a logger extended with fields, so
// request-scoped attributes like the request id follow the call chain.
func WithFields(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, ctxKey{}, FromContext(ctx).With(fields...))
}

// FromContext returns the logger stored in ctx, falling back to the
// process-wide logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}
