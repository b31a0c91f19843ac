package logging

import (
	"context"
	"log/slog"
)

type contextKey string

// loggerKey is the key used to store the logger in the context.
const loggerKey = contextKey("logger")

// WithLogger returns a context carrying the given logger. The command layer
// attaches a per-request logger (request id, caller identity) before calling
// into the core.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromCtx extracts the logger from the context, falling back to the default
// logger when none is attached.
func FromCtx(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
