// Package logging defines the structured-logging interface used across
// shopauth together with its slog and zap backends.
package logging

import (
	"context"
	"fmt"
	"io"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "login rejected", "email", email, "reason", err)
type Logger interface {
	// Debug logs diagnostic detail that is off in production.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Supported backends.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// New builds a Logger writing to w. The environment picks JSON output in
// production and a human readable format elsewhere.
func New(backend, environment string, w io.Writer) (Logger, error) {
	switch backend {
	case "", BackendSlog:
		return NewSlog(environment, w), nil
	case BackendZap:
		return NewZap(environment, w)
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}
