// Package logging defines the structured logger the rest of the project
// depends on, keeping call sites independent of the backing implementation.
package logging

import "context"

// Logger logs structured messages. Variadic args are alternating key-value
// pairs, as in:
//
//	log.Info(ctx, "sync finished", "pushed", n, "pulled", m)
type Logger interface {
	// Debug logs fine-grained diagnostics, usually disabled in production.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs normal operational events.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs unusual but recoverable conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger carrying the given key-value pairs on
	// every record.
	With(args ...any) Logger
}
