package logger

import (
	"context"

	"go.uber.org/zap"
)

// loggerKey is the context key under which a scoped logger is stored.
type loggerKey struct{}

// ToContext returns a context carrying the provided logger.
func ToContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext extracts the logger from the context,
// falling back to the global logger when none is attached.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.SugaredLogger); ok {
		return l
	}

	return global
}

// WithName returns a context whose logger is named for a component or binary.
// Names accumulate, so nested components produce dotted logger names.
func WithName(ctx context.Context, name string) context.Context {
	return ToContext(ctx, FromContext(ctx).Named(name))
}

// WithKV returns a context whose logger carries the provided key-value pairs
// on every subsequent message.
func WithKV(ctx context.Context, kvs ...any) context.Context {
	return ToContext(ctx, FromContext(ctx).With(kvs...))
}
