package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// ActorKey is the context key for the acting user
	ActorKey contextKey = "actor"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if
// not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds request ID to context and returns the enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// WithActor adds the acting user to context and returns the enriched logger
func WithActor(ctx context.Context, logger *zap.Logger, actor string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, ActorKey, actor)
	enriched := logger.With(zap.String("actor", actor))
	return WithContext(ctx, enriched), enriched
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetActor retrieves the acting user from context
func GetActor(ctx context.Context) string {
	if actor, ok := ctx.Value(ActorKey).(string); ok {
		return actor
	}
	return ""
}

// Platform returns a zap field tagging a log entry with the marketplace it
// concerns. Used by adapters and the orchestrator so platform-scoped
// entries stay greppable.
func Platform(code string) zap.Field {
	return zap.String("platform", code)
}
