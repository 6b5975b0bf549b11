package logctx

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	EngineKey    ContextKey = "engine"
)

// Logger returns baseLogger enriched with the identifiers stored in ctx.
func Logger(ctx context.Context, baseLogger *zap.Logger) *zap.Logger {
	logger := baseLogger

	if id := RequestID(ctx); id != "" {
		logger = logger.With(zap.String("request_id", id))
	}

	if engine, ok := ctx.Value(EngineKey).(string); ok && engine != "" {
		logger = logger.With(zap.String("engine", engine))
	}

	return logger
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func WithEngine(ctx context.Context, engine string) context.Context {
	return context.WithValue(ctx, EngineKey, engine)
}

func NewRequestID() string {
	return uuid.NewString()
}

func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
