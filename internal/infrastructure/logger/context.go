package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// CorrelationIDKey identifies one caller run, e.g. a marketplace sync batch or a planner run
	CorrelationIDKey contextKey = "correlation_id"
	// MarketplaceKey is the marketplace a sync run is processing
	MarketplaceKey contextKey = "marketplace"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithCorrelationID adds a correlation ID to context and returns the enriched logger
func WithCorrelationID(ctx context.Context, logger *zap.Logger, id string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, CorrelationIDKey, id)
	enriched := logger.With(zap.String("correlation_id", id))
	return WithContext(ctx, enriched), enriched
}

// WithMarketplace adds the marketplace to context and returns the enriched logger
func WithMarketplace(ctx context.Context, logger *zap.Logger, marketplace string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, MarketplaceKey, marketplace)
	enriched := logger.With(zap.String("marketplace", marketplace))
	return WithContext(ctx, enriched), enriched
}

// GetCorrelationID retrieves the correlation ID from context
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMarketplace retrieves the marketplace from context
func GetMarketplace(ctx context.Context) string {
	if marketplace, ok := ctx.Value(MarketplaceKey).(string); ok {
		return marketplace
	}
	return ""
}

// GetTraceID extracts the trace ID from the context's span.
// Returns an empty string if no valid span exists.
func GetTraceID(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

// GetSpanID extracts the span ID from the context's span.
// Returns an empty string if no valid span exists.
func GetSpanID(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.SpanID().String()
}

// WithTraceContext adds trace_id and span_id to the logger from the context's span.
// If no valid span exists, returns the original logger unchanged.
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}

// ContextLogger injects trace and run fields from its context into every entry.
// fromCtx is set when logger came from ctx and already carries the run fields.
type ContextLogger struct {
	ctx     context.Context
	logger  *zap.Logger
	fromCtx bool
}

// L returns a ContextLogger over the logger stored in ctx.
// Usage: logger.L(ctx).Info("message", zap.String("key", "value"))
//
// This automatically injects trace_id, span_id, correlation_id and marketplace
// when present in ctx.
func L(ctx context.Context) *ContextLogger {
	logger, ok := ctx.Value(LoggerKey).(*zap.Logger)
	return &ContextLogger{
		ctx:     ctx,
		logger:  logger,
		fromCtx: ok,
	}
}

// WithLogger returns a ContextLogger using the provided logger instead of
// the one stored in ctx.
func WithLogger(ctx context.Context, logger *zap.Logger) *ContextLogger {
	return &ContextLogger{
		ctx:    ctx,
		logger: logger,
	}
}

func (cl *ContextLogger) enrichedLogger() *zap.Logger {
	l := cl.logger
	if l == nil {
		l = zap.NewNop()
	}
	l = WithTraceContext(cl.ctx, l)

	if cl.fromCtx {
		return l
	}
	if id := GetCorrelationID(cl.ctx); id != "" {
		l = l.With(zap.String("correlation_id", id))
	}
	if marketplace := GetMarketplace(cl.ctx); marketplace != "" {
		l = l.With(zap.String("marketplace", marketplace))
	}
	return l
}

// With creates a child ContextLogger with additional fields.
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	base := cl.logger
	if base == nil {
		base = zap.NewNop()
	}
	return &ContextLogger{
		ctx:     cl.ctx,
		logger:  base.With(fields...),
		fromCtx: cl.fromCtx,
	}
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Debug(msg, fields...)
}

func (cl *ContextLogger) Info(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Info(msg, fields...)
}

func (cl *ContextLogger) Warn(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Warn(msg, fields...)
}

func (cl *ContextLogger) Error(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Error(msg, fields...)
}

// Zap returns the underlying zap.Logger enriched with context fields.
func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.enrichedLogger()
}
