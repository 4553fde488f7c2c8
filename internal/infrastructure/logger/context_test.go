package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, recorded := observer.New(level)
	return zap.New(core), recorded
}

func fieldMap(entry observer.LoggedEntry) map[string]any {
	return entry.ContextMap()
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("0af7651916cd43dd8448eb211c80319c")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("b7ad6b7169203331")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestWithContext(t *testing.T) {
	logger, _ := observed(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), logger)

	assert.Same(t, logger, FromContext(ctx))
}

func TestFromContext_NotFound(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func TestFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
	assert.NotNil(t, FromContext(ctx))
}

func TestWithCorrelationID(t *testing.T) {
	base, recorded := observed(zapcore.InfoLevel)

	ctx, enriched := WithCorrelationID(context.Background(), base, "sync-42")
	enriched.Info("batch started")

	assert.Equal(t, "sync-42", GetCorrelationID(ctx))
	assert.Same(t, enriched, FromContext(ctx))
	require.Len(t, recorded.All(), 1)
	assert.Equal(t, "sync-42", fieldMap(recorded.All()[0])["correlation_id"])
}

func TestWithMarketplace(t *testing.T) {
	base, _ := observed(zapcore.InfoLevel)

	ctx, _ := WithMarketplace(context.Background(), base, "wb")

	assert.Equal(t, "wb", GetMarketplace(ctx))
	assert.Empty(t, GetCorrelationID(ctx))
}

func TestGetters_Empty(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetCorrelationID(ctx))
	assert.Empty(t, GetMarketplace(ctx))
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
}

func TestTraceIDs_WithSpan(t *testing.T) {
	ctx := spanContext(t)

	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", GetTraceID(ctx))
	assert.Equal(t, "b7ad6b7169203331", GetSpanID(ctx))
}

func TestTraceIDs_InvalidSpanContext(t *testing.T) {
	ctx := trace.ContextWithSpanContext(context.Background(), trace.SpanContext{})

	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
}

func TestWithTraceContext(t *testing.T) {
	base, recorded := observed(zapcore.InfoLevel)

	assert.Same(t, base, WithTraceContext(context.Background(), base))

	WithTraceContext(spanContext(t), base).Info("traced")
	require.Len(t, recorded.All(), 1)
	fields := fieldMap(recorded.All()[0])
	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", fields["trace_id"])
	assert.Equal(t, "b7ad6b7169203331", fields["span_id"])
}

func TestL_UsesContextLoggerWithoutDuplicateFields(t *testing.T) {
	base, recorded := observed(zapcore.DebugLevel)
	ctx, _ := WithCorrelationID(spanContext(t), base, "plan-run-1")

	L(ctx).Info("plan generated", zap.Int("rows", 3))

	require.Len(t, recorded.All(), 1)
	entry := recorded.All()[0]
	assert.Equal(t, "plan generated", entry.Message)
	count := 0
	for _, f := range entry.Context {
		if f.Key == "correlation_id" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	fields := fieldMap(entry)
	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", fields["trace_id"])
	assert.Equal(t, int64(3), fields["rows"])
}

func TestWithLogger_AddsRunFields(t *testing.T) {
	base, recorded := observed(zapcore.DebugLevel)
	ctx := context.WithValue(context.Background(), CorrelationIDKey, "sync-7")
	ctx = context.WithValue(ctx, MarketplaceKey, "ozon")

	WithLogger(ctx, base).With(zap.String("sku", "SKU-1")).Warn("shortfall")

	require.Len(t, recorded.All(), 1)
	entry := recorded.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := fieldMap(entry)
	assert.Equal(t, "sync-7", fields["correlation_id"])
	assert.Equal(t, "ozon", fields["marketplace"])
	assert.Equal(t, "SKU-1", fields["sku"])
}

func TestContextLogger_LogLevels(t *testing.T) {
	base, recorded := observed(zapcore.DebugLevel)
	cl := WithLogger(context.Background(), base)

	cl.Debug("d")
	cl.Info("i")
	cl.Warn("w")
	cl.Error("e")

	levels := []zapcore.Level{}
	for _, entry := range recorded.All() {
		levels = append(levels, entry.Level)
	}
	assert.Equal(t, []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}, levels)
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := L(context.Background())

	assert.NotPanics(t, func() {
		cl.Info("no logger")
		cl.With(zap.String("k", "v")).Error("still none")
	})
	assert.NotNil(t, cl.Zap())
}
