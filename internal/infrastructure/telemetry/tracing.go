// Package telemetry wires OpenTelemetry tracing and metrics for the ledger.
// This file holds the span helpers used by application services.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "costledger"

// Span attribute keys shared by ledger services
const (
	SpanAttrOrderID     = "order_id"
	SpanAttrCardID      = "card_id"
	SpanAttrPlanID      = "plan_id"
	SpanAttrMarketplace = "marketplace"
	SpanAttrQuantity    = "quantity"
	SpanAttrAmount      = "amount"
	SpanAttrSourceType  = "source_type"
	SpanAttrSourceID    = "source_id"
)

// StartSpan starts an internal span on the global tracer provider.
// keyValues alternate string keys and values. The caller ends the span.
func StartSpan(ctx context.Context, name string, keyValues ...any) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	if attrs := pairs(keyValues); len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return otel.GetTracerProvider().Tracer(tracerName).Start(ctx, name, opts...)
}

// StartServiceSpan starts a span named {service}.{method}, e.g. "sale.create_sale".
func StartServiceSpan(ctx context.Context, service, method string, keyValues ...any) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+method, keyValues...)
}

// SetAttributes adds attributes to an existing span.
// Pairs with a non-string key and a trailing unpaired key are skipped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	span.SetAttributes(pairs(keyValues)...)
}

// RecordError records err on the span and marks it failed.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks the span as successful.
func SetOK(span trace.Span) {
	if span == nil {
		return
	}
	span.SetStatus(codes.Ok, "")
}

// AddEvent adds a named event, e.g. a restored lot during a reversal.
func AddEvent(span trace.Span, name string, keyValues ...any) {
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(pairs(keyValues)...))
}

func pairs(keyValues []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, keyValues[i+1]))
	}
	return attrs
}

// toAttribute keeps numbers and flags typed; decimals and IDs go through
// their String form.
func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
