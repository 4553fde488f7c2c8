package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// Config selects what the process exports to the OTLP collector.
// Both signals share one endpoint.
type Config struct {
	Tracing           bool
	Metrics           bool
	CollectorEndpoint string
	Insecure          bool
	SamplingRatio     float64
	MetricsInterval   time.Duration // Default: 60s
	ServiceName       string
	ServiceVersion    string
}

// Providers owns the SDK tracer and meter providers. A disabled signal keeps a
// nil provider and falls back to the global no-op implementation.
type Providers struct {
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
	logger *zap.Logger
}

// Setup builds the enabled providers and installs them as the otel globals.
// Exporters dial lazily, so an unreachable collector does not fail Setup.
func Setup(ctx context.Context, cfg Config, logger *zap.Logger) (*Providers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Providers{logger: logger}
	if !cfg.Tracing && !cfg.Metrics {
		logger.Info("Telemetry disabled, using no-op providers")
		return p, nil
	}

	res, err := serviceResource(cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if cfg.Tracing {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		p.tracer = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(samplerFor(cfg.SamplingRatio)),
		)
		otel.SetTracerProvider(p.tracer)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	if cfg.Metrics {
		interval := cfg.MetricsInterval
		if interval <= 0 {
			interval = 60 * time.Second
		}
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exporter, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			_ = p.Shutdown(ctx)
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		p.meter = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
		)
		otel.SetMeterProvider(p.meter)
	}

	logger.Info("OpenTelemetry initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Bool("tracing", cfg.Tracing),
		zap.Bool("metrics", cfg.Metrics),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
		zap.String("service_name", cfg.ServiceName),
	)
	return p, nil
}

// TracingEnabled reports whether spans are exported
func (p *Providers) TracingEnabled() bool { return p.tracer != nil }

// MetricsEnabled reports whether metrics are exported
func (p *Providers) MetricsEnabled() bool { return p.meter != nil }

// Meter returns a named meter, no-op when metrics are disabled.
func (p *Providers) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if p.meter == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return p.meter.Meter(name, opts...)
}

// ForceFlush exports pending spans and metrics.
func (p *Providers) ForceFlush(ctx context.Context) error {
	var errs []error
	if p.tracer != nil {
		errs = append(errs, p.tracer.ForceFlush(ctx))
	}
	if p.meter != nil {
		errs = append(errs, p.meter.ForceFlush(ctx))
	}
	return errors.Join(errs...)
}

// Shutdown flushes and stops both providers within ten seconds.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p.tracer == nil && p.meter == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var errs []error
	if p.meter != nil {
		if err := p.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}
	if p.tracer != nil {
		if err := p.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		p.logger.Error("Error shutting down telemetry", zap.Error(err))
		return err
	}
	p.logger.Info("OpenTelemetry shutdown complete")
	return nil
}

// samplerFor maps a ratio to a parent-based sampler; ratios outside (0, 1) clamp
func samplerFor(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// serviceResource describes this process to the collector
func serviceResource(name, version string) (*resource.Resource, error) {
	if version == "" {
		version = "dev"
	}
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(name),
			semconv.ServiceVersion(version),
		),
	)
}
