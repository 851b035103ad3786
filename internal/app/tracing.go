package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// SetupTracing installs a zipkin-backed tracer provider when an endpoint is
// configured. The returned func flushes and stops it.
func (a *App) SetupTracing() (func(context.Context) error, error) {
	cfg := a.Config.Tracing
	if cfg.ZipkinEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := zipkin.New(cfg.ZipkinEndpoint)
	if err != nil {
		return nil, fmt.Errorf("create zipkin exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
		)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	a.Logger.Info().Str("endpoint", cfg.ZipkinEndpoint).Msg("tracing enabled")
	return tp.Shutdown, nil
}
