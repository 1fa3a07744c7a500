// Package telemetry wires a tracer provider for the capture core's own
// spans (no capture package opens spans through it), grounded on
// 99souls-ariadne's engine/monitoring.go NewOpenTelemetryTracer: a
// resource-tagged TracerProvider with a stdout exporter for local
// visibility rather than a remote collector, since the capture core runs
// embedded in a page with no external trace backend to ship to.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Tracer wraps a single page-session tracer.
type Tracer struct {
	tracer oteltrace.Tracer
	tp     *sdktrace.TracerProvider
}

// NewTracer builds a TracerProvider backed by a stdout exporter (suitable
// for local development and test harnesses) and registers it as the
// global provider, matching the teacher's own otel.SetTracerProvider call.
func NewTracer(serviceName string) (*Tracer, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	return &Tracer{tracer: otel.Tracer(serviceName), tp: tp}, nil
}

// StartSpan begins a span for a capture-core operation (e.g. "ai.enrich",
// "network.capture_body").
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, oteltrace.Span) {
	return t.tracer.Start(ctx, name)
}

// Shutdown flushes and stops the underlying provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	return t.tp.Shutdown(ctx)
}
