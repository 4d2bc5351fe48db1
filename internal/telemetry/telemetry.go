// Package telemetry wraps the OpenTelemetry global tracer/meter
// providers into per-worker instrumentation bundles, so each worker
// gets the same span-and-metric shape without each one hand-rolling
// instrument creation.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instrumentation bundles a tracer and the handful of metric
// instruments common to every worker's unit-of-work loop: how many
// units were processed, how long each took, and how many failed.
type Instrumentation struct {
	tracer trace.Tracer

	processedCount metric.Int64Counter
	failedCount    metric.Int64Counter
	duration       metric.Float64Histogram
}

// NewInstrumentation builds instrumentation scoped to serviceName,
// reading the tracer/meter from whatever global providers otel.Set*
// wired in main (a no-op provider if none was configured, so calling
// this is always safe even outside of a traced deployment).
func NewInstrumentation(serviceName string) (*Instrumentation, error) {
	if serviceName == "" {
		return nil, fmt.Errorf("service name cannot be empty")
	}

	tracer := otel.GetTracerProvider().Tracer(serviceName)
	meter := otel.GetMeterProvider().Meter(serviceName)

	inst := &Instrumentation{tracer: tracer}

	var err error
	inst.processedCount, err = meter.Int64Counter(
		serviceName+".units.processed",
		metric.WithDescription("Total units of work processed"),
		metric.WithUnit("{unit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create processed counter: %w", err)
	}

	inst.failedCount, err = meter.Int64Counter(
		serviceName+".units.failed",
		metric.WithDescription("Total units of work that failed"),
		metric.WithUnit("{unit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create failed counter: %w", err)
	}

	inst.duration, err = meter.Float64Histogram(
		serviceName+".unit.duration",
		metric.WithDescription("Duration of a single unit of work"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return inst, nil
}

// StartSpan starts a span named operation, tagged with the given
// attributes.
func (i *Instrumentation) StartSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, operation, trace.WithAttributes(attrs...))
}

// RecordOutcome records a unit-of-work's success/failure and duration,
// and marks the span's status accordingly.
func (i *Instrumentation) RecordOutcome(ctx context.Context, span trace.Span, durationSeconds float64, err error) {
	i.duration.Record(ctx, durationSeconds)
	if err != nil {
		i.failedCount.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	i.processedCount.Add(ctx, 1)
	span.SetStatus(codes.Ok, "")
}
