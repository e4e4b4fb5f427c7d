package operations

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"luminexcli/internal/infrastructure"
	"luminexcli/pkg/contracts/domain"
)

// RunTracer provides OpenTelemetry instrumentation for a pipeline run
type RunTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewRunTracer creates a run tracer. A nil providers value yields a tracer
// whose spans and metrics are no-ops.
func NewRunTracer(providers *infrastructure.OTelProviders) (*RunTracer, error) {
	if providers == nil {
		return &RunTracer{tracer: otel.Tracer(infrastructure.MeterName)}, nil
	}

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	return &RunTracer{tracer: providers.Tracer, metrics: metrics}, nil
}

// TraceRun creates a span for the entire run
func (rt *RunTracer) TraceRun(ctx context.Context, runID string, plates int) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.plates", plates),
		),
	)
}

// TracePlate creates a span for one plate
func (rt *RunTracer) TracePlate(ctx context.Context, plate, file string) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, "pipeline.plate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("plate", plate),
			attribute.String("file", file),
		),
	)
}

// FinishPlate records the plate outcome on its span and in the metrics
func (rt *RunTracer) FinishPlate(ctx context.Context, span trace.Span, result domain.PlateResult) {
	span.SetAttributes(
		attribute.String("plate.status", string(result.Status)),
		attribute.Int("plate.flags", len(result.Flags)),
		attribute.Bool("plate.enriched", result.Enriched),
		attribute.Float64("plate.median_beads", result.Beads.Median),
	)
	if result.Err != nil {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Reason)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	rt.metrics.RecordPlate(ctx, result.Plate, result.Duration, result.OK(), result.Reason)
	span.End()
}

// FinishRun records the run-wide flag counts and closes the run span
func (rt *RunTracer) FinishRun(ctx context.Context, span trace.Span, summary *RunSummary, err error) {
	if summary != nil {
		rt.metrics.RecordFlags(ctx, summary.FlagCounts)
		span.SetAttributes(
			attribute.Int("run.processed", summary.Processed),
			attribute.Int("run.skipped", summary.Skipped),
			attribute.Float64("run.duration_seconds", summary.Duration.Seconds()),
		)
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
