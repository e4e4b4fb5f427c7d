package operations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "luminexcli/internal/errors"
	"luminexcli/internal/infrastructure"
	"luminexcli/pkg/contracts/domain"
)

func newRecordingTracer(t *testing.T) (*RunTracer, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	rt, err := NewRunTracer(&infrastructure.OTelProviders{
		Tracer: tp.Tracer("test"),
		Meter:  noop.NewMeterProvider().Meter("test"),
	})
	require.NoError(t, err)
	return rt, recorder
}

func TestRunTracer_PlateSpans(t *testing.T) {
	rt, recorder := newRecordingTracer(t)
	ctx, runSpan := rt.TraceRun(context.Background(), "run-1", 2)

	_, ok := rt.TracePlate(ctx, "plate1", "plate1.csv")
	rt.FinishPlate(ctx, ok, domain.PlateResult{Plate: "plate1", Status: domain.PlateProcessed, Duration: time.Millisecond})

	skipErr := apperrors.NewEmptySectionError("Count")
	_, bad := rt.TracePlate(ctx, "plate2", "plate2.csv")
	rt.FinishPlate(ctx, bad, domain.PlateResult{Plate: "plate2", Status: domain.PlateSkipped, Reason: "EMPTY_SECTION", Err: skipErr})

	rt.FinishRun(ctx, runSpan, &RunSummary{Processed: 1, Skipped: 1}, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "pipeline.plate", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "EMPTY_SECTION", spans[1].Status().Description)
	assert.Equal(t, "pipeline.run", spans[2].Name())
	assert.Equal(t, spans[2].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestRunTracer_FailedRun(t *testing.T) {
	rt, recorder := newRecordingTracer(t)
	ctx, span := rt.TraceRun(context.Background(), "run-2", 0)

	rt.FinishRun(ctx, span, nil, errors.New("raw folder vanished"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.NotEqual(t, codes.Ok, spans[0].Status().Code)
	assert.NotEmpty(t, spans[0].Events())
}

func TestNewRunTracer_NilProviders(t *testing.T) {
	rt, err := NewRunTracer(nil)
	require.NoError(t, err)

	ctx, span := rt.TraceRun(context.Background(), "run-3", 1)
	_, plate := rt.TracePlate(ctx, "plate1", "plate1.csv")
	assert.NotPanics(t, func() {
		rt.FinishPlate(ctx, plate, domain.PlateResult{Plate: "plate1", Status: domain.PlateProcessed})
		rt.FinishRun(ctx, span, &RunSummary{}, nil)
	})
}
