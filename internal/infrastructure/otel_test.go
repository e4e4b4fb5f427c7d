package infrastructure

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luminexcli/internal/config"
	"luminexcli/internal/shared/testutil"
)

func TestOTelInitialization_None(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	providers, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "none", MetricExporter: "none"}, logger)
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Tracer, "no-op tracer is still usable")
	assert.NotNil(t, providers.Meter, "no-op meter is still usable")

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, providers.WriteMetrics(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing written without the prometheus exporter")

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestOTelInitialization_UnsupportedExporter(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	_, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "jaeger", MetricExporter: "none"}, logger)
	assert.Error(t, err)

	_, err = InitializeOTel(config.TelemetryConfig{TraceExporter: "none", MetricExporter: "statsd"}, logger)
	assert.Error(t, err)
}

func TestPipelineMetrics_PrometheusTextfile(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)

	providers, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "none", MetricExporter: "prometheus"}, logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Metrics initialized")

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordPlate(ctx, "plate1", 120*time.Millisecond, true, "")
	metrics.RecordPlate(ctx, "plate2", 10*time.Millisecond, false, "EMPTY_SECTION")
	metrics.RecordFlags(ctx, map[string]int{"Failed": 2, "Warning": 1})

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, providers.WriteMetrics(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "plates_processed_total")
	assert.Contains(t, text, "plates_skipped_total")
	assert.Contains(t, text, `reason="EMPTY_SECTION"`)
	assert.Contains(t, text, `severity="Failed"`)
	assert.Contains(t, text, "plate_duration_seconds")
}

func TestPipelineMetrics_NilSafe(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.RecordPlate(context.Background(), "plate1", time.Second, true, "")
		m.RecordFlags(context.Background(), map[string]int{"Failed": 1})
	})
}
