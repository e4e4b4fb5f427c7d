package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"luminexcli/internal/config"
)

const (
	ServiceName    = "luminex-processor"
	ServiceVersion = "1.0.0"
	MeterName      = "luminexcli"
)

// OTelProviders holds the OpenTelemetry providers. Tracer and Meter are
// always usable; with the "none" exporters they are the global no-op ones.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	// Registry receives the pipeline metrics when the prometheus exporter is
	// selected.
	Registry *promclient.Registry
	Logger   *slog.Logger
}

// InitializeOTel wires tracing and metrics according to cfg.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	ctx := context.Background()

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Tracer: otel.Tracer(MeterName),
		Meter:  otel.Meter(MeterName),
		Logger: logger,
	}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return providers, nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized", slog.String("exporter", cfg.TraceExporter))
	return nil
}

// initializeMetrics sets up OpenTelemetry metrics
func initializeMetrics(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		reg := promclient.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)

		providers.Registry = reg
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion))
		otel.SetMeterProvider(mp)
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "Metrics initialized", slog.String("exporter", cfg.MetricExporter))
	return nil
}

// WriteMetrics dumps the prometheus registry to path in the text exposition
// format. It is a no-op when the prometheus exporter is not selected.
func (p *OTelProviders) WriteMetrics(path string) error {
	if p.Registry == nil {
		return nil
	}
	if err := promclient.WriteToTextfile(path, p.Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Shutdown flushes and stops the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}
	return nil
}

// PipelineMetrics holds the per-run instruments
type PipelineMetrics struct {
	PlatesProcessed metric.Int64Counter
	PlatesSkipped   metric.Int64Counter
	QCFlags         metric.Int64Counter
	PlateDuration   metric.Float64Histogram
}

// CreatePipelineMetrics creates the pipeline instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	platesProcessed, err := meter.Int64Counter(
		"plates_processed_total",
		metric.WithDescription("Total number of plates that produced a processed table"),
	)
	if err != nil {
		return nil, err
	}

	platesSkipped, err := meter.Int64Counter(
		"plates_skipped_total",
		metric.WithDescription("Total number of plates skipped by a plate-level error"),
	)
	if err != nil {
		return nil, err
	}

	qcFlags, err := meter.Int64Counter(
		"qc_flags_total",
		metric.WithDescription("Total number of low bead-count flags by severity"),
	)
	if err != nil {
		return nil, err
	}

	plateDuration, err := meter.Float64Histogram(
		"plate_duration_seconds",
		metric.WithDescription("Per-plate processing duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		PlatesProcessed: platesProcessed,
		PlatesSkipped:   platesSkipped,
		QCFlags:         qcFlags,
		PlateDuration:   plateDuration,
	}, nil
}

// RecordPlate records the outcome of one plate. reason is the error type of
// a skipped plate and ignored otherwise.
func (m *PipelineMetrics) RecordPlate(ctx context.Context, plate string, duration time.Duration, processed bool, reason string) {
	if m == nil {
		return
	}

	status := "processed"
	if processed {
		m.PlatesProcessed.Add(ctx, 1)
	} else {
		status = "skipped"
		m.PlatesSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
	m.PlateDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("status", status)))

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("plate.metrics_recorded",
			trace.WithAttributes(
				attribute.String("plate", plate),
				attribute.Bool("processed", processed),
				attribute.Float64("duration_seconds", duration.Seconds()),
			),
		)
	}
}

// RecordFlags counts QC flags by severity
func (m *PipelineMetrics) RecordFlags(ctx context.Context, counts map[string]int) {
	if m == nil {
		return
	}
	for severity, n := range counts {
		m.QCFlags.Add(ctx, int64(n), metric.WithAttributes(attribute.String("severity", severity)))
	}
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}
