package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"bdexports/internal/config"
)

// InstrumentationName scopes every tracer and meter created here.
const InstrumentationName = "bdexports"

// Telemetry owns the tracer and meter providers of one process.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Registry       *promclient.Registry
	Tracer         trace.Tracer
	Meter          metric.Meter
	logger         *slog.Logger
}

// InitializeTelemetry sets up metrics (prometheus exporter on a private
// registry) and, when enabled, a stdout span exporter writing to traceOut.
// Disabled signals fall back to no-op implementations.
func InitializeTelemetry(cfg config.TelemetryConfig, traceOut *os.File, logger *slog.Logger) (*Telemetry, error) {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
	)

	t := &Telemetry{
		Tracer: otel.Tracer(InstrumentationName),
		Meter:  noop.NewMeterProvider().Meter(InstrumentationName),
		logger: logger,
	}

	if cfg.TracingEnabled {
		if traceOut == nil {
			traceOut = os.Stderr
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(traceOut))
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		t.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(t.TracerProvider)
		t.Tracer = t.TracerProvider.Tracer(InstrumentationName)
	}

	if cfg.MetricsEnabled {
		t.Registry = promclient.NewRegistry()
		t.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		exporter, err := prometheus.New(prometheus.WithRegisterer(t.Registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		t.MeterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		otel.SetMeterProvider(t.MeterProvider)
		t.Meter = t.MeterProvider.Meter(InstrumentationName)
	}

	logger.Debug("Telemetry initialised",
		slog.Bool("tracing", cfg.TracingEnabled),
		slog.Bool("metrics", cfg.MetricsEnabled))
	return t, nil
}

// MetricsHandler serves the prometheus registry, or 404 when metrics are off.
func (t *Telemetry) MetricsHandler() http.Handler {
	if t.Registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(t.Registry, promhttp.HandlerOpts{Registry: t.Registry})
}

// Shutdown flushes and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PipelineMetrics are the counters and histograms recorded by a pipeline or download run.
type PipelineMetrics struct {
	filesProcessed metric.Int64Counter
	filesFailed    metric.Int64Counter
	records        metric.Int64Counter
	clamped        metric.Int64Counter
	duplicates     metric.Int64Counter
	downloads      metric.Int64Counter
	runDuration    metric.Float64Histogram
}

// NewPipelineMetrics registers the pipeline instruments on meter.
// A nil meter yields no-op instruments.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(InstrumentationName)
	}

	var (
		m   PipelineMetrics
		err error
	)
	counter := func(dst *metric.Int64Counter, name, desc string) {
		if err != nil {
			return
		}
		*dst, err = meter.Int64Counter(name, metric.WithDescription(desc))
	}
	counter(&m.filesProcessed, "bdexports_files_processed", "Workbooks parsed successfully")
	counter(&m.filesFailed, "bdexports_files_failed", "Workbooks rejected, by reason")
	counter(&m.records, "bdexports_records_emitted", "Monthly records written")
	counter(&m.clamped, "bdexports_deltas_clamped", "Negative monthly flows clamped to zero")
	counter(&m.duplicates, "bdexports_duplicate_periods", "Observations sharing a period within a group")
	counter(&m.downloads, "bdexports_downloads", "Download attempts, by outcome")
	if err != nil {
		return nil, err
	}

	m.runDuration, err = meter.Float64Histogram(
		"bdexports_run_duration_seconds",
		metric.WithDescription("Wall time of a pipeline run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *PipelineMetrics) FileProcessed(ctx context.Context) {
	m.filesProcessed.Add(ctx, 1)
}

func (m *PipelineMetrics) FileFailed(ctx context.Context, reason string) {
	m.filesFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// ReconstructionDone records the outcome counts of the delta reconstruction.
func (m *PipelineMetrics) ReconstructionDone(ctx context.Context, records, clamped, duplicates int) {
	m.records.Add(ctx, int64(records))
	m.clamped.Add(ctx, int64(clamped))
	m.duplicates.Add(ctx, int64(duplicates))
}

func (m *PipelineMetrics) Download(ctx context.Context, outcome string) {
	m.downloads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *PipelineMetrics) RunFinished(ctx context.Context, elapsed time.Duration, outcome string) {
	m.runDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordError marks the span in ctx as failed.
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
