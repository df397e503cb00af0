package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/lazylists/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the OpenTelemetry instruments recorded per pipeline run.
type Metrics struct {
	runs        metric.Int64Counter
	runDuration metric.Float64Histogram
	active      metric.Int64UpDownCounter
	inputs      metric.Int64Counter
	outputs     metric.Int64Counter
	errors      metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	runs, err := meter.Int64Counter("pipeline.runs",
		metric.WithDescription("Total number of pipeline runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.runs counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("pipeline.run.duration",
		metric.WithDescription("Duration of pipeline runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.run.duration histogram: %w", err)
	}

	active, err := meter.Int64UpDownCounter("pipeline.active",
		metric.WithDescription("Number of pipeline runs in progress"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.active gauge: %w", err)
	}

	inputs, err := meter.Int64Counter("pipeline.inputs",
		metric.WithDescription("Root inputs fed into pipelines"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.inputs counter: %w", err)
	}

	outputs, err := meter.Int64Counter("pipeline.outputs",
		metric.WithDescription("Values collected from pipelines"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.outputs counter: %w", err)
	}

	errs, err := meter.Int64Counter("pipeline.errors",
		metric.WithDescription("Failed pipeline runs by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.errors counter: %w", err)
	}

	return &Metrics{
		runs:        runs,
		runDuration: runDuration,
		active:      active,
		inputs:      inputs,
		outputs:     outputs,
		errors:      errs,
	}, nil
}

// RecordRunStart increments the active run count.
func (m *Metrics) RecordRunStart(ctx context.Context, pipeline string) {
	m.active.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrPipeline, pipeline)))
}

// RecordRunEnd decrements active runs and records the completed run.
func (m *Metrics) RecordRunEnd(ctx context.Context, pipeline, status string, duration time.Duration, inputs, outputs int) {
	name := attribute.String(AttrPipeline, pipeline)
	m.active.Add(ctx, -1, metric.WithAttributes(name))
	m.runs.Add(ctx, 1, metric.WithAttributes(name, attribute.String(AttrStatus, status)))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(name))
	m.inputs.Add(ctx, int64(inputs), metric.WithAttributes(name))
	m.outputs.Add(ctx, int64(outputs), metric.WithAttributes(name))
}

// RecordError records a failed run by error code.
func (m *Metrics) RecordError(ctx context.Context, pipeline, code string) {
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrPipeline, pipeline),
		attribute.String(AttrErrorCode, code),
	))
}
