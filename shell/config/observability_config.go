package config

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ObservabilityProviders holds the OpenTelemetry SDK providers of one process.
type ObservabilityProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	LoggerProvider *sdklog.LoggerProvider
	Resource       *resource.Resource

	exportsLogs    bool
	exportsMetrics bool
}

type observabilityConfig struct {
	spanExporter sdktrace.SpanExporter
	metricReader sdkmetric.Reader
	logExporter  sdklog.Exporter
}

// ObservabilityOption configures NewObservabilityProviders.
type ObservabilityOption func(*observabilityConfig)

// WithSpanExporter batches finished spans to exporter. Without it spans are sampled but not exported.
func WithSpanExporter(exporter sdktrace.SpanExporter) ObservabilityOption {
	return func(c *observabilityConfig) {
		c.spanExporter = exporter
	}
}

// WithMetricReader attaches reader to the meter provider, e.g. a periodic OTLP reader or a manual reader in tests.
func WithMetricReader(reader sdkmetric.Reader) ObservabilityOption {
	return func(c *observabilityConfig) {
		c.metricReader = reader
	}
}

// WithLogExporter batches emitted log records to exporter. Without it the logger provider drops records.
func WithLogExporter(exporter sdklog.Exporter) ObservabilityOption {
	return func(c *observabilityConfig) {
		c.logExporter = exporter
	}
}

// NewObservabilityProviders creates tracer, meter and logger providers identified by serviceName and serviceVersion.
func NewObservabilityProviders(
	ctx context.Context,
	serviceName string,
	serviceVersion string,
	opts ...ObservabilityOption,
) (*ObservabilityProviders, error) {

	cfg := observabilityConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	tracerOptions := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.spanExporter != nil {
		tracerOptions = append(tracerOptions, sdktrace.WithBatcher(cfg.spanExporter))
	}

	meterOptions := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if cfg.metricReader != nil {
		meterOptions = append(meterOptions, sdkmetric.WithReader(cfg.metricReader))
	}

	loggerOptions := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	if cfg.logExporter != nil {
		loggerOptions = append(loggerOptions, sdklog.WithProcessor(sdklog.NewBatchProcessor(cfg.logExporter)))
	}

	return &ObservabilityProviders{
		TracerProvider: sdktrace.NewTracerProvider(tracerOptions...),
		MeterProvider:  sdkmetric.NewMeterProvider(meterOptions...),
		LoggerProvider: sdklog.NewLoggerProvider(loggerOptions...),
		Resource:       res,
		exportsLogs:    cfg.logExporter != nil,
		exportsMetrics: cfg.metricReader != nil,
	}, nil
}

// SetGlobal installs the providers and the W3C trace context propagator as OpenTelemetry globals.
func (p *ObservabilityProviders) SetGlobal() {
	otel.SetTracerProvider(p.TracerProvider)
	otel.SetMeterProvider(p.MeterProvider)
	global.SetLoggerProvider(p.LoggerProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
}

// ExportsLogs reports whether a log exporter is attached to the logger provider.
func (p *ObservabilityProviders) ExportsLogs() bool {
	return p.exportsLogs
}

// ExportsMetrics reports whether a metric reader is attached to the meter provider.
func (p *ObservabilityProviders) ExportsMetrics() bool {
	return p.exportsMetrics
}

// Shutdown flushes and stops all providers.
func (p *ObservabilityProviders) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.TracerProvider.Shutdown(ctx),
		p.MeterProvider.Shutdown(ctx),
		p.LoggerProvider.Shutdown(ctx),
	)
}
