package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricExportInterval is how often the periodic reader pushes metrics to the OTLP endpoint.
const MetricExportInterval = 5 * time.Second

// OTLPExporterOptions creates a gRPC exporter for every configured endpoint and returns
// the options that attach them to NewObservabilityProviders. No endpoints, no options.
// Exporters connect lazily, so an unreachable collector does not fail startup.
func OTLPExporterOptions(ctx context.Context, endpoints OTLPEndpoints) ([]ObservabilityOption, error) {
	var (
		opts      []ObservabilityOption
		shutdowns []func(context.Context) error
	)

	fail := func(err error) ([]ObservabilityOption, error) {
		for _, shutdown := range shutdowns {
			err = errors.Join(err, shutdown(ctx))
		}

		return nil, err
	}

	if endpoints.Traces != "" {
		traceOptions := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoints.Traces)}
		if endpoints.Insecure {
			traceOptions = append(traceOptions, otlptracegrpc.WithInsecure())
		}

		exporter, err := otlptracegrpc.New(ctx, traceOptions...)
		if err != nil {
			return fail(fmt.Errorf("create otlp trace exporter: %w", err))
		}

		shutdowns = append(shutdowns, exporter.Shutdown)
		opts = append(opts, WithSpanExporter(exporter))
	}

	if endpoints.Metrics != "" {
		metricOptions := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(endpoints.Metrics)}
		if endpoints.Insecure {
			metricOptions = append(metricOptions, otlpmetricgrpc.WithInsecure())
		}

		exporter, err := otlpmetricgrpc.New(ctx, metricOptions...)
		if err != nil {
			return fail(fmt.Errorf("create otlp metric exporter: %w", err))
		}

		shutdowns = append(shutdowns, exporter.Shutdown)
		opts = append(opts, WithMetricReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(MetricExportInterval)),
		))
	}

	if endpoints.Logs != "" {
		logOptions := []otlploggrpc.Option{otlploggrpc.WithEndpoint(endpoints.Logs)}
		if endpoints.Insecure {
			logOptions = append(logOptions, otlploggrpc.WithInsecure())
		}

		exporter, err := otlploggrpc.New(ctx, logOptions...)
		if err != nil {
			return fail(fmt.Errorf("create otlp log exporter: %w", err))
		}

		shutdowns = append(shutdowns, exporter.Shutdown)
		opts = append(opts, WithLogExporter(exporter))
	}

	return opts, nil
}
