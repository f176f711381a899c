package main

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/AntonStoeckl/reservation-queue-go/oteladapters"
	"github.com/AntonStoeckl/reservation-queue-go/shell"
	"github.com/AntonStoeckl/reservation-queue-go/shell/config"
)

// telemetry bundles the loggers and the metrics sink the command pipeline is built with.
type telemetry struct {
	commandLogger  *oteladapters.SlogBridgeLogger
	executorLogger shell.ContextualLogger
	publishLogger  shell.Logger
	metrics        shell.MetricsCollector
}

// newTelemetry routes command logs to the OTel logger provider when it exports logs, else to the
// process handler. Metrics fan out to the meter provider when it has a reader.
func newTelemetry(
	logger *slog.Logger,
	providers *config.ObservabilityProviders,
	prometheusMetrics shell.MetricsCollector,
) telemetry {

	t := telemetry{
		commandLogger:  oteladapters.NewSlogBridgeLoggerWithHandler(logger.Handler()).With("service", defaultServiceTag),
		executorLogger: logger,
		publishLogger:  logger,
		metrics:        prometheusMetrics,
	}

	if providers.ExportsLogs() {
		bridge := oteladapters.NewSlogBridgeLogger(defaultServiceTag, otelslog.WithLoggerProvider(providers.LoggerProvider))

		t.commandLogger = bridge.With("service", defaultServiceTag)
		t.executorLogger = oteladapters.NewOTelLogger(providers.LoggerProvider.Logger(defaultServiceTag))
		t.publishLogger = bridge
	}

	if providers.ExportsMetrics() {
		t.metrics = fanOutMetrics{
			prometheusMetrics,
			oteladapters.NewMetricsCollector(providers.MeterProvider.Meter(defaultServiceTag)),
		}
	}

	return t
}

// fanOutMetrics forwards every call to each collector in order.
type fanOutMetrics []shell.MetricsCollector

func (f fanOutMetrics) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	for _, collector := range f {
		collector.RecordDuration(metric, duration, labels)
	}
}

func (f fanOutMetrics) IncrementCounter(metric string, labels map[string]string) {
	for _, collector := range f {
		collector.IncrementCounter(metric, labels)
	}
}

func (f fanOutMetrics) RecordValue(metric string, value float64, labels map[string]string) {
	for _, collector := range f {
		collector.RecordValue(metric, value, labels)
	}
}
