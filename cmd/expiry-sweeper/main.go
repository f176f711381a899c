package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/AntonStoeckl/reservation-queue-go/eventstore/postgresengine"
	"github.com/AntonStoeckl/reservation-queue-go/features/command/expireoverdue"
	"github.com/AntonStoeckl/reservation-queue-go/oteladapters"
	"github.com/AntonStoeckl/reservation-queue-go/promadapters"
	"github.com/AntonStoeckl/reservation-queue-go/shell"
	"github.com/AntonStoeckl/reservation-queue-go/shell/config"
	"github.com/AntonStoeckl/reservation-queue-go/shell/lock"
	"github.com/AntonStoeckl/reservation-queue-go/shell/observable"
)

const (
	serviceVersion  = "dev"
	shutdownTimeout = 5 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(logger, os.Args[1:]); err != nil {
		logger.Error("expiry sweeper failed", shell.LogAttrError, err.Error())
		os.Exit(1)
	}
}

func run(logger *slog.Logger, args []string) error {
	cfg, err := parseFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	endpoints := config.OTLPEndpointsFromEnv()

	otlpOptions, err := config.OTLPExporterOptions(ctx, endpoints)
	if err != nil {
		return err
	}

	providers, err := config.NewObservabilityProviders(ctx, defaultServiceTag, serviceVersion, otlpOptions...)
	if err != nil {
		return err
	}
	providers.SetGlobal()
	defer shutdown(logger, "observability providers", providers.Shutdown)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	prometheusMetrics, err := promadapters.NewMetricsCollector(registry)
	if err != nil {
		return err
	}

	sinks := newTelemetry(logger, providers, prometheusMetrics)
	metrics := sinks.metrics

	tracing := oteladapters.NewTracingCollector(providers.TracerProvider.Tracer(defaultServiceTag))

	eventStore, closeDB, err := openEventStore(ctx, cfg, logger, metrics, tracing)
	if err != nil {
		return err
	}
	defer closeDB()

	if schemaErr := eventStore.EnsureSchema(ctx); schemaErr != nil {
		return fmt.Errorf("ensure event store schema: %w", schemaErr)
	}

	locker, closeLocker, err := newLocker(ctx, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	handler, err := newExpireHandler(eventStore, locker, sinks, tracing)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		server := serveMetrics(logger, cfg.MetricsAddr, registry)
		defer shutdown(logger, "metrics server", server.Shutdown)
	}

	clock := shell.SystemClock{}
	sweeper := NewSweeper(handler, clock, logger, cfg.ResourceIDs, cfg.Concurrency)

	logger.InfoContext(ctx, "expiry sweeper started",
		"resources", len(cfg.ResourceIDs),
		"otlp", !endpoints.IsEmpty(),
		"interval", cfg.Interval.String(),
		"concurrency", cfg.Concurrency,
		"once", cfg.Once,
	)

	if cfg.Once {
		report := sweeper.SweepOnce(ctx)
		sweeper.logReport(ctx, report)

		if report.Failed > 0 {
			return fmt.Errorf("%d of %d queues failed to sweep", report.Failed, report.Swept)
		}

		return nil
	}

	sweeper.Run(ctx, cfg.Interval)
	logger.Info("expiry sweeper stopped")

	return nil
}

func openEventStore(
	ctx context.Context,
	cfg Config,
	logger *slog.Logger,
	metrics shell.MetricsCollector,
	tracing shell.TracingCollector,
) (postgresengine.EventStore, func(), error) {

	pool, err := config.NewPostgresPGXPool(ctx, config.PostgresDSN())
	if err != nil {
		return postgresengine.EventStore{}, nil, err
	}

	options := []postgresengine.Option{
		postgresengine.WithTableName(cfg.TableName),
		postgresengine.WithLogger(logger),
		postgresengine.WithMetrics(metrics),
		postgresengine.WithTracing(tracing),
	}

	replicaDSN := config.PostgresReplicaDSN()
	if replicaDSN == "" {
		eventStore, esErr := postgresengine.NewEventStoreFromPGXPool(pool, options...)
		if esErr != nil {
			pool.Close()
			return postgresengine.EventStore{}, nil, esErr
		}

		return eventStore, pool.Close, nil
	}

	replica, err := config.NewPostgresPGXPool(ctx, replicaDSN)
	if err != nil {
		pool.Close()
		return postgresengine.EventStore{}, nil, err
	}

	closeBoth := func() {
		replica.Close()
		pool.Close()
	}

	eventStore, err := postgresengine.NewEventStoreFromPGXPoolAndReplica(pool, replica, options...)
	if err != nil {
		closeBoth()
		return postgresengine.EventStore{}, nil, err
	}

	return eventStore, closeBoth, nil
}

func newLocker(ctx context.Context, logger *slog.Logger) (shell.ResourceLocker, func(), error) {
	redisURL := config.RedisURL()
	if redisURL == "" {
		logger.Info("no redis configured, falling back to in-process locking")
		return shell.NewInProcessLocker(), func() {}, nil
	}

	opts, err := config.RedisOptions(redisURL)
	if err != nil {
		return nil, nil, err
	}

	client := redis.NewClient(opts)
	closeClient := func() { _ = client.Close() }

	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		closeClient()
		return nil, nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	locker, err := lock.NewRedisResourceLocker(client)
	if err != nil {
		closeClient()
		return nil, nil, err
	}

	return locker, closeClient, nil
}

func newExpireHandler(
	eventStore postgresengine.EventStore,
	locker shell.ResourceLocker,
	sinks telemetry,
	tracing shell.TracingCollector,
) (*observable.CommandWrapper[expireoverdue.Command], error) {

	repository, err := shell.NewQueueRepository(eventStore)
	if err != nil {
		return nil, err
	}

	var zeroCommand expireoverdue.Command

	coreHandler, err := expireoverdue.NewCommandHandler(repository,
		shell.WithLocker(locker),
		shell.WithPublisher(shell.LoggingPublisher{Logger: sinks.publishLogger}),
		shell.WithExecutorContextualLogger(sinks.executorLogger),
		shell.WithExecutorMetrics(sinks.metrics),
		shell.WithRetryOptions(shell.WithRetryMetrics(sinks.metrics, zeroCommand.CommandType())),
	)
	if err != nil {
		return nil, err
	}

	return observable.NewCommandWrapper[expireoverdue.Command](coreHandler,
		observable.WithCommandMetrics[expireoverdue.Command](sinks.metrics),
		observable.WithCommandTracing[expireoverdue.Command](tracing),
		observable.WithCommandContextualLogging[expireoverdue.Command](sinks.commandLogger),
	)
}

func serveMetrics(logger *slog.Logger, addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", shell.LogAttrError, err.Error())
		}
	}()

	return server
}

func shutdown(logger *slog.Logger, what string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		logger.Warn("shutdown failed", "component", what, shell.LogAttrError, err.Error())
	}
}
