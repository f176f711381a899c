// Package oteladapters provides OpenTelemetry implementations of the observability interfaces
// shared by the event store and the command handlers.
//
// One adapter instance can be handed to both layers:
//   - SlogBridgeLogger and OTelLogger implement the contextual logger (SlogBridgeLogger also the basic one)
//   - TracingCollector implements the tracing collector
//   - MetricsCollector implements the metrics collector on top of an OpenTelemetry meter
package oteladapters
