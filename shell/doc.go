// Package shell is the imperative shell around the reservationqueue core.
//
// It translates between core notifications and storable events, loads and saves queues through
// the event store with optimistic concurrency, retries on conflicts, serializes work per resource
// through a ResourceLocker and hands committed notifications to a NotificationPublisher.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'infrastructure' layer.
package shell
