// Package promadapters implements the metrics collector on the Prometheus client library.
//
// Metric vectors are created on first use and registered with the injected registerer.
// The label names of a metric are fixed by its first measurement, later measurements with
// a different label set are dropped.
package promadapters
