// Package observable decorates command handlers with metrics, tracing and logging.
// The wrapped handler stays free of observability concerns.
package observable
