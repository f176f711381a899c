// Package memstore provides an in-memory event store with the same filter and
// optimistic concurrency semantics as the PostgreSQL engine. It backs the unit tests of the
// shell and the command handlers.
package memstore
