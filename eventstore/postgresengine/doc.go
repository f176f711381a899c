// Package postgresengine provides a PostgreSQL implementation of the event store used by the
// reservation queue shell.
//
// The engine supports three database adapters:
//   - pgx/v5 connection pools, optionally with a read replica
//   - database/sql connections (for example with lib/pq)
//   - sqlx connections
//
// All adapters share one SQL builder based on goqu. Appends are guarded by a CTE that compares the
// current max sequence number of the filtered "dynamic event stream" with the expected one, so a
// concurrent writer makes the insert affect fewer rows and the append fails with
// eventstore.ErrConcurrencyConflict.
//
// Observability is optional and dependency free: loggers, metrics collectors and tracing
// collectors are plain interfaces injected via functional options.
//
// Example:
//
//	store, err := postgresengine.NewEventStoreFromPGXPool(pool,
//	    postgresengine.WithTableName("reservation_events"),
//	    postgresengine.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    return err
//	}
//
//	if err = store.EnsureSchema(ctx); err != nil {
//	    return err
//	}
//
//	events, maxSeq, err := store.Query(ctx, filter)
package postgresengine
