// Package adapters provide database adapter implementations for the PostgreSQL event store.
//
// Three connection types are supported: pgxpool.Pool, sql.DB and sqlx.DB. All of them
// are presented through the DBAdapter interface so the event store builds its SQL once
// and executes it on whichever connection the application already owns.
//
// Adapters that were given a replica route Query calls to it when the context asks for
// eventual consistency, appends always go to the primary.
package adapters
