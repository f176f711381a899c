package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AntonStoeckl/reservation-queue-go/eventstore"
)

func schemaStatements(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    sequence_number BIGSERIAL PRIMARY KEY,
    occurred_at TIMESTAMPTZ NOT NULL,
    event_type TEXT NOT NULL,
    payload JSONB NOT NULL,
    metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
    append_timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_event_type_idx ON %s (event_type)`, table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_occurred_at_idx ON %s (occurred_at)`, table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_payload_idx ON %s USING gin (payload jsonb_path_ops)`, table, table),
	}
}

// CreateTableSQL returns the idempotent DDL for an events table with the given name.
func CreateTableSQL(table string) (string, error) {
	if table == "" {
		return "", eventstore.ErrEmptyEventsTableName
	}

	if !validTableName.MatchString(table) {
		return "", eventstore.ErrInvalidEventsTableName
	}

	return strings.Join(schemaStatements(table), ";\n") + ";\n", nil
}

// EnsureSchema creates the events table and its indexes if they do not exist yet.
func (es EventStore) EnsureSchema(ctx context.Context) error {
	obs, ctx := es.observe(ctx, operationSchema, nil)

	for _, statement := range schemaStatements(es.eventTableName) {
		if _, execErr := es.db.Exec(ctx, statement); execErr != nil {
			obs.fail(logMsgSchemaFailed, errorTypeDatabaseExec, execErr, logAttrTable, es.eventTableName)
			return errors.Join(eventstore.ErrCreatingSchemaFailed, execErr)
		}
	}

	obs.schemaEnsured()

	return nil
}
