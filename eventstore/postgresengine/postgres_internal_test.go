package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-queue-go/eventstore"
	"github.com/AntonStoeckl/reservation-queue-go/eventstore/postgresengine/internal/adapters"
)

type fakeRows struct {
	rows   []queryResultRow
	cursor int
	closed bool
}

func (f *fakeRows) Next() bool {
	f.cursor++
	return f.cursor <= len(f.rows)
}

func (f *fakeRows) Scan(dest ...any) error {
	row := f.rows[f.cursor-1]
	*dest[0].(*string) = row.eventType
	*dest[1].(*time.Time) = row.occurredAt
	*dest[2].(*[]byte) = row.payload
	*dest[3].(*[]byte) = row.metadata
	*dest[4].(*eventstore.MaxSequenceNumberUint) = row.maxSequenceNumber

	return nil
}

func (f *fakeRows) Err() error {
	return nil
}

func (f *fakeRows) Close() error {
	f.closed = true
	return nil
}

type fakeResult struct {
	affected int64
}

func (f fakeResult) RowsAffected() (int64, error) {
	return f.affected, nil
}

type fakeDB struct {
	queries  []string
	execs    []string
	rows     *fakeRows
	affected int64
	err      error
}

func (f *fakeDB) Query(_ context.Context, query string) (adapters.DBRows, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}

	return f.rows, nil
}

func (f *fakeDB) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	f.execs = append(f.execs, query)
	if f.err != nil {
		return nil, f.err
	}

	return fakeResult{affected: f.affected}, nil
}

type spyMetrics struct {
	mu        sync.Mutex
	durations []string
	counters  []string
	values    map[string]float64
}

func (s *spyMetrics) RecordDuration(metric string, _ time.Duration, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durations = append(s.durations, metric+":"+labels["status"])
}

func (s *spyMetrics) IncrementCounter(metric string, _ map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = append(s.counters, metric)
}

func (s *spyMetrics) RecordValue(metric string, value float64, _ map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = map[string]float64{}
	}
	s.values[metric] += value
}

type spySpan struct {
	status string
	attrs  map[string]string
}

func (s *spySpan) SetStatus(status string) {
	s.status = status
}

func (s *spySpan) AddAttribute(key, value string) {
	s.attrs[key] = value
}

type spyTracing struct {
	started  []string
	finished []string
}

func (s *spyTracing) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext) {
	s.started = append(s.started, name)
	return ctx, &spySpan{attrs: attrs}
}

func (s *spyTracing) FinishSpan(_ SpanContext, status string, _ map[string]string) {
	s.finished = append(s.finished, status)
}

type spyLogger struct {
	messages []string
}

func (s *spyLogger) record(level, msg string) {
	s.messages = append(s.messages, level+" "+msg)
}

func (s *spyLogger) Debug(msg string, _ ...any) { s.record("DEBUG", msg) }
func (s *spyLogger) Info(msg string, _ ...any)  { s.record("INFO", msg) }
func (s *spyLogger) Warn(msg string, _ ...any)  { s.record("WARN", msg) }
func (s *spyLogger) Error(msg string, _ ...any) { s.record("ERROR", msg) }

func queueFilter(resourceID string) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("ReservationQueued", "QueueHeadChanged").
		AndAnyPredicateOf(eventstore.P("ResourceID", resourceID)).
		Finalize()
}

func storableEvent(t *testing.T, eventType string) eventstore.StorableEvent {
	t.Helper()

	event, err := eventstore.BuildStorableEventWithEmptyMetadata(
		eventType,
		time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		[]byte(`{"ResourceID":"r-1"}`),
	)
	require.NoError(t, err)

	return event
}

func Test_WithTableName_RejectsInvalidNames(t *testing.T) {
	for _, name := range []string{"Events", "1events", "events;drop", "public.events", strings.Repeat("a", 64)} {
		t.Run(name, func(t *testing.T) {
			_, err := newEventStore(&fakeDB{}, WithTableName(name))
			assert.ErrorIs(t, err, eventstore.ErrInvalidEventsTableName)
		})
	}

	_, err := newEventStore(&fakeDB{}, WithTableName(""))
	assert.ErrorIs(t, err, eventstore.ErrEmptyEventsTableName)
}

func Test_Constructors_RejectNilConnections(t *testing.T) {
	_, err := NewEventStoreFromPGXPool(nil)
	assert.ErrorIs(t, err, eventstore.ErrNilDatabaseConnection)

	_, err = NewEventStoreFromPGXPoolAndReplica(nil, nil)
	assert.ErrorIs(t, err, eventstore.ErrNilDatabaseConnection)

	_, err = NewEventStoreFromSQLDB(nil)
	assert.ErrorIs(t, err, eventstore.ErrNilDatabaseConnection)

	_, err = NewEventStoreFromSQLX(nil)
	assert.ErrorIs(t, err, eventstore.ErrNilDatabaseConnection)
}

func Test_BuildSelectQuery_UsesTableTypesAndEscapedPredicates(t *testing.T) {
	// arrange
	es, err := newEventStore(&fakeDB{}, WithTableName("reservation_events"))
	require.NoError(t, err)

	// act
	sqlQuery, err := es.buildSelectQuery(queueFilter("r-1"))

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `FROM "reservation_events"`)
	assert.Contains(t, sqlQuery, `'ReservationQueued'`)
	assert.Contains(t, sqlQuery, `'QueueHeadChanged'`)
	assert.Contains(t, sqlQuery, `payload @> '{"ResourceID":"r-1"}'::jsonb`)
	assert.Contains(t, sqlQuery, `ORDER BY "sequence_number" ASC`)
}

func Test_BuildSelectQuery_QuotesHostilePredicateValues(t *testing.T) {
	// arrange
	es, err := newEventStore(&fakeDB{})
	require.NoError(t, err)

	// act
	sqlQuery, err := es.buildSelectQuery(queueFilter(`x' OR '1'='1`))

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `'{"ResourceID":"x'' OR ''1''=''1"}'::jsonb`)
}

func Test_BuildSelectQuery_RejectsEmptyFilter(t *testing.T) {
	es, err := newEventStore(&fakeDB{})
	require.NoError(t, err)

	_, err = es.buildSelectQuery(eventstore.Filter{})

	assert.ErrorIs(t, err, eventstore.ErrEmptyFilter)
}

func Test_BuildAppendQuery_GuardsOnExpectedSequence(t *testing.T) {
	// arrange
	es, err := newEventStore(&fakeDB{})
	require.NoError(t, err)
	filter := queueFilter("r-1")

	// act
	single, singleErr := es.buildAppendQuery(eventstore.StorableEvents{storableEvent(t, "ReservationQueued")}, filter, 7)
	multi, multiErr := es.buildAppendQuery(
		eventstore.StorableEvents{storableEvent(t, "ReservationQueued"), storableEvent(t, "QueueHeadChanged")},
		filter,
		7,
	)

	// assert
	require.NoError(t, singleErr)
	require.NoError(t, multiErr)

	for _, sqlQuery := range []string{single, multi} {
		assert.True(t, strings.HasPrefix(sqlQuery, "WITH "))
		assert.Contains(t, sqlQuery, `INSERT INTO "events"`)
		assert.Contains(t, sqlQuery, `MAX("sequence_number")`)
		assert.Contains(t, sqlQuery, `COALESCE("max_seq", 0) = 7`)
	}

	assert.Contains(t, multi, "UNION ALL")
	assert.Equal(t, 1, strings.Count(single, "'ReservationQueued'::text"))
}

func Test_Query_ReturnsEventsAndMaxSequence(t *testing.T) {
	// arrange
	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := &fakeRows{rows: []queryResultRow{
		{eventType: "ReservationQueued", occurredAt: occurredAt, payload: []byte(`{}`), metadata: []byte(`{}`), maxSequenceNumber: 3},
		{eventType: "QueueHeadChanged", occurredAt: occurredAt, payload: []byte(`{}`), metadata: []byte(`{}`), maxSequenceNumber: 4},
	}}
	metrics := &spyMetrics{}
	tracing := &spyTracing{}
	es, err := newEventStore(&fakeDB{rows: rows}, WithMetrics(metrics), WithTracing(tracing))
	require.NoError(t, err)

	// act
	events, maxSeq, err := es.Query(t.Context(), queueFilter("r-1"))

	// assert
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, "QueueHeadChanged", events[1].EventType)
	assert.Equal(t, eventstore.MaxSequenceNumberUint(4), maxSeq)
	assert.True(t, rows.closed)
	assert.Equal(t, []string{metricQueryDuration + ":" + statusSuccess}, metrics.durations)
	assert.InDelta(t, 2.0, metrics.values[metricEventsQueried], 0.0001)
	assert.Equal(t, []string{spanNameQuery}, tracing.started)
	assert.Equal(t, []string{statusSuccess}, tracing.finished)
}

func Test_Query_WrapsDatabaseErrors(t *testing.T) {
	// arrange
	dbErr := errors.New("connection refused")
	logger := &spyLogger{}
	metrics := &spyMetrics{}
	es, err := newEventStore(&fakeDB{err: dbErr}, WithLogger(logger), WithMetrics(metrics))
	require.NoError(t, err)

	// act
	_, _, err = es.Query(t.Context(), queueFilter("r-1"))

	// assert
	assert.ErrorIs(t, err, eventstore.ErrQueryingEventsFailed)
	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, logger.messages, "ERROR "+logMsgDBQueryFailed)
	assert.Equal(t, []string{metricDatabaseErrors}, metrics.counters)
}

func Test_Append_DetectsConcurrencyConflict(t *testing.T) {
	// arrange
	metrics := &spyMetrics{}
	tracing := &spyTracing{}
	es, err := newEventStore(&fakeDB{affected: 0}, WithMetrics(metrics), WithTracing(tracing))
	require.NoError(t, err)

	// act
	err = es.Append(t.Context(), queueFilter("r-1"), 2, storableEvent(t, "ReservationQueued"))

	// assert
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
	assert.Equal(t, []string{metricConcurrencyConflicts}, metrics.counters)
	assert.Equal(t, []string{statusConflict}, tracing.finished)
}

func Test_Append_PartialInsertIsAConflict(t *testing.T) {
	es, err := newEventStore(&fakeDB{affected: 1})
	require.NoError(t, err)

	err = es.Append(
		t.Context(),
		queueFilter("r-1"),
		0,
		storableEvent(t, "ReservationQueued"),
		storableEvent(t, "QueueHeadChanged"),
	)

	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
}

func Test_Append_Succeeds(t *testing.T) {
	// arrange
	db := &fakeDB{affected: 2}
	logger := &spyLogger{}
	es, err := newEventStore(db, WithLogger(logger))
	require.NoError(t, err)

	// act
	err = es.Append(
		t.Context(),
		queueFilter("r-1"),
		0,
		storableEvent(t, "ReservationQueued"),
		storableEvent(t, "QueueHeadChanged"),
	)

	// assert
	require.NoError(t, err)
	assert.Len(t, db.execs, 1)
	assert.Contains(t, logger.messages, "INFO "+logMsgOperation+logMsgEventsAppended)
	assert.Contains(t, logger.messages, "DEBUG "+logMsgSQLExecuted+operationAppend)
}

func Test_Append_WrapsExecErrors(t *testing.T) {
	dbErr := errors.New("boom")
	es, err := newEventStore(&fakeDB{err: dbErr})
	require.NoError(t, err)

	err = es.Append(t.Context(), queueFilter("r-1"), 0, storableEvent(t, "ReservationQueued"))

	assert.ErrorIs(t, err, eventstore.ErrAppendingEventFailed)
	assert.ErrorIs(t, err, dbErr)
}

func Test_CreateTableSQL(t *testing.T) {
	ddl, err := CreateTableSQL("reservation_events")
	require.NoError(t, err)

	assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS reservation_events")
	assert.Contains(t, ddl, "sequence_number BIGSERIAL PRIMARY KEY")
	assert.Contains(t, ddl, "USING gin (payload jsonb_path_ops)")

	_, err = CreateTableSQL("bad name")
	assert.ErrorIs(t, err, eventstore.ErrInvalidEventsTableName)
}

func Test_EnsureSchema_RunsEveryStatement(t *testing.T) {
	// arrange
	db := &fakeDB{}
	es, err := newEventStore(db, WithTableName("queue_events"))
	require.NoError(t, err)

	// act
	err = es.EnsureSchema(t.Context())

	// assert
	require.NoError(t, err)
	assert.Len(t, db.execs, len(schemaStatements("queue_events")))
	for i, statement := range db.execs {
		assert.Contains(t, statement, "queue_events", fmt.Sprintf("statement %d", i))
	}
}

func Test_EnsureSchema_WrapsErrors(t *testing.T) {
	es, err := newEventStore(&fakeDB{err: errors.New("permission denied")})
	require.NoError(t, err)

	err = es.EnsureSchema(t.Context())

	assert.ErrorIs(t, err, eventstore.ErrCreatingSchemaFailed)
}
