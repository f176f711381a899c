package postgresengine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/reservation-queue-go/eventstore"
)

const (
	logMsgBuildSelectQueryFailed = "failed to build select query"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowFailed          = "failed to read database rows"
	logMsgBuildInsertQueryFailed = "failed to build insert query"
	logMsgDBExecFailed           = "database execution failed during event append"
	logMsgSchemaFailed           = "failed to create events schema"
	logMsgQueryCompleted         = "query completed"
	logMsgEventsAppended         = "events appended"
	logMsgSchemaEnsured          = "events schema ensured"
	logMsgConcurrencyConflict    = "concurrency conflict detected"
	logMsgSQLExecuted            = "executed sql for: "
	logMsgOperation              = "eventstore operation: "

	logAttrError            = "error"
	logAttrQuery            = "query"
	logAttrTable            = "table"
	logAttrEventCount       = "event_count"
	logAttrDurationMS       = "duration_ms"
	logAttrExpectedEvents   = "expected_events"
	logAttrRowsAffected     = "rows_affected"
	logAttrExpectedSequence = "expected_sequence"
	logAttrMaxSequence      = "max_sequence"

	operationQuery  = "query"
	operationAppend = "append"
	operationSchema = "ensure_schema"

	spanNameQuery  = "eventstore.query"
	spanNameAppend = "eventstore.append"
	spanNameSchema = "eventstore.ensure_schema"

	spanAttrOperation    = "operation"
	spanAttrTable        = "table"
	spanAttrEventCount   = "event_count"
	spanAttrEventType    = "event_type"
	spanAttrExpectedSeq  = "expected_sequence"
	spanAttrMaxSequence  = "max_sequence"
	spanAttrRowsAffected = "rows_affected"
	spanAttrDurationMS   = "duration_ms"
	spanAttrErrorType    = "error_type"

	statusSuccess  = "success"
	statusError    = "error"
	statusConflict = "conflict"

	errorTypeBuildQuery    = "build_query"
	errorTypeDatabaseQuery = "database_query"
	errorTypeDatabaseExec  = "database_exec"
	errorTypeRowScan       = "row_scan"
	errorTypeConcurrency   = "concurrency_conflict"

	metricQueryDuration        = "eventstore_query_duration_seconds"
	metricAppendDuration       = "eventstore_append_duration_seconds"
	metricSchemaDuration       = "eventstore_schema_duration_seconds"
	metricEventsQueried        = "eventstore_events_queried_total"
	metricEventsAppended       = "eventstore_events_appended_total"
	metricConcurrencyConflicts = "eventstore_concurrency_conflicts_total"
	metricDatabaseErrors       = "eventstore_database_errors_total"
)

var spanNames = map[string]string{
	operationQuery:  spanNameQuery,
	operationAppend: spanNameAppend,
	operationSchema: spanNameSchema,
}

var durationMetrics = map[string]string{
	operationQuery:  metricQueryDuration,
	operationAppend: metricAppendDuration,
	operationSchema: metricSchemaDuration,
}

// operationObserver bundles logging, metrics and tracing for one EventStore operation.
// Every collector is optional, a bare EventStore observes nothing.
type operationObserver struct {
	es        EventStore
	ctx       context.Context
	operation string
	span      SpanContext
	start     time.Time
}

func (es EventStore) observe(
	ctx context.Context,
	operation string,
	attrs map[string]string,
) (*operationObserver, context.Context) {

	obs := &operationObserver{
		es:        es,
		ctx:       ctx,
		operation: operation,
		start:     time.Now(),
	}

	if es.tracingCollector != nil {
		spanAttrs := map[string]string{
			spanAttrOperation: operation,
			spanAttrTable:     es.eventTableName,
		}
		for key, value := range attrs {
			spanAttrs[key] = value
		}

		obs.ctx, obs.span = es.tracingCollector.StartSpan(ctx, spanNames[operation], spanAttrs)
	}

	return obs, obs.ctx
}

func (o *operationObserver) elapsed() time.Duration {
	return time.Since(o.start)
}

func (o *operationObserver) sqlExecuted(sqlQuery string) {
	o.es.logDebug(o.ctx, logMsgSQLExecuted+o.operation, logAttrDurationMS, toMilliseconds(o.elapsed()), logAttrQuery, sqlQuery)
}

func (o *operationObserver) fail(message string, errorType string, err error, args ...any) {
	duration := o.elapsed()

	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)
	o.es.logError(o.ctx, message, allArgs...)

	o.recordDuration(duration, statusError)
	o.incrementCounter(metricDatabaseErrors, map[string]string{
		spanAttrOperation: o.operation,
		"status":          statusError,
		spanAttrErrorType: errorType,
	})

	o.finish(statusError, map[string]string{
		spanAttrErrorType:  errorType,
		spanAttrDurationMS: formatMilliseconds(duration),
	})
}

func (o *operationObserver) querySucceeded(eventCount int, maxSequenceNumber eventstore.MaxSequenceNumberUint) {
	duration := o.elapsed()

	o.es.logInfo(
		o.ctx,
		logMsgOperation+logMsgQueryCompleted,
		logAttrEventCount, eventCount,
		logAttrMaxSequence, maxSequenceNumber,
		logAttrDurationMS, toMilliseconds(duration),
	)

	o.recordDuration(duration, statusSuccess)
	o.recordValue(metricEventsQueried, float64(eventCount), statusSuccess)

	o.finish(statusSuccess, map[string]string{
		spanAttrEventCount:  fmt.Sprintf("%d", eventCount),
		spanAttrMaxSequence: fmt.Sprintf("%d", maxSequenceNumber),
		spanAttrDurationMS:  formatMilliseconds(duration),
	})
}

func (o *operationObserver) appendSucceeded(eventCount int, rowsAffected int64) {
	duration := o.elapsed()

	o.es.logInfo(
		o.ctx,
		logMsgOperation+logMsgEventsAppended,
		logAttrEventCount, eventCount,
		logAttrDurationMS, toMilliseconds(duration),
	)

	o.recordDuration(duration, statusSuccess)
	o.recordValue(metricEventsAppended, float64(eventCount), statusSuccess)

	o.finish(statusSuccess, map[string]string{
		spanAttrRowsAffected: fmt.Sprintf("%d", rowsAffected),
		spanAttrDurationMS:   formatMilliseconds(duration),
	})
}

func (o *operationObserver) schemaEnsured() {
	duration := o.elapsed()

	o.es.logInfo(o.ctx, logMsgOperation+logMsgSchemaEnsured, logAttrTable, o.es.eventTableName, logAttrDurationMS, toMilliseconds(duration))
	o.recordDuration(duration, statusSuccess)
	o.finish(statusSuccess, map[string]string{spanAttrDurationMS: formatMilliseconds(duration)})
}

func (o *operationObserver) conflict(expectedEvents int, rowsAffected int64, expectedSequence eventstore.MaxSequenceNumberUint) {
	duration := o.elapsed()

	o.es.logInfo(
		o.ctx,
		logMsgOperation+logMsgConcurrencyConflict,
		logAttrExpectedEvents, expectedEvents,
		logAttrRowsAffected, rowsAffected,
		logAttrExpectedSequence, expectedSequence,
	)

	o.recordDuration(duration, statusConflict)
	o.incrementCounter(metricConcurrencyConflicts, map[string]string{
		spanAttrOperation: o.operation,
		"conflict_type":   "concurrency",
	})

	o.finish(statusConflict, map[string]string{
		spanAttrErrorType:    errorTypeConcurrency,
		spanAttrRowsAffected: fmt.Sprintf("%d", rowsAffected),
	})
}

func (o *operationObserver) recordDuration(duration time.Duration, status string) {
	if o.es.metricsCollector == nil {
		return
	}

	o.es.metricsCollector.RecordDuration(durationMetrics[o.operation], duration, map[string]string{
		spanAttrOperation: o.operation,
		"status":          status,
	})
}

func (o *operationObserver) recordValue(metric string, value float64, status string) {
	if o.es.metricsCollector == nil {
		return
	}

	o.es.metricsCollector.RecordValue(metric, value, map[string]string{
		spanAttrOperation: o.operation,
		"status":          status,
	})
}

func (o *operationObserver) incrementCounter(metric string, labels map[string]string) {
	if o.es.metricsCollector == nil {
		return
	}

	o.es.metricsCollector.IncrementCounter(metric, labels)
}

func (o *operationObserver) finish(status string, attrs map[string]string) {
	if o.es.tracingCollector == nil || o.span == nil {
		return
	}

	o.span.SetStatus(status)
	for key, value := range attrs {
		o.span.AddAttribute(key, value)
	}

	o.es.tracingCollector.FinishSpan(o.span, status, attrs)
}

// The contextual logger takes precedence, so trace ids end up in the log records.

func (es EventStore) logDebug(ctx context.Context, msg string, args ...any) {
	switch {
	case es.contextualLogger != nil:
		es.contextualLogger.DebugContext(ctx, msg, args...)
	case es.logger != nil:
		es.logger.Debug(msg, args...)
	}
}

func (es EventStore) logInfo(ctx context.Context, msg string, args ...any) {
	switch {
	case es.contextualLogger != nil:
		es.contextualLogger.InfoContext(ctx, msg, args...)
	case es.logger != nil:
		es.logger.Info(msg, args...)
	}
}

func (es EventStore) logWarn(ctx context.Context, msg string, args ...any) {
	switch {
	case es.contextualLogger != nil:
		es.contextualLogger.WarnContext(ctx, msg, args...)
	case es.logger != nil:
		es.logger.Warn(msg, args...)
	}
}

func (es EventStore) logError(ctx context.Context, msg string, args ...any) {
	switch {
	case es.contextualLogger != nil:
		es.contextualLogger.ErrorContext(ctx, msg, args...)
	case es.logger != nil:
		es.logger.Error(msg, args...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func formatMilliseconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", toMilliseconds(d))
}
