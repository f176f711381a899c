// Package eventstore provides the storage abstractions used to persist the
// notifications of reservation queues as an append-only event log.
//
// The log is queried and appended through "dynamic event streams": a Filter
// selects the events that belong to one decision (usually every notification
// of one book copy's queue), and an append is only accepted when the stream
// selected by the same Filter has not grown since it was queried.
//
// Key types:
//   - Filter: defines criteria for querying events
//   - StorableEvent: represents an event that can be stored and retrieved
//   - MaxSequenceNumberUint: the optimistic concurrency token of a stream
//
// Common usage pattern:
//
//	filter := BuildEventFilter().
//		Matching().
//		AnyEventTypeOf(
//			"ReservationQueued",
//			"LoanActivationAuthorized").
//		AndAllPredicatesOf(P("ResourceID", copyID.String())).
//		Finalize()
//
//	events, maxSeq, err := store.Query(ctx, filter)
//	if err != nil {
//		// handle error
//	}
//
//	err = store.Append(ctx, filter, maxSeq, newEvent)
//	if errors.Is(err, ErrConcurrencyConflict) {
//		// someone else changed the queue, reload and retry
//	}
package eventstore
