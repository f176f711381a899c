package memstore

import (
	"context"
	"slices"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/reservation-queue-go/eventstore"
)

type storedEvent struct {
	sequence eventstore.MaxSequenceNumberUint
	event    eventstore.StorableEvent
	payload  map[string]any
}

// EventStore keeps events in a slice and mirrors the conditional append of the postgres engine:
// an append succeeds only if the max sequence of the filtered stream equals the expected one.
type EventStore struct {
	mu       sync.Mutex
	events   []storedEvent
	sequence eventstore.MaxSequenceNumberUint

	// BeforeAppend runs before each append without holding the store lock.
	BeforeAppend func(ctx context.Context)

	// QueryErr and AppendErr, when set, are returned instead of doing any work.
	QueryErr  error
	AppendErr error

	queryCalls  int
	appendCalls int
}

// New creates an empty EventStore.
func New() *EventStore {
	return &EventStore{}
}

// Query returns the filtered events in sequence order and the stream's max sequence.
func (s *EventStore) Query(_ context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	s.mu.Lock()
	defer s.mu.Unlock()

	s.queryCalls++

	if s.QueryErr != nil {
		return nil, 0, s.QueryErr
	}

	if filter.IsEmpty() {
		return nil, 0, eventstore.ErrEmptyFilter
	}

	events := make(eventstore.StorableEvents, 0)
	maxSeq := eventstore.MaxSequenceNumberUint(0)

	for _, stored := range s.events {
		if matches(filter, stored) {
			events = append(events, stored.event)
			maxSeq = stored.sequence
		}
	}

	return events, maxSeq, nil
}

// Append stores all events atomically or fails with eventstore.ErrConcurrencyConflict.
func (s *EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	if s.BeforeAppend != nil {
		s.BeforeAppend(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendCalls++

	if s.AppendErr != nil {
		return s.AppendErr
	}

	if filter.IsEmpty() {
		return eventstore.ErrEmptyFilter
	}

	currentMax := eventstore.MaxSequenceNumberUint(0)
	for _, stored := range s.events {
		if matches(filter, stored) {
			currentMax = stored.sequence
		}
	}

	if currentMax != expectedMaxSequenceNumber {
		return eventstore.ErrConcurrencyConflict
	}

	batch := make([]storedEvent, 0, 1+len(additionalEvents))
	for _, e := range append(eventstore.StorableEvents{event}, additionalEvents...) {
		payload := map[string]any{}
		if err := jsoniter.ConfigFastest.Unmarshal(e.PayloadJSON, &payload); err != nil {
			return err
		}

		s.sequence++
		batch = append(batch, storedEvent{sequence: s.sequence, event: e, payload: payload})
	}

	s.events = append(s.events, batch...)

	return nil
}

// Events returns a copy of everything stored, in sequence order.
func (s *EventStore) Events() eventstore.StorableEvents {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make(eventstore.StorableEvents, 0, len(s.events))
	for _, stored := range s.events {
		events = append(events, stored.event)
	}

	return events
}

// QueryCalls returns how often Query was called.
func (s *EventStore) QueryCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queryCalls
}

// AppendCalls returns how often Append was called.
func (s *EventStore) AppendCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendCalls
}

func matches(filter eventstore.Filter, stored storedEvent) bool {
	occurredAt := stored.event.OccurredAt

	if from := filter.OccurredFrom(); !from.IsZero() && occurredAt.Before(from) {
		return false
	}

	if until := filter.OccurredUntil(); !until.IsZero() && occurredAt.After(until) {
		return false
	}

	for _, item := range filter.Items() {
		if itemMatches(item, stored) {
			return true
		}
	}

	return false
}

func itemMatches(item eventstore.FilterItem, stored storedEvent) bool {
	if !slices.Contains(item.EventTypes(), stored.event.EventType) {
		return false
	}

	predicates := item.Predicates()
	if len(predicates) == 0 {
		return true
	}

	for _, predicate := range predicates {
		value, ok := stored.payload[predicate.Key()].(string)
		hit := ok && value == predicate.Val()

		if hit && !item.AllPredicatesMustMatch() {
			return true
		}

		if !hit && item.AllPredicatesMustMatch() {
			return false
		}
	}

	return item.AllPredicatesMustMatch()
}
