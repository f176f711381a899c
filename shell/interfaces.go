package shell

import (
	"context"
	"time"

	"github.com/AntonStoeckl/reservation-queue-go/eventstore"
	"github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
)

// EventStore defines the event store operations the QueueRepository depends on.
type EventStore interface {
	Query(ctx context.Context, filter eventstore.Filter) (
		eventstore.StorableEvents,
		eventstore.MaxSequenceNumberUint,
		error,
	)
	Append(
		ctx context.Context,
		filter eventstore.Filter,
		expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
		event eventstore.StorableEvent,
		additionalEvents ...eventstore.StorableEvent,
	) error
}

// Command represents the contract for all command types.
// The CommandType method enables polymorphic handling and observability instrumentation.
type Command interface {
	CommandType() string
	ResourceKey() string
}

// CoreCommandHandler defines the contract for components that process commands.
// Handlers return HandlerResult containing business outcomes (idempotency) and execution metadata (retry info).
type CoreCommandHandler[C Command] interface {
	Handle(ctx context.Context, command C) (HandlerResult, error)
}

// NotificationPublisher receives notifications after they were committed to the event store.
type NotificationPublisher interface {
	Publish(ctx context.Context, notifications reservationqueue.Notifications) error
}

// Clock supplies the current time to command handlers.
type Clock interface {
	Now() time.Time
}

// ResourceLocker serializes operations on one resource across processes.
// The returned unlock function must be called exactly once.
type ResourceLocker interface {
	Lock(ctx context.Context, resourceKey string) (unlock func(context.Context) error, err error)
}

// Observability interfaces, the same ones the event store uses, so one adapter serves both.
type (
	Logger           = eventstore.Logger
	ContextualLogger = eventstore.ContextualLogger
	MetricsCollector = eventstore.MetricsCollector
	SpanContext      = eventstore.SpanContext
	TracingCollector = eventstore.TracingCollector
)
