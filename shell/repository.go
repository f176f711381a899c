package shell

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/reservation-queue-go/eventstore"
	rq "github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
)

// ErrNilEventStore is returned when a QueueRepository is built without an event store.
var ErrNilEventStore = errors.New("event store must not be nil")

// LoadedStream remembers what a Load saw, so the following Save can detect concurrent writers.
type LoadedStream struct {
	ResourceID uuid.UUID
	Filter     eventstore.Filter
	MaxSeq     eventstore.MaxSequenceNumberUint
	Version    rq.Version
}

// QueueRepository loads and saves reservation queues as event streams.
// Each queue is the dynamic stream of all notification kinds whose payload carries its resource id.
type QueueRepository struct {
	eventStore EventStore
}

// NewQueueRepository creates a QueueRepository on top of an event store.
func NewQueueRepository(eventStore EventStore) (QueueRepository, error) {
	if eventStore == nil {
		return QueueRepository{}, ErrNilEventStore
	}

	return QueueRepository{eventStore: eventStore}, nil
}

// BuildQueueFilter selects the event stream of one queue.
func BuildQueueFilter(resourceID uuid.UUID) eventstore.Filter {
	kinds := NotificationKinds()

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(kinds[0], kinds[1:]...).
		AndAnyPredicateOf(eventstore.P(PayloadKeyResourceID, resourceID.String())).
		Finalize()
}

// Load queries the queue's stream with strong consistency and rebuilds the queue from it.
// A resource without history yields an empty queue at version 0.
func (r QueueRepository) Load(ctx context.Context, resourceID uuid.UUID) (*rq.ReservationQueue, LoadedStream, error) {
	if resourceID == uuid.Nil {
		return nil, LoadedStream{}, errors.Join(rq.ErrInvalidArgument, rq.ErrEmptyResourceID)
	}

	filter := BuildQueueFilter(resourceID)

	storableEvents, maxSeq, err := r.eventStore.Query(eventstore.WithStrongConsistency(ctx), filter)
	if err != nil {
		return nil, LoadedStream{}, err
	}

	history, err := NotificationsFrom(storableEvents)
	if err != nil {
		return nil, LoadedStream{}, err
	}

	queue, err := rq.RestoreReservationQueue(resourceID, history)
	if err != nil {
		return nil, LoadedStream{}, err
	}

	return queue, LoadedStream{
		ResourceID: resourceID,
		Filter:     filter,
		MaxSeq:     maxSeq,
		Version:    queue.Version(),
	}, nil
}

// Save appends the notifications of one command atomically, guarded by the loaded max sequence.
// Nothing is written for an empty batch.
// A concurrent writer makes Save fail with eventstore.ErrConcurrencyConflict.
func (r QueueRepository) Save(
	ctx context.Context,
	loaded LoadedStream,
	notifications rq.Notifications,
	metadata []EventMetadata,
) error {

	if len(notifications) == 0 {
		return nil
	}

	storableEvents, err := StorableEventsFrom(notifications, metadata)
	if err != nil {
		return err
	}

	return r.eventStore.Append(ctx, loaded.Filter, loaded.MaxSeq, storableEvents[0], storableEvents[1:]...)
}
