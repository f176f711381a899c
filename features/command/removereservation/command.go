package removereservation

import (
	"time"

	"github.com/google/uuid"

	rq "github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
)

const (
	commandType = "RemoveReservation"
)

// Command represents the intent to take a waiting reservation out of its queue.
type Command struct {
	ResourceID    uuid.UUID
	ReservationID uuid.UUID
	Reason        rq.CancelReason
	RemovedBy     rq.RemovedBy
	Note          string
	OccurredAt    rq.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// ResourceKey identifies the queue the command operates on.
func (c Command) ResourceKey() string {
	return c.ResourceID.String()
}

// BuildCommand creates a new Command with the provided parameters. The note is optional.
func BuildCommand(
	resourceID uuid.UUID,
	reservationID uuid.UUID,
	reason rq.CancelReason,
	removedBy rq.RemovedBy,
	note string,
	occurredAt time.Time,
) Command {

	return Command{
		ResourceID:    resourceID,
		ReservationID: reservationID,
		Reason:        reason,
		RemovedBy:     removedBy,
		Note:          note,
		OccurredAt:    rq.ToOccurredAt(occurredAt),
	}
}
