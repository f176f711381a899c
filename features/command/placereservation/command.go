package placereservation

import (
	"time"

	"github.com/google/uuid"

	rq "github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
)

const (
	commandType = "PlaceReservation"
)

// Command represents the intent of a reader to reserve a copy.
type Command struct {
	ResourceID    uuid.UUID
	ReservationID uuid.UUID
	RequesterID   uuid.UUID
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

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(resourceID, reservationID, requesterID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		ResourceID:    resourceID,
		ReservationID: reservationID,
		RequesterID:   requesterID,
		OccurredAt:    rq.ToOccurredAt(occurredAt),
	}
}
