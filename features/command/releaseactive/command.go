package releaseactive

import (
	"time"

	"github.com/google/uuid"

	rq "github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
)

const (
	commandType = "ReleaseActive"
)

// Command represents the intent to clear the active holder of a copy.
type Command struct {
	ResourceID    uuid.UUID
	ReservationID uuid.UUID
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
func BuildCommand(resourceID, reservationID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		ResourceID:    resourceID,
		ReservationID: reservationID,
		OccurredAt:    rq.ToOccurredAt(occurredAt),
	}
}
