package expireoverdue

import (
	"time"

	"github.com/google/uuid"

	rq "github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
)

const (
	commandType = "ExpireOverdue"
)

// Command represents the intent to drop overdue reservations from the head of a queue.
type Command struct {
	ResourceID uuid.UUID
	OccurredAt rq.OccurredAt
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
func BuildCommand(resourceID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		ResourceID: resourceID,
		OccurredAt: rq.ToOccurredAt(occurredAt),
	}
}
