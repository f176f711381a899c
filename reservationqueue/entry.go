package reservationqueue

import (
	"time"

	"github.com/google/uuid"
)

// QueueEntry is one reservation waiting for the copy.
//
// QueueEntry is an immutable value. The placement sequence is only used for
// tie-breaking between entries with the same PriorityLevel and is never exposed.
type QueueEntry struct {
	ReservationID uuid.UUID
	RequesterID   uuid.UUID
	Priority      PriorityLevel
	WaitDeadline  time.Time
	PlacedAt      time.Time
	sequence      uint64
}

// IsOverdueAt reports whether the wait deadline lies strictly before now.
func (e QueueEntry) IsOverdueAt(now time.Time) bool {
	return e.WaitDeadline.Before(now)
}

// goesBefore reports whether e must be placed in front of other.
func (e QueueEntry) goesBefore(other QueueEntry) bool {
	if e.Priority.outranks(other.Priority) {
		return true
	}

	return e.Priority == other.Priority && e.sequence < other.sequence
}
