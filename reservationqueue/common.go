package reservationqueue

import (
	"time"
)

// Version is the per-queue counter used for optimistic concurrency and for ordering notifications.
type Version = uint64

// OccurredAt represents when a notification occurred
type OccurredAt = time.Time

// ToOccurredAt converts a time to OccurredAt with UTC normalization and microsecond precision
func ToOccurredAt(t time.Time) OccurredAt {
	return t.UTC().Truncate(time.Microsecond)
}
