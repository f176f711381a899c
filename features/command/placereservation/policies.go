package placereservation

import (
	"context"
	"time"

	"github.com/google/uuid"

	rq "github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
)

// DefaultWaitDuration is how long a reservation may wait when no WaitPolicy is configured.
const DefaultWaitDuration = 48 * time.Hour

// ReaderProfile is what the classifier knows about a requester.
type ReaderProfile struct {
	Eligible bool
	Priority rq.PriorityLevel
}

// ReaderClassifier looks up eligibility and priority of a requester.
type ReaderClassifier interface {
	Classify(ctx context.Context, requesterID uuid.UUID) (ReaderProfile, error)
}

// ReaderClassifierFunc adapts a plain function to the ReaderClassifier interface.
type ReaderClassifierFunc func(ctx context.Context, requesterID uuid.UUID) (ReaderProfile, error)

// Classify calls f(ctx, requesterID).
func (f ReaderClassifierFunc) Classify(ctx context.Context, requesterID uuid.UUID) (ReaderProfile, error) {
	return f(ctx, requesterID)
}

// EveryoneRegular treats every requester as an eligible regular reader.
var EveryoneRegular = ReaderClassifierFunc(func(context.Context, uuid.UUID) (ReaderProfile, error) {
	return ReaderProfile{Eligible: true, Priority: rq.Regular}, nil
})

// WaitPolicy supplies how long a new reservation may wait.
type WaitPolicy interface {
	WaitDuration() time.Duration
}

// FixedWaitPolicy grants the same wait duration to every reservation.
type FixedWaitPolicy time.Duration

// WaitDuration returns the fixed duration.
func (p FixedWaitPolicy) WaitDuration() time.Duration {
	return time.Duration(p)
}
