package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
)

// PublisherSpy remembers every published batch and can be told to fail.
type PublisherSpy struct {
	mu      sync.Mutex
	batches []reservationqueue.Notifications
	Err     error
}

// NewPublisherSpy creates an empty PublisherSpy.
func NewPublisherSpy() *PublisherSpy {
	return &PublisherSpy{}
}

// Publish records the batch and returns Err.
func (s *PublisherSpy) Publish(_ context.Context, notifications reservationqueue.Notifications) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches = append(s.batches, notifications)

	return s.Err
}

// Batches returns the published batches in order.
func (s *PublisherSpy) Batches() []reservationqueue.Notifications {
	s.mu.Lock()
	defer s.mu.Unlock()

	batches := make([]reservationqueue.Notifications, len(s.batches))
	copy(batches, s.batches)

	return batches
}

// Published returns all published notifications flattened.
func (s *PublisherSpy) Published() reservationqueue.Notifications {
	var all reservationqueue.Notifications
	for _, batch := range s.Batches() {
		all = append(all, batch...)
	}

	return all
}
