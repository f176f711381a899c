package shell

import (
	"context"
	"sync"
)

// NoopLocker grants every lock immediately. Use it when a single process owns all resources
// or when the optimistic concurrency check alone is acceptable.
type NoopLocker struct{}

// Lock returns an unlock function that does nothing.
func (NoopLocker) Lock(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

// InProcessLocker serializes work per resource key inside one process.
// A key is tracked only while it has a holder or waiters.
type InProcessLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	token chan struct{}
	refs  int
}

// NewInProcessLocker creates an empty InProcessLocker.
func NewInProcessLocker() *InProcessLocker {
	return &InProcessLocker{slots: make(map[string]*lockSlot)}
}

// Lock blocks until the key is free or ctx is done.
func (l *InProcessLocker) Lock(ctx context.Context, resourceKey string) (func(context.Context) error, error) {
	slot := l.acquireSlot(resourceKey)

	select {
	case slot.token <- struct{}{}:
	case <-ctx.Done():
		l.releaseSlot(resourceKey, slot)
		return nil, ctx.Err()
	}

	var once sync.Once

	return func(context.Context) error {
		once.Do(func() {
			<-slot.token
			l.releaseSlot(resourceKey, slot)
		})

		return nil
	}, nil
}

// TrackedKeys reports how many keys currently have a holder or waiters.
func (l *InProcessLocker) TrackedKeys() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.slots)
}

func (l *InProcessLocker) acquireSlot(resourceKey string) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[resourceKey]
	if !ok {
		slot = &lockSlot{token: make(chan struct{}, 1)}
		l.slots[resourceKey] = slot
	}
	slot.refs++

	return slot
}

func (l *InProcessLocker) releaseSlot(resourceKey string, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, resourceKey)
	}
}
