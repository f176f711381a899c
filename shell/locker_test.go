package shell_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-queue-go/shell"
)

func Test_InProcessLocker_SerializesPerKey(t *testing.T) {
	// arrange
	locker := shell.NewInProcessLocker()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	// act
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			unlock, err := locker.Lock(context.Background(), "copy-1")
			if !assert.NoError(t, err) {
				return
			}
			defer func() { _ = unlock(context.Background()) }()

			current := inside.Add(1)
			if current > maxInside.Load() {
				maxInside.Store(current)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()

	// assert
	assert.Equal(t, int32(1), maxInside.Load())
}

func Test_InProcessLocker_HonorsContext(t *testing.T) {
	// arrange
	locker := shell.NewInProcessLocker()
	unlock, err := locker.Lock(t.Context(), "copy-1")
	require.NoError(t, err)
	defer func() { _ = unlock(t.Context()) }()

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	// act
	_, err = locker.Lock(ctx, "copy-1")

	// assert
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	otherUnlock, err := locker.Lock(t.Context(), "copy-2")
	require.NoError(t, err)
	assert.NoError(t, otherUnlock(t.Context()))
}

func Test_InProcessLocker_ForgetsReleasedKeys(t *testing.T) {
	// arrange
	locker := shell.NewInProcessLocker()

	// act
	for i := range 100 {
		unlock, err := locker.Lock(t.Context(), fmt.Sprintf("copy-%d", i))
		require.NoError(t, err)
		require.NoError(t, unlock(t.Context()))
	}

	// assert
	assert.Zero(t, locker.TrackedKeys())
}

func Test_InProcessLocker_KeepsKeyWhileHeldAfterCanceledWaiter(t *testing.T) {
	// arrange
	locker := shell.NewInProcessLocker()
	unlock, err := locker.Lock(t.Context(), "copy-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Millisecond)
	defer cancel()

	// act
	_, waitErr := locker.Lock(ctx, "copy-1")
	trackedWhileHeld := locker.TrackedKeys()
	require.NoError(t, unlock(t.Context()))
	require.NoError(t, unlock(t.Context()), "a second unlock is a no-op")

	// assert
	assert.ErrorIs(t, waitErr, context.DeadlineExceeded)
	assert.Equal(t, 1, trackedWhileHeld)
	assert.Zero(t, locker.TrackedKeys())

	relock, err := locker.Lock(t.Context(), "copy-1")
	require.NoError(t, err)
	assert.NoError(t, relock(t.Context()))
}

func Test_NoopLocker(t *testing.T) {
	unlock, err := shell.NoopLocker{}.Lock(t.Context(), "anything")

	require.NoError(t, err)
	assert.NoError(t, unlock(t.Context()))
}
