package shell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-queue-go/eventstore"
	rq "github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
	"github.com/AntonStoeckl/reservation-queue-go/shell"
	"github.com/AntonStoeckl/reservation-queue-go/testutil/memstore"
)

func saveDrained(ctx context.Context, t *testing.T, repo shell.QueueRepository, loaded shell.LoadedStream, queue *rq.ReservationQueue) error {
	t.Helper()

	drained := queue.DrainNotifications()

	return repo.Save(ctx, loaded, drained, shell.BuildBatchMetadata(len(drained), uuid.New(), uuid.New()))
}

func Test_QueueRepository_LoadUnknownResourceYieldsEmptyQueue(t *testing.T) {
	// arrange
	repo, err := shell.NewQueueRepository(memstore.New())
	require.NoError(t, err)
	resourceID := uuid.New()

	// act
	queue, loaded, err := repo.Load(t.Context(), resourceID)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 0, queue.Len())
	assert.Equal(t, rq.Version(0), queue.Version())
	assert.Equal(t, eventstore.MaxSequenceNumberUint(0), loaded.MaxSeq)
	assert.Equal(t, resourceID, loaded.ResourceID)
}

func Test_QueueRepository_SaveThenLoadRestoresState(t *testing.T) {
	// arrange
	store := memstore.New()
	repo, err := shell.NewQueueRepository(store)
	require.NoError(t, err)
	resourceID := uuid.New()

	queue, loaded, err := repo.Load(t.Context(), resourceID)
	require.NoError(t, err)

	regular, vip := uuid.New(), uuid.New()
	require.NoError(t, queue.Place(regular, uuid.New(), rq.Regular, fakeNow.Add(time.Hour), fakeNow))
	require.NoError(t, queue.Place(vip, uuid.New(), rq.Vip, fakeNow.Add(time.Hour), fakeNow))

	// act
	require.NoError(t, saveDrained(t.Context(), t, repo, loaded, queue))
	restored, reloaded, err := repo.Load(t.Context(), resourceID)

	// assert
	require.NoError(t, err)
	assert.Equal(t, queue.Version(), restored.Version())
	assert.Equal(t, reloaded.Version, restored.Version())
	head, ok := restored.Head()
	require.True(t, ok)
	assert.Equal(t, vip, head.ReservationID)
	position, ok := restored.Position(regular)
	require.True(t, ok)
	assert.Equal(t, 1, position)
	assert.Len(t, store.Events(), 4)
	assert.Equal(t, eventstore.MaxSequenceNumberUint(4), reloaded.MaxSeq)
}

func Test_QueueRepository_StreamsArePerResource(t *testing.T) {
	// arrange
	repo, err := shell.NewQueueRepository(memstore.New())
	require.NoError(t, err)
	first, second := uuid.New(), uuid.New()

	for _, resourceID := range []uuid.UUID{first, second} {
		queue, loaded, loadErr := repo.Load(t.Context(), resourceID)
		require.NoError(t, loadErr)
		require.NoError(t, queue.Place(uuid.New(), uuid.New(), rq.Regular, fakeNow.Add(time.Hour), fakeNow))
		require.NoError(t, saveDrained(t.Context(), t, repo, loaded, queue))
	}

	// act
	queue, loaded, err := repo.Load(t.Context(), first)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, queue.Len())
	assert.Equal(t, eventstore.MaxSequenceNumberUint(2), loaded.MaxSeq)
}

func Test_QueueRepository_StaleSaveIsAConflict(t *testing.T) {
	// arrange
	repo, err := shell.NewQueueRepository(memstore.New())
	require.NoError(t, err)
	resourceID := uuid.New()

	mine, myLoad, err := repo.Load(t.Context(), resourceID)
	require.NoError(t, err)
	theirs, theirLoad, err := repo.Load(t.Context(), resourceID)
	require.NoError(t, err)

	require.NoError(t, theirs.Place(uuid.New(), uuid.New(), rq.Staff, fakeNow.Add(time.Hour), fakeNow))
	require.NoError(t, saveDrained(t.Context(), t, repo, theirLoad, theirs))

	require.NoError(t, mine.Place(uuid.New(), uuid.New(), rq.Regular, fakeNow.Add(time.Hour), fakeNow))

	// act
	err = saveDrained(t.Context(), t, repo, myLoad, mine)

	// assert
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
}

func Test_QueueRepository_SaveWithoutNotificationsWritesNothing(t *testing.T) {
	store := memstore.New()
	repo, err := shell.NewQueueRepository(store)
	require.NoError(t, err)

	_, loaded, err := repo.Load(t.Context(), uuid.New())
	require.NoError(t, err)

	require.NoError(t, repo.Save(t.Context(), loaded, nil, nil))
	assert.Equal(t, 0, store.AppendCalls())
}

func Test_QueueRepository_Errors(t *testing.T) {
	_, err := shell.NewQueueRepository(nil)
	assert.ErrorIs(t, err, shell.ErrNilEventStore)

	repo, err := shell.NewQueueRepository(memstore.New())
	require.NoError(t, err)
	_, _, err = repo.Load(t.Context(), uuid.Nil)
	assert.ErrorIs(t, err, rq.ErrInvalidArgument)

	failing := memstore.New()
	failing.QueryErr = errors.New("db down")
	repo, err = shell.NewQueueRepository(failing)
	require.NoError(t, err)
	_, _, err = repo.Load(t.Context(), uuid.New())
	assert.ErrorIs(t, err, failing.QueryErr)
}
