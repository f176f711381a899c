package releaseactive_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-queue-go/features/command/authorizeactivation"
	"github.com/AntonStoeckl/reservation-queue-go/features/command/placereservation"
	"github.com/AntonStoeckl/reservation-queue-go/features/command/releaseactive"
	rq "github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
	"github.com/AntonStoeckl/reservation-queue-go/shell"
	"github.com/AntonStoeckl/reservation-queue-go/testutil/memstore"
	"github.com/AntonStoeckl/reservation-queue-go/testutil/testdoubles"
)

var fakeNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func Test_CommandHandler_Handle_Success_NotifiesNextHead(t *testing.T) {
	// arrange
	store := memstore.New()
	publisher := testdoubles.NewPublisherSpy()
	resourceID, borrower, next := uuid.New(), uuid.New(), uuid.New()
	givenPlaced(t, store, resourceID, borrower)
	givenPlaced(t, store, resourceID, next)
	givenActive(t, store, resourceID, borrower)
	handler := createHandler(t, store, shell.WithPublisher(publisher))

	// act
	result, err := handler.Handle(t.Context(), releaseactive.BuildCommand(resourceID, borrower, fakeNow.Add(time.Hour)))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.Notifications)

	published := publisher.Published()
	require.Len(t, published, 2)
	assert.Equal(t, rq.ActiveLoanClearedKind, published[0].Kind)
	assert.Equal(t, borrower, published[0].ActiveLoanCleared.ReservationID)
	assert.Equal(t, rq.QueueHeadChangedKind, published[1].Kind)
	assert.Equal(t, next, published[1].QueueHeadChanged.HeadReservationID)

	queue := loadQueue(t, store, resourceID)
	_, active := queue.ActiveReservationID()
	assert.False(t, active)
}

func Test_CommandHandler_Handle_Success_EmptyQueue(t *testing.T) {
	// arrange
	store := memstore.New()
	resourceID, borrower := uuid.New(), uuid.New()
	givenPlaced(t, store, resourceID, borrower)
	givenActive(t, store, resourceID, borrower)
	handler := createHandler(t, store)

	// act
	result, err := handler.Handle(t.Context(), releaseactive.BuildCommand(resourceID, borrower, fakeNow.Add(time.Hour)))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Notifications)
}

func Test_CommandHandler_Handle_Idempotent_NotActive(t *testing.T) {
	// arrange
	store := memstore.New()
	resourceID, waiting := uuid.New(), uuid.New()
	givenPlaced(t, store, resourceID, waiting)
	handler := createHandler(t, store)
	appendsBefore := store.AppendCalls()

	// act
	result, err := handler.Handle(t.Context(), releaseactive.BuildCommand(resourceID, waiting, fakeNow.Add(time.Hour)))

	// assert
	require.NoError(t, err)
	assert.True(t, result.Idempotent)
	assert.Equal(t, appendsBefore, store.AppendCalls())
}

func Test_CommandHandler_Handle_Idempotent_ReleasedTwice(t *testing.T) {
	// arrange
	store := memstore.New()
	resourceID, borrower := uuid.New(), uuid.New()
	givenPlaced(t, store, resourceID, borrower)
	givenActive(t, store, resourceID, borrower)
	handler := createHandler(t, store)
	command := releaseactive.BuildCommand(resourceID, borrower, fakeNow.Add(time.Hour))

	_, err := handler.Handle(t.Context(), command)
	require.NoError(t, err)

	// act
	result, err := handler.Handle(t.Context(), command)

	// assert
	require.NoError(t, err)
	assert.True(t, result.Idempotent)
}

func givenPlaced(t *testing.T, store *memstore.EventStore, resourceID, reservationID uuid.UUID) {
	t.Helper()

	handler, err := placereservation.NewCommandHandler(repositoryOf(t, store))
	require.NoError(t, err)

	_, err = handler.Handle(t.Context(), placereservation.BuildCommand(resourceID, reservationID, uuid.New(), fakeNow))
	require.NoError(t, err)
}

func givenActive(t *testing.T, store *memstore.EventStore, resourceID, reservationID uuid.UUID) {
	t.Helper()

	handler, err := authorizeactivation.NewCommandHandler(repositoryOf(t, store))
	require.NoError(t, err)

	_, err = handler.Handle(t.Context(), authorizeactivation.BuildCommand(resourceID, reservationID, fakeNow.Add(time.Minute)))
	require.NoError(t, err)
}

func createHandler(t *testing.T, store *memstore.EventStore, opts ...shell.ExecutorOption) releaseactive.CommandHandler {
	t.Helper()

	handler, err := releaseactive.NewCommandHandler(repositoryOf(t, store), opts...)
	require.NoError(t, err)

	return handler
}

func repositoryOf(t *testing.T, store *memstore.EventStore) shell.QueueRepository {
	t.Helper()

	repository, err := shell.NewQueueRepository(store)
	require.NoError(t, err)

	return repository
}

func loadQueue(t *testing.T, store *memstore.EventStore, resourceID uuid.UUID) *rq.ReservationQueue {
	t.Helper()

	queue, _, err := repositoryOf(t, store).Load(t.Context(), resourceID)
	require.NoError(t, err)

	return queue
}
