package removereservation_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-queue-go/features/command/authorizeactivation"
	"github.com/AntonStoeckl/reservation-queue-go/features/command/placereservation"
	"github.com/AntonStoeckl/reservation-queue-go/features/command/removereservation"
	rq "github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
	"github.com/AntonStoeckl/reservation-queue-go/shell"
	"github.com/AntonStoeckl/reservation-queue-go/testutil/memstore"
	"github.com/AntonStoeckl/reservation-queue-go/testutil/testdoubles"
)

var fakeNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func Test_CommandHandler_Handle_Success_RemovesHead(t *testing.T) {
	// arrange
	store := memstore.New()
	publisher := testdoubles.NewPublisherSpy()
	resourceID, first, second := uuid.New(), uuid.New(), uuid.New()
	givenPlaced(t, store, resourceID, first)
	givenPlaced(t, store, resourceID, second)
	handler := createHandler(t, store, shell.WithPublisher(publisher))
	command := removereservation.BuildCommand(resourceID, first, rq.StaffCancel, rq.ByStaff, "damaged copy", fakeNow.Add(time.Hour))

	// act
	result, err := handler.Handle(t.Context(), command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.Notifications)

	published := publisher.Published()
	require.Len(t, published, 2)
	require.Equal(t, rq.ReservationRemovedFromQueueKind, published[0].Kind)
	removed := published[0].ReservationRemovedFromQueue
	assert.Equal(t, first, removed.ReservationID)
	assert.Equal(t, "StaffCancel", removed.Reason)
	assert.Equal(t, "Staff", removed.RemovedBy)
	assert.Equal(t, "damaged copy", removed.Note)
	assert.Equal(t, second, published[1].QueueHeadChanged.HeadReservationID)
}

func Test_CommandHandler_Handle_Success_RemovesBehindHead(t *testing.T) {
	// arrange
	store := memstore.New()
	resourceID, first, second := uuid.New(), uuid.New(), uuid.New()
	givenPlaced(t, store, resourceID, first)
	givenPlaced(t, store, resourceID, second)
	handler := createHandler(t, store)

	// act
	result, err := handler.Handle(t.Context(),
		removereservation.BuildCommand(resourceID, second, rq.UserCancel, rq.ByReader, "", fakeNow.Add(time.Hour)))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Notifications, "the head did not change")
	assert.Equal(t, 1, loadQueue(t, store, resourceID).Len())
}

func Test_CommandHandler_Handle_Idempotent_UnknownReservation(t *testing.T) {
	// arrange
	store := memstore.New()
	resourceID := uuid.New()
	givenPlaced(t, store, resourceID, uuid.New())
	handler := createHandler(t, store)
	appendsBefore := store.AppendCalls()

	// act
	result, err := handler.Handle(t.Context(),
		removereservation.BuildCommand(resourceID, uuid.New(), rq.UserCancel, rq.ByReader, "", fakeNow))

	// assert
	require.NoError(t, err)
	assert.True(t, result.Idempotent)
	assert.Equal(t, appendsBefore, store.AppendCalls())
}

func Test_CommandHandler_Handle_Error_ActiveReservation(t *testing.T) {
	// arrange
	store := memstore.New()
	resourceID, reservationID := uuid.New(), uuid.New()
	givenPlaced(t, store, resourceID, reservationID)
	givenActive(t, store, resourceID, reservationID)
	handler := createHandler(t, store)

	// act
	_, err := handler.Handle(t.Context(),
		removereservation.BuildCommand(resourceID, reservationID, rq.UserCancel, rq.ByReader, "", fakeNow.Add(time.Hour)))

	// assert
	assert.ErrorIs(t, err, rq.ErrInvalidOperation)
	assert.ErrorIs(t, err, rq.ErrCannotRemoveActiveReservation)
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

func createHandler(t *testing.T, store *memstore.EventStore, opts ...shell.ExecutorOption) removereservation.CommandHandler {
	t.Helper()

	handler, err := removereservation.NewCommandHandler(repositoryOf(t, store), opts...)
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
