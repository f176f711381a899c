package shell_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-queue-go/eventstore"
	rq "github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
	"github.com/AntonStoeckl/reservation-queue-go/shell"
	"github.com/AntonStoeckl/reservation-queue-go/testutil/memstore"
	"github.com/AntonStoeckl/reservation-queue-go/testutil/testdoubles"
)

type lockerSpy struct {
	lockErr   error
	unlockErr error
	locked    []string
	unlocked  int
}

func (l *lockerSpy) Lock(_ context.Context, resourceKey string) (func(context.Context) error, error) {
	if l.lockErr != nil {
		return nil, l.lockErr
	}

	l.locked = append(l.locked, resourceKey)

	return func(context.Context) error {
		l.unlocked++
		return l.unlockErr
	}, nil
}

func placeOperation(reservationID uuid.UUID) shell.QueueOperation {
	return func(_ context.Context, queue *rq.ReservationQueue) error {
		return queue.Place(reservationID, uuid.New(), rq.Regular, fakeNow.Add(time.Hour), fakeNow)
	}
}

func createExecutor(t *testing.T, store shell.EventStore, opts ...shell.ExecutorOption) shell.QueueCommandExecutor {
	t.Helper()

	repo, err := shell.NewQueueRepository(store)
	require.NoError(t, err)

	executor, err := shell.NewQueueCommandExecutor(repo, opts...)
	require.NoError(t, err)

	return executor
}

func Test_QueueCommandExecutor_Execute_Success_CommitsLocksAndPublishes(t *testing.T) {
	// arrange
	store := memstore.New()
	locker := &lockerSpy{}
	publisher := testdoubles.NewPublisherSpy()
	executor := createExecutor(t, store, shell.WithLocker(locker), shell.WithPublisher(publisher))
	resourceID, causationID := uuid.New(), uuid.New()

	// act
	result, err := executor.Execute(t.Context(), resourceID, causationID, placeOperation(uuid.New()))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.Notifications)
	assert.Equal(t, []string{resourceID.String()}, locker.locked)
	assert.Equal(t, 1, locker.unlocked)
	require.Len(t, publisher.Batches(), 1)
	assert.Len(t, publisher.Batches()[0], 2)

	for _, event := range store.Events() {
		metadata, metaErr := shell.EventMetadataFrom(event)
		require.NoError(t, metaErr)
		assert.Equal(t, causationID.String(), metadata.CausationID)
		assert.Equal(t, causationID.String(), metadata.CorrelationID)
	}
}

func Test_QueueCommandExecutor_Execute_Success_NilCausationGetsFreshCorrelation(t *testing.T) {
	// arrange
	store := memstore.New()
	executor := createExecutor(t, store)

	// act
	_, err := executor.Execute(t.Context(), uuid.New(), uuid.Nil, placeOperation(uuid.New()))

	// assert
	require.NoError(t, err)
	events := store.Events()
	require.Len(t, events, 2)
	first, err := shell.EventMetadataFrom(events[0])
	require.NoError(t, err)
	second, err := shell.EventMetadataFrom(events[1])
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil.String(), first.CorrelationID)
	assert.Equal(t, first.CorrelationID, second.CorrelationID)
	assert.NotEqual(t, first.MessageID, second.MessageID)
}

func Test_QueueCommandExecutor_Execute_Idempotent_NoNotifications(t *testing.T) {
	// arrange
	store := memstore.New()
	publisher := testdoubles.NewPublisherSpy()
	executor := createExecutor(t, store, shell.WithPublisher(publisher))

	// act
	result, err := executor.Execute(t.Context(), uuid.New(), uuid.New(), func(context.Context, *rq.ReservationQueue) error {
		return nil
	})

	// assert
	require.NoError(t, err)
	assert.True(t, result.Idempotent)
	assert.Equal(t, 0, store.AppendCalls())
	assert.Empty(t, publisher.Batches())
}

func Test_QueueCommandExecutor_Execute_RetriesOnConcurrencyConflict(t *testing.T) {
	// arrange
	store := memstore.New()
	resourceID := uuid.New()
	injected := atomic.Bool{}
	store.BeforeAppend = func(ctx context.Context) {
		if !injected.CompareAndSwap(false, true) {
			return
		}

		concurrent := createExecutor(t, store)
		_, err := concurrent.Execute(ctx, resourceID, uuid.New(), placeOperation(uuid.New()))
		require.NoError(t, err)
	}
	executor := createExecutor(t, store, shell.WithRetryOptions(shell.WithBaseDelay(time.Millisecond)))
	reservationID := uuid.New()

	// act
	result, err := executor.Execute(t.Context(), resourceID, uuid.New(), placeOperation(reservationID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.RetryAttempts)
	assert.Equal(t, 1, result.Notifications, "placed behind the concurrent head on the second attempt")

	repo, err := shell.NewQueueRepository(store)
	require.NoError(t, err)
	queue, _, err := repo.Load(t.Context(), resourceID)
	require.NoError(t, err)
	position, ok := queue.Position(reservationID)
	require.True(t, ok)
	assert.Equal(t, 1, position)
}

func Test_QueueCommandExecutor_Execute_Error_OperationRejectionIsNotRetried(t *testing.T) {
	// arrange
	store := memstore.New()
	executor := createExecutor(t, store)
	calls := 0

	// act
	result, err := executor.Execute(t.Context(), uuid.New(), uuid.New(), func(_ context.Context, queue *rq.ReservationQueue) error {
		calls++
		return queue.AuthorizeActivation(uuid.New(), nil, fakeNow)
	})

	// assert
	assert.ErrorIs(t, err, rq.ErrOnlyHeadCanBeActivated)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, result.RetryAttempts)
	assert.Equal(t, 0, store.AppendCalls())
}

func Test_QueueCommandExecutor_Execute_Error_LockFails(t *testing.T) {
	// arrange
	store := memstore.New()
	lockErr := errors.New("redis unavailable")
	executor := createExecutor(t, store, shell.WithLocker(&lockerSpy{lockErr: lockErr}))

	// act
	_, err := executor.Execute(t.Context(), uuid.New(), uuid.New(), placeOperation(uuid.New()))

	// assert
	assert.ErrorIs(t, err, shell.ErrLockingResourceFailed)
	assert.ErrorIs(t, err, lockErr)
	assert.Equal(t, 0, store.QueryCalls())
}

func Test_QueueCommandExecutor_Execute_Error_QueryFails(t *testing.T) {
	// arrange
	store := memstore.New()
	store.QueryErr = errors.New("connection reset")
	locker := &lockerSpy{}
	executor := createExecutor(t, store, shell.WithLocker(locker))

	// act
	_, err := executor.Execute(t.Context(), uuid.New(), uuid.New(), placeOperation(uuid.New()))

	// assert
	assert.ErrorIs(t, err, store.QueryErr)
	assert.Equal(t, 1, locker.unlocked)
}

func Test_QueueCommandExecutor_Execute_PublishFailureKeepsCommit(t *testing.T) {
	// arrange
	store := memstore.New()
	publisher := testdoubles.NewPublisherSpy()
	publisher.Err = errors.New("broker down")
	logger := testdoubles.NewLoggerSpy()
	executor := createExecutor(t, store, shell.WithPublisher(publisher), shell.WithExecutorContextualLogger(logger))

	// act
	result, err := executor.Execute(t.Context(), uuid.New(), uuid.New(), placeOperation(uuid.New()))

	// assert
	assert.ErrorIs(t, err, shell.ErrPublishingNotificationsFailed)
	assert.ErrorIs(t, err, publisher.Err)
	assert.Equal(t, 2, result.Notifications)
	assert.Len(t, store.Events(), 2)
	assert.True(t, logger.HasMessage("error", shell.LogMsgPublishFailed))
}

func Test_QueueCommandExecutor_Execute_UnlockFailureIsLogged(t *testing.T) {
	// arrange
	logger := testdoubles.NewLoggerSpy()
	executor := createExecutor(t, memstore.New(),
		shell.WithLocker(&lockerSpy{unlockErr: errors.New("lock expired")}),
		shell.WithExecutorLogger(logger),
	)

	// act
	_, err := executor.Execute(t.Context(), uuid.New(), uuid.New(), placeOperation(uuid.New()))

	// assert
	require.NoError(t, err)
	assert.True(t, logger.HasMessage("warn", shell.LogMsgUnlockFailed))
}

func Test_QueueCommandExecutor_Execute_RecordsNotificationMetrics(t *testing.T) {
	// arrange
	metrics := testdoubles.NewMetricsCollectorSpy()
	executor := createExecutor(t, memstore.New(), shell.WithExecutorMetrics(metrics))

	// act
	_, err := executor.Execute(t.Context(), uuid.New(), uuid.New(), placeOperation(uuid.New()))

	// assert
	require.NoError(t, err)
	assert.Len(t, metrics.RecordsFor(shell.QueueNotificationsMetric), 2)
	assert.True(t, metrics.HasRecord(shell.QueueNotificationsMetric,
		map[string]string{shell.LogAttrNotificationKind: string(rq.ReservationQueuedKind)}))
}

func Test_NewQueueCommandExecutor_Error_NilCollaborators(t *testing.T) {
	// arrange
	repo, err := shell.NewQueueRepository(memstore.New())
	require.NoError(t, err)

	// act
	_, lockerErr := shell.NewQueueCommandExecutor(repo, shell.WithLocker(nil))
	_, publisherErr := shell.NewQueueCommandExecutor(repo, shell.WithPublisher(nil))

	// assert
	assert.ErrorIs(t, lockerErr, shell.ErrNilExecutorCollaborator)
	assert.ErrorIs(t, publisherErr, shell.ErrNilExecutorCollaborator)
}

func Test_QueueCommandExecutor_Execute_Error_ConflictsExhaustRetries(t *testing.T) {
	// arrange
	store := memstore.New()
	store.AppendErr = eventstore.ErrConcurrencyConflict
	executor := createExecutor(t, store, shell.WithRetryOptions(shell.WithMaxAttempts(3), shell.WithBaseDelay(time.Millisecond)))

	// act
	result, err := executor.Execute(t.Context(), uuid.New(), uuid.New(), placeOperation(uuid.New()))

	// assert
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
	assert.Equal(t, 3, result.RetryAttempts)
	assert.True(t, result.RetriesExhausted)
	assert.Equal(t, 3, store.AppendCalls())
}
