package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-queue-go/features/command/expireoverdue"
	"github.com/AntonStoeckl/reservation-queue-go/features/command/placereservation"
	"github.com/AntonStoeckl/reservation-queue-go/shell"
	"github.com/AntonStoeckl/reservation-queue-go/testutil/memstore"
)

var fakeNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type stubOutcome struct {
	result shell.HandlerResult
	err    error
}

type stubHandler struct {
	mu       sync.Mutex
	outcomes map[uuid.UUID]stubOutcome
	handled  []expireoverdue.Command
}

func (h *stubHandler) Handle(_ context.Context, command expireoverdue.Command) (shell.HandlerResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.handled = append(h.handled, command)
	outcome := h.outcomes[command.ResourceID]

	return outcome.result, outcome.err
}

func (h *stubHandler) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.handled)
}

func Test_Sweeper_SweepOnce_CountsOutcomes(t *testing.T) {
	// arrange
	changed, idle, failing, unpublished := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	handler := &stubHandler{outcomes: map[uuid.UUID]stubOutcome{
		changed:     {result: shell.HandlerResult{Notifications: 2}},
		idle:        {result: shell.HandlerResult{Idempotent: true}},
		failing:     {err: errors.New("database down")},
		unpublished: {result: shell.HandlerResult{Notifications: 1}, err: shell.ErrPublishingNotificationsFailed},
	}}
	var logs bytes.Buffer
	sweeper := NewSweeper(handler, shell.FixedClock(fakeNow), slog.New(slog.NewJSONHandler(&logs, nil)),
		[]uuid.UUID{changed, idle, failing, unpublished}, 2)

	// act
	report := sweeper.SweepOnce(t.Context())

	// assert
	assert.Equal(t, SweepReport{Swept: 4, Changed: 2, Notifications: 3, Failed: 1, Idempotent: 1}, report)
	require.Len(t, handler.handled, 4)
	for _, command := range handler.handled {
		assert.Equal(t, fakeNow, command.OccurredAt)
	}
	assert.Contains(t, logs.String(), "sweep failed")
	assert.Contains(t, logs.String(), "publishing failed")
}

func Test_Sweeper_SweepOnce_StopsOnCanceledContext(t *testing.T) {
	// arrange
	handler := &stubHandler{}
	sweeper := NewSweeper(handler, shell.FixedClock(fakeNow), slog.New(slog.DiscardHandler), []uuid.UUID{uuid.New(), uuid.New()}, 1)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	// act
	report := sweeper.SweepOnce(ctx)

	// assert
	assert.Equal(t, 0, report.Swept)
	assert.Equal(t, 0, handler.calls())
}

func Test_Sweeper_Run_SweepsUntilCanceled(t *testing.T) {
	// arrange
	handler := &stubHandler{}
	sweeper := NewSweeper(handler, shell.FixedClock(fakeNow), slog.New(slog.DiscardHandler), []uuid.UUID{uuid.New()}, 1)
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})

	// act
	go func() {
		sweeper.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	// assert
	assert.Eventually(t, func() bool { return handler.calls() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func Test_Sweeper_SweepOnce_ExpiresStoredQueues(t *testing.T) {
	// arrange
	store := memstore.New()
	repository, err := shell.NewQueueRepository(store)
	require.NoError(t, err)

	placeHandler, err := placereservation.NewCommandHandler(repository,
		placereservation.WithWaitPolicy(placereservation.FixedWaitPolicy(time.Hour)),
	)
	require.NoError(t, err)

	overdue, fresh := uuid.New(), uuid.New()
	for _, resourceID := range []uuid.UUID{overdue, fresh} {
		placedAt := fakeNow
		if resourceID == fresh {
			placedAt = fakeNow.Add(90 * time.Minute)
		}

		_, err = placeHandler.Handle(t.Context(), placereservation.BuildCommand(resourceID, uuid.New(), uuid.New(), placedAt))
		require.NoError(t, err)
	}

	expireHandler, err := expireoverdue.NewCommandHandler(repository)
	require.NoError(t, err)

	sweeper := NewSweeper(expireHandler, shell.FixedClock(fakeNow.Add(2*time.Hour)), slog.New(slog.DiscardHandler),
		[]uuid.UUID{overdue, fresh}, 2)

	// act
	report := sweeper.SweepOnce(t.Context())

	// assert
	assert.Equal(t, SweepReport{Swept: 2, Changed: 1, Notifications: 1, Idempotent: 1}, report)

	queue, _, err := repository.Load(t.Context(), overdue)
	require.NoError(t, err)
	assert.Equal(t, 0, queue.Len())
}
