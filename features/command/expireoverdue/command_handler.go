package expireoverdue

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
	"github.com/AntonStoeckl/reservation-queue-go/shell"
)

// CommandHandler expires overdue reservations.
// It handles the workflow: Lock -> Load -> Expire -> Save -> Publish.
type CommandHandler struct {
	executor shell.QueueCommandExecutor
}

// NewCommandHandler creates a new CommandHandler, the options configure the shared workflow.
func NewCommandHandler(repository shell.QueueRepository, opts ...shell.ExecutorOption) (CommandHandler, error) {
	executor, err := shell.NewQueueCommandExecutor(repository, opts...)
	if err != nil {
		return CommandHandler{}, err
	}

	return CommandHandler{executor: executor}, nil
}

// Handle drops the overdue head entries. A queue without overdue heads yields an idempotent result.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	return h.executor.Execute(ctx, command.ResourceID, uuid.Nil,
		func(_ context.Context, queue *reservationqueue.ReservationQueue) error {
			queue.ExpireOverdue(command.OccurredAt)
			return nil
		},
	)
}
