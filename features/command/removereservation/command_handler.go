package removereservation

import (
	"context"

	"github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
	"github.com/AntonStoeckl/reservation-queue-go/shell"
)

// CommandHandler removes waiting reservations.
// It handles the workflow: Lock -> Load -> Remove -> Save -> Publish.
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

// Handle takes the reservation out of the queue.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	return h.executor.Execute(ctx, command.ResourceID, command.ReservationID,
		func(_ context.Context, queue *reservationqueue.ReservationQueue) error {
			return queue.Remove(command.ReservationID, command.Reason, command.RemovedBy, command.OccurredAt, command.Note)
		},
	)
}
