package placereservation

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
	"github.com/AntonStoeckl/reservation-queue-go/shell"
)

var (
	// ErrReaderIneligible is returned when the classifier refuses the requester. Nothing is written.
	ErrReaderIneligible = errors.New("reader is not eligible to reserve")

	// ErrClassifyingReaderFailed wraps errors of the ReaderClassifier.
	ErrClassifyingReaderFailed = errors.New("classifying reader failed")

	// ErrNilPolicy is returned when an option receives a nil classifier or wait policy.
	ErrNilPolicy = errors.New("policy must not be nil")
)

// CommandHandler places reservations into the queue of a copy.
// It handles the workflow: Lock -> Load -> Classify -> Place -> Save -> Publish.
// External wrappers handle all observability concerns.
type CommandHandler struct {
	executor        shell.QueueCommandExecutor
	classifier      ReaderClassifier
	waitPolicy      WaitPolicy
	executorOptions []shell.ExecutorOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler) error

// WithReaderClassifier sets the classifier, EveryoneRegular by default.
func WithReaderClassifier(classifier ReaderClassifier) Option {
	return func(h *CommandHandler) error {
		if classifier == nil {
			return ErrNilPolicy
		}

		h.classifier = classifier

		return nil
	}
}

// WithWaitPolicy sets the wait policy, DefaultWaitDuration by default.
func WithWaitPolicy(policy WaitPolicy) Option {
	return func(h *CommandHandler) error {
		if policy == nil {
			return ErrNilPolicy
		}

		h.waitPolicy = policy

		return nil
	}
}

// WithExecutorOptions configures the locker, publisher, retries and logging of the shared workflow.
func WithExecutorOptions(opts ...shell.ExecutorOption) Option {
	return func(h *CommandHandler) error {
		h.executorOptions = append(h.executorOptions, opts...)
		return nil
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(repository shell.QueueRepository, opts ...Option) (CommandHandler, error) {
	handler := CommandHandler{
		classifier: EveryoneRegular,
		waitPolicy: FixedWaitPolicy(DefaultWaitDuration),
	}

	for _, opt := range opts {
		if err := opt(&handler); err != nil {
			return CommandHandler{}, err
		}
	}

	executor, err := shell.NewQueueCommandExecutor(repository, handler.executorOptions...)
	if err != nil {
		return CommandHandler{}, err
	}

	handler.executor = executor

	return handler, nil
}

// Handle classifies the requester and places the reservation with a deadline of OccurredAt plus the wait duration.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	return h.executor.Execute(ctx, command.ResourceID, command.ReservationID,
		func(ctx context.Context, queue *reservationqueue.ReservationQueue) error {
			if _, waiting := queue.Position(command.ReservationID); waiting {
				return nil // idempotent, the reader was classified when it was placed
			}

			if active, ok := queue.ActiveReservationID(); ok && active == command.ReservationID {
				return nil // idempotent
			}

			profile, err := h.classifier.Classify(ctx, command.RequesterID)
			if err != nil {
				return errors.Join(ErrClassifyingReaderFailed, err)
			}

			if !profile.Eligible {
				return errors.Join(reservationqueue.ErrInvalidOperation, ErrReaderIneligible)
			}

			deadline := command.OccurredAt.Add(h.waitPolicy.WaitDuration())

			return queue.Place(command.ReservationID, command.RequesterID, profile.Priority, deadline, command.OccurredAt)
		},
	)
}
