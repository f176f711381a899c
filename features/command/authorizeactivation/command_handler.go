package authorizeactivation

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
	"github.com/AntonStoeckl/reservation-queue-go/shell"
)

var (
	// ErrCheckingActiveLoanFailed wraps errors of the LoanChecker.
	ErrCheckingActiveLoanFailed = errors.New("checking active loan failed")

	// ErrNilLoanChecker is returned when WithLoanChecker receives nil.
	ErrNilLoanChecker = errors.New("loan checker must not be nil")
)

// LoanChecker asks the lending side whether the copy is already out on loan.
type LoanChecker interface {
	HasActiveLoan(ctx context.Context, resourceID uuid.UUID) (bool, error)
}

// LoanCheckerFunc adapts a plain function to the LoanChecker interface.
type LoanCheckerFunc func(ctx context.Context, resourceID uuid.UUID) (bool, error)

// HasActiveLoan calls f(ctx, resourceID).
func (f LoanCheckerFunc) HasActiveLoan(ctx context.Context, resourceID uuid.UUID) (bool, error) {
	return f(ctx, resourceID)
}

// NoExternalLoans trusts the queue's own active holder and reports no external loans.
var NoExternalLoans = LoanCheckerFunc(func(context.Context, uuid.UUID) (bool, error) {
	return false, nil
})

// CommandHandler authorizes loan activations.
// It handles the workflow: Lock -> Load -> Check loans -> Authorize -> Save -> Publish.
type CommandHandler struct {
	executor        shell.QueueCommandExecutor
	loanChecker     LoanChecker
	executorOptions []shell.ExecutorOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler) error

// WithLoanChecker sets the external loan checker, NoExternalLoans by default.
func WithLoanChecker(checker LoanChecker) Option {
	return func(h *CommandHandler) error {
		if checker == nil {
			return ErrNilLoanChecker
		}

		h.loanChecker = checker

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
	handler := CommandHandler{loanChecker: NoExternalLoans}

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

// Handle makes the reservation the active holder of the copy.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	return h.executor.Execute(ctx, command.ResourceID, command.ReservationID,
		func(ctx context.Context, queue *reservationqueue.ReservationQueue) error {
			if active, ok := queue.ActiveReservationID(); ok && active == command.ReservationID {
				return nil // idempotent
			}

			onLoan, err := h.loanChecker.HasActiveLoan(ctx, command.ResourceID)
			if err != nil {
				return errors.Join(ErrCheckingActiveLoanFailed, err)
			}

			policy := reservationqueue.LoanPolicyFunc(func(uuid.UUID) bool { return onLoan })

			return queue.AuthorizeActivation(command.ReservationID, policy, command.OccurredAt)
		},
	)
}
