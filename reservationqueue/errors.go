package reservationqueue

import "errors"

var (
	// ErrInvalidArgument is the kind of all errors caused by malformed input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidOperation is the kind of all errors caused by an unmet precondition of a transition.
	ErrInvalidOperation = errors.New("invalid operation")
)

var (
	// ErrEmptyResourceID is returned when a queue is created for the nil resource id.
	ErrEmptyResourceID = errors.New("empty resource id")

	// ErrEmptyReservationID is returned when a reservation is placed with the nil id.
	ErrEmptyReservationID = errors.New("empty reservation id")

	// ErrEmptyRequesterID is returned when a reservation is placed without a requester.
	ErrEmptyRequesterID = errors.New("empty requester id")

	// ErrOnlyHeadCanBeActivated is returned when activation is requested for an entry behind the head.
	ErrOnlyHeadCanBeActivated = errors.New("only head of queue can be activated")

	// ErrAlreadyHasActiveLoan is returned when the queue already has an active reservation.
	ErrAlreadyHasActiveLoan = errors.New("copy already has an active loan")

	// ErrWaitDeadlineExpired is returned when the head is activated after its wait deadline.
	ErrWaitDeadlineExpired = errors.New("head reservation wait deadline expired")

	// ErrResourceOnActiveLoanPerPolicy is returned when the loan policy reports the copy as lent out.
	ErrResourceOnActiveLoanPerPolicy = errors.New("copy already on active loan per policy")

	// ErrCannotRemoveActiveReservation is returned when Remove targets the active reservation.
	ErrCannotRemoveActiveReservation = errors.New("cannot remove active reservation from queue")

	// ErrCorruptHistory is returned when a notification history cannot be replayed.
	ErrCorruptHistory = errors.New("notification history is corrupt")
)

func invalidArgument(cause error) error {
	return errors.Join(ErrInvalidArgument, cause)
}

func invalidOperation(cause error) error {
	return errors.Join(ErrInvalidOperation, cause)
}
