package reservationqueue

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// RestoreReservationQueue rebuilds a queue from the notifications it produced earlier.
//
// The history must belong to resourceID and advance by exactly one version per state change. The restored queue
// has no pending notifications and continues counting from the last version seen.
func RestoreReservationQueue(resourceID uuid.UUID, history Notifications) (*ReservationQueue, error) {
	q, err := NewReservationQueue(resourceID)
	if err != nil {
		return nil, err
	}

	for i, n := range history {
		if applyErr := q.apply(n); applyErr != nil {
			return nil, errors.Join(ErrCorruptHistory, fmt.Errorf("notification %d (%s): %w", i, n.Kind, applyErr))
		}
	}

	return q, nil
}

var (
	errForeignResource    = errors.New("belongs to another resource")
	errVersionNotNext     = errors.New("version does not follow the current version")
	errHeadChangeVersion  = errors.New("head change does not share the current version")
	errMissingPayload     = errors.New("payload missing for kind")
	errUnknownKind        = errors.New("unknown notification kind")
	errNotInQueue         = errors.New("reservation not waiting in queue")
	errNotHead            = errors.New("reservation is not the head")
	errNotActive          = errors.New("reservation is not active")
	errDuplicateQueued    = errors.New("reservation already waiting")
	errHeadDoesNotMatch   = errors.New("head does not match")
	errActiveAlreadyTaken = errors.New("another reservation is active")
)

// apply mutates q according to one historic notification without recording anything new.
func (q *ReservationQueue) apply(n Notification) error {
	if n.ResourceID != q.resourceID {
		return errForeignResource
	}

	if err := q.checkVersion(n); err != nil {
		return err
	}

	var err error

	switch n.Kind {
	case ReservationQueuedKind:
		err = q.applyReservationQueued(n)
	case QueueHeadChangedKind:
		err = q.applyQueueHeadChanged(n)
	case LoanActivationAuthorizedKind:
		err = q.applyLoanActivationAuthorized(n)
	case WaitDeadlineExpiredFromQueueKind:
		err = q.applyWaitDeadlineExpired(n)
	case ReservationRemovedFromQueueKind:
		err = q.applyReservationRemoved(n)
	case ActiveLoanClearedKind:
		err = q.applyActiveLoanCleared(n)
	default:
		err = errUnknownKind
	}

	if err != nil {
		return err
	}

	q.version = n.Version

	return nil
}

// checkVersion enforces one version step per state change. A head change carries the version
// of the change that caused it.
func (q *ReservationQueue) checkVersion(n Notification) error {
	if n.Kind == QueueHeadChangedKind {
		if n.Version != q.version {
			return errHeadChangeVersion
		}

		return nil
	}

	if n.Version != q.version+1 {
		return errVersionNotNext
	}

	return nil
}

func (q *ReservationQueue) applyReservationQueued(n Notification) error {
	p := n.ReservationQueued
	if p == nil {
		return errMissingPayload
	}

	if q.indexOf(p.ReservationID) >= 0 {
		return errDuplicateQueued
	}

	q.insert(QueueEntry{
		ReservationID: p.ReservationID,
		RequesterID:   p.RequesterID,
		Priority:      p.Priority,
		WaitDeadline:  p.WaitDeadline,
		PlacedAt:      n.OccurredAt,
		sequence:      q.sequenceCounter,
	})
	q.sequenceCounter++

	return nil
}

func (q *ReservationQueue) applyQueueHeadChanged(n Notification) error {
	p := n.QueueHeadChanged
	if p == nil {
		return errMissingPayload
	}

	head, ok := q.Head()
	if !ok || head.ReservationID != p.HeadReservationID {
		return errHeadDoesNotMatch
	}

	return nil
}

func (q *ReservationQueue) applyLoanActivationAuthorized(n Notification) error {
	p := n.LoanActivationAuthorized
	if p == nil {
		return errMissingPayload
	}

	if q.indexOf(p.ReservationID) != 0 {
		return errNotHead
	}

	if _, active := q.ActiveReservationID(); active {
		return errActiveAlreadyTaken
	}

	q.removeAt(0)
	q.activeReservationID = p.ReservationID

	return nil
}

func (q *ReservationQueue) applyWaitDeadlineExpired(n Notification) error {
	p := n.WaitDeadlineExpiredFromQueue
	if p == nil {
		return errMissingPayload
	}

	return q.applyRemoval(p.ReservationID)
}

func (q *ReservationQueue) applyReservationRemoved(n Notification) error {
	p := n.ReservationRemovedFromQueue
	if p == nil {
		return errMissingPayload
	}

	return q.applyRemoval(p.ReservationID)
}

func (q *ReservationQueue) applyRemoval(reservationID uuid.UUID) error {
	idx := q.indexOf(reservationID)
	if idx < 0 {
		return errNotInQueue
	}

	q.removeAt(idx)

	return nil
}

func (q *ReservationQueue) applyActiveLoanCleared(n Notification) error {
	p := n.ActiveLoanCleared
	if p == nil {
		return errMissingPayload
	}

	if q.activeReservationID != p.ReservationID || p.ReservationID == uuid.Nil {
		return errNotActive
	}

	q.activeReservationID = uuid.Nil

	return nil
}
