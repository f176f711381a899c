package reservationqueue

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind selects the payload variant of a Notification.
type NotificationKind string

const (
	ReservationQueuedKind            NotificationKind = "ReservationQueued"
	QueueHeadChangedKind             NotificationKind = "QueueHeadChanged"
	LoanActivationAuthorizedKind     NotificationKind = "LoanActivationAuthorized"
	WaitDeadlineExpiredFromQueueKind NotificationKind = "WaitDeadlineExpiredFromQueue"
	ReservationRemovedFromQueueKind  NotificationKind = "ReservationRemovedFromQueue"
	ActiveLoanClearedKind            NotificationKind = "ActiveLoanCleared"
)

// Notifications is a slice of Notification instances.
type Notifications = []Notification

// Notification is a change notification produced by a ReservationQueue.
//
// It is a tagged union: the envelope (Kind, ResourceID, OccurredAt, Version) is always set,
// and exactly one of the payload pointers is non-nil, the one matching Kind.
// Consumers switch on Kind.
type Notification struct {
	Kind       NotificationKind
	ResourceID uuid.UUID
	OccurredAt OccurredAt
	Version    Version

	ReservationQueued            *ReservationQueued
	QueueHeadChanged             *QueueHeadChanged
	LoanActivationAuthorized     *LoanActivationAuthorized
	WaitDeadlineExpiredFromQueue *WaitDeadlineExpiredFromQueue
	ReservationRemovedFromQueue  *ReservationRemovedFromQueue
	ActiveLoanCleared            *ActiveLoanCleared
}

// ReservationQueued is the payload for a reservation that entered the queue.
type ReservationQueued struct {
	ReservationID uuid.UUID
	RequesterID   uuid.UUID
	Priority      PriorityLevel
	WaitDeadline  time.Time
}

// QueueHeadChanged is the payload for a new entry at the head of the queue.
type QueueHeadChanged struct {
	HeadReservationID uuid.UUID
}

// LoanActivationAuthorized is the payload for the head that became the active holder.
type LoanActivationAuthorized struct {
	ReservationID uuid.UUID
	RequesterID   uuid.UUID
}

// WaitDeadlineExpiredFromQueue is the payload for an entry dropped because its wait deadline passed.
type WaitDeadlineExpiredFromQueue struct {
	ReservationID uuid.UUID
	RequesterID   uuid.UUID
	WaitDeadline  time.Time
}

// ReservationRemovedFromQueue is the payload for an entry taken out of the queue on request.
type ReservationRemovedFromQueue struct {
	ReservationID uuid.UUID
	RequesterID   uuid.UUID
	Reason        string
	RemovedBy     string
	Note          string
}

// ActiveLoanCleared is the payload for the active holder being released.
type ActiveLoanCleared struct {
	ReservationID uuid.UUID
}

// ReservationID returns the reservation the notification is about.
// For QueueHeadChanged this is the new head.
func (n Notification) ReservationID() uuid.UUID {
	switch n.Kind {
	case ReservationQueuedKind:
		return n.ReservationQueued.ReservationID
	case QueueHeadChangedKind:
		return n.QueueHeadChanged.HeadReservationID
	case LoanActivationAuthorizedKind:
		return n.LoanActivationAuthorized.ReservationID
	case WaitDeadlineExpiredFromQueueKind:
		return n.WaitDeadlineExpiredFromQueue.ReservationID
	case ReservationRemovedFromQueueKind:
		return n.ReservationRemovedFromQueue.ReservationID
	case ActiveLoanClearedKind:
		return n.ActiveLoanCleared.ReservationID
	default:
		return uuid.Nil
	}
}

// IsHeadChange reports whether the notification announces a new head.
func (n Notification) IsHeadChange() bool {
	return n.Kind == QueueHeadChangedKind
}

func (q *ReservationQueue) envelope(kind NotificationKind, now time.Time) Notification {
	return Notification{
		Kind:       kind,
		ResourceID: q.resourceID,
		OccurredAt: ToOccurredAt(now),
		Version:    q.version,
	}
}

func (q *ReservationQueue) raiseReservationQueued(entry QueueEntry, now time.Time) {
	n := q.envelope(ReservationQueuedKind, now)
	n.ReservationQueued = &ReservationQueued{
		ReservationID: entry.ReservationID,
		RequesterID:   entry.RequesterID,
		Priority:      entry.Priority,
		WaitDeadline:  entry.WaitDeadline,
	}
	q.pending = append(q.pending, n)
}

func (q *ReservationQueue) raiseQueueHeadChanged(now time.Time) {
	n := q.envelope(QueueHeadChangedKind, now)
	n.QueueHeadChanged = &QueueHeadChanged{HeadReservationID: q.entries[0].ReservationID}
	q.pending = append(q.pending, n)
}

func (q *ReservationQueue) raiseLoanActivationAuthorized(entry QueueEntry, now time.Time) {
	n := q.envelope(LoanActivationAuthorizedKind, now)
	n.LoanActivationAuthorized = &LoanActivationAuthorized{
		ReservationID: entry.ReservationID,
		RequesterID:   entry.RequesterID,
	}
	q.pending = append(q.pending, n)
}

func (q *ReservationQueue) raiseWaitDeadlineExpired(entry QueueEntry, now time.Time) {
	n := q.envelope(WaitDeadlineExpiredFromQueueKind, now)
	n.WaitDeadlineExpiredFromQueue = &WaitDeadlineExpiredFromQueue{
		ReservationID: entry.ReservationID,
		RequesterID:   entry.RequesterID,
		WaitDeadline:  entry.WaitDeadline,
	}
	q.pending = append(q.pending, n)
}

func (q *ReservationQueue) raiseReservationRemoved(
	entry QueueEntry,
	reason CancelReason,
	removedBy RemovedBy,
	note string,
	now time.Time,
) {

	n := q.envelope(ReservationRemovedFromQueueKind, now)
	n.ReservationRemovedFromQueue = &ReservationRemovedFromQueue{
		ReservationID: entry.ReservationID,
		RequesterID:   entry.RequesterID,
		Reason:        reason.String(),
		RemovedBy:     removedBy.String(),
		Note:          note,
	}
	q.pending = append(q.pending, n)
}

func (q *ReservationQueue) raiseActiveLoanCleared(reservationID uuid.UUID, now time.Time) {
	n := q.envelope(ActiveLoanClearedKind, now)
	n.ActiveLoanCleared = &ActiveLoanCleared{ReservationID: reservationID}
	q.pending = append(q.pending, n)
}
