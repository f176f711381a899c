package reservationqueue

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// ReservationQueue is the waiting line for one copy.
//
// Invariants:
//   - entries are sorted by (priority, sequence) ascending and hold distinct reservation ids
//   - the active reservation, if any, is never contained in entries
//   - version grows by exactly one per state-changing call, no-ops leave it untouched
type ReservationQueue struct {
	resourceID          uuid.UUID
	entries             []QueueEntry
	activeReservationID uuid.UUID
	version             Version
	sequenceCounter     uint64
	pending             Notifications
}

// NewReservationQueue creates an empty queue for the copy identified by resourceID.
func NewReservationQueue(resourceID uuid.UUID) (*ReservationQueue, error) {
	if resourceID == uuid.Nil {
		return nil, invalidArgument(ErrEmptyResourceID)
	}

	return &ReservationQueue{resourceID: resourceID}, nil
}

// ResourceID returns the copy this queue belongs to.
func (q *ReservationQueue) ResourceID() uuid.UUID {
	return q.resourceID
}

// Version returns the number of state changes applied so far.
func (q *ReservationQueue) Version() Version {
	return q.version
}

// Entries returns a copy of the waiting entries in service order.
func (q *ReservationQueue) Entries() []QueueEntry {
	return slices.Clone(q.entries)
}

// Len returns the number of waiting entries.
func (q *ReservationQueue) Len() int {
	return len(q.entries)
}

// Head returns the entry that is next in line.
func (q *ReservationQueue) Head() (QueueEntry, bool) {
	if len(q.entries) == 0 {
		return QueueEntry{}, false
	}

	return q.entries[0], true
}

// ActiveReservationID returns the reservation currently holding the copy.
func (q *ReservationQueue) ActiveReservationID() (uuid.UUID, bool) {
	return q.activeReservationID, q.activeReservationID != uuid.Nil
}

// Position returns the zero-based position of reservationID in the queue.
func (q *ReservationQueue) Position(reservationID uuid.UUID) (int, bool) {
	idx := q.indexOf(reservationID)

	return idx, idx >= 0
}

// Place puts a new reservation into the queue at the position its priority earns.
//
// Placing a reservation that is already waiting or already active is a no-op.
func (q *ReservationQueue) Place(
	reservationID uuid.UUID,
	requesterID uuid.UUID,
	priority PriorityLevel,
	waitDeadline time.Time,
	now time.Time,
) error {

	if reservationID == uuid.Nil {
		return invalidArgument(ErrEmptyReservationID)
	}

	if requesterID == uuid.Nil {
		return invalidArgument(ErrEmptyRequesterID)
	}

	if !priority.IsValid() {
		return invalidArgument(ErrUnknownPriorityLevel)
	}

	if q.indexOf(reservationID) >= 0 || q.activeReservationID == reservationID {
		return nil // idempotent
	}

	entry := QueueEntry{
		ReservationID: reservationID,
		RequesterID:   requesterID,
		Priority:      priority,
		WaitDeadline:  waitDeadline,
		PlacedAt:      ToOccurredAt(now),
		sequence:      q.sequenceCounter,
	}
	q.sequenceCounter++

	idx := q.insert(entry)
	q.version++

	q.raiseReservationQueued(entry, now)

	if idx == 0 {
		q.raiseQueueHeadChanged(now)
	}

	return nil
}

// AuthorizeActivation hands the copy to the head of the queue.
//
// All preconditions are checked before anything changes, a failed call leaves the queue untouched.
func (q *ReservationQueue) AuthorizeActivation(reservationID uuid.UUID, loanPolicy LoanPolicy, now time.Time) error {
	head, ok := q.Head()
	if !ok || head.ReservationID != reservationID {
		return invalidOperation(ErrOnlyHeadCanBeActivated)
	}

	if _, active := q.ActiveReservationID(); active {
		return invalidOperation(ErrAlreadyHasActiveLoan)
	}

	if loanPolicy != nil && loanPolicy.HasActiveLoan(q.resourceID) {
		return invalidOperation(ErrResourceOnActiveLoanPerPolicy)
	}

	if now.After(head.WaitDeadline) {
		return invalidOperation(ErrWaitDeadlineExpired)
	}

	q.removeAt(0)
	q.activeReservationID = head.ReservationID
	q.version++

	q.raiseLoanActivationAuthorized(head, now)

	if len(q.entries) > 0 {
		q.raiseQueueHeadChanged(now)
	}

	return nil
}

// ExpireOverdue drops every head entry whose wait deadline lies before now.
//
// Each dropped entry counts as its own state change. A single head change
// notification follows at the version reached after the last removal.
func (q *ReservationQueue) ExpireOverdue(now time.Time) {
	removed := 0

	for len(q.entries) > 0 && q.entries[0].IsOverdueAt(now) {
		expired := q.removeAt(0)
		q.version++
		removed++

		q.raiseWaitDeadlineExpired(expired, now)
	}

	if removed > 0 && len(q.entries) > 0 {
		q.raiseQueueHeadChanged(now)
	}
}

// Remove takes a waiting reservation out of the queue.
//
// Removing a reservation that is not waiting is a no-op, removing the active one fails.
// Reason and remover are validated first, even for a no-op.
func (q *ReservationQueue) Remove(
	reservationID uuid.UUID,
	reason CancelReason,
	removedBy RemovedBy,
	now time.Time,
	note string,
) error {

	if !reason.IsValid() {
		return invalidArgument(ErrUnknownCancelReason)
	}

	if !removedBy.IsValid() {
		return invalidArgument(ErrUnknownRemovedBy)
	}

	if reservationID != uuid.Nil && q.activeReservationID == reservationID {
		return invalidOperation(ErrCannotRemoveActiveReservation)
	}

	idx := q.indexOf(reservationID)
	if idx < 0 {
		return nil // idempotent
	}

	removed := q.removeAt(idx)
	q.version++

	q.raiseReservationRemoved(removed, reason, removedBy, note, now)

	if idx == 0 && len(q.entries) > 0 {
		q.raiseQueueHeadChanged(now)
	}

	return nil
}

// ReleaseActive clears the active holder when it matches reservationID.
func (q *ReservationQueue) ReleaseActive(reservationID uuid.UUID, now time.Time) {
	if reservationID == uuid.Nil || q.activeReservationID != reservationID {
		return // idempotent
	}

	q.activeReservationID = uuid.Nil
	q.version++

	q.raiseActiveLoanCleared(reservationID, now)

	if len(q.entries) > 0 {
		q.raiseQueueHeadChanged(now)
	}
}

// DrainNotifications returns the notifications recorded since the last drain and forgets them.
func (q *ReservationQueue) DrainNotifications() Notifications {
	drained := q.pending
	q.pending = nil

	return drained
}

// PendingNotifications reports how many notifications wait to be drained.
func (q *ReservationQueue) PendingNotifications() int {
	return len(q.pending)
}

// Clone returns a deep copy of the queue including undrained notifications.
func (q *ReservationQueue) Clone() *ReservationQueue {
	clone := *q
	clone.entries = slices.Clone(q.entries)
	clone.pending = slices.Clone(q.pending)

	return &clone
}

// insert places entry by a linear scan and returns the index it landed on.
func (q *ReservationQueue) insert(entry QueueEntry) int {
	idx := len(q.entries)

	for i, e := range q.entries {
		if entry.goesBefore(e) {
			idx = i
			break
		}
	}

	q.entries = slices.Insert(q.entries, idx, entry)

	return idx
}

func (q *ReservationQueue) removeAt(idx int) QueueEntry {
	removed := q.entries[idx]
	q.entries = slices.Delete(q.entries, idx, idx+1)

	return removed
}

func (q *ReservationQueue) indexOf(reservationID uuid.UUID) int {
	return slices.IndexFunc(q.entries, func(e QueueEntry) bool {
		return e.ReservationID == reservationID
	})
}
