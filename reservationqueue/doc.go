// Package reservationqueue contains the waiting-list engine for a single book copy
// in a public library.
//
// A ReservationQueue keeps the reservations that wait for one copy ordered by
// priority level (Staff before Vip before Regular) and, within the same level,
// by placement order. It activates the head of the queue, expires entries whose
// wait deadline has passed, removes canceled reservations and releases the
// currently active holder.
//
// Every state change bumps the queue's Version by exactly one and records one or
// more Notification(s) stamped with that version. Callers drain them after each
// operation and hand them to the persistence / publishing collaborators:
//
//	queue, err := reservationqueue.NewReservationQueue(copyID)
//	if err != nil {
//		// handle error
//	}
//
//	err = queue.Place(reservationID, readerID, reservationqueue.Vip, now.Add(48*time.Hour), now)
//	notifications := queue.DrainNotifications()
//
// The engine never reads the wall clock and never blocks; all timestamps are
// supplied by the caller. A ReservationQueue is not safe for concurrent use, the
// orchestrating layer serializes all operations per copy.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package reservationqueue
