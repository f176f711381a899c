// Package placereservation implements the Place Reservation use case.
//
// A reader asks to be queued for a copy. The reader classifier decides whether the reader may
// reserve at all and which priority level the reservation gets. The wait policy decides how long
// the reservation may wait at the head of the queue before it expires.
//
// Placing the same reservation twice is idempotent and writes nothing the second time.
package placereservation
