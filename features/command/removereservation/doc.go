// Package removereservation implements the Remove Reservation use case.
//
// A waiting reservation leaves the queue on request of the reader, the staff or the system.
// Removing a reservation that is not waiting is idempotent. The active holder cannot be removed,
// it has to be released.
package removereservation
