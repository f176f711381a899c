// Package releaseactive implements the Release Active Loan use case.
//
// When the copy comes back, the active holder is cleared and the head of the queue, if any,
// is notified that it may now be activated. Releasing a reservation that is not active is idempotent.
package releaseactive
