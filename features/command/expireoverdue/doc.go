// Package expireoverdue implements the Expire Overdue Reservations use case.
//
// Every reservation at the head of the queue whose wait deadline lies before OccurredAt is dropped,
// until the head is a reservation that is still in time. The expiry sweeper runs this periodically.
package expireoverdue
