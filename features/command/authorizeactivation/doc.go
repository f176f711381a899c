// Package authorizeactivation implements the Authorize Loan Activation use case.
//
// The head of a queue becomes the active holder of the copy, provided no loan is active yet,
// neither inside the queue nor according to the external loan checker, and its wait deadline
// has not passed. Authorizing the reservation that already is the active holder is idempotent.
package authorizeactivation
