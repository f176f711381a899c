package reservationqueue

import "github.com/google/uuid"

// LoanPolicy answers whether the copy already has an active loan outside of this queue.
type LoanPolicy interface {
	HasActiveLoan(resourceID uuid.UUID) bool
}

// LoanPolicyFunc adapts a plain function to the LoanPolicy interface.
type LoanPolicyFunc func(resourceID uuid.UUID) bool

// HasActiveLoan calls f(resourceID).
func (f LoanPolicyFunc) HasActiveLoan(resourceID uuid.UUID) bool {
	return f(resourceID)
}
