package reservationqueue

import "errors"

var (
	// ErrUnknownCancelReason is returned for cancel reasons outside the closed set.
	ErrUnknownCancelReason = errors.New("unknown cancel reason")

	// ErrUnknownRemovedBy is returned for removers outside the closed set.
	ErrUnknownRemovedBy = errors.New("unknown remover")
)

// CancelReason describes why a waiting reservation was taken out of the queue.
type CancelReason int

const (
	// UserCancel means the reader withdrew the reservation.
	UserCancel CancelReason = iota

	// StaffCancel means library staff canceled the reservation.
	StaffCancel

	// ReaderIneligible means the reader lost the right to borrow.
	ReaderIneligible

	// CopyWithdrawn means the copy left circulation.
	CopyWithdrawn
)

// IsValid reports whether r is one of the known cancel reasons.
func (r CancelReason) IsValid() bool {
	return r >= UserCancel && r <= CopyWithdrawn
}

// String provides a string representation of CancelReason.
func (r CancelReason) String() string {
	switch r {
	case UserCancel:
		return "UserCancel"
	case StaffCancel:
		return "StaffCancel"
	case ReaderIneligible:
		return "ReaderIneligible"
	case CopyWithdrawn:
		return "CopyWithdrawn"
	default:
		return "unknown"
	}
}

// RemovedBy identifies who requested the removal.
type RemovedBy int

const (
	// ByReader is the reader who placed the reservation.
	ByReader RemovedBy = iota

	// ByStaff is a library employee.
	ByStaff

	// BySystem is an automated process.
	BySystem
)

// IsValid reports whether b is one of the known removers.
func (b RemovedBy) IsValid() bool {
	return b >= ByReader && b <= BySystem
}

// String provides a string representation of RemovedBy.
func (b RemovedBy) String() string {
	switch b {
	case ByReader:
		return "Reader"
	case ByStaff:
		return "Staff"
	case BySystem:
		return "System"
	default:
		return "unknown"
	}
}
