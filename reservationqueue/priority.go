package reservationqueue

import "errors"

// ErrUnknownPriorityLevel is returned for priority levels outside the closed set.
var ErrUnknownPriorityLevel = errors.New("unknown priority level")

// PriorityLevel ranks waiting reservations. A lower value is served first.
type PriorityLevel int

const (
	// Staff members are served before everybody else.
	Staff PriorityLevel = iota

	// Vip readers are served before regular readers.
	Vip

	// Regular readers are served last.
	Regular
)

const (
	priorityStaff   = "Staff"
	priorityVip     = "Vip"
	priorityRegular = "Regular"
)

// IsValid reports whether p is one of the known priority levels.
func (p PriorityLevel) IsValid() bool {
	return p >= Staff && p <= Regular
}

// String provides a string representation of PriorityLevel for notifications and logging.
func (p PriorityLevel) String() string {
	switch p {
	case Staff:
		return priorityStaff
	case Vip:
		return priorityVip
	case Regular:
		return priorityRegular
	default:
		return "unknown"
	}
}

// PriorityLevelFrom parses the string representation produced by PriorityLevel.String.
func PriorityLevelFrom(s string) (PriorityLevel, error) {
	switch s {
	case priorityStaff:
		return Staff, nil
	case priorityVip:
		return Vip, nil
	case priorityRegular:
		return Regular, nil
	default:
		return 0, ErrUnknownPriorityLevel
	}
}

// outranks reports whether p is served strictly before other.
func (p PriorityLevel) outranks(other PriorityLevel) bool {
	return p < other
}
