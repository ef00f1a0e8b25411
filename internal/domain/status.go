package domain

import "fmt"

type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no-show"
	StatusRejected  Status = "rejected"
)

// ParseStatus validates s against the known status set.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// transitions holds the legal status edges. Terminal statuses have no
// outgoing edges; a hard delete is allowed from any status and bypasses
// this table entirely.
var transitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusScheduled: true,
		StatusRejected:  true,
	},
	StatusScheduled: {
		StatusCancelled: true,
		StatusCompleted: true,
		StatusNoShow:    true,
	},
}

// CanTransition reports whether from -> to is a legal status edge.
func (from Status) CanTransition(to Status) bool {
	return transitions[from][to]
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow, StatusRejected:
		return true
	}
	return false
}

// BlocksBooking reports whether an appointment in this status occupies its
// slot for conflict detection. Only confirmed bookings block; pending
// requests, cancellations and finished appointments do not.
func (s Status) BlocksBooking() bool {
	return s == StatusScheduled
}
