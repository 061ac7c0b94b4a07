// Package booking holds the booking lifecycle: the status graph and the
// rules that decide which parts of an update each party may apply.
package booking

import "fmt"

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions is the full status graph.  Terminal states map to an empty slice.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether the graph allows s -> target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Sources lists the statuses from which target is reachable, in graph
// order.  It is empty for pending and for unknown statuses.
func Sources(target Status) []Status {
	var out []Status
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled} {
		if s.CanTransitionTo(target) {
			out = append(out, s)
		}
	}
	return out
}

// IsTerminal reports whether no transition leaves s.  Unknown statuses are
// treated as terminal.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) String() string { return string(s) }

// ParseStatus converts a raw string, rejecting unknown values.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid booking status: %q", raw)
	}
	return s, nil
}
