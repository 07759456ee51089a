package order

import "fmt"

// Status enumerates the order lifecycle states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipping   Status = "shipping"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// transitions is the full table of legal status changes. Delivered and
// cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipping, StatusCancelled},
	StatusShipping:   {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// IllegalTransitionError indicates an attempted status change not present in
// the transition table.
type IllegalTransitionError struct {
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal order transition from %s to %s", e.From, e.To)
}

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusProcessing, StatusShipping, StatusDelivered, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

// Terminal reports whether no transition leads out of the status.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether the status change is in the table.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// transition mutates the order's status after checking the table.
func (o *Order) transition(next Status) error {
	if !o.Status.CanTransitionTo(next) {
		return &IllegalTransitionError{From: o.Status, To: next}
	}
	o.Status = next
	return nil
}
