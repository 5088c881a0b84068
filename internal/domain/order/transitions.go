// internal/domain/order/transitions.go
package order

var transitions = map[Status][]Status{
	StatusPendingConfirmation: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:           {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery:      {StatusDelivered, StatusCancelled},
	StatusDelivered:           {StatusPaid},
	StatusPaid:                {StatusCompleted},
	StatusCompleted:           {},
	StatusCancelled:           {},
}

// Valid checks if s is a known status
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal checks if no transition leaves s
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition checks the transition table
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AllowedTransitions lists the statuses reachable from from in one step
func AllowedTransitions(from Status) []Status {
	next := transitions[from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}
