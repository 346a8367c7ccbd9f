package order

import "time"

// Status is the order lifecycle state. Orders are born pending; being set at
// creation, pending is never a legal transition target.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
		StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// next holds the forward edge of the lifecycle. Cancellation is handled
// separately: it is reachable from any non-terminal state.
var next = map[Status]Status{
	StatusPending:   StatusConfirmed,
	StatusConfirmed: StatusPreparing,
	StatusPreparing: StatusReady,
	StatusReady:     StatusCompleted,
}

// CanTransitionTo reports whether moving from s to target is legal.
// Re-entering the current state is allowed (idempotent overwrite); side
// effects are gated elsewhere on the status actually changing.
func (s Status) CanTransitionTo(target Status) bool {
	if s.Terminal() {
		return false
	}
	if target == StatusCancelled {
		return true
	}
	if target == s {
		return true
	}
	return next[s] == target
}

// Stamp records the per-state timestamp for a transition target on the
// order. Exactly one field corresponds to each of confirmed, preparing,
// ready and completed; cancelled stamps nothing beyond UpdatedAt.
func (o *Order) Stamp(target Status, now time.Time) {
	switch target {
	case StatusConfirmed:
		o.ConfirmedAt = &now
	case StatusPreparing:
		o.PreparingAt = &now
	case StatusReady:
		o.ReadyAt = &now
	case StatusCompleted:
		o.CompletedAt = &now
	}
	o.UpdatedAt = now
}
