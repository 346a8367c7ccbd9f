package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence operations the status state machine
// relies on.
type Repository interface {
	// GetOwned returns the order only when ownerID owns its menu. A missing
	// order and a foreign order both yield ErrNotFound.
	GetOwned(ctx context.Context, orderID, ownerID uuid.UUID) (*Order, error)
	// UpdateStatus sets the target status and its per-state timestamp in a
	// single conditional write. changed is false when the stored status
	// already equaled target (re-entry); the returned order reflects the
	// stored row either way.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target Status, now time.Time) (o *Order, changed bool, err error)
}

// Notifier fans a status change out to the order's push subscriptions.
type Notifier interface {
	NotifyStatus(ctx context.Context, o *Order) error
}

// LoyaltyAccruer stamps loyalty cards for a completed order.
type LoyaltyAccruer interface {
	AccrueCompleted(ctx context.Context, o *Order) error
}

// Transitioner is the status state machine: it authorizes and applies status
// transitions, then fires the per-transition side effects as detached
// best-effort tasks.
type Transitioner struct {
	orders  Repository
	pushes  Notifier
	loyalty LoyaltyAccruer
	tasks   Submitter
}

// NewTransitioner creates a Transitioner with the required dependencies.
func NewTransitioner(orders Repository, pushes Notifier, loyalty LoyaltyAccruer, tasks Submitter) *Transitioner {
	return &Transitioner{
		orders:  orders,
		pushes:  pushes,
		loyalty: loyalty,
		tasks:   tasks,
	}
}

// Transition moves the order to target on behalf of ownerID. Only the tenant
// owning the order's menu may transition it; everyone else gets ErrNotFound,
// including for orders that do not exist. Side effects run only when the
// stored status actually changed, so re-invoking a transition is a harmless
// overwrite rather than a double-fired effect.
func (t *Transitioner) Transition(ctx context.Context, ownerID, orderID uuid.UUID, target Status) (*Order, error) {
	if !target.Valid() || target == StatusPending {
		return nil, &InvalidTransitionError{To: target}
	}

	current, err := t.orders.GetOwned(ctx, orderID, ownerID)
	if err != nil {
		return nil, err
	}

	if !current.Status.CanTransitionTo(target) {
		return nil, &InvalidTransitionError{From: current.Status, To: target}
	}

	updated, changed, err := t.orders.UpdateStatus(ctx, orderID, target, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if changed {
		t.fireEffects(updated)
	}
	return updated, nil
}

// fireEffects submits the post-transition side effects. Each effect is an
// independent task: one failing never blocks the others, and none of them
// can affect the already-persisted status.
func (t *Transitioner) fireEffects(o *Order) {
	snapshot := *o

	t.tasks.Submit("status-push", func(ctx context.Context) error {
		return t.pushes.NotifyStatus(ctx, &snapshot)
	})

	if o.Status == StatusCompleted && o.CustomerPhone != "" {
		t.tasks.Submit("loyalty-accrual", func(ctx context.Context) error {
			return t.loyalty.AccrueCompleted(ctx, &snapshot)
		})
	}
}
