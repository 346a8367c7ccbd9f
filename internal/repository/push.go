package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/menuflow/menuflow/internal/domain/notify"
)

const listSubscriptionsSQL = `SELECT id, order_id, endpoint, p256dh, auth
	FROM push_subscriptions WHERE order_id = $1`

var _ notify.SubscriptionRepository = (*PushRepository)(nil)

// PushRepository implements notify.SubscriptionRepository backed by PostgreSQL.
type PushRepository struct {
	pool *pgxpool.Pool
}

// NewPushRepository returns a PushRepository that uses the given pool.
func NewPushRepository(pool *pgxpool.Pool) *PushRepository {
	return &PushRepository{pool: pool}
}

// ListByOrder returns every push subscription registered on an order.
func (r *PushRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]notify.Subscription, error) {
	rows, err := r.pool.Query(ctx, listSubscriptionsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions for order %q: %w", orderID, err)
	}
	return pgx.CollectRows(rows, scanSubscription)
}

func scanSubscription(row pgx.CollectableRow) (notify.Subscription, error) {
	var s notify.Subscription
	err := row.Scan(&s.ID, &s.OrderID, &s.Endpoint, &s.P256dh, &s.Auth)
	return s, err
}
