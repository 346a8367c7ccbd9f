package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/menuflow/menuflow/internal/domain/delivery"
)

const createDeliveryRequestSQL = `INSERT INTO delivery_requests (id, order_id,
		pickup_lat, pickup_lng, address, driver_earning, payment_status, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

var _ delivery.Repository = (*DeliveryRepository)(nil)

// DeliveryRepository implements delivery.Repository backed by PostgreSQL.
type DeliveryRepository struct {
	pool *pgxpool.Pool
}

// NewDeliveryRepository returns a DeliveryRepository that uses the given pool.
func NewDeliveryRepository(pool *pgxpool.Pool) *DeliveryRepository {
	return &DeliveryRepository{pool: pool}
}

// Create persists a delivery request. The UNIQUE constraint on order_id
// guarantees at most one request per order.
func (r *DeliveryRepository) Create(ctx context.Context, req *delivery.Request) error {
	_, err := r.pool.Exec(ctx, createDeliveryRequestSQL,
		req.ID, req.OrderID, req.PickupLat, req.PickupLng, req.Address,
		req.DriverEarning, req.PaymentStatus, req.Status, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating delivery request for order %q: %w", req.OrderID, err)
	}
	return nil
}
