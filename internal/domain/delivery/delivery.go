// Package delivery implements the fulfillment dispatcher: the best-effort
// post-commit step that turns a committed delivery order into a dispatchable
// delivery request.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/menuflow/menuflow/internal/domain/menu"
	"github.com/menuflow/menuflow/internal/domain/order"
)

// driverShare is the fraction of the delivery fee paid out to the driver.
var driverShare = decimal.NewFromFloat(0.8)

// RequestStatus is the lifecycle label on a delivery request. Only the
// initial state matters to this core; driver assignment happens elsewhere.
type RequestStatus string

const (
	RequestAvailable RequestStatus = "available"
)

// Request is the dispatch record created at most once per delivery order.
type Request struct {
	ID      uuid.UUID
	OrderID uuid.UUID

	PickupLat decimal.NullDecimal
	PickupLng decimal.NullDecimal
	Address   string

	DriverEarning int64
	PaymentStatus order.PaymentStatus
	Status        RequestStatus

	CreatedAt time.Time
}

// Repository defines persistence operations for delivery requests.
type Repository interface {
	Create(ctx context.Context, r *Request) error
}

// Dispatcher creates delivery requests for committed orders. It runs outside
// the order transaction; its failures are the submitting runner's problem,
// never the customer's.
type Dispatcher struct {
	requests Repository
}

// NewDispatcher creates a Dispatcher backed by the given repository.
func NewDispatcher(requests Repository) *Dispatcher {
	return &Dispatcher{requests: requests}
}

var _ order.Dispatcher = (*Dispatcher)(nil)

// Dispatch creates the delivery request for a committed delivery order:
// pickup coordinates copied from the menu when configured, the driver's
// share of the delivery fee, and a payment status derived from how the
// customer pays.
func (d *Dispatcher) Dispatch(ctx context.Context, o *order.Order, m *menu.Menu) error {
	r := &Request{
		ID:            uuid.New(),
		OrderID:       o.ID,
		Address:       o.DeliveryAddress,
		DriverEarning: DriverEarning(o.DeliveryFee),
		PaymentStatus: paymentStatusFor(o.PaymentMethod),
		Status:        RequestAvailable,
		CreatedAt:     time.Now().UTC(),
	}
	if m.HasPickupPoint() {
		r.PickupLat = m.RestaurantLat
		r.PickupLng = m.RestaurantLng
	}

	if err := d.requests.Create(ctx, r); err != nil {
		return fmt.Errorf("creating delivery request for order %q: %w", o.ID, err)
	}
	return nil
}

// DriverEarning computes the driver payout share of a delivery fee, rounded
// to the nearest minor unit.
func DriverEarning(deliveryFee int64) int64 {
	return decimal.NewFromInt(deliveryFee).Mul(driverShare).Round(0).IntPart()
}

// paymentStatusFor derives the delivery request's payment status from the
// order's payment method: cash is collected on handover, everything else is
// settling.
func paymentStatusFor(method order.PaymentMethod) order.PaymentStatus {
	if method == order.PaymentCash {
		return order.PaymentStatusUnpaid
	}
	return order.PaymentStatusPending
}
