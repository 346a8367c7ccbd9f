package menu

import (
	"context"
	"math"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a menu does not exist or is not published.
// The two cases are deliberately indistinguishable to callers.
var ErrNotFound = errors.New("menu not found")

// OrderType enumerates the fulfillment channels a menu can accept orders on.
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypePickup   OrderType = "pickup"
	OrderTypeDelivery OrderType = "delivery"
)

// Valid reports whether t is one of the known order types.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeDineIn, OrderTypePickup, OrderTypeDelivery:
		return true
	}
	return false
}

// Menu is the tenant boundary: every order belongs to exactly one menu, and
// the menu's owner is the only identity allowed to manage its orders.
type Menu struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Name     string
	Currency string

	EnabledOrderTypes []OrderType
	DeliveryFee       int64
	MinOrderAmount    int64
	IsPublished       bool

	NotificationsEnabled bool
	NotifyPhone          string

	// Delivery geometry. Coordinates and radius are optional; when any of
	// them is missing the radius check is skipped.
	RestaurantLat    decimal.NullDecimal
	RestaurantLng    decimal.NullDecimal
	DeliveryRadiusKm decimal.NullDecimal
}

// AcceptsOrderType reports whether the menu has the given order type enabled.
func (m *Menu) AcceptsOrderType(t OrderType) bool {
	for _, enabled := range m.EnabledOrderTypes {
		if enabled == t {
			return true
		}
	}
	return false
}

// HasPickupPoint reports whether the menu carries restaurant coordinates.
func (m *Menu) HasPickupPoint() bool {
	return m.RestaurantLat.Valid && m.RestaurantLng.Valid
}

// WithinDeliveryRadius reports whether the given customer coordinates lie
// within the menu's configured delivery radius using straight-line distance.
// Menus without coordinates or without a radius accept any location.
func (m *Menu) WithinDeliveryRadius(lat, lng float64) bool {
	if !m.HasPickupPoint() || !m.DeliveryRadiusKm.Valid {
		return true
	}
	d := haversineKm(
		m.RestaurantLat.Decimal.InexactFloat64(),
		m.RestaurantLng.Decimal.InexactFloat64(),
		lat, lng,
	)
	return d <= m.DeliveryRadiusKm.Decimal.InexactFloat64()
}

// haversineKm returns the great-circle distance between two points in km.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0

	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// Repository defines read operations for menus.
type Repository interface {
	// GetPublished returns the menu only when it exists and is published;
	// otherwise ErrNotFound.
	GetPublished(ctx context.Context, id uuid.UUID) (*Menu, error)
	// GetByID returns the menu regardless of publication state.
	GetByID(ctx context.Context, id uuid.UUID) (*Menu, error)
}
