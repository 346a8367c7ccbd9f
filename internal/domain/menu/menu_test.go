package menu

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func nd(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func berlinMenu() *Menu {
	return &Menu{
		RestaurantLat:    nd("52.520008"),
		RestaurantLng:    nd("13.404954"),
		DeliveryRadiusKm: nd("5.00"),
	}
}

func TestAcceptsOrderType(t *testing.T) {
	m := &Menu{EnabledOrderTypes: []OrderType{OrderTypeDineIn, OrderTypePickup}}

	assert.True(t, m.AcceptsOrderType(OrderTypeDineIn))
	assert.True(t, m.AcceptsOrderType(OrderTypePickup))
	assert.False(t, m.AcceptsOrderType(OrderTypeDelivery))
}

func TestOrderTypeValid(t *testing.T) {
	assert.True(t, OrderTypeDineIn.Valid())
	assert.True(t, OrderTypeDelivery.Valid())
	assert.False(t, OrderType("drive_through").Valid())
	assert.False(t, OrderType("").Valid())
}

func TestWithinDeliveryRadius(t *testing.T) {
	m := berlinMenu()

	// Brandenburg Gate, roughly 2 km from the configured point.
	assert.True(t, m.WithinDeliveryRadius(52.516275, 13.377704))

	// Potsdam is well beyond 5 km.
	assert.False(t, m.WithinDeliveryRadius(52.390569, 13.064473))

	// Munich is several hundred km away.
	assert.False(t, m.WithinDeliveryRadius(48.137154, 11.576124))
}

func TestWithinDeliveryRadius_NoGeometryAcceptsAll(t *testing.T) {
	tests := []struct {
		name string
		m    *Menu
	}{
		{"no coordinates", &Menu{DeliveryRadiusKm: nd("5.00")}},
		{"no radius", &Menu{RestaurantLat: nd("52.52"), RestaurantLng: nd("13.40")}},
		{"nothing configured", &Menu{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.m.WithinDeliveryRadius(48.137154, 11.576124))
		})
	}
}

func TestHasPickupPoint(t *testing.T) {
	assert.True(t, berlinMenu().HasPickupPoint())
	assert.False(t, (&Menu{RestaurantLat: nd("52.52")}).HasPickupPoint())
	assert.False(t, (&Menu{}).HasPickupPoint())
}
