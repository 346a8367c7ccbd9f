package notify

import (
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menuflow/menuflow/internal/domain/menu"
	"github.com/menuflow/menuflow/internal/domain/order"
)

func TestOrderLink(t *testing.T) {
	o := &order.Order{
		ID:           uuid.New(),
		Number:       "AB12CD",
		OrderType:    menu.OrderTypeDelivery,
		CustomerName: "Ada",
		Currency:     "EUR",
		DeliveryFee:  250,
		TotalAmount:  3750,
		Subtotal:     3500,
		DeliveryAddress: "Unter den Linden 1",
		Items: []order.Item{
			{DisplayName: "Pizza", Quantity: 2, UnitPrice: 1000, TotalPrice: 2000},
			{DisplayName: "Tiramisu", Quantity: 3, UnitPrice: 500, TotalPrice: 1500},
		},
	}

	link, err := NewWhatsAppLinker().OrderLink("+49 30 123 4567", o)
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", parsed.Host)
	assert.Equal(t, "/49301234567", parsed.Path)

	text := parsed.Query().Get("text")
	assert.Contains(t, text, "New order #AB12CD (delivery)")
	assert.Contains(t, text, "2x Pizza: 20.00 EUR")
	assert.Contains(t, text, "3x Tiramisu: 15.00 EUR")
	assert.Contains(t, text, "Delivery fee: 2.50 EUR")
	assert.Contains(t, text, "Total: 37.50 EUR")
	assert.Contains(t, text, "Customer: Ada")
	assert.Contains(t, text, "Address: Unter den Linden 1")
}

func TestOrderLink_DineInOmitsDeliveryDetails(t *testing.T) {
	o := &order.Order{
		Number:      "XY34ZW",
		OrderType:   menu.OrderTypeDineIn,
		Currency:    "EUR",
		TotalAmount: 850,
		TableNumber: "7",
		Items:       []order.Item{{DisplayName: "Pizza", Quantity: 1, TotalPrice: 850}},
	}

	link, err := NewWhatsAppLinker().OrderLink("+49301234567", o)
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	text := parsed.Query().Get("text")

	assert.Contains(t, text, "(dine-in)")
	assert.Contains(t, text, "Table: 7")
	assert.NotContains(t, text, "Delivery fee")
	assert.NotContains(t, text, "Address:")
	assert.False(t, strings.HasSuffix(text, "\n"))
}

func TestOrderLink_NoPhone(t *testing.T) {
	_, err := NewWhatsAppLinker().OrderLink("", &order.Order{})
	require.ErrorIs(t, err, ErrNoPhone)

	_, err = NewWhatsAppLinker().OrderLink("+", &order.Order{})
	require.ErrorIs(t, err, ErrNoPhone)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "35.00 EUR", formatAmount(3500, "EUR"))
	assert.Equal(t, "0.05 EUR", formatAmount(5, "EUR"))
	assert.Equal(t, "0.00 USD", formatAmount(0, "USD"))
	assert.Equal(t, "-1.50 EUR", formatAmount(-150, "EUR"))
}
