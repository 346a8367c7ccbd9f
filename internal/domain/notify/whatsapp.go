package notify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-faster/errors"

	"github.com/menuflow/menuflow/internal/domain/loyalty"
	"github.com/menuflow/menuflow/internal/domain/menu"
	"github.com/menuflow/menuflow/internal/domain/order"
)

// ErrNoPhone is returned when a notify link is requested without a phone
// number to address it to.
var ErrNoPhone = errors.New("no notification phone configured")

// WhatsAppLinker builds wa.me deep links with a pre-filled order summary so
// the restaurant owner gets the new order as a ready-to-open chat message.
type WhatsAppLinker struct{}

// NewWhatsAppLinker creates a WhatsAppLinker.
func NewWhatsAppLinker() *WhatsAppLinker {
	return &WhatsAppLinker{}
}

var _ order.LinkBuilder = (*WhatsAppLinker)(nil)

// OrderLink renders the order summary into a https://wa.me/ URL for the
// given phone number.
func (l *WhatsAppLinker) OrderLink(phone string, o *order.Order) (string, error) {
	normalized := strings.TrimPrefix(loyalty.NormalizePhone(phone), "+")
	if normalized == "" {
		return "", ErrNoPhone
	}

	var b strings.Builder
	fmt.Fprintf(&b, "New order #%s (%s)\n", o.Number, orderTypeLabel(o.OrderType))
	for _, item := range o.Items {
		fmt.Fprintf(&b, "%dx %s: %s\n", item.Quantity, item.DisplayName, formatAmount(item.TotalPrice, o.Currency))
	}
	if o.DeliveryFee > 0 {
		fmt.Fprintf(&b, "Delivery fee: %s\n", formatAmount(o.DeliveryFee, o.Currency))
	}
	fmt.Fprintf(&b, "Total: %s\n", formatAmount(o.TotalAmount, o.Currency))
	if o.CustomerName != "" {
		fmt.Fprintf(&b, "Customer: %s\n", o.CustomerName)
	}
	if o.TableNumber != "" {
		fmt.Fprintf(&b, "Table: %s\n", o.TableNumber)
	}
	if o.DeliveryAddress != "" {
		fmt.Fprintf(&b, "Address: %s\n", o.DeliveryAddress)
	}

	return "https://wa.me/" + normalized + "?text=" + url.QueryEscape(strings.TrimRight(b.String(), "\n")), nil
}

func orderTypeLabel(t menu.OrderType) string {
	switch t {
	case menu.OrderTypeDineIn:
		return "dine-in"
	case menu.OrderTypePickup:
		return "pickup"
	case menu.OrderTypeDelivery:
		return "delivery"
	}
	return string(t)
}

// formatAmount renders minor units as a decimal amount with the currency
// code, e.g. 3500 EUR -> "35.00 EUR".
func formatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, currency)
}
