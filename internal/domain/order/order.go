package order

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"

	"github.com/menuflow/menuflow/internal/domain/menu"
)

// Cart limits enforced on every submitted order.
const (
	MaxCartLines = 50
	MinLineQty   = 1
	MaxLineQty   = 99
)

// PaymentMethod is how the customer intends to pay. The platform only tracks
// the label; actual capture happens outside the system.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// PaymentStatus is the settlement label attached to orders and delivery
// requests.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Order is the durable record produced by a committed cart. It is created
// atomically with its items and never partially persisted; items are
// immutable once written.
type Order struct {
	ID     uuid.UUID
	MenuID uuid.UUID
	Number string

	Status    Status
	OrderType menu.OrderType

	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	TableNumber     string
	Note            string

	Currency    string
	Subtotal    int64
	DeliveryFee int64
	TotalAmount int64

	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus

	ConfirmedAt *time.Time
	PreparingAt *time.Time
	ReadyAt     *time.Time
	CompletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Items []Item
}

// Item is one committed order line. UnitPrice and TotalPrice reflect
// server-validated prices, never the client-submitted ones.
type Item struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ItemID      *uuid.UUID
	VariantID   *uuid.UUID
	DisplayName string
	Quantity    int32
	UnitPrice   int64
	TotalPrice  int64
}

// numberAlphabet is Crockford base32: no I, L, O, U to keep codes readable
// over the phone.
const numberAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// NewNumber generates a short human-readable order code for receipts and
// notification messages. Not unique by construction; the orders table keeps
// the UUID as the real identifier.
func NewNumber() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// time-derived code rather than panic in the order path.
		n := time.Now().UnixNano()
		for i := range b {
			b[i] = byte(n >> (i * 8))
		}
	}
	for i := range b {
		b[i] = numberAlphabet[int(b[i])%len(numberAlphabet)]
	}
	return string(b[:])
}
