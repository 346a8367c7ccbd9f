package order

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/menuflow/menuflow/internal/domain/menu"
)

// Sentinel errors for order validation.
var (
	// ErrNotFound is returned when an order does not exist or the caller
	// does not own its menu. The two cases share one error so existence is
	// never leaked to non-owners.
	ErrNotFound = errors.New("order not found")

	ErrEmptyCart    = errors.New("cart must contain at least one line")
	ErrCartTooLarge = errors.New("cart exceeds the maximum number of lines")
	ErrOutOfRadius  = errors.New("delivery address is outside the delivery area")
)

// InvalidQuantityError indicates a cart line quantity outside [MinLineQty, MaxLineQty].
type InvalidQuantityError struct {
	Line     int
	Quantity int32
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("line %d: quantity %d must be between %d and %d",
		e.Line, e.Quantity, MinLineQty, MaxLineQty)
}

// OrderTypeDisabledError indicates the menu does not accept the requested
// order type.
type OrderTypeDisabledError struct {
	OrderType menu.OrderType
}

func (e *OrderTypeDisabledError) Error() string {
	return fmt.Sprintf("order type %q is not enabled for this menu", e.OrderType)
}

// MissingFieldError indicates a field the requested order type requires was
// not provided.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is required for this order type", e.Field)
}

// MinOrderAmountError indicates the validated subtotal is below the menu's
// configured minimum.
type MinOrderAmountError struct {
	Minimum  int64
	Subtotal int64
}

func (e *MinOrderAmountError) Error() string {
	return fmt.Sprintf("order subtotal %d is below the minimum order amount %d",
		e.Subtotal, e.Minimum)
}

// InvalidTransitionError indicates a status change the state machine forbids.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %q to %q", e.From, e.To)
}
