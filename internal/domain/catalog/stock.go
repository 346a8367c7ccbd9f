package catalog

import (
	"fmt"

	"github.com/google/uuid"
)

// OutOfStockError indicates a tracked item cannot cover the requested
// quantity. ItemName is already resolved to a customer-facing label.
type OutOfStockError struct {
	ItemID    uuid.UUID
	ItemName  string
	Requested int32
	Available int32
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("%s is out of stock: requested %d, available %d",
		e.ItemName, e.Requested, e.Available)
}

// Demand aggregates the requested quantity per catalog item across a whole
// cart. A cart may reference the same item from several lines (for example
// the same dish twice under different notes); stock accounting always sees
// the combined quantity.
type Demand map[uuid.UUID]int32

// Add records qty more units requested for the given item.
func (d Demand) Add(itemID uuid.UUID, qty int32) {
	d[itemID] += qty
}

// CheckStock verifies that every tracked item in items can cover the demand.
// Untracked items are skipped. The first shortfall is reported as an
// *OutOfStockError with the item's display name resolved in lang.
func CheckStock(items map[uuid.UUID]*Item, demand Demand, lang string) error {
	for itemID, requested := range demand {
		item, ok := items[itemID]
		if !ok || !item.Tracked() {
			continue
		}
		available := *item.StockQuantity
		if requested > available {
			return &OutOfStockError{
				ItemID:    itemID,
				ItemName:  item.DisplayName(lang),
				Requested: requested,
				Available: available,
			}
		}
	}
	return nil
}

// Decrement describes one stock mutation produced by an order commit.
// Remaining is floored at zero and SoldOut becomes true exactly when the
// counter hits zero. The sold-out flag is a one-way ratchet here: an already
// sold-out item never has the flag cleared by this path.
type Decrement struct {
	ItemID    uuid.UUID
	Remaining int32
	SoldOut   bool
}

// PlanDecrements computes the post-commit stock state for every tracked item
// in the demand. It assumes CheckStock already passed; the floor at zero is
// kept regardless so the counter can never go negative.
func PlanDecrements(items map[uuid.UUID]*Item, demand Demand) []Decrement {
	decs := make([]Decrement, 0, len(demand))
	for itemID, requested := range demand {
		item, ok := items[itemID]
		if !ok || !item.Tracked() {
			continue
		}
		remaining := *item.StockQuantity - requested
		if remaining < 0 {
			remaining = 0
		}
		decs = append(decs, Decrement{
			ItemID:    itemID,
			Remaining: remaining,
			SoldOut:   item.SoldOut || remaining == 0,
		})
	}
	return decs
}
