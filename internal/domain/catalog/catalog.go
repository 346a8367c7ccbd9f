package catalog

import (
	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// ErrItemNotFound is returned when a referenced catalog item does not exist
// on the target menu.
var ErrItemNotFound = errors.New("catalog item not found")

// fallbackLabel is used in customer-facing messages for items without any
// usable display name.
const fallbackLabel = "item"

// Item is a sellable catalog entry. Price is authoritative and always in
// minor currency units. StockQuantity is nil for untracked items.
type Item struct {
	ID     uuid.UUID
	MenuID uuid.UUID
	Name   string

	// Translations maps a language code to a localized display name.
	Translations map[string]string

	Price          int64
	TrackInventory bool
	StockQuantity  *int32
	SoldOut        bool
}

// Tracked reports whether the item participates in stock accounting.
// Items with inventory tracking disabled or a nil counter have unlimited
// availability.
func (i *Item) Tracked() bool {
	return i.TrackInventory && i.StockQuantity != nil
}

// DisplayName resolves a customer-facing label for the item: the requested
// language translation when present, then any translation, then the raw name,
// then a generic fallback.
func (i *Item) DisplayName(lang string) string {
	if name, ok := i.Translations[lang]; ok && name != "" {
		return name
	}
	for _, name := range i.Translations {
		if name != "" {
			return name
		}
	}
	if i.Name != "" {
		return i.Name
	}
	return fallbackLabel
}

// Variant is a purchasable variation of an item. A non-nil Price overrides
// the parent item's price.
type Variant struct {
	ID     uuid.UUID
	ItemID uuid.UUID
	Name   string
	Price  *int64
}
