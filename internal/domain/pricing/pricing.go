// Package pricing resolves authoritative unit prices for cart lines at order
// time. Client-submitted prices are treated as hints only: anything that
// references the catalog is re-priced from the store before settlement.
package pricing

import (
	"github.com/google/uuid"

	"github.com/menuflow/menuflow/internal/domain/catalog"
)

// Line is one cart entry as submitted by the client, before validation.
// ItemID and VariantID are nil for manually entered custom lines.
type Line struct {
	ItemID      *uuid.UUID
	VariantID   *uuid.UUID
	DisplayName string
	Quantity    int32
	// UnitPrice is the client-submitted price in minor units. Used only for
	// custom lines; otherwise silently overridden.
	UnitPrice int64
}

// ValidatedLine is a Line whose unit price has been resolved against the
// authoritative catalog and whose total has been recomputed from it.
type ValidatedLine struct {
	Line
	TotalPrice int64
}

// Result carries the validated lines and the recomputed item subtotal.
type Result struct {
	Lines    []ValidatedLine
	Subtotal int64
}

// Validate resolves the authoritative unit price for each line:
//
//   - A line referencing a catalog item takes the item's current price.
//   - A referenced variant with a non-nil price takes precedence over the
//     base item price.
//   - A line with no item reference keeps the client price as-is; there is
//     no authoritative source to check a custom line against.
//
// Totals and the subtotal are recomputed strictly after all overrides, never
// from client-submitted amounts. A referencing line whose item is missing
// from items yields catalog.ErrItemNotFound.
func Validate(lines []Line, items map[uuid.UUID]*catalog.Item, variants map[uuid.UUID]*catalog.Variant) (*Result, error) {
	validated := make([]ValidatedLine, 0, len(lines))
	var subtotal int64

	for _, line := range lines {
		unit := line.UnitPrice

		if line.ItemID != nil {
			item, ok := items[*line.ItemID]
			if !ok {
				return nil, catalog.ErrItemNotFound
			}
			unit = item.Price

			if line.VariantID != nil {
				if v, ok := variants[*line.VariantID]; ok && v.ItemID == item.ID && v.Price != nil {
					unit = *v.Price
				}
			}
		}

		line.UnitPrice = unit
		total := unit * int64(line.Quantity)
		subtotal += total

		validated = append(validated, ValidatedLine{Line: line, TotalPrice: total})
	}

	return &Result{Lines: validated, Subtotal: subtotal}, nil
}
