package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stock(n int32) *int32 { return &n }

func tracked(name string, qty int32) *Item {
	return &Item{
		ID:             uuid.New(),
		Name:           name,
		TrackInventory: true,
		StockQuantity:  stock(qty),
	}
}

func TestCheckStock_AggregatesDemandAcrossLines(t *testing.T) {
	item := tracked("Tiramisu", 3)
	items := map[uuid.UUID]*Item{item.ID: item}

	// Two lines of 2 for the same item exceed a stock of 3 even though each
	// line alone fits.
	demand := make(Demand)
	demand.Add(item.ID, 2)
	demand.Add(item.ID, 2)

	err := CheckStock(items, demand, "en")

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, item.ID, oos.ItemID)
	assert.Equal(t, int32(4), oos.Requested)
	assert.Equal(t, int32(3), oos.Available)
}

func TestCheckStock_ExactStockPasses(t *testing.T) {
	item := tracked("Tiramisu", 2)
	demand := Demand{item.ID: 2}

	require.NoError(t, CheckStock(map[uuid.UUID]*Item{item.ID: item}, demand, "en"))
}

func TestCheckStock_UntrackedItemsUnlimited(t *testing.T) {
	item := &Item{ID: uuid.New(), Name: "Pizza"}
	demand := Demand{item.ID: 99}

	require.NoError(t, CheckStock(map[uuid.UUID]*Item{item.ID: item}, demand, "en"))
}

func TestCheckStock_ErrorUsesTranslatedName(t *testing.T) {
	item := tracked("", 0)
	item.Translations = map[string]string{"de": "Hausgemachte Limonade"}
	demand := Demand{item.ID: 1}

	err := CheckStock(map[uuid.UUID]*Item{item.ID: item}, demand, "de")

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, "Hausgemachte Limonade", oos.ItemName)
	assert.Contains(t, oos.Error(), "Hausgemachte Limonade")
}

func TestPlanDecrements_RemainingAndSoldOut(t *testing.T) {
	toZero := tracked("A", 2)
	partial := tracked("B", 10)
	items := map[uuid.UUID]*Item{toZero.ID: toZero, partial.ID: partial}
	demand := Demand{toZero.ID: 2, partial.ID: 3}

	decs := PlanDecrements(items, demand)
	require.Len(t, decs, 2)

	byID := make(map[uuid.UUID]Decrement, len(decs))
	for _, d := range decs {
		byID[d.ItemID] = d
	}

	assert.Equal(t, int32(0), byID[toZero.ID].Remaining)
	assert.True(t, byID[toZero.ID].SoldOut)
	assert.Equal(t, int32(7), byID[partial.ID].Remaining)
	assert.False(t, byID[partial.ID].SoldOut)
}

func TestPlanDecrements_FloorsAtZero(t *testing.T) {
	item := tracked("A", 1)
	demand := Demand{item.ID: 5}

	decs := PlanDecrements(map[uuid.UUID]*Item{item.ID: item}, demand)
	require.Len(t, decs, 1)
	assert.Equal(t, int32(0), decs[0].Remaining)
	assert.True(t, decs[0].SoldOut)
}

func TestPlanDecrements_SoldOutNeverCleared(t *testing.T) {
	item := tracked("A", 10)
	item.SoldOut = true
	demand := Demand{item.ID: 1}

	decs := PlanDecrements(map[uuid.UUID]*Item{item.ID: item}, demand)
	require.Len(t, decs, 1)
	assert.True(t, decs[0].SoldOut)
}

func TestPlanDecrements_SkipsUntracked(t *testing.T) {
	item := &Item{ID: uuid.New(), Name: "Pizza"}
	demand := Demand{item.ID: 3}

	assert.Empty(t, PlanDecrements(map[uuid.UUID]*Item{item.ID: item}, demand))
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		item Item
		lang string
		want string
	}{
		{
			name: "requested language",
			item: Item{Name: "Pizza", Translations: map[string]string{"de": "Pizza Spezial"}},
			lang: "de",
			want: "Pizza Spezial",
		},
		{
			name: "falls back to any translation",
			item: Item{Translations: map[string]string{"en": "Pizza"}},
			lang: "fr",
			want: "Pizza",
		},
		{
			name: "falls back to raw name",
			item: Item{Name: "Pizza"},
			lang: "en",
			want: "Pizza",
		},
		{
			name: "generic fallback",
			item: Item{},
			lang: "en",
			want: "item",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.DisplayName(tt.lang))
		})
	}
}
