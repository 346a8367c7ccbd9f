//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menuflow/menuflow/internal/domain/catalog"
	"github.com/menuflow/menuflow/internal/domain/menu"
	"github.com/menuflow/menuflow/internal/domain/order"
	"github.com/menuflow/menuflow/internal/repository"
)

func placeOrder(t *testing.T, store *repository.OrderStore, menuID, itemID uuid.UUID, qty int32) (*order.Order, error) {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC()
	o := &order.Order{
		ID:            uuid.New(),
		MenuID:        menuID,
		Number:        order.NewNumber(),
		Status:        order.StatusPending,
		OrderType:     menu.OrderTypeDineIn,
		Currency:      "EUR",
		PaymentMethod: order.PaymentCash,
		PaymentStatus: order.PaymentStatusUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := store.WithinTx(ctx, func(ctx context.Context, tx order.Tx) error {
		items, err := tx.ItemsForUpdate(ctx, menuID, []uuid.UUID{itemID})
		if err != nil {
			return err
		}

		demand := catalog.Demand{itemID: qty}
		if err := catalog.CheckStock(items, demand, "en"); err != nil {
			return err
		}

		item := items[itemID]
		o.Subtotal = item.Price * int64(qty)
		o.TotalAmount = o.Subtotal
		o.Items = []order.Item{{
			ID:          uuid.New(),
			OrderID:     o.ID,
			ItemID:      &itemID,
			DisplayName: item.Name,
			Quantity:    qty,
			UnitPrice:   item.Price,
			TotalPrice:  o.Subtotal,
		}}

		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}
		return tx.ApplyDecrements(ctx, catalog.PlanDecrements(items, demand))
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func TestOrderCommit_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	menuID := seedMenu(t, ownerID)
	itemID := seedItem(t, menuID, 850, 10)
	store := repository.NewOrderStore(pool)

	placed, err := placeOrder(t, store, menuID, itemID, 2)
	require.NoError(t, err)

	got, err := store.GetOwned(ctx, placed.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, placed.Number, got.Number)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, int64(1700), got.Subtotal)

	items, err := store.ItemsByOrder(ctx, placed.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int32(2), items[0].Quantity)
	assert.Equal(t, int64(850), items[0].UnitPrice)
}

func TestOrderCommit_DecrementsStock(t *testing.T) {
	ctx := context.Background()
	menuID := seedMenu(t, uuid.New())
	itemID := seedItem(t, menuID, 500, 3)
	store := repository.NewOrderStore(pool)

	_, err := placeOrder(t, store, menuID, itemID, 3)
	require.NoError(t, err)

	var (
		remaining int32
		soldOut   bool
	)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT stock_quantity, sold_out FROM catalog_items WHERE id = $1`, itemID,
	).Scan(&remaining, &soldOut))
	assert.Equal(t, int32(0), remaining)
	assert.True(t, soldOut)
}

func TestOrderCommit_OutOfStockRollsBack(t *testing.T) {
	ctx := context.Background()
	menuID := seedMenu(t, uuid.New())
	itemID := seedItem(t, menuID, 500, 1)
	store := repository.NewOrderStore(pool)

	_, err := placeOrder(t, store, menuID, itemID, 2)

	var oos *catalog.OutOfStockError
	require.ErrorAs(t, err, &oos)

	var orderCount int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE menu_id = $1`, menuID,
	).Scan(&orderCount))
	assert.Zero(t, orderCount)

	var remaining int32
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT stock_quantity FROM catalog_items WHERE id = $1`, itemID,
	).Scan(&remaining))
	assert.Equal(t, int32(1), remaining)
}

func TestOrderCommit_ConcurrentOrdersNeverOversell(t *testing.T) {
	ctx := context.Background()
	menuID := seedMenu(t, uuid.New())
	itemID := seedItem(t, menuID, 500, 5)
	store := repository.NewOrderStore(pool)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := placeOrder(t, store, menuID, itemID, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Exactly the available stock sells; the row lock serializes the rest.
	assert.Equal(t, 5, succeeded)

	var remaining int32
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT stock_quantity FROM catalog_items WHERE id = $1`, itemID,
	).Scan(&remaining))
	assert.Equal(t, int32(0), remaining)
}

func TestGetOwned_ForeignOwnerGetsNotFound(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	menuID := seedMenu(t, ownerID)
	itemID := seedItem(t, menuID, 500, -1)
	store := repository.NewOrderStore(pool)

	placed, err := placeOrder(t, store, menuID, itemID, 1)
	require.NoError(t, err)

	_, err = store.GetOwned(ctx, placed.ID, uuid.New())
	require.ErrorIs(t, err, order.ErrNotFound)

	_, err = store.GetOwned(ctx, uuid.New(), ownerID)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestUpdateStatus_ChangedSemantics(t *testing.T) {
	ctx := context.Background()
	menuID := seedMenu(t, uuid.New())
	itemID := seedItem(t, menuID, 500, -1)
	store := repository.NewOrderStore(pool)

	placed, err := placeOrder(t, store, menuID, itemID, 1)
	require.NoError(t, err)

	now := time.Now().UTC()
	updated, changed, err := store.UpdateStatus(ctx, placed.ID, order.StatusConfirmed, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, order.StatusConfirmed, updated.Status)
	require.NotNil(t, updated.ConfirmedAt)
	assert.Nil(t, updated.PreparingAt)

	// Re-applying the same status reports changed = false and keeps the
	// original timestamp.
	again, changed, err := store.UpdateStatus(ctx, placed.ID, order.StatusConfirmed, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
	require.NotNil(t, again.ConfirmedAt)
	assert.WithinDuration(t, *updated.ConfirmedAt, *again.ConfirmedAt, time.Second)
}

func TestUpdateStatus_UnknownOrder(t *testing.T) {
	store := repository.NewOrderStore(pool)

	_, _, err := store.UpdateStatus(context.Background(), uuid.New(), order.StatusConfirmed, time.Now().UTC())
	require.ErrorIs(t, err, order.ErrNotFound)
}
