//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menuflow/menuflow/internal/domain/delivery"
	"github.com/menuflow/menuflow/internal/domain/notify"
	"github.com/menuflow/menuflow/internal/domain/order"
	"github.com/menuflow/menuflow/internal/repository"
)

func TestDeliveryRequest_Create(t *testing.T) {
	ctx := context.Background()
	menuID := seedMenu(t, uuid.New())
	itemID := seedItem(t, menuID, 500, -1)
	store := repository.NewOrderStore(pool)
	repo := repository.NewDeliveryRepository(pool)

	placed, err := placeOrder(t, store, menuID, itemID, 1)
	require.NoError(t, err)

	req := &delivery.Request{
		ID:            uuid.New(),
		OrderID:       placed.ID,
		PickupLat:     decimal.NewNullDecimal(decimal.RequireFromString("52.5200")),
		PickupLng:     decimal.NewNullDecimal(decimal.RequireFromString("13.4050")),
		Address:       "Unter den Linden 1, Berlin",
		DriverEarning: 200,
		PaymentStatus: order.PaymentStatusPending,
		Status:        delivery.RequestAvailable,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, req))

	var (
		address string
		earning int64
		status  string
	)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT address, driver_earning, status FROM delivery_requests WHERE order_id = $1`,
		placed.ID,
	).Scan(&address, &earning, &status))
	assert.Equal(t, req.Address, address)
	assert.Equal(t, int64(200), earning)
	assert.Equal(t, "available", status)
}

func TestDeliveryRequest_OnePerOrder(t *testing.T) {
	ctx := context.Background()
	menuID := seedMenu(t, uuid.New())
	itemID := seedItem(t, menuID, 500, -1)
	repo := repository.NewDeliveryRepository(pool)

	placed, err := placeOrder(t, repository.NewOrderStore(pool), menuID, itemID, 1)
	require.NoError(t, err)

	req := &delivery.Request{
		ID:            uuid.New(),
		OrderID:       placed.ID,
		Address:       "Somewhere 1",
		DriverEarning: 200,
		PaymentStatus: order.PaymentStatusUnpaid,
		Status:        delivery.RequestAvailable,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, req))

	dup := *req
	dup.ID = uuid.New()
	require.Error(t, repo.Create(ctx, &dup))
}

func TestPushSubscriptions_ListByOrder(t *testing.T) {
	ctx := context.Background()
	menuID := seedMenu(t, uuid.New())
	itemID := seedItem(t, menuID, 500, -1)
	repo := repository.NewPushRepository(pool)

	placed, err := placeOrder(t, repository.NewOrderStore(pool), menuID, itemID, 1)
	require.NoError(t, err)

	subs, err := repo.ListByOrder(ctx, placed.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)

	// Subscriptions are registered by the tracking page; simulate one.
	subID := uuid.New()
	_, err = pool.Exec(ctx,
		`INSERT INTO push_subscriptions (id, order_id, endpoint, p256dh, auth)
		 VALUES ($1, $2, $3, $4, $5)`,
		subID, placed.ID, "https://push.example.com/sub/1", "p256dh-key", "auth-secret",
	)
	require.NoError(t, err)

	subs, err = repo.ListByOrder(ctx, placed.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, notify.Subscription{
		ID:       subID,
		OrderID:  placed.ID,
		Endpoint: "https://push.example.com/sub/1",
		P256dh:   "p256dh-key",
		Auth:     "auth-secret",
	}, subs[0])
}
