//go:build integration

// Package integration exercises the repository layer against a real
// PostgreSQL instance started via testcontainers.
package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/menuflow/menuflow/internal/repository"
)

var pool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("menuflow"),
		tcpostgres.WithUsername("menuflow"),
		tcpostgres.WithPassword("menuflow"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("start postgres container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("container connection string: %v", err)
	}

	pool, err = repository.NewPool(ctx, connStr)
	if err != nil {
		log.Fatalf("create pool: %v", err)
	}
	if err := repository.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	code := m.Run()

	pool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

// seedMenu creates a published menu owned by ownerID and returns its ID.
func seedMenu(t *testing.T, ownerID uuid.UUID) uuid.UUID {
	t.Helper()

	menuID := uuid.New()
	writer := repository.NewCatalogWriter(pool)
	require.NoError(t, writer.UpsertMenu(context.Background(), repository.UpsertMenuParams{
		ID:                menuID,
		UserID:            ownerID,
		Name:              "Integration Trattoria",
		Currency:          "EUR",
		EnabledOrderTypes: []string{"dine_in", "pickup", "delivery"},
		DeliveryFee:       250,
		IsPublished:       true,
	}))
	return menuID
}

// seedItem creates a catalog item on the menu; stock < 0 means untracked.
func seedItem(t *testing.T, menuID uuid.UUID, price int64, stock int32) uuid.UUID {
	t.Helper()

	itemID := uuid.New()
	params := repository.UpsertItemParams{
		ID:     itemID,
		MenuID: menuID,
		Name:   "Pizza",
		Price:  price,
	}
	if stock >= 0 {
		params.TrackInventory = true
		params.StockQuantity = &stock
	}
	writer := repository.NewCatalogWriter(pool)
	require.NoError(t, writer.UpsertItem(context.Background(), params))
	return itemID
}
