//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menuflow/menuflow/internal/domain/loyalty"
	"github.com/menuflow/menuflow/internal/repository"
)

func seedProgram(t *testing.T, menuID uuid.UUID, name string, active bool) uuid.UUID {
	t.Helper()
	programID := uuid.New()
	require.NoError(t, repository.NewCatalogWriter(pool).UpsertProgram(context.Background(), repository.UpsertProgramParams{
		ID:             programID,
		MenuID:         menuID,
		Name:           name,
		StampsRequired: 10,
		Active:         active,
	}))
	return programID
}

func TestActivePrograms_FiltersInactive(t *testing.T) {
	ctx := context.Background()
	menuID := seedMenu(t, uuid.New())
	activeID := seedProgram(t, menuID, "Coffee Card", true)
	seedProgram(t, menuID, "Retired Card", false)

	repo := repository.NewLoyaltyRepository(pool)

	programs, err := repo.ActivePrograms(ctx, menuID)
	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, activeID, programs[0].ID)
	assert.Equal(t, "Coffee Card", programs[0].Name)
	assert.Equal(t, int32(10), programs[0].StampsRequired)
}

func TestIncrementCard_UpsertSemantics(t *testing.T) {
	ctx := context.Background()
	menuID := seedMenu(t, uuid.New())
	programID := seedProgram(t, menuID, "Coffee Card", true)
	repo := repository.NewLoyaltyRepository(pool)

	card, err := repo.IncrementCard(ctx, programID, "+4915112345678")
	require.NoError(t, err)
	assert.Equal(t, int32(1), card.Stamps)
	assert.Equal(t, "+4915112345678", card.CustomerPhone)

	again, err := repo.IncrementCard(ctx, programID, "+4915112345678")
	require.NoError(t, err)
	assert.Equal(t, card.ID, again.ID)
	assert.Equal(t, int32(2), again.Stamps)

	// A different phone on the same program gets its own card.
	other, err := repo.IncrementCard(ctx, programID, "+4915199999999")
	require.NoError(t, err)
	assert.NotEqual(t, card.ID, other.ID)
	assert.Equal(t, int32(1), other.Stamps)
}

func TestAppendStamp_PersistsAuditRow(t *testing.T) {
	ctx := context.Background()
	menuID := seedMenu(t, uuid.New())
	itemID := seedItem(t, menuID, 500, -1)
	programID := seedProgram(t, menuID, "Coffee Card", true)
	repo := repository.NewLoyaltyRepository(pool)

	placed, err := placeOrder(t, repository.NewOrderStore(pool), menuID, itemID, 1)
	require.NoError(t, err)

	card, err := repo.IncrementCard(ctx, programID, "+4915112345678")
	require.NoError(t, err)

	require.NoError(t, repo.AppendStamp(ctx, &loyalty.Stamp{
		ID:        uuid.New(),
		CardID:    card.ID,
		OrderID:   placed.ID,
		CreatedAt: time.Now().UTC(),
	}))

	var count int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM loyalty_stamps WHERE card_id = $1 AND order_id = $2`,
		card.ID, placed.ID,
	).Scan(&count))
	assert.Equal(t, 1, count)
}
