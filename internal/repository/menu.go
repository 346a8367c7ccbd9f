package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/menuflow/menuflow/internal/domain/menu"
)

const (
	menuColumns = `id, user_id, name, currency, enabled_order_types, delivery_fee,
		min_order_amount, is_published, notifications_enabled, notify_phone,
		restaurant_lat, restaurant_lng, delivery_radius_km`

	getPublishedMenuSQL = `SELECT ` + menuColumns + `
		FROM menus WHERE id = $1 AND is_published = TRUE`

	getMenuByIDSQL = `SELECT ` + menuColumns + ` FROM menus WHERE id = $1`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// GetPublished returns the menu only when it exists and is published.
// Unpublished and missing menus both map to menu.ErrNotFound.
func (r *MenuRepository) GetPublished(ctx context.Context, id uuid.UUID) (*menu.Menu, error) {
	return r.get(ctx, getPublishedMenuSQL, id)
}

// GetByID returns the menu regardless of publication state.
func (r *MenuRepository) GetByID(ctx context.Context, id uuid.UUID) (*menu.Menu, error) {
	return r.get(ctx, getMenuByIDSQL, id)
}

func (r *MenuRepository) get(ctx context.Context, sql string, id uuid.UUID) (*menu.Menu, error) {
	rows, err := r.pool.Query(ctx, sql, id)
	if err != nil {
		return nil, fmt.Errorf("getting menu %q: %w", id, err)
	}

	m, err := pgx.CollectExactlyOneRow(rows, scanMenu)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("getting menu %q: %w", id, err)
	}
	return &m, nil
}

func scanMenu(row pgx.CollectableRow) (menu.Menu, error) {
	var (
		m     menu.Menu
		types []string
	)
	err := row.Scan(
		&m.ID, &m.UserID, &m.Name, &m.Currency, &types, &m.DeliveryFee,
		&m.MinOrderAmount, &m.IsPublished, &m.NotificationsEnabled, &m.NotifyPhone,
		&m.RestaurantLat, &m.RestaurantLng, &m.DeliveryRadiusKm,
	)
	m.EnabledOrderTypes = make([]menu.OrderType, len(types))
	for i, t := range types {
		m.EnabledOrderTypes[i] = menu.OrderType(t)
	}
	return m, err
}
