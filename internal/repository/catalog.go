package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	upsertMenuSQL = `INSERT INTO menus (id, user_id, name, currency, enabled_order_types,
			delivery_fee, min_order_amount, is_published, notifications_enabled, notify_phone,
			restaurant_lat, restaurant_lng, delivery_radius_km)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			currency = EXCLUDED.currency,
			enabled_order_types = EXCLUDED.enabled_order_types,
			delivery_fee = EXCLUDED.delivery_fee,
			min_order_amount = EXCLUDED.min_order_amount,
			is_published = EXCLUDED.is_published,
			notifications_enabled = EXCLUDED.notifications_enabled,
			notify_phone = EXCLUDED.notify_phone,
			restaurant_lat = EXCLUDED.restaurant_lat,
			restaurant_lng = EXCLUDED.restaurant_lng,
			delivery_radius_km = EXCLUDED.delivery_radius_km,
			updated_at = now()`

	upsertItemSQL = `INSERT INTO catalog_items (id, menu_id, name, translations, price,
			track_inventory, stock_quantity, sold_out)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			menu_id = EXCLUDED.menu_id,
			name = EXCLUDED.name,
			translations = EXCLUDED.translations,
			price = EXCLUDED.price,
			track_inventory = EXCLUDED.track_inventory,
			stock_quantity = EXCLUDED.stock_quantity,
			sold_out = EXCLUDED.sold_out,
			updated_at = now()`

	upsertVariantSQL = `INSERT INTO item_variants (id, item_id, name, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			item_id = EXCLUDED.item_id,
			name = EXCLUDED.name,
			price = EXCLUDED.price`

	upsertProgramSQL = `INSERT INTO loyalty_programs (id, menu_id, name, stamps_required, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			stamps_required = EXCLUDED.stamps_required,
			active = EXCLUDED.active`
)

// CatalogWriter performs bulk menu and catalog upserts for the ingest and
// seed commands. The API server itself only reads the catalog.
type CatalogWriter struct {
	pool *pgxpool.Pool
}

// NewCatalogWriter returns a CatalogWriter that uses the given pool.
func NewCatalogWriter(pool *pgxpool.Pool) *CatalogWriter {
	return &CatalogWriter{pool: pool}
}

// UpsertMenuParams holds one menu row for UpsertMenu.
type UpsertMenuParams struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	Name                 string
	Currency             string
	EnabledOrderTypes    []string
	DeliveryFee          int64
	MinOrderAmount       int64
	IsPublished          bool
	NotificationsEnabled bool
	NotifyPhone          string
	RestaurantLat        *string
	RestaurantLng        *string
	DeliveryRadiusKm     *string
}

// UpsertMenu inserts or replaces a menu row keyed by ID.
func (w *CatalogWriter) UpsertMenu(ctx context.Context, p UpsertMenuParams) error {
	_, err := w.pool.Exec(ctx, upsertMenuSQL,
		p.ID, p.UserID, p.Name, p.Currency, p.EnabledOrderTypes,
		p.DeliveryFee, p.MinOrderAmount, p.IsPublished, p.NotificationsEnabled, p.NotifyPhone,
		p.RestaurantLat, p.RestaurantLng, p.DeliveryRadiusKm,
	)
	if err != nil {
		return fmt.Errorf("upserting menu %q: %w", p.ID, err)
	}
	return nil
}

// UpsertItemParams holds one catalog item row for UpsertItem.
type UpsertItemParams struct {
	ID             uuid.UUID
	MenuID         uuid.UUID
	Name           string
	Translations   map[string]string
	Price          int64
	TrackInventory bool
	StockQuantity  *int32
	SoldOut        bool
}

// UpsertItem inserts or replaces a catalog item keyed by ID.
func (w *CatalogWriter) UpsertItem(ctx context.Context, p UpsertItemParams) error {
	translations := p.Translations
	if translations == nil {
		translations = map[string]string{}
	}
	_, err := w.pool.Exec(ctx, upsertItemSQL,
		p.ID, p.MenuID, p.Name, translations, p.Price,
		p.TrackInventory, p.StockQuantity, p.SoldOut,
	)
	if err != nil {
		return fmt.Errorf("upserting item %q: %w", p.ID, err)
	}
	return nil
}

// UpsertVariantParams holds one variant row for UpsertVariant. A nil Price
// means the variant inherits the item price.
type UpsertVariantParams struct {
	ID     uuid.UUID
	ItemID uuid.UUID
	Name   string
	Price  *int64
}

// UpsertVariant inserts or replaces an item variant keyed by ID.
func (w *CatalogWriter) UpsertVariant(ctx context.Context, p UpsertVariantParams) error {
	_, err := w.pool.Exec(ctx, upsertVariantSQL, p.ID, p.ItemID, p.Name, p.Price)
	if err != nil {
		return fmt.Errorf("upserting variant %q: %w", p.ID, err)
	}
	return nil
}

// UpsertProgramParams holds one loyalty program row for UpsertProgram.
type UpsertProgramParams struct {
	ID             uuid.UUID
	MenuID         uuid.UUID
	Name           string
	StampsRequired int32
	Active         bool
}

// UpsertProgram inserts or replaces a loyalty program keyed by ID.
func (w *CatalogWriter) UpsertProgram(ctx context.Context, p UpsertProgramParams) error {
	_, err := w.pool.Exec(ctx, upsertProgramSQL, p.ID, p.MenuID, p.Name, p.StampsRequired, p.Active)
	if err != nil {
		return fmt.Errorf("upserting program %q: %w", p.ID, err)
	}
	return nil
}
