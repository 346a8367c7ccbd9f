package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/menuflow/menuflow/internal/domain/catalog"
	"github.com/menuflow/menuflow/internal/domain/order"
)

const (
	orderColumns = `id, menu_id, order_number, status, order_type, customer_name,
		customer_phone, delivery_address, table_number, note, currency, subtotal,
		delivery_fee, total_amount, payment_method, payment_status,
		confirmed_at, preparing_at, ready_at, completed_at, created_at, updated_at`

	itemsForUpdateSQL = `SELECT id, menu_id, name, translations, price,
			track_inventory, stock_quantity, sold_out
		FROM catalog_items WHERE menu_id = $1 AND id = ANY($2)
		FOR UPDATE`

	variantsByIDsSQL = `SELECT id, item_id, name, price
		FROM item_variants WHERE id = ANY($1)`

	insertOrderSQL = `INSERT INTO orders (id, menu_id, order_number, status, order_type,
			customer_name, customer_phone, delivery_address, table_number, note,
			currency, subtotal, delivery_fee, total_amount, payment_method,
			payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	insertOrderItemSQL = `INSERT INTO order_items (id, order_id, item_id, variant_id,
			display_name, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	applyDecrementSQL = `UPDATE catalog_items
		SET stock_quantity = $2, sold_out = $3, updated_at = now()
		WHERE id = $1`

	getOwnedOrderSQL = `SELECT ` + ownedOrderColumns + `
		FROM orders o JOIN menus m ON m.id = o.menu_id
		WHERE o.id = $1 AND m.user_id = $2`

	getOrderByIDSQL = `SELECT ` + ownedOrderColumns + ` FROM orders o WHERE o.id = $1`

	orderItemsSQL = `SELECT id, order_id, item_id, variant_id, display_name,
			quantity, unit_price, total_price
		FROM order_items WHERE order_id = $1 ORDER BY display_name, id`

	ownedOrderColumns = `o.id, o.menu_id, o.order_number, o.status, o.order_type,
		o.customer_name, o.customer_phone, o.delivery_address, o.table_number, o.note,
		o.currency, o.subtotal, o.delivery_fee, o.total_amount, o.payment_method,
		o.payment_status, o.confirmed_at, o.preparing_at, o.ready_at, o.completed_at,
		o.created_at, o.updated_at`
)

// stampColumns whitelists the per-state timestamp column written by a status
// transition. Cancelled has no entry: it stamps nothing beyond updated_at.
var stampColumns = map[order.Status]string{
	order.StatusConfirmed: "confirmed_at",
	order.StatusPreparing: "preparing_at",
	order.StatusReady:     "ready_at",
	order.StatusCompleted: "completed_at",
}

var (
	_ order.Store      = (*OrderStore)(nil)
	_ order.Repository = (*OrderStore)(nil)
)

// OrderStore implements the order ledger's transactional store and the
// status state machine's repository, backed by PostgreSQL. The ledger relies
// on FOR UPDATE row locks on tracked catalog items to serialize concurrent
// check-then-decrement pairs per contended item.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// WithinTx runs fn inside a single database transaction. Any error from fn
// rolls the whole unit back: no partial order, no partial stock decrement.
func (s *OrderStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer pgtx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(ctx, &orderTx{tx: pgtx}); err != nil {
		return err
	}

	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// orderTx scopes the ledger operations to one pgx transaction.
type orderTx struct {
	tx pgx.Tx
}

var _ order.Tx = (*orderTx)(nil)

// ItemsForUpdate loads the referenced catalog items on the menu, taking row
// locks so concurrent orders for the same items serialize here.
func (t *orderTx) ItemsForUpdate(ctx context.Context, menuID uuid.UUID, itemIDs []uuid.UUID) (map[uuid.UUID]*catalog.Item, error) {
	if len(itemIDs) == 0 {
		return map[uuid.UUID]*catalog.Item{}, nil
	}

	rows, err := t.tx.Query(ctx, itemsForUpdateSQL, menuID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("locking catalog items: %w", err)
	}

	items, err := pgx.CollectRows(rows, scanCatalogItem)
	if err != nil {
		return nil, fmt.Errorf("scanning catalog items: %w", err)
	}

	byID := make(map[uuid.UUID]*catalog.Item, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	return byID, nil
}

// VariantsByIDs loads the referenced item variants.
func (t *orderTx) VariantsByIDs(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]*catalog.Variant, error) {
	if len(variantIDs) == 0 {
		return map[uuid.UUID]*catalog.Variant{}, nil
	}

	rows, err := t.tx.Query(ctx, variantsByIDsSQL, variantIDs)
	if err != nil {
		return nil, fmt.Errorf("getting item variants: %w", err)
	}

	variants, err := pgx.CollectRows(rows, scanVariant)
	if err != nil {
		return nil, fmt.Errorf("scanning item variants: %w", err)
	}

	byID := make(map[uuid.UUID]*catalog.Variant, len(variants))
	for i := range variants {
		byID[variants[i].ID] = &variants[i]
	}
	return byID, nil
}

// InsertOrder persists the order and its items in one batched write.
func (t *orderTx) InsertOrder(ctx context.Context, o *order.Order) error {
	batch := &pgx.Batch{}
	batch.Queue(insertOrderSQL,
		o.ID, o.MenuID, o.Number, o.Status, o.OrderType,
		o.CustomerName, o.CustomerPhone, o.DeliveryAddress, o.TableNumber, o.Note,
		o.Currency, o.Subtotal, o.DeliveryFee, o.TotalAmount, o.PaymentMethod,
		o.PaymentStatus, o.CreatedAt, o.UpdatedAt,
	)
	for _, item := range o.Items {
		batch.Queue(insertOrderItemSQL,
			item.ID, item.OrderID, item.ItemID, item.VariantID,
			item.DisplayName, item.Quantity, item.UnitPrice, item.TotalPrice,
		)
	}

	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting order %q: %w", o.ID, err)
	}
	return nil
}

// ApplyDecrements writes the planned post-commit stock state for every
// tracked item.
func (t *orderTx) ApplyDecrements(ctx context.Context, decs []catalog.Decrement) error {
	if len(decs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, d := range decs {
		batch.Queue(applyDecrementSQL, d.ItemID, d.Remaining, d.SoldOut)
	}

	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("applying stock decrements: %w", err)
	}
	return nil
}

// GetOwned returns the order only when ownerID owns its menu. Missing and
// foreign orders are indistinguishable: both yield order.ErrNotFound.
func (s *OrderStore) GetOwned(ctx context.Context, orderID, ownerID uuid.UUID) (*order.Order, error) {
	rows, err := s.pool.Query(ctx, getOwnedOrderSQL, orderID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", orderID, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", orderID, err)
	}
	return &o, nil
}

// ItemsByOrder returns the committed items of an order.
func (s *OrderStore) ItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]order.Item, error) {
	rows, err := s.pool.Query(ctx, orderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing items for order %q: %w", orderID, err)
	}
	return pgx.CollectRows(rows, scanOrderItem)
}

// UpdateStatus applies the transition in one conditional write: the status
// and its per-state timestamp are set only when the stored status differs
// from target. When nothing changed (re-entry) the current row is returned
// with changed = false.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID uuid.UUID, target order.Status, now time.Time) (*order.Order, bool, error) {
	set := "status = $2, updated_at = $3"
	if col, ok := stampColumns[target]; ok {
		set += ", " + col + " = $3"
	}
	sql := `UPDATE orders o SET ` + set + ` WHERE o.id = $1 AND o.status <> $2 RETURNING ` + ownedOrderColumns

	rows, err := s.pool.Query(ctx, sql, orderID, target, now)
	if err != nil {
		return nil, false, fmt.Errorf("updating status of order %q: %w", orderID, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err == nil {
		return &o, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("updating status of order %q: %w", orderID, err)
	}

	// No row changed: the order already carries the target status. Return
	// the stored row so re-entry stays an idempotent overwrite.
	rows, err = s.pool.Query(ctx, getOrderByIDSQL, orderID)
	if err != nil {
		return nil, false, fmt.Errorf("getting order %q: %w", orderID, err)
	}
	o, err = pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, order.ErrNotFound
		}
		return nil, false, fmt.Errorf("getting order %q: %w", orderID, err)
	}
	return &o, false, nil
}

func scanCatalogItem(row pgx.CollectableRow) (catalog.Item, error) {
	var item catalog.Item
	err := row.Scan(
		&item.ID, &item.MenuID, &item.Name, &item.Translations, &item.Price,
		&item.TrackInventory, &item.StockQuantity, &item.SoldOut,
	)
	return item, err
}

func scanVariant(row pgx.CollectableRow) (catalog.Variant, error) {
	var v catalog.Variant
	err := row.Scan(&v.ID, &v.ItemID, &v.Name, &v.Price)
	return v, err
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.MenuID, &o.Number, &o.Status, &o.OrderType,
		&o.CustomerName, &o.CustomerPhone, &o.DeliveryAddress, &o.TableNumber, &o.Note,
		&o.Currency, &o.Subtotal, &o.DeliveryFee, &o.TotalAmount, &o.PaymentMethod,
		&o.PaymentStatus, &o.ConfirmedAt, &o.PreparingAt, &o.ReadyAt, &o.CompletedAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var item order.Item
	err := row.Scan(
		&item.ID, &item.OrderID, &item.ItemID, &item.VariantID,
		&item.DisplayName, &item.Quantity, &item.UnitPrice, &item.TotalPrice,
	)
	return item, err
}
