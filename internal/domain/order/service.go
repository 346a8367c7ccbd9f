package order

import (
	"context"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menuflow/menuflow/internal/domain/catalog"
	"github.com/menuflow/menuflow/internal/domain/menu"
	"github.com/menuflow/menuflow/internal/domain/pricing"
)

// Tx exposes the storage operations available inside the order commit
// transaction. Implementations must scope every call to one database
// transaction so the stock check, price validation, order insert and stock
// decrement form a single all-or-nothing unit.
type Tx interface {
	// ItemsForUpdate loads the referenced catalog items belonging to the
	// menu, locking tracked rows against concurrent order commits.
	ItemsForUpdate(ctx context.Context, menuID uuid.UUID, itemIDs []uuid.UUID) (map[uuid.UUID]*catalog.Item, error)
	// VariantsByIDs loads the referenced item variants.
	VariantsByIDs(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]*catalog.Variant, error)
	// InsertOrder persists the order and all of its items in one write.
	InsertOrder(ctx context.Context, o *Order) error
	// ApplyDecrements writes the planned post-commit stock state.
	ApplyDecrements(ctx context.Context, decs []catalog.Decrement) error
}

// Store opens the transactional boundary the ledger commits through.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Dispatcher creates post-commit fulfillment records for delivery orders.
type Dispatcher interface {
	Dispatch(ctx context.Context, o *Order, m *menu.Menu) error
}

// LinkBuilder constructs the outbound owner-notification link for a freshly
// committed order.
type LinkBuilder interface {
	OrderLink(phone string, o *Order) (string, error)
}

// Submitter runs best-effort work detached from the request. Task failure
// must never affect the submitting caller.
type Submitter interface {
	Submit(name string, fn func(ctx context.Context) error)
}

// PlaceRequest holds a validated-at-the-edge order submission. Line prices
// are client hints only; settlement prices come from the catalog.
type PlaceRequest struct {
	MenuID    uuid.UUID
	OrderType menu.OrderType
	Lines     []pricing.Line

	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	TableNumber     string
	Note            string

	// Customer coordinates, when the client shares them for delivery.
	CustomerLat *float64
	CustomerLng *float64

	PaymentMethod PaymentMethod
	Language      string
}

// PlaceResult is the order creation response: the committed order with items
// plus an optional notification link (empty when none could be built).
type PlaceResult struct {
	Order     *Order
	NotifyURL string
}

// Service is the order ledger: it revalidates untrusted carts against
// authoritative pricing and inventory, commits orders atomically, and hands
// committed delivery orders to the fulfillment dispatcher.
type Service struct {
	menus      menu.Repository
	store      Store
	dispatcher Dispatcher
	links      LinkBuilder
	tasks      Submitter
}

// NewService creates an order Service with the required dependencies.
func NewService(menus menu.Repository, store Store, dispatcher Dispatcher, links LinkBuilder, tasks Submitter) *Service {
	return &Service{
		menus:      menus,
		store:      store,
		dispatcher: dispatcher,
		links:      links,
		tasks:      tasks,
	}
}

// Place runs the full order creation path: preconditions, then the atomic
// check-price-insert-decrement transaction, then best-effort fulfillment
// dispatch. Any error before or inside the transaction means no order row
// and no stock effect exist; failures after commit never surface to the
// caller.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	m, err := s.menus.GetPublished(ctx, req.MenuID)
	if err != nil {
		return nil, err
	}

	if err := validatePlaceRequest(m, req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o := &Order{
		ID:            uuid.New(),
		MenuID:        m.ID,
		Number:        NewNumber(),
		Status:        StatusPending,
		OrderType:     req.OrderType,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		TableNumber:   req.TableNumber,
		Note:          req.Note,
		Currency:      m.Currency,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: PaymentStatusUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.OrderType == menu.OrderTypeDelivery {
		o.DeliveryAddress = req.DeliveryAddress
		o.DeliveryFee = m.DeliveryFee
	}

	demand, itemIDs, variantIDs := collectReferences(req.Lines)

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		items, err := tx.ItemsForUpdate(ctx, m.ID, itemIDs)
		if err != nil {
			return err
		}

		if err := catalog.CheckStock(items, demand, req.Language); err != nil {
			return err
		}

		variants, err := tx.VariantsByIDs(ctx, variantIDs)
		if err != nil {
			return err
		}

		priced, err := pricing.Validate(req.Lines, items, variants)
		if err != nil {
			return err
		}

		if priced.Subtotal < m.MinOrderAmount {
			return &MinOrderAmountError{Minimum: m.MinOrderAmount, Subtotal: priced.Subtotal}
		}

		o.Subtotal = priced.Subtotal
		o.TotalAmount = priced.Subtotal + o.DeliveryFee
		o.Items = buildItems(o.ID, priced.Lines)

		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}

		return tx.ApplyDecrements(ctx, catalog.PlanDecrements(items, demand))
	})
	if err != nil {
		return nil, err
	}

	// Fulfillment dispatch is outside the order's consistency boundary: the
	// order is already committed, so a dispatch failure is logged by the
	// runner and never reaches the customer.
	if o.OrderType == menu.OrderTypeDelivery {
		committed := *o
		mn := *m
		s.tasks.Submit("delivery-dispatch", func(ctx context.Context) error {
			return s.dispatcher.Dispatch(ctx, &committed, &mn)
		})
	}

	return &PlaceResult{
		Order:     o,
		NotifyURL: s.buildNotifyURL(ctx, m, o),
	}, nil
}

// buildNotifyURL constructs the owner notification link. Any failure is
// logged and reported to the caller as an absent link.
func (s *Service) buildNotifyURL(ctx context.Context, m *menu.Menu, o *Order) string {
	if !m.NotificationsEnabled || m.NotifyPhone == "" {
		return ""
	}
	url, err := s.links.OrderLink(m.NotifyPhone, o)
	if err != nil {
		zctx.From(ctx).Warn("building notify link",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
		return ""
	}
	return url
}

// validatePlaceRequest enforces the pre-transaction preconditions: cart
// shape, order type availability and the per-type required fields.
func validatePlaceRequest(m *menu.Menu, req PlaceRequest) error {
	if len(req.Lines) == 0 {
		return ErrEmptyCart
	}
	if len(req.Lines) > MaxCartLines {
		return ErrCartTooLarge
	}
	for i, line := range req.Lines {
		if line.Quantity < MinLineQty || line.Quantity > MaxLineQty {
			return &InvalidQuantityError{Line: i, Quantity: line.Quantity}
		}
	}

	if !req.OrderType.Valid() || !m.AcceptsOrderType(req.OrderType) {
		return &OrderTypeDisabledError{OrderType: req.OrderType}
	}

	switch req.OrderType {
	case menu.OrderTypeDelivery:
		if req.DeliveryAddress == "" {
			return &MissingFieldError{Field: "deliveryAddress"}
		}
		if req.CustomerLat != nil && req.CustomerLng != nil &&
			!m.WithinDeliveryRadius(*req.CustomerLat, *req.CustomerLng) {
			return ErrOutOfRadius
		}
		fallthrough
	case menu.OrderTypePickup:
		if req.CustomerName == "" {
			return &MissingFieldError{Field: "customerName"}
		}
		if req.CustomerPhone == "" {
			return &MissingFieldError{Field: "customerPhone"}
		}
	}

	return nil
}

// collectReferences builds the per-item demand arena and the distinct item
// and variant ID sets referenced by the cart, in one pass.
func collectReferences(lines []pricing.Line) (catalog.Demand, []uuid.UUID, []uuid.UUID) {
	demand := make(catalog.Demand)
	itemIDs := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	var variantIDs []uuid.UUID

	for _, line := range lines {
		if line.ItemID == nil {
			continue
		}
		demand.Add(*line.ItemID, line.Quantity)
		if _, ok := seen[*line.ItemID]; !ok {
			seen[*line.ItemID] = struct{}{}
			itemIDs = append(itemIDs, *line.ItemID)
		}
		if line.VariantID != nil {
			variantIDs = append(variantIDs, *line.VariantID)
		}
	}
	return demand, itemIDs, variantIDs
}

// buildItems materializes committed order items from validated lines.
func buildItems(orderID uuid.UUID, lines []pricing.ValidatedLine) []Item {
	items := make([]Item, len(lines))
	for i, line := range lines {
		items[i] = Item{
			ID:          uuid.New(),
			OrderID:     orderID,
			ItemID:      line.ItemID,
			VariantID:   line.VariantID,
			DisplayName: line.DisplayName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  line.TotalPrice,
		}
	}
	return items
}
