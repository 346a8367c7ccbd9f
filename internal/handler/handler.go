// Package handler exposes the order engine over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/menuflow/menuflow/internal/domain/order"
	"github.com/menuflow/menuflow/pkg/httpmiddleware"
)

// OrderReader provides the read operations the order endpoints need.
type OrderReader interface {
	GetOwned(ctx context.Context, orderID, ownerID uuid.UUID) (*order.Order, error)
	ItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]order.Item, error)
}

// Handler wires the HTTP surface to the domain services.
type Handler struct {
	orders       *order.Service
	transitioner *order.Transitioner
	reader       OrderReader
	validate     *validator.Validate
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(orders *order.Service, transitioner *order.Transitioner, reader OrderReader) *Handler {
	return &Handler{
		orders:       orders,
		transitioner: transitioner,
		reader:       reader,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register mounts the API routes on mux. orderLimit guards the public order
// creation endpoint; it runs after routing so the per-menu rate limit key
// can include the path's menu ID.
func (h *Handler) Register(mux *http.ServeMux, orderLimit httpmiddleware.Middleware) {
	mux.Handle("POST /api/menus/{menuID}/orders", orderLimit(http.HandlerFunc(h.createOrder)))
	mux.HandleFunc("POST /api/orders/{orderID}/status", h.transitionOrder)
	mux.HandleFunc("GET /api/orders/{orderID}", h.getOrder)
}

// ownerID resolves the authenticated tenant from the upstream gateway's
// X-User-ID header. Session resolution itself happens outside this service.
func ownerID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
