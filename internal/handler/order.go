package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/menuflow/menuflow/internal/domain/menu"
	"github.com/menuflow/menuflow/internal/domain/order"
	"github.com/menuflow/menuflow/internal/domain/pricing"
)

// cartLineRequest is one client-submitted cart line. catalogItemId is absent
// for free-text custom lines; unitPrice is a hint the server re-derives.
type cartLineRequest struct {
	CatalogItemID *uuid.UUID `json:"catalogItemId"`
	VariantID     *uuid.UUID `json:"variantId"`
	DisplayName   string     `json:"displayName" validate:"required,max=200"`
	Quantity      int32      `json:"quantity" validate:"min=1,max=99"`
	UnitPrice     int64      `json:"unitPrice" validate:"min=0"`
}

type createOrderRequest struct {
	OrderType       string            `json:"orderType" validate:"required,oneof=dine_in pickup delivery"`
	Items           []cartLineRequest `json:"items" validate:"required,min=1,max=50,dive"`
	CustomerName    string            `json:"customerName" validate:"max=200"`
	CustomerPhone   string            `json:"customerPhone" validate:"max=32"`
	DeliveryAddress string            `json:"deliveryAddress" validate:"max=500"`
	TableNumber     string            `json:"tableNumber" validate:"max=32"`
	Note            string            `json:"note" validate:"max=1000"`
	CustomerLat     *float64          `json:"customerLat" validate:"omitempty,latitude"`
	CustomerLng     *float64          `json:"customerLng" validate:"omitempty,longitude"`
	PaymentMethod   string            `json:"paymentMethod" validate:"omitempty,oneof=cash card transfer"`
	Language        string            `json:"language" validate:"omitempty,bcp47_language_tag"`
}

type orderItemResponse struct {
	ID          uuid.UUID  `json:"id"`
	CatalogItem *uuid.UUID `json:"catalogItemId,omitempty"`
	VariantID   *uuid.UUID `json:"variantId,omitempty"`
	DisplayName string     `json:"displayName"`
	Quantity    int32      `json:"quantity"`
	UnitPrice   int64      `json:"unitPrice"`
	TotalPrice  int64      `json:"totalPrice"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	MenuID          uuid.UUID           `json:"menuId"`
	OrderNumber     string              `json:"orderNumber"`
	Status          order.Status        `json:"status"`
	OrderType       menu.OrderType      `json:"orderType"`
	CustomerName    string              `json:"customerName,omitempty"`
	CustomerPhone   string              `json:"customerPhone,omitempty"`
	DeliveryAddress string              `json:"deliveryAddress,omitempty"`
	TableNumber     string              `json:"tableNumber,omitempty"`
	Note            string              `json:"note,omitempty"`
	Currency        string              `json:"currency"`
	Subtotal        int64               `json:"subtotal"`
	DeliveryFee     int64               `json:"deliveryFee"`
	TotalAmount     int64               `json:"totalAmount"`
	PaymentMethod   order.PaymentMethod `json:"paymentMethod"`
	PaymentStatus   order.PaymentStatus `json:"paymentStatus"`
	ConfirmedAt     *time.Time          `json:"confirmedAt,omitempty"`
	PreparingAt     *time.Time          `json:"preparingAt,omitempty"`
	ReadyAt         *time.Time          `json:"readyAt,omitempty"`
	CompletedAt     *time.Time          `json:"completedAt,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	Items           []orderItemResponse `json:"items,omitempty"`
}

type createOrderResponse struct {
	orderResponse
	WhatsappNotifyURL *string `json:"whatsappNotifyUrl"`
}

// createOrder handles the public order submission endpoint.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	menuID, ok := pathUUID(r, "menuID")
	if !ok {
		writeError(w, http.StatusNotFound, "menu not found")
		return
	}

	var req createOrderRequest
	if !h.bind(w, r, &req) {
		return
	}

	result, err := h.orders.Place(r.Context(), toPlaceRequest(menuID, req))
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	resp := createOrderResponse{orderResponse: toOrderResponse(result.Order, true)}
	if result.NotifyURL != "" {
		resp.WhatsappNotifyURL = &result.NotifyURL
	}
	writeJSON(w, http.StatusCreated, resp)
}

func toPlaceRequest(menuID uuid.UUID, req createOrderRequest) order.PlaceRequest {
	lines := make([]pricing.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = pricing.Line{
			ItemID:      item.CatalogItemID,
			VariantID:   item.VariantID,
			DisplayName: item.DisplayName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}

	method := order.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = order.PaymentCash
	}

	return order.PlaceRequest{
		MenuID:          menuID,
		OrderType:       menu.OrderType(req.OrderType),
		Lines:           lines,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		TableNumber:     req.TableNumber,
		Note:            req.Note,
		CustomerLat:     req.CustomerLat,
		CustomerLng:     req.CustomerLng,
		PaymentMethod:   method,
		Language:        req.Language,
	}
}

func toOrderResponse(o *order.Order, withItems bool) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		MenuID:          o.MenuID,
		OrderNumber:     o.Number,
		Status:          o.Status,
		OrderType:       o.OrderType,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		DeliveryAddress: o.DeliveryAddress,
		TableNumber:     o.TableNumber,
		Note:            o.Note,
		Currency:        o.Currency,
		Subtotal:        o.Subtotal,
		DeliveryFee:     o.DeliveryFee,
		TotalAmount:     o.TotalAmount,
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   o.PaymentStatus,
		ConfirmedAt:     o.ConfirmedAt,
		PreparingAt:     o.PreparingAt,
		ReadyAt:         o.ReadyAt,
		CompletedAt:     o.CompletedAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if withItems {
		resp.Items = make([]orderItemResponse, len(o.Items))
		for i, item := range o.Items {
			resp.Items[i] = orderItemResponse{
				ID:          item.ID,
				CatalogItem: item.ItemID,
				VariantID:   item.VariantID,
				DisplayName: item.DisplayName,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				TotalPrice:  item.TotalPrice,
			}
		}
	}
	return resp
}

// getOrder returns an owned order with its items.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid identity")
		return
	}
	orderID, ok := pathUUID(r, "orderID")
	if !ok {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	o, err := h.reader.GetOwned(r.Context(), orderID, owner)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	items, err := h.reader.ItemsByOrder(r.Context(), o.ID)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	o.Items = items

	writeJSON(w, http.StatusOK, toOrderResponse(o, true))
}
