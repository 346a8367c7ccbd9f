package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/menuflow/menuflow/internal/domain/catalog"
	"github.com/menuflow/menuflow/internal/domain/menu"
	"github.com/menuflow/menuflow/internal/domain/order"
)

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// bind decodes the JSON body into out and validates it. On failure it writes
// a 400 response and reports false.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusBadRequest, "validation failed on "+verrs[0].Namespace())
			return false
		}
		writeError(w, http.StatusBadRequest, "validation failed")
		return false
	}
	return true
}

// writeDomainError maps domain errors onto the HTTP error taxonomy:
// not-found (and ownership misses, same shape), client validation errors,
// out-of-stock conflicts, and opaque persistence failures.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, menu.ErrNotFound):
		writeError(w, http.StatusNotFound, "menu not found")
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		var oosErr *catalog.OutOfStockError
		if errors.As(err, &oosErr) {
			writeError(w, http.StatusConflict, oosErr.Error())
			return
		}
		zctx.From(ctx).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func isValidationError(err error) bool {
	if errors.Is(err, order.ErrEmptyCart) ||
		errors.Is(err, order.ErrCartTooLarge) ||
		errors.Is(err, order.ErrOutOfRadius) ||
		errors.Is(err, catalog.ErrItemNotFound) {
		return true
	}

	var (
		qtyErr   *order.InvalidQuantityError
		typeErr  *order.OrderTypeDisabledError
		fieldErr *order.MissingFieldError
		minErr   *order.MinOrderAmountError
		transErr *order.InvalidTransitionError
	)
	return errors.As(err, &qtyErr) ||
		errors.As(err, &typeErr) ||
		errors.As(err, &fieldErr) ||
		errors.As(err, &minErr) ||
		errors.As(err, &transErr)
}
