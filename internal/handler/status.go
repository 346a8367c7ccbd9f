package handler

import (
	"net/http"

	"github.com/menuflow/menuflow/internal/domain/order"
)

type transitionRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed preparing ready completed cancelled"`
}

// transitionOrder advances an order through the status state machine on
// behalf of the owning tenant.
func (h *Handler) transitionOrder(w http.ResponseWriter, r *http.Request) {
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

	var req transitionRequest
	if !h.bind(w, r, &req) {
		return
	}

	updated, err := h.transitioner.Transition(r.Context(), owner, orderID, order.Status(req.Status))
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	// Transition responses carry the order without items.
	writeJSON(w, http.StatusOK, toOrderResponse(updated, false))
}
