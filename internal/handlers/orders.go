package handlers

import (
	"net/http"
)

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	orders, err := h.orderService.ListByUser(r.Context(), identity.UserID, 50)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	orderID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	order, err := h.orderService.Get(r.Context(), orderID, identity)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, order)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	orderID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.orderService.Cancel(r.Context(), orderID, identity); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
