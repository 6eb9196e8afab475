package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/pricing"
	"github.com/sunushop/sunushop/internal/services"
)

func (h *Handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.writeJSON(w, r, status, errorResponse{Error: message})
}

// writeServiceError maps a service failure onto an HTTP response.
// Business rejections carry their stable reason code and a 422; known
// sentinel errors map to their natural statuses; anything else is a 500
// with a generic body so internals never leak.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if rejection, ok := pricing.AsRejection(err); ok {
		h.writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{
			Error:  rejection.Message,
			Reason: rejection.Reason,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		h.writeError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrInvalidToken):
		h.writeError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrCouponCodeTaken):
		h.writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrProductNotFound):
		h.writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrOrderNotYours):
		h.writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrOrderNotCancelled),
		errors.Is(err, db.ErrInvalidStatusTransition):
		h.writeError(w, r, http.StatusConflict, err.Error())
	default:
		h.loggerFromContext(r.Context()).Error("request failed", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
