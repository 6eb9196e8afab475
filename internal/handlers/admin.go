package handlers

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/models"
)

func (h *Handlers) AdminListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.adminService.ListCoupons(r.Context(), 100)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, coupons)
}

func (h *Handlers) AdminCreateCoupon(w http.ResponseWriter, r *http.Request) {
	var coupon db.Coupon
	if !h.decodeJSON(w, r, &coupon) {
		return
	}

	if err := h.adminService.CreateCoupon(r.Context(), &coupon); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, coupon)
}

func (h *Handlers) AdminUpdateCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var coupon db.Coupon
	if !h.decodeJSON(w, r, &coupon) {
		return
	}
	coupon.ID = id

	if err := h.adminService.UpdateCoupon(r.Context(), &coupon); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, coupon)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *Handlers) AdminSetCouponActive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req setActiveRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.adminService.SetCouponActive(r.Context(), id, req.Active); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AdminListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.adminService.ListZones(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, zones)
}

func (h *Handlers) AdminCreateZone(w http.ResponseWriter, r *http.Request) {
	var zone db.ShippingZone
	if !h.decodeJSON(w, r, &zone) {
		return
	}

	if err := h.adminService.CreateZone(r.Context(), &zone); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, zone)
}

func (h *Handlers) AdminUpdateZone(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var zone db.ShippingZone
	if !h.decodeJSON(w, r, &zone) {
		return
	}
	zone.ID = id

	if err := h.adminService.UpdateZone(r.Context(), &zone); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, zone)
}

func (h *Handlers) AdminSetZoneActive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req setActiveRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.adminService.SetZoneActive(r.Context(), id, req.Active); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminImportZones accepts a raw YAML zone file as the request body.
func (h *Handlers) AdminImportZones(w http.ResponseWriter, r *http.Request) {
	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "failed to read zone file")
		return
	}

	zones, err := h.adminService.ImportZones(r.Context(), content)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, r, http.StatusCreated, zones)
}

func (h *Handlers) AdminGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, settings)
}

func (h *Handlers) AdminUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if !h.decodeJSON(w, r, &settings) {
		return
	}

	updated, err := h.settingsService.Update(r.Context(), settings)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, r, http.StatusOK, updated)
}

func (h *Handlers) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var product db.Product
	if !h.decodeJSON(w, r, &product) {
		return
	}

	if err := h.catalogService.Create(r.Context(), &product); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, r, http.StatusCreated, product)
}

func (h *Handlers) AdminShipOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	order, err := h.orderService.MarkShipped(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, order)
}

func (h *Handlers) AdminDeliverOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	order, err := h.orderService.MarkDelivered(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, order)
}

func (h *Handlers) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
