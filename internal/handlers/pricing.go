package handlers

import (
	"net/http"

	"github.com/sunushop/sunushop/internal/services"
)

type validateCouponRequest struct {
	Code           string   `json:"code"`
	SubtotalCents  int64    `json:"subtotal_cents"`
	ItemCategories []string `json:"item_categories,omitempty"`
}

type validateCouponResponse struct {
	Valid         bool   `json:"valid"`
	Code          string `json:"code"`
	DiscountCents int64  `json:"discount_cents"`
}

// ValidateCoupon checks a coupon against the caller's cart without
// consuming anything.
func (h *Handlers) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	var req validateCouponRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	input := services.ValidateCouponInput{
		Code:           req.Code,
		SubtotalCents:  req.SubtotalCents,
		ItemCategories: req.ItemCategories,
	}
	if identity != nil {
		input.UserID = identity.UserID
	}

	result, err := h.couponService.Validate(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, validateCouponResponse{
		Valid:         true,
		Code:          result.Coupon.Code,
		DiscountCents: result.DiscountCents,
	})
}

type shippingQuoteRequest struct {
	Country       string `json:"country"`
	Region        string `json:"region,omitempty"`
	SubtotalCents int64  `json:"subtotal_cents"`
}

type shippingQuoteResponse struct {
	ZoneName                      string `json:"zone_name"`
	ShippingCostCents             int64  `json:"shipping_cost_cents"`
	IsFreeShipping                bool   `json:"is_free_shipping"`
	RemainingForFreeShippingCents int64  `json:"remaining_for_free_shipping_cents,omitempty"`
	EstimatedDaysMin              int    `json:"estimated_days_min,omitempty"`
	EstimatedDaysMax              int    `json:"estimated_days_max,omitempty"`
}

func (h *Handlers) ShippingQuote(w http.ResponseWriter, r *http.Request) {
	var req shippingQuoteRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Country == "" {
		h.writeError(w, r, http.StatusBadRequest, "country is required")
		return
	}

	quote, err := h.shippingService.Quote(r.Context(), req.Country, req.Region, req.SubtotalCents)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, shippingQuoteResponse{
		ZoneName:                      quote.Zone.Name,
		ShippingCostCents:             quote.ShippingCostCents,
		IsFreeShipping:                quote.IsFreeShipping,
		RemainingForFreeShippingCents: quote.RemainingForFreeShippingCents,
		EstimatedDaysMin:              quote.Zone.EstimatedDaysMin,
		EstimatedDaysMax:              quote.Zone.EstimatedDaysMax,
	})
}

type loyaltyPreviewRequest struct {
	Points int64 `json:"points"`
}

type loyaltyPreviewResponse struct {
	Points           int64 `json:"points"`
	DiscountCents    int64 `json:"discount_cents"`
	RemainingBalance int64 `json:"remaining_balance"`
}

func (h *Handlers) LoyaltyPreview(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	var req loyaltyPreviewRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	preview, err := h.loyaltyService.Preview(r.Context(), identity.UserID, req.Points)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, loyaltyPreviewResponse{
		Points:           preview.Points,
		DiscountCents:    preview.DiscountCents,
		RemainingBalance: preview.RemainingBalance,
	})
}

func (h *Handlers) LoyaltyAccount(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	account, err := h.loyaltyService.Account(r.Context(), identity.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, account)
}

func (h *Handlers) LoyaltyTransactions(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	transactions, err := h.loyaltyService.Transactions(r.Context(), identity.UserID, 50)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, transactions)
}
