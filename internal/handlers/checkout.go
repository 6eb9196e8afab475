package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/sunushop/sunushop/internal/models"
	"github.com/sunushop/sunushop/internal/pricing"
	"github.com/sunushop/sunushop/internal/services"
)

type checkoutItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type checkoutRequest struct {
	Items           []checkoutItemRequest  `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
	CouponCode      string                 `json:"coupon_code,omitempty"`
	PointsToRedeem  int64                  `json:"points_to_redeem,omitempty"`
}

type checkoutResponse struct {
	Order      *models.Order  `json:"order"`
	Totals     pricing.Totals `json:"totals"`
	PaymentURL string         `json:"payment_url,omitempty"`
}

func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	var req checkoutRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	items := make([]services.CheckoutItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			h.writeError(w, r, http.StatusBadRequest, "invalid product id")
			return
		}
		items = append(items, services.CheckoutItemInput{ProductID: productID, Quantity: item.Quantity})
	}

	result, err := h.checkoutService.Checkout(r.Context(), services.CheckoutInput{
		UserID:          identity.UserID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		CouponCode:      req.CouponCode,
		PointsToRedeem:  req.PointsToRedeem,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, checkoutResponse{
		Order:      result.Order,
		Totals:     result.Totals,
		PaymentURL: result.PaymentURL,
	})
}
