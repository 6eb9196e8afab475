// Package payments provides Stripe checkout functionality.
package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
)

// Client wraps the Stripe API for marketplace payments.
type Client struct {
	client  *stripe.Client
	baseURL string
}

// NewClient creates a new Stripe payments client.
func NewClient(secretKey, baseURL string) *Client {
	return &Client{
		client:  stripe.NewClient(secretKey),
		baseURL: baseURL,
	}
}

// CheckoutSessionParams holds parameters for creating a checkout session.
// AmountCents is the final order total after discounts, tax and shipping,
// so the session carries exactly one line item.
type CheckoutSessionParams struct {
	OrderID       uuid.UUID
	UserID        uuid.UUID
	OrderNumber   int64
	AmountCents   int64
	Currency      string
	CustomerEmail string
}

// CreateCheckoutSession creates a checkout session for an order.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if params.AmountCents <= 0 {
		return nil, fmt.Errorf("checkout amount must be positive")
	}

	sess, err := c.client.V1CheckoutSessions.Create(ctx, c.sessionParams(params))
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return sess, nil
}

func (c *Client) sessionParams(params CheckoutSessionParams) *stripe.CheckoutSessionCreateParams {
	sessionParams := &stripe.CheckoutSessionCreateParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(fmt.Sprintf("%s/orders/%s?payment=success", c.baseURL, params.OrderID)),
		CancelURL:          stripe.String(fmt.Sprintf("%s/orders/%s?payment=cancelled", c.baseURL, params.OrderID)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency: stripe.String(params.Currency),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Order #%d", params.OrderNumber)),
					},
					UnitAmount: stripe.Int64(params.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"order_id":     params.OrderID.String(),
			"user_id":      params.UserID.String(),
			"order_number": fmt.Sprintf("%d", params.OrderNumber),
		},
		// Mirror the order reference onto the payment intent so that
		// payment_intent.* webhook events can be routed back to the order.
		PaymentIntentData: &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			Metadata: map[string]string{
				"order_id": params.OrderID.String(),
			},
		},
	}

	if params.CustomerEmail != "" {
		sessionParams.CustomerEmail = stripe.String(params.CustomerEmail)
	}

	return sessionParams
}
