package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/email"
	"github.com/sunushop/sunushop/internal/models"
)

type OrderEmailSender interface {
	SendOrderConfirmation(ctx context.Context, user *db.User, order *db.Order) error
	SendOrderShipped(ctx context.Context, user *db.User, order *db.Order) error
	SendOrderDelivered(ctx context.Context, user *db.User, order *db.Order) error
}

// MarketplaceEmailSender renders and sends order lifecycle emails via
// the configured email provider.
type MarketplaceEmailSender struct {
	provider        email.Provider
	marketplaceName string
	marketplaceURL  string
}

func NewMarketplaceEmailSender(provider email.Provider, marketplaceName, marketplaceURL string) *MarketplaceEmailSender {
	if marketplaceName == "" {
		marketplaceName = "SunuShop"
	}
	return &MarketplaceEmailSender{
		provider:        provider,
		marketplaceName: marketplaceName,
		marketplaceURL:  marketplaceURL,
	}
}

func (s *MarketplaceEmailSender) SendOrderConfirmation(ctx context.Context, user *db.User, order *db.Order) error {
	return email.SendOrderConfirmation(ctx, s.provider, s.buildOrderInfo(user, order, order.CreatedAt))
}

func (s *MarketplaceEmailSender) SendOrderShipped(ctx context.Context, user *db.User, order *db.Order) error {
	return email.SendOrderShipped(ctx, s.provider, s.buildOrderInfo(user, order, order.ShippedAt))
}

func (s *MarketplaceEmailSender) SendOrderDelivered(ctx context.Context, user *db.User, order *db.Order) error {
	return email.SendOrderDelivered(ctx, s.provider, s.buildOrderInfo(user, order, order.DeliveredAt))
}

func (s *MarketplaceEmailSender) buildOrderInfo(user *db.User, order *db.Order, eventTime time.Time) *email.OrderInfo {
	items := make([]email.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, email.OrderLine{
			Name:      item.Name,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			UnitPrice: FormatMoney(item.UnitPriceCents, order.Currency),
			LineTotal: FormatMoney(item.LineTotalCents(), order.Currency),
		})
	}

	info := &email.OrderInfo{
		OrderNumber:     fmt.Sprintf("%d", order.OrderNumber),
		CustomerName:    user.Name,
		CustomerEmail:   user.Email,
		MarketplaceName: s.marketplaceName,
		MarketplaceURL:  s.marketplaceURL,
		OrderDate:       eventTime.Format("January 2, 2006"),
		Items:           items,
		Subtotal:        FormatMoney(order.SubtotalCents, order.Currency),
		Shipping:        FormatMoney(order.ShippingCents, order.Currency),
		Tax:             FormatMoney(order.TaxCents, order.Currency),
		Total:           FormatMoney(order.TotalCents, order.Currency),
		PointsRedeemed:  order.PointsRedeemed,
		PointsEarned:    order.PointsEarned,
		ShippingAddress: FormatShippingAddress(order.ShippingAddress),
	}
	if order.DiscountCents > 0 {
		info.Discount = FormatMoney(order.DiscountCents, order.Currency)
	}
	return info
}

// FormatMoney renders a minor-unit amount with its currency code.
func FormatMoney(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, strings.ToUpper(currency))
}

// FormatShippingAddress renders an address as a single comma-joined line.
func FormatShippingAddress(address models.ShippingAddress) string {
	parts := make([]string, 0, 5)
	for _, part := range []string{address.Line1, address.Line2, address.City, address.Region, address.Country} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

type noopOrderEmailSender struct{}

func (noopOrderEmailSender) SendOrderConfirmation(context.Context, *db.User, *db.Order) error {
	return nil
}

func (noopOrderEmailSender) SendOrderShipped(context.Context, *db.User, *db.Order) error {
	return nil
}

func (noopOrderEmailSender) SendOrderDelivered(context.Context, *db.User, *db.Order) error {
	return nil
}
