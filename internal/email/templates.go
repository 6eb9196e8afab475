// Package email provides email templates.
package email

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

// OrderInfo contains the pre-formatted values the order email
// templates need. Money values arrive already formatted with their
// currency so templates stay arithmetic-free.
type OrderInfo struct {
	OrderNumber     string
	CustomerName    string
	CustomerEmail   string
	MarketplaceName string
	MarketplaceURL  string
	OrderDate       string
	Items           []OrderLine
	Subtotal        string
	Discount        string
	Shipping        string
	Tax             string
	Total           string
	PointsRedeemed  int64
	PointsEarned    int64
	ShippingAddress string
}

// OrderLine represents a single item in an order email.
type OrderLine struct {
	Name      string
	SKU       string
	Quantity  int64
	UnitPrice string
	LineTotal string
}

// Renderer provides methods to render email templates.
type Renderer struct {
	templates *template.Template
}

// NewRenderer creates a new email template renderer with built-in templates.
func NewRenderer() (*Renderer, error) {
	bodies := map[string]struct {
		html string
		text string
	}{
		"order_confirmation": {orderConfirmationHTML, orderConfirmationText},
		"order_shipped":      {orderShippedHTML, orderShippedText},
		"order_delivered":    {orderDeliveredHTML, orderDeliveredText},
	}

	tmpl := template.New("email")
	for key, body := range bodies {
		if _, err := tmpl.New(key + "_html").Parse(body.html); err != nil {
			return nil, fmt.Errorf("failed to parse HTML template %s: %w", key, err)
		}
		if _, err := tmpl.New(key + "_text").Parse(body.text); err != nil {
			return nil, fmt.Errorf("failed to parse text template %s: %w", key, err)
		}
	}

	return &Renderer{templates: tmpl}, nil
}

// Render renders an email template with the given data.
func (r *Renderer) Render(ctx context.Context, templateName string, data *OrderInfo) (*Email, error) {
	var htmlBuf, textBuf bytes.Buffer

	if err := r.templates.ExecuteTemplate(&htmlBuf, templateName+"_html", data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}
	if err := r.templates.ExecuteTemplate(&textBuf, templateName+"_text", data); err != nil {
		return nil, fmt.Errorf("failed to render text template: %w", err)
	}

	subject := ""
	switch templateName {
	case "order_confirmation":
		subject = fmt.Sprintf("Order Confirmed - #%s - %s", data.OrderNumber, data.MarketplaceName)
	case "order_shipped":
		subject = fmt.Sprintf("Your Order Has Shipped - #%s - %s", data.OrderNumber, data.MarketplaceName)
	case "order_delivered":
		subject = fmt.Sprintf("Your Order Has Been Delivered - #%s", data.OrderNumber)
	}

	return &Email{
		To:      data.CustomerEmail,
		Subject: subject,
		Text:    textBuf.String(),
		HTML:    htmlBuf.String(),
	}, nil
}

// SendOrderConfirmation sends an order confirmation email.
func SendOrderConfirmation(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	return sendOrderEmail(ctx, p, "order_confirmation", orderInfo)
}

// SendOrderShipped sends an order shipped email.
func SendOrderShipped(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	return sendOrderEmail(ctx, p, "order_shipped", orderInfo)
}

// SendOrderDelivered sends an order delivered email.
func SendOrderDelivered(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	return sendOrderEmail(ctx, p, "order_delivered", orderInfo)
}

func sendOrderEmail(ctx context.Context, p Provider, templateName string, orderInfo *OrderInfo) error {
	if p == nil {
		return nil
	}

	renderer, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	email, err := renderer.Render(ctx, templateName, orderInfo)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	return p.SendEmail(ctx, email)
}

const orderConfirmationText = `Thank you for your order!

Order Number: #{{.OrderNumber}}
Order Date: {{.OrderDate}}

Items:
{{range .Items}}
- {{.Name}} ({{.SKU}}) x{{.Quantity}} - {{.LineTotal}}
{{end}}

Subtotal: {{.Subtotal}}
{{if .Discount}}Discount: -{{.Discount}}
{{end}}Shipping: {{.Shipping}}
Tax: {{.Tax}}
Total: {{.Total}}

{{if .PointsRedeemed}}Points redeemed: {{.PointsRedeemed}}
{{end}}{{if .PointsEarned}}Points earned: {{.PointsEarned}}
{{end}}
We'll send you another email when your order ships.

Thank you for shopping with {{.MarketplaceName}}!
{{.MarketplaceURL}}
`

const orderConfirmationHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Order Confirmation</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #2563eb; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
    .order-info { background: white; padding: 15px; border-radius: 6px; margin: 15px 0; }
    .items-table { width: 100%; border-collapse: collapse; margin: 15px 0; }
    .items-table th { text-align: left; padding: 10px; background: #f3f4f6; border-bottom: 2px solid #e5e7eb; }
    .items-table td { padding: 10px; border-bottom: 1px solid #e5e7eb; }
    .total { font-size: 18px; font-weight: bold; text-align: right; padding: 15px 0; }
    .footer { text-align: center; padding: 20px; color: #6b7280; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Order Confirmed!</h1>
    <p>Thank you for your order, {{.CustomerName}}</p>
  </div>
  <div class="content">
    <div class="order-info">
      <strong>Order Number:</strong> #{{.OrderNumber}}<br>
      <strong>Order Date:</strong> {{.OrderDate}}
    </div>

    <h3>Order Summary</h3>
    <table class="items-table">
      <thead>
        <tr>
          <th>Item</th>
          <th>Qty</th>
          <th>Price</th>
        </tr>
      </thead>
      <tbody>
        {{range .Items}}
        <tr>
          <td>{{.Name}} <br><small>{{.SKU}}</small></td>
          <td>{{.Quantity}}</td>
          <td>{{.LineTotal}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <div class="total">
      <p>Subtotal: {{.Subtotal}}</p>
      {{if .Discount}}<p>Discount: -{{.Discount}}</p>{{end}}
      <p>Shipping: {{.Shipping}}</p>
      <p>Tax: {{.Tax}}</p>
      <p>Total: {{.Total}}</p>
    </div>

    {{if .PointsEarned}}<p>You earned <strong>{{.PointsEarned}}</strong> loyalty points with this order.</p>{{end}}
    <p>We'll send you another email when your order ships.</p>
  </div>
  <div class="footer">
    <p>Thank you for shopping with <a href="{{.MarketplaceURL}}">{{.MarketplaceName}}</a></p>
  </div>
</body>
</html>
`

const orderShippedText = `Great news! Your order has shipped!

Order Number: #{{.OrderNumber}}
Shipped Date: {{.OrderDate}}

Shipping Address:
{{.ShippingAddress}}

We'll let you know when your package is delivered!

Thank you for shopping with {{.MarketplaceName}}!
{{.MarketplaceURL}}
`

const orderShippedHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Order Shipped</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #059669; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
    .footer { text-align: center; padding: 20px; color: #6b7280; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Your Order Has Shipped!</h1>
    <p>Great news, {{.CustomerName}}! Your order is on its way.</p>
  </div>
  <div class="content">
    <p><strong>Order Number:</strong> #{{.OrderNumber}}</p>
    <p><strong>Shipped Date:</strong> {{.OrderDate}}</p>

    <h3>Shipping Address</h3>
    <p>{{.ShippingAddress}}</p>

    <p>We'll let you know when your package is delivered!</p>
  </div>
  <div class="footer">
    <p>Thank you for shopping with <a href="{{.MarketplaceURL}}">{{.MarketplaceName}}</a></p>
  </div>
</body>
</html>
`

const orderDeliveredText = `Your order has been delivered!

Order Number: #{{.OrderNumber}}
Delivered Date: {{.OrderDate}}

Your package should have arrived at:
{{.ShippingAddress}}

We hope you enjoy your purchase! If you have any questions or concerns, please don't hesitate to reach out.

Thank you for shopping with {{.MarketplaceName}}!
{{.MarketplaceURL}}
`

const orderDeliveredHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Order Delivered</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #7c3aed; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
    .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
    .footer { text-align: center; padding: 20px; color: #6b7280; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Your Order Has Been Delivered!</h1>
    <p>Your package has arrived, {{.CustomerName}}!</p>
  </div>
  <div class="content">
    <p><strong>Order Number:</strong> #{{.OrderNumber}}</p>
    <p><strong>Delivered Date:</strong> {{.OrderDate}}</p>
    <p>We hope you enjoy your purchase!</p>
  </div>
  <div class="footer">
    <p>Thank you for shopping with <a href="{{.MarketplaceURL}}">{{.MarketplaceName}}</a></p>
  </div>
</body>
</html>
`
