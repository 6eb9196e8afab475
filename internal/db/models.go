package db

import "github.com/sunushop/sunushop/internal/models"

type User = models.User
type Product = models.Product
type Coupon = models.Coupon
type ShippingZone = models.ShippingZone
type LoyaltyAccount = models.LoyaltyAccount
type LoyaltyTransaction = models.LoyaltyTransaction
type Settings = models.Settings
type Order = models.Order
type OrderItem = models.OrderItem
type OrderStatus = models.OrderStatus

const (
	StatusPendingPayment = models.StatusPendingPayment
	StatusPaid           = models.StatusPaid
	StatusPaymentFailed  = models.StatusPaymentFailed
	StatusExpired        = models.StatusExpired
	StatusShipped        = models.StatusShipped
	StatusDelivered      = models.StatusDelivered
	StatusCancelled      = models.StatusCancelled
)
