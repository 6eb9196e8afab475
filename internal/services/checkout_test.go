package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stripe/stripe-go/v84"

	"github.com/sunushop/sunushop/internal/db"
	"github.com/sunushop/sunushop/internal/logging"
	"github.com/sunushop/sunushop/internal/models"
	"github.com/sunushop/sunushop/internal/payments"
	"github.com/sunushop/sunushop/internal/pricing"
)

func TestValidateCheckoutInput(t *testing.T) {
	t.Parallel()

	valid := func() CheckoutInput {
		return CheckoutInput{
			UserID: uuid.New(),
			Items:  []CheckoutItemInput{{ProductID: uuid.New(), Quantity: 2}},
			ShippingAddress: models.ShippingAddress{
				Line1:   "12 Rue Felix Faure",
				City:    "Dakar",
				Region:  "Dakar",
				Country: "SN",
			},
		}
	}

	if err := validateCheckoutInput(valid()); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	empty := valid()
	empty.Items = nil
	err := validateCheckoutInput(empty)
	rejection, ok := pricing.AsRejection(err)
	if !ok || rejection.Reason != ReasonEmptyCart {
		t.Fatalf("expected empty cart rejection, got %v", err)
	}

	badQty := valid()
	badQty.Items[0].Quantity = 0
	if err := validateCheckoutInput(badQty); err == nil {
		t.Error("expected error for zero quantity")
	}

	noProduct := valid()
	noProduct.Items[0].ProductID = uuid.Nil
	if err := validateCheckoutInput(noProduct); err == nil {
		t.Error("expected error for missing product id")
	}

	noCountry := valid()
	noCountry.ShippingAddress.Country = "  "
	if err := validateCheckoutInput(noCountry); err == nil {
		t.Error("expected error for missing country")
	}

	negativePoints := valid()
	negativePoints.PointsToRedeem = -5
	if err := validateCheckoutInput(negativePoints); err == nil {
		t.Error("expected error for negative points")
	}
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cents    int64
		currency string
		want     string
	}{
		{150000, "xof", "1500.00 XOF"},
		{1999, "usd", "19.99 USD"},
		{0, "xof", "0.00 XOF"},
		{5, "eur", "0.05 EUR"},
	}

	for _, tt := range tests {
		if got := FormatMoney(tt.cents, tt.currency); got != tt.want {
			t.Errorf("FormatMoney(%d, %q) = %q, want %q", tt.cents, tt.currency, got, tt.want)
		}
	}
}

func TestFormatShippingAddress(t *testing.T) {
	t.Parallel()

	address := models.ShippingAddress{
		Line1:   "12 Rue Felix Faure",
		City:    "Dakar",
		Region:  "Dakar",
		Country: "SN",
	}
	got := FormatShippingAddress(address)
	want := "12 Rue Felix Faure, Dakar, Dakar, SN"
	if got != want {
		t.Errorf("FormatShippingAddress() = %q, want %q", got, want)
	}
}

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeTxBeginner struct {
	txs []*fakeTx
}

func (b *fakeTxBeginner) Begin(context.Context) (pgx.Tx, error) {
	tx := &fakeTx{}
	b.txs = append(b.txs, tx)
	return tx, nil
}

type fakeOrderStore struct {
	orders     map[uuid.UUID]*db.Order
	paid       []uuid.UUID
	failed     map[uuid.UUID]string
	failedTx   map[uuid.UUID]string
	cancelled  map[uuid.UUID]db.OrderStatus
	sessions   map[uuid.UUID]string
	nextNumber int64
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders:     make(map[uuid.UUID]*db.Order),
		failed:     make(map[uuid.UUID]string),
		failedTx:   make(map[uuid.UUID]string),
		cancelled:  make(map[uuid.UUID]db.OrderStatus),
		sessions:   make(map[uuid.UUID]string),
		nextNumber: 1000,
	}
}

func (s *fakeOrderStore) CreateTx(_ context.Context, _ pgx.Tx, order *db.Order) error {
	order.ID = uuid.New()
	s.nextNumber++
	order.OrderNumber = s.nextNumber
	order.CreatedAt = time.Now()
	s.orders[order.ID] = order
	return nil
}

func (s *fakeOrderStore) GetByID(_ context.Context, orderID uuid.UUID) (*db.Order, error) {
	if order, ok := s.orders[orderID]; ok {
		return order, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeOrderStore) ListByUser(_ context.Context, userID uuid.UUID, _ int) ([]*db.Order, error) {
	var orders []*db.Order
	for _, order := range s.orders {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (s *fakeOrderStore) UpdateStripeSession(_ context.Context, orderID uuid.UUID, sessionID string) error {
	s.sessions[orderID] = sessionID
	return nil
}

func (s *fakeOrderStore) MarkPaidTx(_ context.Context, _ pgx.Tx, orderID uuid.UUID, paymentIntentID string, pointsEarned int64) error {
	order, ok := s.orders[orderID]
	if !ok || (order.Status != db.StatusPendingPayment && order.Status != db.StatusPaymentFailed) {
		return db.ErrInvalidStatusTransition
	}
	order.Status = db.StatusPaid
	order.StripePaymentIntentID = paymentIntentID
	order.PointsEarned = pointsEarned
	s.paid = append(s.paid, orderID)
	return nil
}

func (s *fakeOrderStore) MarkFailed(_ context.Context, orderID uuid.UUID, reason string) error {
	s.failed[orderID] = reason
	return nil
}

func (s *fakeOrderStore) MarkFailedTx(_ context.Context, _ pgx.Tx, orderID uuid.UUID, reason string) error {
	order, ok := s.orders[orderID]
	if !ok || order.Status != db.StatusPendingPayment {
		return db.ErrInvalidStatusTransition
	}
	order.Status = db.StatusPaymentFailed
	order.FailureReason = reason
	s.failedTx[orderID] = reason
	return nil
}

func (s *fakeOrderStore) MarkShipped(_ context.Context, orderID uuid.UUID) error {
	s.orders[orderID].Status = db.StatusShipped
	return nil
}

func (s *fakeOrderStore) MarkDelivered(_ context.Context, orderID uuid.UUID) error {
	s.orders[orderID].Status = db.StatusDelivered
	return nil
}

func (s *fakeOrderStore) MarkCancelledTx(_ context.Context, _ pgx.Tx, orderID uuid.UUID, status db.OrderStatus) error {
	order, ok := s.orders[orderID]
	if !ok || (order.Status != db.StatusPendingPayment && order.Status != db.StatusPaymentFailed) {
		return db.ErrInvalidStatusTransition
	}
	order.Status = status
	s.cancelled[orderID] = status
	return nil
}

type fakeStockStore struct {
	products map[uuid.UUID]*db.Product
	restocks map[uuid.UUID]int64
}

func newFakeStockStore(products ...*db.Product) *fakeStockStore {
	s := &fakeStockStore{
		products: make(map[uuid.UUID]*db.Product),
		restocks: make(map[uuid.UUID]int64),
	}
	for _, product := range products {
		s.products[product.ID] = product
	}
	return s
}

func (s *fakeStockStore) GetByID(_ context.Context, id uuid.UUID) (*db.Product, error) {
	if product, ok := s.products[id]; ok {
		return product, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeStockStore) DecrementStockTx(_ context.Context, _ pgx.Tx, productID uuid.UUID, quantity int64) error {
	product, ok := s.products[productID]
	if !ok || product.Stock < quantity {
		return db.ErrInsufficientStock
	}
	product.Stock -= quantity
	return nil
}

func (s *fakeStockStore) RestockTx(_ context.Context, _ pgx.Tx, productID uuid.UUID, quantity int64) error {
	s.restocks[productID] += quantity
	if product, ok := s.products[productID]; ok {
		product.Stock += quantity
	}
	return nil
}

type fakeCouponLedger struct {
	coupons  map[string]*db.Coupon
	consumed []uuid.UUID
	released []uuid.UUID
}

func (s *fakeCouponLedger) GetByCode(_ context.Context, code string) (*db.Coupon, error) {
	if coupon, ok := s.coupons[code]; ok {
		return coupon, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeCouponLedger) ConsumeTx(_ context.Context, _ pgx.Tx, couponID uuid.UUID) error {
	s.consumed = append(s.consumed, couponID)
	return nil
}

func (s *fakeCouponLedger) ReleaseTx(_ context.Context, _ pgx.Tx, couponID uuid.UUID) error {
	s.released = append(s.released, couponID)
	return nil
}

type fakeLoyaltyLedger struct {
	accounts map[uuid.UUID]*db.LoyaltyAccount
	redeemed map[uuid.UUID]int64
	credits  []*db.LoyaltyTransaction
}

func newFakeLoyaltyLedger(accounts ...*db.LoyaltyAccount) *fakeLoyaltyLedger {
	s := &fakeLoyaltyLedger{
		accounts: make(map[uuid.UUID]*db.LoyaltyAccount),
		redeemed: make(map[uuid.UUID]int64),
	}
	for _, account := range accounts {
		s.accounts[account.UserID] = account
	}
	return s
}

func (s *fakeLoyaltyLedger) GetAccount(_ context.Context, userID uuid.UUID) (*db.LoyaltyAccount, error) {
	if account, ok := s.accounts[userID]; ok {
		return account, nil
	}
	return &db.LoyaltyAccount{UserID: userID, Tier: models.TierBronze}, nil
}

func (s *fakeLoyaltyLedger) RedeemTx(_ context.Context, _ pgx.Tx, userID uuid.UUID, points int64, _ uuid.UUID) error {
	account, ok := s.accounts[userID]
	if !ok || account.PointsBalance < points {
		return db.ErrInsufficientPoints
	}
	account.PointsBalance -= points
	s.redeemed[userID] += points
	return nil
}

func (s *fakeLoyaltyLedger) CreditTx(_ context.Context, _ pgx.Tx, userID uuid.UUID, points int64, tier models.LoyaltyTier, txn *db.LoyaltyTransaction) error {
	if account, ok := s.accounts[userID]; ok {
		account.PointsBalance += points
		account.LifetimePoints += points
		account.Tier = tier
	}
	s.credits = append(s.credits, txn)
	return nil
}

func (s *fakeLoyaltyLedger) LifetimePointsTx(_ context.Context, _ pgx.Tx, userID uuid.UUID) (int64, error) {
	if account, ok := s.accounts[userID]; ok {
		return account.LifetimePoints, nil
	}
	return 0, nil
}

type fakeOrderEmailSender struct {
	confirmations []uuid.UUID
	shipped       []uuid.UUID
	delivered     []uuid.UUID
}

func (s *fakeOrderEmailSender) SendOrderConfirmation(_ context.Context, _ *db.User, order *db.Order) error {
	s.confirmations = append(s.confirmations, order.ID)
	return nil
}

func (s *fakeOrderEmailSender) SendOrderShipped(_ context.Context, _ *db.User, order *db.Order) error {
	s.shipped = append(s.shipped, order.ID)
	return nil
}

func (s *fakeOrderEmailSender) SendOrderDelivered(_ context.Context, _ *db.User, order *db.Order) error {
	s.delivered = append(s.delivered, order.ID)
	return nil
}

type fakePaymentStarter struct {
	session *stripe.CheckoutSession
	err     error
	calls   int
}

func (s *fakePaymentStarter) CreateCheckoutSession(context.Context, payments.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

type checkoutFixture struct {
	pool    *fakeTxBeginner
	orders  *fakeOrderStore
	stock   *fakeStockStore
	coupons *fakeCouponLedger
	loyalty *fakeLoyaltyLedger
	emails  *fakeOrderEmailSender
	service *CheckoutService
	user    *db.User
	product *db.Product
}

func newCheckoutFixture(t *testing.T, shippingCostCents int64, starter paymentStarter) *checkoutFixture {
	t.Helper()

	user := &db.User{ID: uuid.New(), Email: "awa@example.sn", Name: "Awa Diop", Role: models.RoleBuyer}
	users := newFakeUserStore()
	users.users[user.Email] = user

	product := &db.Product{
		ID:             uuid.New(),
		SellerID:       uuid.New(),
		SKU:            "THIOF-1",
		Name:           "Thiof frais",
		UnitPriceCents: 5000,
		Stock:          10,
		Active:         true,
	}

	settings := models.DefaultSettings()
	settings.TaxEnabled = false

	zones := &fakeZoneLister{zones: []db.ShippingZone{{
		ID:                uuid.New(),
		Name:              "Dakar",
		Countries:         []string{"SN"},
		ShippingCostCents: shippingCostCents,
		Active:            true,
	}}}

	f := &checkoutFixture{
		pool:    &fakeTxBeginner{},
		orders:  newFakeOrderStore(),
		stock:   newFakeStockStore(product),
		coupons: &fakeCouponLedger{coupons: map[string]*db.Coupon{}},
		loyalty: newFakeLoyaltyLedger(&db.LoyaltyAccount{UserID: user.ID, PointsBalance: 5000, Tier: models.TierBronze}),
		emails:  &fakeOrderEmailSender{},
		user:    user,
		product: product,
	}
	f.service = &CheckoutService{
		pool:        f.pool,
		users:       users,
		products:    f.stock,
		coupons:     f.coupons,
		loyalty:     f.loyalty,
		orders:      f.orders,
		shipping:    NewShippingService(zones, logging.Nop()),
		settings:    NewSettingsService(&fakeSettingsStore{settings: &settings}, nil, logging.Nop()),
		payments:    starter,
		emailSender: f.emails,
		logger:      logging.Nop(),
	}
	return f
}

func checkoutInputFor(f *checkoutFixture, quantity, pointsToRedeem int64) CheckoutInput {
	return CheckoutInput{
		UserID: f.user.ID,
		Items:  []CheckoutItemInput{{ProductID: f.product.ID, Quantity: quantity}},
		ShippingAddress: models.ShippingAddress{
			Line1:   "12 Rue Felix Faure",
			City:    "Dakar",
			Region:  "Dakar",
			Country: "SN",
		},
		PointsToRedeem: pointsToRedeem,
	}
}

func TestCheckout_ZeroTotalPaidInline(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t, 0, nil)

	result, err := f.service.Checkout(context.Background(), checkoutInputFor(f, 1, 5000))
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	if result.Totals.TotalCents != 0 {
		t.Fatalf("TotalCents = %d, want 0", result.Totals.TotalCents)
	}
	if result.PaymentURL != "" {
		t.Errorf("PaymentURL = %q, want empty for a fully redeemed order", result.PaymentURL)
	}
	if result.Order.Status != db.StatusPaid {
		t.Errorf("Status = %q, want %q", result.Order.Status, db.StatusPaid)
	}
	if len(f.orders.paid) != 1 {
		t.Errorf("paid orders = %d, want 1", len(f.orders.paid))
	}
	if f.loyalty.redeemed[f.user.ID] != 5000 {
		t.Errorf("redeemed points = %d, want 5000", f.loyalty.redeemed[f.user.ID])
	}
	if len(f.pool.txs) != 1 || !f.pool.txs[0].committed {
		t.Error("expected a single committed transaction")
	}
	if len(f.emails.confirmations) != 1 {
		t.Errorf("confirmation emails = %d, want 1", len(f.emails.confirmations))
	}
}

func TestCheckout_StockGuardFailureRollsBack(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t, 1500, nil)
	// The catalog row still looks available; only the guarded decrement
	// inside the transaction can see the shortfall.
	f.product.Stock = 1

	_, err := f.service.Checkout(context.Background(), checkoutInputFor(f, 2, 0))
	rejection, ok := pricing.AsRejection(err)
	if !ok || rejection.Reason != ReasonInsufficientStock {
		t.Fatalf("expected insufficient stock rejection, got %v", err)
	}

	if len(f.pool.txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(f.pool.txs))
	}
	if f.pool.txs[0].committed || !f.pool.txs[0].rolledBack {
		t.Error("expected the checkout transaction to roll back")
	}
	if len(f.orders.paid) != 0 {
		t.Errorf("paid orders = %d, want 0", len(f.orders.paid))
	}
	if f.loyalty.redeemed[f.user.ID] != 0 {
		t.Errorf("redeemed points = %d, want 0", f.loyalty.redeemed[f.user.ID])
	}
}

func TestCheckout_SessionFailureReleasesReservations(t *testing.T) {
	t.Parallel()

	starter := &fakePaymentStarter{err: errors.New("stripe unavailable")}
	f := newCheckoutFixture(t, 1500, starter)

	_, err := f.service.Checkout(context.Background(), checkoutInputFor(f, 1, 1000))
	if err == nil {
		t.Fatal("expected checkout to fail when the payment session cannot be created")
	}
	if starter.calls != 1 {
		t.Fatalf("payment session attempts = %d, want 1", starter.calls)
	}

	var order *db.Order
	for _, o := range f.orders.orders {
		order = o
	}
	if order == nil {
		t.Fatal("expected the committed order to exist")
	}

	if order.Status != db.StatusPaymentFailed {
		t.Errorf("Status = %q, want %q", order.Status, db.StatusPaymentFailed)
	}
	if f.orders.failedTx[order.ID] != "payment session creation failed" {
		t.Errorf("failure reason = %q, want session creation failure", f.orders.failedTx[order.ID])
	}
	if f.stock.restocks[f.product.ID] != 1 {
		t.Errorf("restocked quantity = %d, want 1", f.stock.restocks[f.product.ID])
	}
	if len(f.loyalty.credits) != 1 {
		t.Fatalf("loyalty credits = %d, want 1 refund", len(f.loyalty.credits))
	}
	refund := f.loyalty.credits[0]
	if refund.Type != models.LoyaltyBonus || refund.Points != 1000 {
		t.Errorf("refund = %s/%d points, want bonus/1000", refund.Type, refund.Points)
	}
	if len(f.pool.txs) != 2 || !f.pool.txs[0].committed || !f.pool.txs[1].committed {
		t.Error("expected the checkout and release transactions to both commit")
	}
}
