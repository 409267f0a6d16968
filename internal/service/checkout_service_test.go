package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/internal/payment"
	"github.com/coralcart/storefront/internal/repository"
)

type stubShippingValidator struct {
	quote ShippingQuote
	err   error
}

func (s *stubShippingValidator) ValidateMethod(_ context.Context, methodID uuid.UUID, _ string, _, _ decimal.Decimal) (ShippingQuote, error) {
	if s.err != nil {
		return ShippingQuote{}, s.err
	}
	quote := s.quote
	quote.MethodID = methodID
	return quote, nil
}

type checkoutFixture struct {
	svc         *CheckoutService
	carts       *CartService
	productRepo *mockProductRepo
	orderRepo   *mockOrderRepo
	eventRepo   *mockEventRepo
	payments    *mockPayments
	notifier    *mockNotifier
	shipping    *stubShippingValidator
}

func newCheckoutFixture(t *testing.T, products ...*domain.Product) *checkoutFixture {
	t.Helper()

	productRepo := newMockProductRepo(products...)
	orderRepo := newMockOrderRepo(productRepo)
	eventRepo := &mockEventRepo{}
	repos := &repository.Repositories{
		Product:    productRepo,
		Order:      orderRepo,
		OrderEvent: eventRepo,
	}

	carts := NewCartService(newMemCartStore(), repos, zap.NewNop())
	payments := &mockPayments{}
	notifier := &mockNotifier{}
	shipping := &stubShippingValidator{
		quote: ShippingQuote{Name: "Standard", Cost: decimal.RequireFromString("5.00")},
	}

	svc := NewCheckoutService(
		repos, carts, shipping, payments,
		payment.NewClassifier(zap.NewNop()), notifier, nil,
		decimal.RequireFromString("0.10"), "USD", zap.NewNop(),
	)

	return &checkoutFixture{
		svc:         svc,
		carts:       carts,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		eventRepo:   eventRepo,
		payments:    payments,
		notifier:    notifier,
		shipping:    shipping,
	}
}

func validCheckoutRequest(method domain.PaymentMethod) CheckoutRequest {
	req := CheckoutRequest{
		Email:            "jane@example.com",
		CustomerName:     "Jane Doe",
		ShippingStreet:   "1 Reef Way",
		ShippingCity:     "Coral Bay",
		ShippingPostal:   "90210",
		ShippingCountry:  "US",
		ShippingMethodID: uuid.New(),
		PaymentMethod:    method,
	}
	switch method {
	case domain.PaymentMethodCard:
		req.CardToken = "tok_visa"
	case domain.PaymentMethodWallet:
		req.WalletIntentID = "INT-123"
	}
	return req
}

func TestCheckout_CardSuccess(t *testing.T) {
	product := testProduct("Mug", "20.00", 10, "0.5")
	f := newCheckoutFixture(t, product)
	session := domain.Session{ID: "s1"}

	_, err := f.carts.Add(context.Background(), session, product.ID, 2)
	require.NoError(t, err)

	f.payments.result = domain.PaymentResult{
		Success:       true,
		TransactionID: "ch_abc123",
		Status:        domain.PaymentStatusPaid,
	}

	result, err := f.svc.Checkout(context.Background(), session, validCheckoutRequest(domain.PaymentMethodCard))
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.NotEmpty(t, result.OrderNumber)
	assert.Equal(t, "ch_abc123", result.PaymentRef)

	// Charged subtotal + shipping + 10% tax: 40 + 5 + 4 = 49
	require.Len(t, f.payments.requests, 1)
	assert.True(t, f.payments.requests[0].Amount.Equal(decimal.RequireFromString("49.00")))
	assert.Equal(t, "USD", f.payments.requests[0].Currency)

	// Order persisted as paid, stock decremented, cart cleared
	order, err := f.orderRepo.GetByNumber(context.Background(), result.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, 8, f.productRepo.products[product.ID].StockQuantity)

	cart, err := f.carts.Get(context.Background(), session)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCheckout_CardDeclinedPreservesCart(t *testing.T) {
	product := testProduct("Mug", "20.00", 10, "")
	f := newCheckoutFixture(t, product)
	session := domain.Session{ID: "s1"}

	_, err := f.carts.Add(context.Background(), session, product.ID, 2)
	require.NoError(t, err)

	f.payments.result = domain.PaymentResult{
		Success:      false,
		ErrorCode:    "card_declined",
		ErrorMessage: "Your card was declined",
	}

	result, err := f.svc.Checkout(context.Background(), session, validCheckoutRequest(domain.PaymentMethodCard))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Your card was declined.", result.Message)
	assert.True(t, result.Recoverable)
	assert.NotEmpty(t, result.Suggestion)

	// Nothing persisted, nothing decremented, cart intact
	assert.Empty(t, f.orderRepo.orders)
	assert.Equal(t, 10, f.productRepo.products[product.ID].StockQuantity)
	cart, err := f.carts.Get(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Quantity(product.ID))
}

func TestCheckout_ManualTransferPlacesPendingOrder(t *testing.T) {
	product := testProduct("Mug", "20.00", 10, "")
	f := newCheckoutFixture(t, product)
	session := domain.Session{ID: "s1"}

	_, err := f.carts.Add(context.Background(), session, product.ID, 1)
	require.NoError(t, err)

	f.payments.result = domain.PaymentResult{
		Success:       true,
		TransactionID: "BT-4f3a2b1c9d8e",
		Status:        domain.PaymentStatusPending,
	}

	result, err := f.svc.Checkout(context.Background(), session, validCheckoutRequest(domain.PaymentMethodManualTransfer))
	require.NoError(t, err)
	require.True(t, result.Success)

	order, err := f.orderRepo.GetByNumber(context.Background(), result.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, "BT-4f3a2b1c9d8e", order.PaymentRef)
	assert.Equal(t, 9, f.productRepo.products[product.ID].StockQuantity)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	result, err := f.svc.Checkout(context.Background(), domain.Session{ID: "s1"}, validCheckoutRequest(domain.PaymentMethodCard))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "empty")
	assert.Empty(t, f.payments.requests)
}

func TestCheckout_StaleStockBlocksBeforeCharge(t *testing.T) {
	product := testProduct("Mug", "20.00", 5, "")
	f := newCheckoutFixture(t, product)
	session := domain.Session{ID: "s1"}

	_, err := f.carts.Add(context.Background(), session, product.ID, 5)
	require.NoError(t, err)

	// Stock dropped after the cart was built
	f.productRepo.products[product.ID].StockQuantity = 2

	result, err := f.svc.Checkout(context.Background(), session, validCheckoutRequest(domain.PaymentMethodCard))
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.Len(t, result.StockIssues, 1)
	assert.Equal(t, StockIssueInsufficient, result.StockIssues[product.ID].Reason)

	// The charge was never attempted and the cart survives
	assert.Empty(t, f.payments.requests)
	cart, err := f.carts.Get(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Quantity(product.ID))
}

func TestCheckout_MissingCardTokenFailsValidation(t *testing.T) {
	product := testProduct("Mug", "20.00", 10, "")
	f := newCheckoutFixture(t, product)
	session := domain.Session{ID: "s1"}

	_, err := f.carts.Add(context.Background(), session, product.ID, 1)
	require.NoError(t, err)

	req := validCheckoutRequest(domain.PaymentMethodCard)
	req.CardToken = ""

	result, err := f.svc.Checkout(context.Background(), session, req)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.FieldErrors, "card_token")
	assert.Empty(t, f.payments.requests)
}

func TestCheckout_ShippingConstraintViolation(t *testing.T) {
	product := testProduct("Mug", "20.00", 10, "")
	f := newCheckoutFixture(t, product)
	f.shipping.err = ErrAboveMaxWeight
	session := domain.Session{ID: "s1"}

	_, err := f.carts.Add(context.Background(), session, product.ID, 1)
	require.NoError(t, err)

	result, err := f.svc.Checkout(context.Background(), session, validCheckoutRequest(domain.PaymentMethodCard))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "shipping method")
	assert.Empty(t, f.payments.requests)
}

func TestCheckout_PersistenceFailureAfterCapture(t *testing.T) {
	product := testProduct("Mug", "20.00", 10, "")
	f := newCheckoutFixture(t, product)
	session := domain.Session{ID: "s1"}

	_, err := f.carts.Add(context.Background(), session, product.ID, 1)
	require.NoError(t, err)

	f.payments.result = domain.PaymentResult{
		Success:       true,
		TransactionID: "ch_captured",
		Status:        domain.PaymentStatusPaid,
	}
	f.orderRepo.createErr = context.DeadlineExceeded

	result, err := f.svc.Checkout(context.Background(), session, validCheckoutRequest(domain.PaymentMethodCard))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "contact support")
	// The transaction id comes back so support can reconcile
	assert.Equal(t, "ch_captured", result.PaymentRef)

	// The cart survives for the retry conversation
	cart, err := f.carts.Get(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Quantity(product.ID))
}

func TestCheckout_ConcurrentBuyersNeverOversell(t *testing.T) {
	const stock = 3
	const buyers = 10

	product := testProduct("Limited", "20.00", stock, "")
	f := newCheckoutFixture(t, product)

	f.payments.result = domain.PaymentResult{
		Success:       true,
		TransactionID: "BT-aabbccddeeff",
		Status:        domain.PaymentStatusPending,
	}

	sessions := make([]domain.Session, buyers)
	for i := range sessions {
		sessions[i] = domain.Session{ID: uuid.NewString()}
		_, err := f.carts.Add(context.Background(), sessions[i], product.ID, 1)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	results := make([]*CheckoutResult, buyers)
	errs := make([]error, buyers)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.Checkout(context.Background(), sessions[i], validCheckoutRequest(domain.PaymentMethodManualTransfer))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "buyer %d", i)
	}

	successes := 0
	for _, result := range results {
		if result.Success {
			successes++
		}
	}
	assert.Equal(t, stock, successes)
	assert.Equal(t, 0, f.productRepo.products[product.ID].StockQuantity)
	assert.Len(t, f.orderRepo.orders, stock)
}

func TestCheckout_RecordsCreationEvent(t *testing.T) {
	product := testProduct("Mug", "20.00", 10, "")
	f := newCheckoutFixture(t, product)
	session := domain.Session{ID: "s1"}

	_, err := f.carts.Add(context.Background(), session, product.ID, 1)
	require.NoError(t, err)

	f.payments.result = domain.PaymentResult{
		Success:       true,
		TransactionID: "ch_abc",
		Status:        domain.PaymentStatusPaid,
	}

	result, err := f.svc.Checkout(context.Background(), session, validCheckoutRequest(domain.PaymentMethodCard))
	require.NoError(t, err)
	require.True(t, result.Success)

	f.eventRepo.mu.Lock()
	defer f.eventRepo.mu.Unlock()
	require.Len(t, f.eventRepo.events, 1)
	assert.Equal(t, "order_created", f.eventRepo.events[0].EventType)
}
