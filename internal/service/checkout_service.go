package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/internal/notification"
	"github.com/coralcart/storefront/internal/payment"
	"github.com/coralcart/storefront/internal/repository"
	"github.com/coralcart/storefront/pkg/metrics"
	pkgerrors "github.com/coralcart/storefront/pkg/errors"
)

// CartManager is the cart collaborator the orchestrator drives
type CartManager interface {
	Get(ctx context.Context, session domain.Session) (*domain.Cart, error)
	ValidateStock(ctx context.Context, cart *domain.Cart) (map[uuid.UUID]StockIssue, error)
	Summary(ctx context.Context, cart *domain.Cart) (*CartSummary, error)
	Clear(ctx context.Context, session domain.Session) error
}

// ShippingValidator re-derives shipping validity at checkout time
type ShippingValidator interface {
	ValidateMethod(ctx context.Context, methodID uuid.UUID, countryCode string, weight, orderAmount decimal.Decimal) (ShippingQuote, error)
}

// PaymentProcessor executes charges
type PaymentProcessor interface {
	Process(ctx context.Context, method domain.PaymentMethod, req payment.ChargeRequest) (domain.PaymentResult, error)
}

type CheckoutService struct {
	repos      *repository.Repositories
	carts      CartManager
	shipping   ShippingValidator
	payments   PaymentProcessor
	classifier *payment.Classifier
	notifier   notification.Notifier
	metrics    *metrics.CheckoutMetrics
	taxRate    decimal.Decimal
	currency   string
	logger     *zap.Logger
}

// NewCheckoutService creates the checkout orchestrator
func NewCheckoutService(
	repos *repository.Repositories,
	carts CartManager,
	shipping ShippingValidator,
	payments PaymentProcessor,
	classifier *payment.Classifier,
	notifier notification.Notifier,
	checkoutMetrics *metrics.CheckoutMetrics,
	taxRate decimal.Decimal,
	currency string,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		repos:      repos,
		carts:      carts,
		shipping:   shipping,
		payments:   payments,
		classifier: classifier,
		notifier:   notifier,
		metrics:    checkoutMetrics,
		taxRate:    taxRate,
		currency:   currency,
		logger:     logger,
	}
}

// Checkout runs one end-to-end checkout attempt for the session's cart.
// Every gate that fails before order persistence leaves the cart exactly as
// the customer left it. Business failures come back in the result; an error
// return means an infrastructure failure before any funds moved.
func (s *CheckoutService) Checkout(ctx context.Context, session domain.Session, req CheckoutRequest) (*CheckoutResult, error) {
	cart, err := s.carts.Get(ctx, session)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		s.countOutcome("empty_cart")
		return &CheckoutResult{Success: false, Message: "your cart is empty"}, nil
	}

	issues, err := s.carts.ValidateStock(ctx, cart)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		s.countOutcome("stock_conflict")
		return &CheckoutResult{
			Success:     false,
			Message:     "some items in your cart are no longer available",
			StockIssues: issues,
		}, nil
	}

	if fieldErrors := validateCheckoutForm(req); len(fieldErrors) > 0 {
		s.countOutcome("validation_failed")
		return &CheckoutResult{
			Success:     false,
			Message:     "please correct the highlighted fields",
			FieldErrors: fieldErrors,
		}, nil
	}

	summary, err := s.carts.Summary(ctx, cart)
	if err != nil {
		return nil, err
	}

	quote, err := s.shipping.ValidateMethod(ctx, req.ShippingMethodID, req.ShippingCountry, summary.TotalWeight, summary.Subtotal)
	if err != nil {
		if isShippingConstraint(err) {
			s.countOutcome("shipping_invalid")
			return &CheckoutResult{
				Success: false,
				Message: "the selected shipping method is not available for your order",
			}, nil
		}
		return nil, err
	}

	taxAmount := summary.Subtotal.Mul(s.taxRate).Round(2)
	totalAmount := summary.Subtotal.Add(quote.Cost).Add(taxAmount)

	orderNumber, err := generateOrderNumber(ctx, s.repos.Order)
	if err != nil {
		return nil, err
	}

	chargeStart := time.Now()
	result, err := s.payments.Process(ctx, req.PaymentMethod, payment.ChargeRequest{
		Amount:      totalAmount,
		Currency:    s.currency,
		OrderNumber: orderNumber,
		Email:       req.Email,
		CardToken:   req.CardToken,
		IntentID:    req.WalletIntentID,
	})
	if err != nil {
		// Gateway configuration defect, not a decline
		return nil, err
	}
	s.observeCharge(req.PaymentMethod, time.Since(chargeStart))

	if !result.Success {
		cls := s.classifier.Classify(result.ErrorCode, result.ErrorMessage, req.PaymentMethod)
		s.countOutcome("payment_failed")
		return &CheckoutResult{
			Success:     false,
			Message:     cls.Message,
			Recoverable: cls.Recoverable,
			Suggestion:  cls.Suggestion,
		}, nil
	}

	order, items := buildOrder(orderNumber, req, summary, quote.Cost, taxAmount, totalAmount, result)

	if err := s.repos.Order.CreateWithItems(ctx, order, items); err != nil {
		var stockErr *pkgerrors.ErrInsufficientStock
		if errors.As(err, &stockErr) && req.PaymentMethod == domain.PaymentMethodManualTransfer {
			// No funds moved; surface as a stock conflict and preserve the cart
			s.countOutcome("stock_conflict")
			return &CheckoutResult{
				Success: false,
				Message: "some items in your cart are no longer available",
			}, nil
		}

		// Funds captured but the order was not recorded. The one place money
		// can move without a matching order; handled by logging and manual
		// reconciliation, never by re-attempting the charge.
		s.logger.Error("CRITICAL: payment captured but order persistence failed",
			zap.String("order_number", orderNumber),
			zap.String("transaction_id", result.TransactionID),
			zap.String("payment_method", string(req.PaymentMethod)),
			zap.String("amount", totalAmount.StringFixed(2)),
			zap.Error(err),
		)
		s.countOutcome("reconciliation_required")
		return &CheckoutResult{
			Success:    false,
			Message:    "your payment was received but we could not record your order; please contact support with your payment confirmation",
			PaymentRef: result.TransactionID,
		}, nil
	}

	if err := s.carts.Clear(ctx, session); err != nil {
		s.logger.Warn("Failed to clear cart after checkout", zap.Error(err))
	}

	s.recordEvent(ctx, order)
	s.notify(order)
	s.countOutcome("success")

	return &CheckoutResult{
		Success:     true,
		OrderNumber: order.OrderNumber,
		PaymentRef:  order.PaymentRef,
	}, nil
}

func buildOrder(
	orderNumber string,
	req CheckoutRequest,
	summary *CartSummary,
	shippingCost, taxAmount, totalAmount decimal.Decimal,
	result domain.PaymentResult,
) (*domain.Order, []*domain.OrderItem) {
	order := &domain.Order{
		OrderNumber:     orderNumber,
		Email:           req.Email,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		ShippingStreet:  req.ShippingStreet,
		ShippingCity:    req.ShippingCity,
		ShippingState:   req.ShippingState,
		ShippingPostal:  req.ShippingPostal,
		ShippingCountry: req.ShippingCountry,
		Subtotal:        summary.Subtotal,
		ShippingCost:    shippingCost,
		TaxAmount:       taxAmount,
		TotalAmount:     totalAmount,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   result.Status,
		PaymentRef:      result.TransactionID,
		Status:          domain.OrderStatusPending,
		Notes:           req.Notes,
	}

	items := make([]*domain.OrderItem, 0, len(summary.Items))
	for _, line := range summary.Items {
		items = append(items, &domain.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			ProductSKU:  line.SKU,
			Quantity:    line.Quantity,
			Price:       line.UnitPrice,
			Total:       line.LineTotal,
		})
	}

	return order, items
}

func validateCheckoutForm(req CheckoutRequest) map[string]string {
	fieldErrors := make(map[string]string)

	if strings.TrimSpace(req.Email) == "" || !strings.Contains(req.Email, "@") {
		fieldErrors["email"] = "a valid email address is required"
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		fieldErrors["customer_name"] = "name is required"
	}
	if strings.TrimSpace(req.ShippingStreet) == "" {
		fieldErrors["shipping_street"] = "street is required"
	}
	if strings.TrimSpace(req.ShippingCity) == "" {
		fieldErrors["shipping_city"] = "city is required"
	}
	if strings.TrimSpace(req.ShippingPostal) == "" {
		fieldErrors["shipping_postal"] = "postal code is required"
	}
	if len(req.ShippingCountry) != 2 {
		fieldErrors["shipping_country"] = "a two-letter country code is required"
	}
	if !req.PaymentMethod.IsValid() {
		fieldErrors["payment_method"] = "unknown payment method"
	}
	if req.PaymentMethod == domain.PaymentMethodCard && req.CardToken == "" {
		fieldErrors["card_token"] = "card token is required"
	}
	if req.PaymentMethod == domain.PaymentMethodWallet && req.WalletIntentID == "" {
		fieldErrors["wallet_intent_id"] = "wallet payment was not started"
	}

	return fieldErrors
}

func isShippingConstraint(err error) bool {
	return errors.Is(err, ErrNoShippingZone) ||
		errors.Is(err, ErrMethodInactive) ||
		errors.Is(err, ErrMethodWrongZone) ||
		errors.Is(err, ErrBelowMinWeight) ||
		errors.Is(err, ErrAboveMaxWeight) ||
		errors.Is(err, ErrBelowMinOrderAmount)
}

func (s *CheckoutService) recordEvent(ctx context.Context, order *domain.Order) {
	event := &domain.OrderEvent{
		OrderID:   order.ID,
		EventType: "order_created",
		EventData: map[string]interface{}{
			"order_number":   order.OrderNumber,
			"payment_method": order.PaymentMethod,
			"payment_status": order.PaymentStatus,
			"total_amount":   order.TotalAmount.StringFixed(2),
		},
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		s.logger.Warn("Failed to record order event", zap.Error(err))
	}
}

// notify dispatches the confirmation asynchronously. Failures are logged and
// swallowed; the committed order stands regardless.
func (s *CheckoutService) notify(order *domain.Order) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.notifier.SendOrderConfirmation(ctx, order); err != nil {
			s.logger.Warn("Failed to send order confirmation",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err),
			)
		}
	}()
}

func (s *CheckoutService) countOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.Attempts.WithLabelValues(outcome).Inc()
	}
}

func (s *CheckoutService) observeCharge(method domain.PaymentMethod, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.ChargeLatency.WithLabelValues(string(method)).Observe(float64(elapsed.Milliseconds()))
	}
}
