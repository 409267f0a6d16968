package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coralcart/storefront/internal/domain"
)

// StockIssueReason identifies why a cart line failed stock validation
type StockIssueReason string

const (
	StockIssueNotFound     StockIssueReason = "not_found"
	StockIssueInactive     StockIssueReason = "inactive"
	StockIssueInsufficient StockIssueReason = "insufficient_stock"
)

// StockIssue describes one cart line that cannot be fulfilled right now
type StockIssue struct {
	Reason    StockIssueReason `json:"reason"`
	Message   string           `json:"message"`
	Available *int             `json:"available,omitempty"`
}

// MutationResult is the outcome of a cart mutation. Expected business
// failures come back here with a reason; errors are reserved for
// infrastructure defects.
type MutationResult struct {
	OK        bool             `json:"ok"`
	Reason    StockIssueReason `json:"reason,omitempty"`
	Message   string           `json:"message,omitempty"`
	Available int              `json:"available,omitempty"`
}

// SummaryLine is one cart line joined with live product data
type SummaryLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartSummary is the freshly computed view of a cart. Never cached; prices
// may change between cart adds.
type CartSummary struct {
	Items         []SummaryLine   `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ItemCount     int             `json:"item_count"`
	TotalQuantity int             `json:"total_quantity"`
	TotalWeight   decimal.Decimal `json:"total_weight"`
}

// ShippingQuote is a priced shipping option
type ShippingQuote struct {
	Method       *domain.ShippingMethod `json:"-"`
	MethodID     uuid.UUID              `json:"method_id"`
	Name         string                 `json:"name"`
	Cost         decimal.Decimal        `json:"cost"`
	FreeShipping bool                   `json:"free_shipping"`
	DaysMin      int                    `json:"estimated_days_min"`
	DaysMax      int                    `json:"estimated_days_max"`
}

// CheckoutRequest is the checkout submission
type CheckoutRequest struct {
	Email            string               `json:"email" binding:"required,email"`
	CustomerName     string               `json:"customer_name" binding:"required"`
	CustomerPhone    string               `json:"customer_phone"`
	ShippingStreet   string               `json:"shipping_street" binding:"required"`
	ShippingCity     string               `json:"shipping_city" binding:"required"`
	ShippingState    string               `json:"shipping_state"`
	ShippingPostal   string               `json:"shipping_postal" binding:"required"`
	ShippingCountry  string               `json:"shipping_country" binding:"required,len=2"`
	ShippingMethodID uuid.UUID            `json:"shipping_method_id" binding:"required"`
	PaymentMethod    domain.PaymentMethod `json:"payment_method" binding:"required"`
	CardToken        string               `json:"card_token"`
	WalletIntentID   string               `json:"wallet_intent_id"`
	Notes            string               `json:"notes"`
}

// CheckoutResult is the structured outcome of one checkout attempt. Business
// failures never surface as transport errors; callers branch on Success.
type CheckoutResult struct {
	Success     bool                       `json:"success"`
	OrderNumber string                     `json:"order_number,omitempty"`
	PaymentRef  string                     `json:"payment_reference,omitempty"`
	Message     string                     `json:"message,omitempty"`
	Recoverable bool                       `json:"recoverable,omitempty"`
	Suggestion  string                     `json:"suggestion,omitempty"`
	StockIssues map[uuid.UUID]StockIssue   `json:"stock_issues,omitempty"`
	FieldErrors map[string]string          `json:"field_errors,omitempty"`
}
