package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog view the checkout core depends on. Price and stock
// are authoritative at validation and decrement time.
type Product struct {
	ID            uuid.UUID
	Name          string
	SKU           string
	Price         decimal.Decimal
	SalePrice     *decimal.Decimal
	StockQuantity int
	Weight        *decimal.Decimal // kilograms; nil contributes 0 to order weight
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EffectivePrice returns the unit price a customer pays right now.
// Sale price wins over list price when set.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil && p.SalePrice.IsPositive() {
		return *p.SalePrice
	}
	return p.Price
}

// UnitPrice resolves the price for a given quantity, applying the deepest
// wholesale tier whose minimum quantity is met. Tiers never raise the price
// above the effective price.
func (p *Product) UnitPrice(quantity int, tiers []WholesaleTier) decimal.Decimal {
	price := p.EffectivePrice()
	for _, t := range tiers {
		if quantity >= t.MinQuantity && t.Price.LessThan(price) {
			price = t.Price
		}
	}
	return price
}

// WholesaleTier is a quantity price break for bulk buyers
type WholesaleTier struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	MinQuantity int
	Price       decimal.Decimal
}

// CartItem is one line of a session-scoped cart
type CartItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// Cart holds the items a session has accumulated. Stored in Redis keyed by
// session ID; prices are never stored here, they are joined fresh at read time.
type Cart struct {
	SessionID string     `json:"session_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Quantity returns the quantity for a product, 0 if absent
func (c *Cart) Quantity(productID uuid.UUID) int {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Session is the typed per-visitor state passed into orchestration.
type Session struct {
	ID        string
	CreatedAt time.Time
}

// ShippingZone groups destination countries. A country belongs to the first
// active zone that lists it, ordered by SortOrder then name.
type ShippingZone struct {
	ID        uuid.UUID
	Name      string
	Countries []string // ISO 3166-1 alpha-2, uppercase
	IsActive  bool
	SortOrder int
}

// Contains reports whether the zone lists the country code
func (z *ShippingZone) Contains(countryCode string) bool {
	for _, c := range z.Countries {
		if c == countryCode {
			return true
		}
	}
	return false
}

// WeightBracket is a [MinWeight, MaxWeight) range with a flat cost.
// A nil MaxWeight marks the open-ended last bracket.
type WeightBracket struct {
	MinWeight decimal.Decimal
	MaxWeight *decimal.Decimal
	Cost      decimal.Decimal
}

// ShippingMethod is one deliverable option within a zone
type ShippingMethod struct {
	ID                    uuid.UUID
	ZoneID                uuid.UUID
	Name                  string
	BaseCost              decimal.Decimal
	CostPerKg             decimal.Decimal
	MinWeight             *decimal.Decimal
	MaxWeight             *decimal.Decimal
	MinOrderAmount        *decimal.Decimal
	FreeShippingThreshold *decimal.Decimal
	EstimatedDaysMin      int
	EstimatedDaysMax      int
	Brackets              []WeightBracket // ordered by MinWeight ascending
	IsActive              bool
}

// PaymentResult is the uniform outcome of one charge attempt, regardless of
// which gateway processed it. Immutable once produced.
type PaymentResult struct {
	Success       bool
	TransactionID string
	ErrorCode     string
	ErrorMessage  string
	Amount        decimal.Decimal
	Method        PaymentMethod
	Status        PaymentStatus // paid for captured charges, pending for manual transfer
}

// Order is a completed (or pending manual-transfer) checkout. Never deleted;
// cancellation is a status transition with a compensating stock restore.
type Order struct {
	ID              uuid.UUID
	OrderNumber     string // CC<4-digit year><6 digits>
	Email           string
	CustomerName    string
	CustomerPhone   string
	ShippingStreet  string
	ShippingCity    string
	ShippingState   string
	ShippingPostal  string
	ShippingCountry string
	Subtotal        decimal.Decimal
	ShippingCost    decimal.Decimal
	TaxAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	PaymentRef      string // gateway transaction id or manual transfer reference
	Status          OrderStatus
	Notes           string
	TrackingCarrier *string
	TrackingNumber  *string
	TrackingURL     *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem snapshots a product at purchase time so historical orders are
// decoupled from future catalog edits.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	ProductSKU  string
	Quantity    int
	Price       decimal.Decimal
	Total       decimal.Decimal
	CreatedAt   time.Time
}

// OrderEvent is an audit record for order creation and status changes
type OrderEvent struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	EventType string
	EventData map[string]interface{} // JSONB
	CreatedAt time.Time
}

// AdminUser is a back-office account authenticated by API key
type AdminUser struct {
	ID         uuid.UUID
	Name       string
	APIKeyHash string
	Role       Role
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
