package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/coralcart/storefront/internal/domain"
)

// ProductRepository reads catalog state. Price and stock read through here
// are authoritative at validation and decrement time.
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error)
	GetWholesaleTiers(ctx context.Context, productID uuid.UUID) ([]domain.WholesaleTier, error)
}

// OrderRepository persists orders. CreateWithItems is the single atomic unit
// of checkout: order insert, item inserts and conditional stock decrements
// commit or roll back together.
type OrderRepository interface {
	// CreateWithItems inserts the order and its items and decrements stock for
	// every item with a guarded conditional update. Returns
	// *errors.ErrInsufficientStock if any decrement finds fewer units than
	// requested; nothing is persisted in that case.
	CreateWithItems(ctx context.Context, order *domain.Order, items []*domain.OrderItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	NumberExists(ctx context.Context, orderNumber string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Order, error)
	GetItems(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error
	UpdateTracking(ctx context.Context, id uuid.UUID, carrier, trackingNumber *string, trackingURL *string) error
	// CancelWithRestock sets the order cancelled and restores each item's
	// stock in one transaction (the compensating action for CreateWithItems).
	CancelWithRestock(ctx context.Context, id uuid.UUID) error
}

// ShippingRepository reads the zone/method reference data
type ShippingRepository interface {
	GetActiveZones(ctx context.Context) ([]*domain.ShippingZone, error)
	GetMethodsByZone(ctx context.Context, zoneID uuid.UUID) ([]*domain.ShippingMethod, error)
	GetMethod(ctx context.Context, id uuid.UUID) (*domain.ShippingMethod, error)
	CreateZone(ctx context.Context, zone *domain.ShippingZone) error
	CreateMethod(ctx context.Context, method *domain.ShippingMethod) error
}

// OrderEventRepository appends audit events
type OrderEventRepository interface {
	Create(ctx context.Context, event *domain.OrderEvent) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error)
}

// AdminRepository manages back-office accounts
type AdminRepository interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.AdminUser, error)
	Create(ctx context.Context, admin *domain.AdminUser) error
}

// Repositories aggregates all repository implementations
type Repositories struct {
	Product    ProductRepository
	Order      OrderRepository
	Shipping   ShippingRepository
	OrderEvent OrderEventRepository
	Admin      AdminRepository
}
