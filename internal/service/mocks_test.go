package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/coralcart/storefront/internal/cache"
	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/internal/payment"
	"github.com/coralcart/storefront/pkg/errors"
)

// memCartStore implements cache.CartStore in memory for testing
type memCartStore struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
}

func newMemCartStore() *memCartStore {
	return &memCartStore{carts: make(map[string]*domain.Cart)}
}

func (m *memCartStore) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[sessionID]
	if !ok {
		return nil, cache.ErrCartMiss
	}
	copied := *cart
	copied.Items = append([]domain.CartItem(nil), cart.Items...)
	return &copied, nil
}

func (m *memCartStore) Set(_ context.Context, sessionID string, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *cart
	copied.Items = append([]domain.CartItem(nil), cart.Items...)
	m.carts[sessionID] = &copied
	return nil
}

func (m *memCartStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

// mockProductRepo implements repository.ProductRepository with an in-memory
// catalog. The mutex is shared with mockOrderRepo so stock decrements are
// atomic the way the real guarded UPDATE is.
type mockProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
	tiers    map[uuid.UUID][]domain.WholesaleTier
}

func newMockProductRepo(products ...*domain.Product) *mockProductRepo {
	repo := &mockProductRepo{
		products: make(map[uuid.UUID]*domain.Product),
		tiers:    make(map[uuid.UUID][]domain.WholesaleTier),
	}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	copied := *product
	return &copied, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[uuid.UUID]*domain.Product)
	for _, id := range ids {
		if product, ok := m.products[id]; ok {
			copied := *product
			result[id] = &copied
		}
	}
	return result, nil
}

func (m *mockProductRepo) GetWholesaleTiers(_ context.Context, productID uuid.UUID) ([]domain.WholesaleTier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tiers[productID], nil
}

// mockOrderRepo implements repository.OrderRepository. CreateWithItems
// mirrors the transactional all-or-nothing decrement of the real repository.
type mockOrderRepo struct {
	mu        sync.Mutex
	products  *mockProductRepo
	orders    map[uuid.UUID]*domain.Order
	items     map[uuid.UUID][]*domain.OrderItem
	numbers   map[string]bool
	createErr error
}

func newMockOrderRepo(products *mockProductRepo) *mockOrderRepo {
	return &mockOrderRepo{
		products: products,
		orders:   make(map[uuid.UUID]*domain.Order),
		items:    make(map[uuid.UUID][]*domain.OrderItem),
		numbers:  make(map[string]bool),
	}
}

func (m *mockOrderRepo) CreateWithItems(_ context.Context, order *domain.Order, items []*domain.OrderItem) error {
	if m.createErr != nil {
		return m.createErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.products.mu.Lock()
	defer m.products.mu.Unlock()

	// All-or-nothing: verify every decrement before applying any
	for _, item := range items {
		product, ok := m.products.products[item.ProductID]
		if !ok || product.StockQuantity < item.Quantity {
			return &errors.ErrInsufficientStock{ProductID: item.ProductID.String(), Requested: item.Quantity}
		}
	}
	for _, item := range items {
		m.products.products[item.ProductID].StockQuantity -= item.Quantity
	}

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	m.orders[order.ID] = order
	m.items[order.ID] = items
	m.numbers[order.OrderNumber] = true
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderRepo) GetByNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.OrderNumber == orderNumber {
			copied := *order
			return &copied, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "order", ID: orderNumber}
}

func (m *mockOrderRepo) NumberExists(_ context.Context, orderNumber string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.numbers[orderNumber], nil
}

func (m *mockOrderRepo) List(_ context.Context, limit, offset int) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := make([]*domain.Order, 0, len(m.orders))
	for _, order := range m.orders {
		copied := *order
		orders = append(orders, &copied)
	}
	return orders, nil
}

func (m *mockOrderRepo) GetItems(_ context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[orderID], nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	order.Status = status
	return nil
}

func (m *mockOrderRepo) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	order.PaymentStatus = status
	return nil
}

func (m *mockOrderRepo) UpdateTracking(_ context.Context, id uuid.UUID, carrier, trackingNumber *string, trackingURL *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	order.TrackingCarrier = carrier
	order.TrackingNumber = trackingNumber
	order.TrackingURL = trackingURL
	order.Status = domain.OrderStatusShipped
	return nil
}

func (m *mockOrderRepo) CancelWithRestock(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}

	m.products.mu.Lock()
	defer m.products.mu.Unlock()
	for _, item := range m.items[id] {
		if product, ok := m.products.products[item.ProductID]; ok {
			product.StockQuantity += item.Quantity
		}
	}
	order.Status = domain.OrderStatusCancelled
	return nil
}

// mockShippingRepo implements repository.ShippingRepository
type mockShippingRepo struct {
	zones   []*domain.ShippingZone
	methods map[uuid.UUID]*domain.ShippingMethod
}

func newMockShippingRepo() *mockShippingRepo {
	return &mockShippingRepo{methods: make(map[uuid.UUID]*domain.ShippingMethod)}
}

func (m *mockShippingRepo) GetActiveZones(_ context.Context) ([]*domain.ShippingZone, error) {
	return m.zones, nil
}

func (m *mockShippingRepo) GetMethodsByZone(_ context.Context, zoneID uuid.UUID) ([]*domain.ShippingMethod, error) {
	var methods []*domain.ShippingMethod
	for _, method := range m.methods {
		if method.ZoneID == zoneID {
			methods = append(methods, method)
		}
	}
	return methods, nil
}

func (m *mockShippingRepo) GetMethod(_ context.Context, id uuid.UUID) (*domain.ShippingMethod, error) {
	method, ok := m.methods[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "shipping_method", ID: id.String()}
	}
	return method, nil
}

func (m *mockShippingRepo) CreateZone(_ context.Context, zone *domain.ShippingZone) error {
	if zone.ID == uuid.Nil {
		zone.ID = uuid.New()
	}
	m.zones = append(m.zones, zone)
	return nil
}

func (m *mockShippingRepo) CreateMethod(_ context.Context, method *domain.ShippingMethod) error {
	if method.ID == uuid.Nil {
		method.ID = uuid.New()
	}
	m.methods[method.ID] = method
	return nil
}

// mockEventRepo implements repository.OrderEventRepository
type mockEventRepo struct {
	mu     sync.Mutex
	events []*domain.OrderEvent
}

func (m *mockEventRepo) Create(_ context.Context, event *domain.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventRepo) GetByOrderID(_ context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var events []*domain.OrderEvent
	for _, event := range m.events {
		if event.OrderID == orderID {
			events = append(events, event)
		}
	}
	return events, nil
}

// mockPayments implements PaymentProcessor and PaymentVerifier
type mockPayments struct {
	mu       sync.Mutex
	result   domain.PaymentResult
	err      error
	requests []payment.ChargeRequest
}

func (m *mockPayments) Process(_ context.Context, method domain.PaymentMethod, req payment.ChargeRequest) (domain.PaymentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	result := m.result
	result.Method = method
	return result, m.err
}

func (m *mockPayments) VerifyPayment(_ context.Context, method domain.PaymentMethod, transactionID string) (domain.PaymentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result, m.err
}

// mockNotifier implements notification.Notifier and records dispatches
type mockNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (m *mockNotifier) SendOrderConfirmation(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, order.OrderNumber)
	return nil
}
