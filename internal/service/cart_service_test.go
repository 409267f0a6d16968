package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/internal/repository"
)

func testProduct(name string, price string, stock int, weight string) *domain.Product {
	p := &domain.Product{
		ID:            uuid.New(),
		Name:          name,
		SKU:           "SKU-" + name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
	}
	if weight != "" {
		w := decimal.RequireFromString(weight)
		p.Weight = &w
	}
	return p
}

func newCartFixture(products ...*domain.Product) (*CartService, *mockProductRepo, *memCartStore) {
	productRepo := newMockProductRepo(products...)
	store := newMemCartStore()
	repos := &repository.Repositories{Product: productRepo}
	svc := NewCartService(store, repos, zap.NewNop())
	return svc, productRepo, store
}

func TestCartAdd_NewItem(t *testing.T) {
	product := testProduct("Mug", "12.50", 10, "0.4")
	svc, _, _ := newCartFixture(product)
	session := domain.Session{ID: "s1"}

	result, err := svc.Add(context.Background(), session, product.ID, 3)
	require.NoError(t, err)
	assert.True(t, result.OK)

	cart, err := svc.Get(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Quantity(product.ID))
}

func TestCartAdd_MergesExistingLine(t *testing.T) {
	product := testProduct("Mug", "12.50", 10, "")
	svc, _, _ := newCartFixture(product)
	session := domain.Session{ID: "s1"}

	_, err := svc.Add(context.Background(), session, product.ID, 2)
	require.NoError(t, err)
	result, err := svc.Add(context.Background(), session, product.ID, 4)
	require.NoError(t, err)
	assert.True(t, result.OK)

	cart, err := svc.Get(context.Background(), session)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 6, cart.Quantity(product.ID))
}

func TestCartAdd_ExceedsStockWithExistingQuantity(t *testing.T) {
	product := testProduct("Mug", "12.50", 5, "")
	svc, _, _ := newCartFixture(product)
	session := domain.Session{ID: "s1"}

	_, err := svc.Add(context.Background(), session, product.ID, 4)
	require.NoError(t, err)

	// 4 in cart + 2 more would exceed the 5 in stock
	result, err := svc.Add(context.Background(), session, product.ID, 2)
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, StockIssueInsufficient, result.Reason)
	assert.Equal(t, 5, result.Available)

	cart, err := svc.Get(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Quantity(product.ID))
}

func TestCartAdd_UnknownProduct(t *testing.T) {
	svc, _, _ := newCartFixture()
	session := domain.Session{ID: "s1"}

	result, err := svc.Add(context.Background(), session, uuid.New(), 1)
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, StockIssueNotFound, result.Reason)
}

func TestCartAdd_InactiveProduct(t *testing.T) {
	product := testProduct("Mug", "12.50", 10, "")
	product.IsActive = false
	svc, _, _ := newCartFixture(product)
	session := domain.Session{ID: "s1"}

	result, err := svc.Add(context.Background(), session, product.ID, 1)
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, StockIssueInactive, result.Reason)
}

func TestCartUpdate_SetsExactQuantity(t *testing.T) {
	product := testProduct("Mug", "12.50", 10, "")
	svc, _, _ := newCartFixture(product)
	session := domain.Session{ID: "s1"}

	_, err := svc.Add(context.Background(), session, product.ID, 2)
	require.NoError(t, err)

	result, err := svc.Update(context.Background(), session, product.ID, 7)
	require.NoError(t, err)
	assert.True(t, result.OK)

	cart, err := svc.Get(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Quantity(product.ID))
}

func TestCartUpdate_ZeroRemovesLine(t *testing.T) {
	product := testProduct("Mug", "12.50", 10, "")
	svc, _, _ := newCartFixture(product)
	session := domain.Session{ID: "s1"}

	_, err := svc.Add(context.Background(), session, product.ID, 2)
	require.NoError(t, err)

	result, err := svc.Update(context.Background(), session, product.ID, 0)
	require.NoError(t, err)
	assert.True(t, result.OK)

	cart, err := svc.Get(context.Background(), session)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCartUpdate_OverStockLeavesPriorQuantity(t *testing.T) {
	product := testProduct("Mug", "12.50", 5, "")
	svc, _, _ := newCartFixture(product)
	session := domain.Session{ID: "s1"}

	_, err := svc.Add(context.Background(), session, product.ID, 3)
	require.NoError(t, err)

	result, err := svc.Update(context.Background(), session, product.ID, 9)
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, StockIssueInsufficient, result.Reason)

	cart, err := svc.Get(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Quantity(product.ID))
}

func TestCartRemove_AbsentItemIsNotAnError(t *testing.T) {
	product := testProduct("Mug", "12.50", 5, "")
	svc, _, _ := newCartFixture(product)
	session := domain.Session{ID: "s1"}

	result, err := svc.Remove(context.Background(), session, product.ID)
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, StockIssueNotFound, result.Reason)
}

func TestValidateStock_ReportsEveryIssue(t *testing.T) {
	fine := testProduct("Fine", "5.00", 10, "")
	low := testProduct("Low", "5.00", 1, "")
	inactive := testProduct("Gone", "5.00", 10, "")
	svc, productRepo, _ := newCartFixture(fine, low, inactive)
	session := domain.Session{ID: "s1"}

	_, err := svc.Add(context.Background(), session, fine.ID, 2)
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), session, low.ID, 1)
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), session, inactive.ID, 1)
	require.NoError(t, err)

	// Catalog changed between add and validation
	productRepo.products[inactive.ID].IsActive = false
	productRepo.products[low.ID].StockQuantity = 0
	vanished := uuid.New()

	cart, err := svc.Get(context.Background(), session)
	require.NoError(t, err)
	cart.Items = append(cart.Items, domain.CartItem{ProductID: vanished, Quantity: 1})

	issues, err := svc.ValidateStock(context.Background(), cart)
	require.NoError(t, err)
	assert.Len(t, issues, 3)
	assert.Equal(t, StockIssueInsufficient, issues[low.ID].Reason)
	assert.Equal(t, StockIssueInactive, issues[inactive.ID].Reason)
	assert.Equal(t, StockIssueNotFound, issues[vanished].Reason)
	require.NotNil(t, issues[low.ID].Available)
	assert.Equal(t, 0, *issues[low.ID].Available)
}

func TestSummary_SalePriceWins(t *testing.T) {
	product := testProduct("Mug", "20.00", 10, "0.5")
	sale := decimal.RequireFromString("15.00")
	product.SalePrice = &sale
	svc, _, _ := newCartFixture(product)
	session := domain.Session{ID: "s1"}

	_, err := svc.Add(context.Background(), session, product.ID, 2)
	require.NoError(t, err)

	cart, err := svc.Get(context.Background(), session)
	require.NoError(t, err)
	summary, err := svc.Summary(context.Background(), cart)
	require.NoError(t, err)

	require.Len(t, summary.Items, 1)
	assert.True(t, summary.Items[0].UnitPrice.Equal(sale))
	assert.True(t, summary.Subtotal.Equal(decimal.RequireFromString("30.00")))
	assert.True(t, summary.TotalWeight.Equal(decimal.RequireFromString("1.0")))
	assert.Equal(t, 2, summary.TotalQuantity)
}

func TestSummary_WholesaleTierApplies(t *testing.T) {
	product := testProduct("Mug", "20.00", 100, "")
	svc, productRepo, _ := newCartFixture(product)
	productRepo.tiers[product.ID] = []domain.WholesaleTier{
		{ProductID: product.ID, MinQuantity: 10, Price: decimal.RequireFromString("16.00")},
		{ProductID: product.ID, MinQuantity: 50, Price: decimal.RequireFromString("12.00")},
	}
	session := domain.Session{ID: "s1"}

	_, err := svc.Add(context.Background(), session, product.ID, 50)
	require.NoError(t, err)

	cart, err := svc.Get(context.Background(), session)
	require.NoError(t, err)
	summary, err := svc.Summary(context.Background(), cart)
	require.NoError(t, err)

	require.Len(t, summary.Items, 1)
	assert.True(t, summary.Items[0].UnitPrice.Equal(decimal.RequireFromString("12.00")))
}

func TestSummary_SkipsVanishedProducts(t *testing.T) {
	product := testProduct("Mug", "20.00", 10, "")
	svc, _, _ := newCartFixture(product)
	session := domain.Session{ID: "s1"}

	_, err := svc.Add(context.Background(), session, product.ID, 1)
	require.NoError(t, err)

	cart, err := svc.Get(context.Background(), session)
	require.NoError(t, err)
	cart.Items = append(cart.Items, domain.CartItem{ProductID: uuid.New(), Quantity: 3})

	summary, err := svc.Summary(context.Background(), cart)
	require.NoError(t, err)
	assert.Len(t, summary.Items, 1)
	assert.True(t, summary.Subtotal.Equal(decimal.RequireFromString("20.00")))
}

func TestCartGet_MissReturnsEmptyCart(t *testing.T) {
	svc, _, _ := newCartFixture()

	cart, err := svc.Get(context.Background(), domain.Session{ID: "fresh"})
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, "fresh", cart.SessionID)
}
