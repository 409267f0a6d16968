package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/cache"
	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/internal/repository"
	pkgerrors "github.com/coralcart/storefront/pkg/errors"
)

type CartService struct {
	store  cache.CartStore
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store cache.CartStore, repos *repository.Repositories, logger *zap.Logger) *CartService {
	return &CartService{
		store:  store,
		repos:  repos,
		logger: logger,
	}
}

// Get returns the session's cart, or an empty cart if none is stored
func (s *CartService) Get(ctx context.Context, session domain.Session) (*domain.Cart, error) {
	cart, err := s.store.Get(ctx, session.ID)
	if errors.Is(err, cache.ErrCartMiss) {
		return &domain.Cart{SessionID: session.ID}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// Add puts quantity units of a product into the cart. The product must exist,
// be active, and have enough stock to cover the existing cart quantity plus
// the new amount.
func (s *CartService) Add(ctx context.Context, session domain.Session, productID uuid.UUID, quantity int) (MutationResult, error) {
	if quantity < 1 {
		return MutationResult{OK: false, Reason: StockIssueInsufficient, Message: "quantity must be at least 1"}, nil
	}

	product, err := s.repos.Product.GetByID(ctx, productID)
	if err != nil {
		var notFound *pkgerrors.ErrNotFound
		if errors.As(err, &notFound) {
			return MutationResult{OK: false, Reason: StockIssueNotFound, Message: "product not found"}, nil
		}
		return MutationResult{}, err
	}
	if !product.IsActive {
		return MutationResult{OK: false, Reason: StockIssueInactive, Message: "product is not available"}, nil
	}

	cart, err := s.Get(ctx, session)
	if err != nil {
		return MutationResult{}, err
	}

	wanted := cart.Quantity(productID) + quantity
	if wanted > product.StockQuantity {
		return MutationResult{
			OK:        false,
			Reason:    StockIssueInsufficient,
			Message:   fmt.Sprintf("only %d in stock", product.StockQuantity),
			Available: product.StockQuantity,
		}, nil
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = wanted
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   time.Now(),
		})
	}
	cart.UpdatedAt = time.Now()

	if err := s.store.Set(ctx, session.ID, cart); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{OK: true}, nil
}

// Update sets a cart line to an exact quantity. Zero removes the line.
// A quantity above available stock fails and leaves the prior quantity
// untouched.
func (s *CartService) Update(ctx context.Context, session domain.Session, productID uuid.UUID, quantity int) (MutationResult, error) {
	if quantity == 0 {
		return s.Remove(ctx, session, productID)
	}
	if quantity < 0 {
		return MutationResult{OK: false, Reason: StockIssueInsufficient, Message: "quantity must not be negative"}, nil
	}

	product, err := s.repos.Product.GetByID(ctx, productID)
	if err != nil {
		var notFound *pkgerrors.ErrNotFound
		if errors.As(err, &notFound) {
			return MutationResult{OK: false, Reason: StockIssueNotFound, Message: "product not found"}, nil
		}
		return MutationResult{}, err
	}

	if quantity > product.StockQuantity {
		return MutationResult{
			OK:        false,
			Reason:    StockIssueInsufficient,
			Message:   fmt.Sprintf("only %d in stock", product.StockQuantity),
			Available: product.StockQuantity,
		}, nil
	}

	cart, err := s.Get(ctx, session)
	if err != nil {
		return MutationResult{}, err
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return MutationResult{OK: false, Reason: StockIssueNotFound, Message: "item not in cart"}, nil
	}
	cart.UpdatedAt = time.Now()

	if err := s.store.Set(ctx, session.ID, cart); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{OK: true}, nil
}

// Remove deletes a cart line. Idempotent: removing an absent item reports
// OK=false and changes nothing.
func (s *CartService) Remove(ctx context.Context, session domain.Session, productID uuid.UUID) (MutationResult, error) {
	cart, err := s.Get(ctx, session)
	if err != nil {
		return MutationResult{}, err
	}

	idx := -1
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return MutationResult{OK: false, Reason: StockIssueNotFound, Message: "item not in cart"}, nil
	}

	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	cart.UpdatedAt = time.Now()

	if err := s.store.Set(ctx, session.ID, cart); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{OK: true}, nil
}

// Clear drops the session's cart entirely
func (s *CartService) Clear(ctx context.Context, session domain.Session) error {
	return s.store.Delete(ctx, session.ID)
}

// ValidateStock re-checks every cart line against current product state and
// returns the lines that cannot be fulfilled. Does not mutate the cart. This
// is the authoritative pre-checkout gate: cart state can go stale between
// page load and submission.
func (s *CartService) ValidateStock(ctx context.Context, cart *domain.Cart) (map[uuid.UUID]StockIssue, error) {
	issues := make(map[uuid.UUID]StockIssue)
	if cart.IsEmpty() {
		return issues, nil
	}

	ids := make([]uuid.UUID, len(cart.Items))
	for i, item := range cart.Items {
		ids[i] = item.ProductID
	}

	products, err := s.repos.Product.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok {
			issues[item.ProductID] = StockIssue{
				Reason:  StockIssueNotFound,
				Message: "product no longer exists",
			}
			continue
		}
		if !product.IsActive {
			issues[item.ProductID] = StockIssue{
				Reason:  StockIssueInactive,
				Message: fmt.Sprintf("%s is no longer available", product.Name),
			}
			continue
		}
		if item.Quantity > product.StockQuantity {
			available := product.StockQuantity
			issues[item.ProductID] = StockIssue{
				Reason:    StockIssueInsufficient,
				Message:   fmt.Sprintf("only %d of %s left in stock", available, product.Name),
				Available: &available,
			}
		}
	}

	return issues, nil
}

// Summary joins cart lines with live product prices and weights. Computed
// fresh on every call; sale prices win over list prices and wholesale tiers
// apply at qualifying quantities.
func (s *CartService) Summary(ctx context.Context, cart *domain.Cart) (*CartSummary, error) {
	summary := &CartSummary{
		Items:       []SummaryLine{},
		Subtotal:    decimal.Zero,
		TotalWeight: decimal.Zero,
	}
	if cart.IsEmpty() {
		return summary, nil
	}

	ids := make([]uuid.UUID, len(cart.Items))
	for i, item := range cart.Items {
		ids[i] = item.ProductID
	}

	products, err := s.repos.Product.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok {
			// Vanished products are surfaced by ValidateStock; the summary
			// simply skips them
			continue
		}

		tiers, err := s.repos.Product.GetWholesaleTiers(ctx, product.ID)
		if err != nil {
			return nil, err
		}

		unitPrice := product.UnitPrice(item.Quantity, tiers)
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))

		summary.Items = append(summary.Items, SummaryLine{
			ProductID: product.ID,
			Name:      product.Name,
			SKU:       product.SKU,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
			LineTotal: lineTotal,
		})
		summary.Subtotal = summary.Subtotal.Add(lineTotal)
		summary.ItemCount++
		summary.TotalQuantity += item.Quantity

		if product.Weight != nil {
			summary.TotalWeight = summary.TotalWeight.Add(
				product.Weight.Mul(decimal.NewFromInt(int64(item.Quantity))),
			)
		}
	}

	return summary, nil
}
