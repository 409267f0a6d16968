package service

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/internal/repository"
	pkgerrors "github.com/coralcart/storefront/pkg/errors"
)

// Constraint violations for shipping cost calculation. Expected business
// failures: callers branch on these, they never abort a request by themselves.
var (
	ErrNoShippingZone      = errors.New("no shipping zone covers this country")
	ErrMethodInactive      = errors.New("shipping method is not active")
	ErrMethodWrongZone     = errors.New("shipping method does not serve this country")
	ErrBelowMinWeight      = errors.New("order weight is below the method minimum")
	ErrAboveMaxWeight      = errors.New("order weight exceeds the method maximum")
	ErrBelowMinOrderAmount = errors.New("order amount is below the method minimum")
)

type ShippingService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewShippingService creates a new shipping service
func NewShippingService(repos *repository.Repositories, logger *zap.Logger) *ShippingService {
	return &ShippingService{
		repos:  repos,
		logger: logger,
	}
}

// ResolveZone finds the zone covering a country. Zones are checked in
// ascending sort order, first match wins; found=false is a normal outcome.
func (s *ShippingService) ResolveZone(ctx context.Context, countryCode string) (*domain.ShippingZone, bool, error) {
	zones, err := s.repos.Shipping.GetActiveZones(ctx)
	if err != nil {
		return nil, false, err
	}

	for _, zone := range zones {
		if zone.Contains(countryCode) {
			return zone, true, nil
		}
	}
	return nil, false, nil
}

// GetAvailableMethods resolves the zone for a country and prices every active
// method in it. Methods whose constraints are violated are silently excluded.
// Results are sorted ascending by cost; ties keep retrieval order.
func (s *ShippingService) GetAvailableMethods(ctx context.Context, countryCode string, weight, orderAmount decimal.Decimal) ([]ShippingQuote, error) {
	zone, found, err := s.ResolveZone(ctx, countryCode)
	if err != nil {
		return nil, err
	}
	if !found {
		return []ShippingQuote{}, nil
	}

	methods, err := s.repos.Shipping.GetMethodsByZone(ctx, zone.ID)
	if err != nil {
		return nil, err
	}

	quotes := make([]ShippingQuote, 0, len(methods))
	for _, method := range methods {
		quote, err := s.CalculateCost(method, weight, orderAmount)
		if err != nil {
			continue
		}
		quotes = append(quotes, quote)
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].Cost.LessThan(quotes[j].Cost)
	})

	return quotes, nil
}

// CalculateCost prices one method for a weight/amount pair. Free-shipping
// threshold takes precedence over bracket and formula calculation. Weight
// brackets are lower-bound inclusive, upper-bound exclusive; the last bracket
// is open-ended and weights beyond all brackets take its cost.
func (s *ShippingService) CalculateCost(method *domain.ShippingMethod, weight, orderAmount decimal.Decimal) (ShippingQuote, error) {
	if !method.IsActive {
		return ShippingQuote{}, ErrMethodInactive
	}
	if method.MinWeight != nil && weight.LessThan(*method.MinWeight) {
		return ShippingQuote{}, ErrBelowMinWeight
	}
	if method.MaxWeight != nil && weight.GreaterThan(*method.MaxWeight) {
		return ShippingQuote{}, ErrAboveMaxWeight
	}
	if method.MinOrderAmount != nil && orderAmount.LessThan(*method.MinOrderAmount) {
		return ShippingQuote{}, ErrBelowMinOrderAmount
	}

	quote := ShippingQuote{
		Method:   method,
		MethodID: method.ID,
		Name:     method.Name,
		DaysMin:  method.EstimatedDaysMin,
		DaysMax:  method.EstimatedDaysMax,
	}

	if method.FreeShippingThreshold != nil && orderAmount.GreaterThanOrEqual(*method.FreeShippingThreshold) {
		quote.Cost = decimal.Zero
		quote.FreeShipping = true
		return quote, nil
	}

	if len(method.Brackets) > 0 {
		quote.Cost = bracketCost(method.Brackets, weight)
		return quote, nil
	}

	quote.Cost = method.BaseCost.Add(method.CostPerKg.Mul(weight)).Round(2)
	return quote, nil
}

func bracketCost(brackets []domain.WeightBracket, weight decimal.Decimal) decimal.Decimal {
	// Below the first bracket's minimum: the lightest bracket's cost applies
	if weight.LessThan(brackets[0].MinWeight) {
		return brackets[0].Cost
	}

	for _, b := range brackets {
		if weight.GreaterThanOrEqual(b.MinWeight) &&
			(b.MaxWeight == nil || weight.LessThan(*b.MaxWeight)) {
			return b.Cost
		}
	}
	// Heavier than every bracket: the last bracket's cost applies
	return brackets[len(brackets)-1].Cost
}

// ValidateMethod re-derives validity at checkout time: the method must exist,
// be active, belong to a zone containing the country, and price successfully.
// The authoritative gate against stale or tampered method IDs.
func (s *ShippingService) ValidateMethod(ctx context.Context, methodID uuid.UUID, countryCode string, weight, orderAmount decimal.Decimal) (ShippingQuote, error) {
	method, err := s.repos.Shipping.GetMethod(ctx, methodID)
	if err != nil {
		var notFound *pkgerrors.ErrNotFound
		if errors.As(err, &notFound) {
			return ShippingQuote{}, ErrMethodWrongZone
		}
		return ShippingQuote{}, err
	}

	zone, found, err := s.ResolveZone(ctx, countryCode)
	if err != nil {
		return ShippingQuote{}, err
	}
	if !found {
		return ShippingQuote{}, ErrNoShippingZone
	}
	if method.ZoneID != zone.ID {
		return ShippingQuote{}, ErrMethodWrongZone
	}

	return s.CalculateCost(method, weight, orderAmount)
}
