package cache

import (
	"context"
	"errors"

	"github.com/coralcart/storefront/internal/domain"
)

// ErrCartMiss is returned when no cart is stored for a session
var ErrCartMiss = errors.New("cart not found in store")

// CartStore holds session-scoped carts. Carts expire with the session; only
// product references and quantities are stored, never prices.
type CartStore interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Set(ctx context.Context, sessionID string, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}
