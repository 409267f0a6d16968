package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/coralcart/storefront/internal/repository"
	pkgerrors "github.com/coralcart/storefront/pkg/errors"
)

const (
	orderNumberPrefix   = "CC"
	orderNumberAttempts = 100
)

// generateOrderNumber produces a unique CC<4-digit year><6 digits> number.
// Random candidates are collision-checked against existing orders with
// bounded retries; after that a time-derived suffix guarantees termination.
func generateOrderNumber(ctx context.Context, orders repository.OrderRepository) (string, error) {
	year := time.Now().Year()

	for i := 0; i < orderNumberAttempts; i++ {
		candidate := fmt.Sprintf("%s%d%06d", orderNumberPrefix, year, rand.Intn(1000000))
		exists, err := orders.NumberExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}

	candidate := fmt.Sprintf("%s%d%06d", orderNumberPrefix, year, time.Now().UnixNano()%1000000)
	exists, err := orders.NumberExists(ctx, candidate)
	if err != nil {
		return "", err
	}
	if exists {
		return "", &pkgerrors.ErrOrderNumberExhausted{Attempts: orderNumberAttempts + 1}
	}
	return candidate, nil
}
