package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusShipped, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusPending, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusReturned, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusReturned, true},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusReturned, OrderStatusPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	assert.True(t, PaymentStatusPending.CanTransitionTo(PaymentStatusPaid))
	assert.True(t, PaymentStatusPending.CanTransitionTo(PaymentStatusFailed))
	assert.True(t, PaymentStatusPaid.CanTransitionTo(PaymentStatusRefunded))
	assert.False(t, PaymentStatusPending.CanTransitionTo(PaymentStatusRefunded))
	assert.False(t, PaymentStatusRefunded.CanTransitionTo(PaymentStatusPaid))
	assert.False(t, PaymentStatusFailed.CanTransitionTo(PaymentStatusPaid))
}

func TestRoleLadder(t *testing.T) {
	assert.True(t, RoleAdmin.Allows(RoleContentManager))
	assert.True(t, RoleAdmin.Allows(RoleAdmin))
	assert.True(t, RoleContentManager.Allows(RoleCustomer))
	assert.False(t, RoleCustomer.Allows(RoleContentManager))
	assert.False(t, RoleContentManager.Allows(RoleAdmin))

	// An unknown role neither grants nor satisfies anything
	assert.False(t, Role("root").Allows(RoleCustomer))
	assert.False(t, RoleAdmin.Allows(Role("root")))
}

func TestPaymentMethodIsValid(t *testing.T) {
	assert.True(t, PaymentMethodCard.IsValid())
	assert.True(t, PaymentMethodWallet.IsValid())
	assert.True(t, PaymentMethodManualTransfer.IsValid())
	assert.False(t, PaymentMethod("crypto").IsValid())
}

func TestEffectivePrice(t *testing.T) {
	product := Product{Price: decimal.RequireFromString("20.00")}
	assert.True(t, product.EffectivePrice().Equal(decimal.RequireFromString("20.00")))

	sale := decimal.RequireFromString("15.00")
	product.SalePrice = &sale
	assert.True(t, product.EffectivePrice().Equal(sale))

	// A zero sale price means "no sale", not "free"
	zero := decimal.Zero
	product.SalePrice = &zero
	assert.True(t, product.EffectivePrice().Equal(decimal.RequireFromString("20.00")))
}

func TestUnitPrice_TiersNeverRaiseThePrice(t *testing.T) {
	product := Product{Price: decimal.RequireFromString("10.00")}
	tiers := []WholesaleTier{
		{MinQuantity: 10, Price: decimal.RequireFromString("8.00")},
		{MinQuantity: 50, Price: decimal.RequireFromString("12.00")}, // misconfigured upward tier
	}

	assert.True(t, product.UnitPrice(1, tiers).Equal(decimal.RequireFromString("10.00")))
	assert.True(t, product.UnitPrice(10, tiers).Equal(decimal.RequireFromString("8.00")))
	assert.True(t, product.UnitPrice(50, tiers).Equal(decimal.RequireFromString("8.00")))
}
