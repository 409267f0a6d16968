package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/config"
	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/pkg/errors"
)

func newTestCardGateway(t *testing.T, handler http.HandlerFunc) *CardGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewCardGateway(config.CardGatewayConfig{
		SecretKey: "sk_test_123",
		BaseURL:   server.URL,
	}, zap.NewNop())
}

func chargeRequest() ChargeRequest {
	return ChargeRequest{
		Amount:      decimal.RequireFromString("49.00"),
		Currency:    "USD",
		OrderNumber: "CC2026123456",
		Email:       "jane@example.com",
		CardToken:   "tok_visa",
	}
}

func TestCardProcess_Success(t *testing.T) {
	var captured cardChargeRequest
	gateway := newTestCardGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/charges", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(cardChargeResponse{ID: "ch_123", Status: "succeeded"})
	})

	result, err := gateway.Process(context.Background(), chargeRequest())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ch_123", result.TransactionID)
	assert.Equal(t, domain.PaymentStatusPaid, result.Status)

	// Amount crosses the wire in integer cents
	assert.Equal(t, int64(4900), captured.AmountCents)
	assert.Equal(t, "usd", captured.Currency)
	assert.Equal(t, "tok_visa", captured.Token)
}

func TestCardProcess_Decline(t *testing.T) {
	gateway := newTestCardGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{
				"code":    "card_declined",
				"message": "Your card was declined",
			},
		})
	})

	result, err := gateway.Process(context.Background(), chargeRequest())
	require.NoError(t, err) // declines are results, not errors
	assert.False(t, result.Success)
	assert.Equal(t, "card_declined", result.ErrorCode)
	assert.Equal(t, domain.PaymentStatusFailed, result.Status)
}

func TestCardProcess_GatewayDown(t *testing.T) {
	gateway := newTestCardGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	result, err := gateway.Process(context.Background(), chargeRequest())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "gateway_unreachable", result.ErrorCode)
}

func TestCardProcess_MissingKeyIsConfigError(t *testing.T) {
	gateway := NewCardGateway(config.CardGatewayConfig{BaseURL: "http://localhost:1"}, zap.NewNop())

	_, err := gateway.Process(context.Background(), chargeRequest())
	var cfgErr *errors.ErrGatewayConfig
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "card", cfgErr.Gateway)
}

func TestCardVerify(t *testing.T) {
	gateway := newTestCardGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/charges/ch_123", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "ch_123",
			"status": "succeeded",
			"amount": 4900,
		})
	})

	result, err := gateway.Verify(context.Background(), "ch_123")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Amount.Equal(decimal.RequireFromString("49.00")))
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(4900), toCents(decimal.RequireFromString("49.00")))
	assert.Equal(t, int64(4999), toCents(decimal.RequireFromString("49.99")))
	assert.Equal(t, int64(0), toCents(decimal.Zero))
	assert.Equal(t, int64(1), toCents(decimal.RequireFromString("0.01")))
}
