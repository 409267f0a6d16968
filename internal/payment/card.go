package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/config"
	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/pkg/errors"
)

// CardGateway charges card payment tokens against the card processor's REST
// API. Amounts are transmitted in integer minor units (cents).
type CardGateway struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewCardGateway creates a card gateway client
func NewCardGateway(cfg config.CardGatewayConfig, logger *zap.Logger) *CardGateway {
	return &CardGateway{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

func (g *CardGateway) Method() domain.PaymentMethod {
	return domain.PaymentMethodCard
}

type cardChargeRequest struct {
	Token       string `json:"token"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`
	Email       string `json:"receipt_email,omitempty"`
}

type cardChargeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// toCents converts a two-fraction-digit decimal amount to integer minor units.
// Decimal arithmetic only; no float multiplication.
func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (g *CardGateway) Process(ctx context.Context, req ChargeRequest) (domain.PaymentResult, error) {
	if g.secretKey == "" {
		return domain.PaymentResult{}, &errors.ErrGatewayConfig{Gateway: "card", Message: "missing secret key"}
	}

	body := cardChargeRequest{
		Token:       req.CardToken,
		AmountCents: toCents(req.Amount),
		Currency:    strings.ToLower(req.Currency),
		Description: fmt.Sprintf("Order %s", req.OrderNumber),
		Email:       req.Email,
	}

	var resp cardChargeResponse
	if err := g.post(ctx, "/v1/charges", body, &resp); err != nil {
		// Connectivity failures surface as a failed result so the caller can
		// always branch on Success
		g.logger.Error("Card gateway request failed", zap.Error(err))
		return failedResult(req.Amount, domain.PaymentMethodCard, "gateway_unreachable", "payment service unreachable"), nil
	}

	if resp.Error != nil {
		return failedResult(req.Amount, domain.PaymentMethodCard, resp.Error.Code, resp.Error.Message), nil
	}

	return domain.PaymentResult{
		Success:       true,
		TransactionID: resp.ID,
		Amount:        req.Amount,
		Method:        domain.PaymentMethodCard,
		Status:        domain.PaymentStatusPaid,
	}, nil
}

func (g *CardGateway) Verify(ctx context.Context, transactionID string) (domain.PaymentResult, error) {
	if g.secretKey == "" {
		return domain.PaymentResult{}, &errors.ErrGatewayConfig{Gateway: "card", Message: "missing secret key"}
	}

	var resp struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		AmountCents int64  `json:"amount"`
	}
	if err := g.get(ctx, "/v1/charges/"+transactionID, &resp); err != nil {
		g.logger.Error("Card gateway verify failed", zap.Error(err))
		return failedResult(decimal.Zero, domain.PaymentMethodCard, "gateway_unreachable", "payment service unreachable"), nil
	}

	amount := decimal.NewFromInt(resp.AmountCents).Div(decimal.NewFromInt(100))
	if resp.Status != "succeeded" {
		return failedResult(amount, domain.PaymentMethodCard, resp.Status, "charge not captured"), nil
	}

	return domain.PaymentResult{
		Success:       true,
		TransactionID: resp.ID,
		Amount:        amount,
		Method:        domain.PaymentMethodCard,
		Status:        domain.PaymentStatusPaid,
	}, nil
}

func (g *CardGateway) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	return g.do(req, out)
}

func (g *CardGateway) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	return g.do(req, out)
}

func (g *CardGateway) do(req *http.Request, out interface{}) error {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Declines come back with non-2xx status and an error body; decode those
	// rather than treating them as transport failures
	if resp.StatusCode >= 500 {
		return fmt.Errorf("card gateway error: status %d, body: %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func failedResult(amount decimal.Decimal, method domain.PaymentMethod, code, message string) domain.PaymentResult {
	return domain.PaymentResult{
		Success:      false,
		ErrorCode:    code,
		ErrorMessage: message,
		Amount:       amount,
		Method:       method,
		Status:       domain.PaymentStatusFailed,
	}
}
