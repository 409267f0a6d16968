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

// WalletGateway implements the two-phase wallet flow: an intent is created
// server-side for client approval, then Process captures the approved intent.
type WalletGateway struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewWalletGateway creates a wallet gateway client
func NewWalletGateway(cfg config.WalletGatewayConfig, logger *zap.Logger) *WalletGateway {
	return &WalletGateway{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

func (g *WalletGateway) Method() domain.PaymentMethod {
	return domain.PaymentMethodWallet
}

// CreateIntent creates a wallet order for client-side approval and returns
// its id. Capture happens later in Process.
func (g *WalletGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, metadata map[string]string) (string, error) {
	if g.clientID == "" || g.clientSecret == "" {
		return "", &errors.ErrGatewayConfig{Gateway: "wallet", Message: "missing credentials"}
	}

	body := map[string]interface{}{
		"amount":   amount.StringFixed(2),
		"metadata": metadata,
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := g.post(ctx, "/v2/orders", body, &resp); err != nil {
		return "", fmt.Errorf("failed to create wallet intent: %w", err)
	}
	return resp.ID, nil
}

type walletCaptureResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount string `json:"amount"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Process captures a previously approved intent. The capture is the operation
// that yields the PaymentResult.
func (g *WalletGateway) Process(ctx context.Context, req ChargeRequest) (domain.PaymentResult, error) {
	if g.clientID == "" || g.clientSecret == "" {
		return domain.PaymentResult{}, &errors.ErrGatewayConfig{Gateway: "wallet", Message: "missing credentials"}
	}
	if req.IntentID == "" {
		return failedResult(req.Amount, domain.PaymentMethodWallet, "missing_intent", "no wallet order id supplied"), nil
	}

	var resp walletCaptureResponse
	if err := g.post(ctx, fmt.Sprintf("/v2/orders/%s/capture", req.IntentID), nil, &resp); err != nil {
		g.logger.Error("Wallet capture request failed", zap.Error(err))
		return failedResult(req.Amount, domain.PaymentMethodWallet, "gateway_unreachable", "payment service unreachable"), nil
	}

	if resp.Error != nil {
		return failedResult(req.Amount, domain.PaymentMethodWallet, resp.Error.Code, resp.Error.Message), nil
	}
	if resp.Status != "COMPLETED" {
		return failedResult(req.Amount, domain.PaymentMethodWallet, "capture_failed", fmt.Sprintf("capture status %s", resp.Status)), nil
	}

	// The intent was created for a client-supplied amount; the capture is only
	// good for the order if the money that actually moved matches the total
	// being charged now.
	if resp.Amount != "" {
		captured, err := decimal.NewFromString(resp.Amount)
		if err != nil || !captured.Equal(req.Amount) {
			g.logger.Warn("Wallet capture amount does not match charge",
				zap.String("captured", resp.Amount),
				zap.String("expected", req.Amount.StringFixed(2)),
				zap.String("intent_id", req.IntentID),
			)
			return failedResult(req.Amount, domain.PaymentMethodWallet, "amount_mismatch",
				fmt.Sprintf("captured %s, expected %s", resp.Amount, req.Amount.StringFixed(2))), nil
		}
	}

	return domain.PaymentResult{
		Success:       true,
		TransactionID: resp.ID,
		Amount:        req.Amount,
		Method:        domain.PaymentMethodWallet,
		Status:        domain.PaymentStatusPaid,
	}, nil
}

func (g *WalletGateway) Verify(ctx context.Context, transactionID string) (domain.PaymentResult, error) {
	if g.clientID == "" || g.clientSecret == "" {
		return domain.PaymentResult{}, &errors.ErrGatewayConfig{Gateway: "wallet", Message: "missing credentials"}
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Amount string `json:"amount"`
	}
	if err := g.get(ctx, "/v2/orders/"+transactionID, &resp); err != nil {
		g.logger.Error("Wallet verify failed", zap.Error(err))
		return failedResult(decimal.Zero, domain.PaymentMethodWallet, "gateway_unreachable", "payment service unreachable"), nil
	}

	amount, err := decimal.NewFromString(resp.Amount)
	if err != nil {
		amount = decimal.Zero
	}
	if resp.Status != "COMPLETED" {
		return failedResult(amount, domain.PaymentMethodWallet, resp.Status, "order not captured"), nil
	}

	return domain.PaymentResult{
		Success:       true,
		TransactionID: resp.ID,
		Amount:        amount,
		Method:        domain.PaymentMethodWallet,
		Status:        domain.PaymentStatusPaid,
	}, nil
}

func (g *WalletGateway) post(ctx context.Context, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.clientID, g.clientSecret)

	return g.do(req, out)
}

func (g *WalletGateway) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(g.clientID, g.clientSecret)

	return g.do(req, out)
}

func (g *WalletGateway) do(req *http.Request, out interface{}) error {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("wallet gateway error: status %d, body: %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
