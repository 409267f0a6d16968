package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/domain"
)

// ChargeRequest carries everything a gateway needs for one charge attempt.
// Amount is a decimal currency value; each gateway handles its own conversion
// to minor units.
type ChargeRequest struct {
	Amount      decimal.Decimal
	Currency    string
	OrderNumber string
	Email       string
	// CardToken is the client-supplied payment token for the card variant
	CardToken string
	// IntentID is the pre-created wallet intent for the wallet variant
	IntentID string
}

// Gateway executes charges for one payment method variant. Process never
// returns an error for declined or failed charges; those come back as a
// failed PaymentResult. Errors are reserved for configuration defects.
type Gateway interface {
	Method() domain.PaymentMethod
	Process(ctx context.Context, req ChargeRequest) (domain.PaymentResult, error)
	Verify(ctx context.Context, transactionID string) (domain.PaymentResult, error)
}

// Service dispatches charges to the gateway matching the selected method.
// One implementation per variant, selected by the closed PaymentMethod enum.
type Service struct {
	card   Gateway
	wallet Gateway
	manual Gateway
	logger *zap.Logger
}

// NewService creates a payment service over the three gateway variants
func NewService(card, wallet, manual Gateway, logger *zap.Logger) *Service {
	return &Service{
		card:   card,
		wallet: wallet,
		manual: manual,
		logger: logger,
	}
}

func (s *Service) gateway(method domain.PaymentMethod) (Gateway, error) {
	switch method {
	case domain.PaymentMethodCard:
		return s.card, nil
	case domain.PaymentMethodWallet:
		return s.wallet, nil
	case domain.PaymentMethodManualTransfer:
		return s.manual, nil
	default:
		return nil, fmt.Errorf("unknown payment method: %s", method)
	}
}

// Process executes one charge attempt via the matching gateway
func (s *Service) Process(ctx context.Context, method domain.PaymentMethod, req ChargeRequest) (domain.PaymentResult, error) {
	gw, err := s.gateway(method)
	if err != nil {
		return domain.PaymentResult{}, err
	}

	result, err := gw.Process(ctx, req)
	if err != nil {
		return domain.PaymentResult{}, err
	}

	if !result.Success {
		s.logger.Warn("Payment failed",
			zap.String("method", string(method)),
			zap.String("error_code", result.ErrorCode),
			zap.String("order_number", req.OrderNumber),
		)
	}

	return result, nil
}

// VerifyPayment re-queries the gateway for a past charge. Idempotent; never
// mutates local order state.
func (s *Service) VerifyPayment(ctx context.Context, method domain.PaymentMethod, transactionID string) (domain.PaymentResult, error) {
	gw, err := s.gateway(method)
	if err != nil {
		return domain.PaymentResult{}, err
	}
	return gw.Verify(ctx, transactionID)
}

// CreateWalletIntent creates a wallet order/intent server-side for the
// client-side approval flow. The capture happens later inside Process.
func (s *Service) CreateWalletIntent(ctx context.Context, amount decimal.Decimal, metadata map[string]string) (string, error) {
	wallet, ok := s.wallet.(*WalletGateway)
	if !ok {
		return "", fmt.Errorf("wallet gateway does not support intents")
	}
	return wallet.CreateIntent(ctx, amount, metadata)
}
