package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/domain"
)

// ManualGateway handles bank transfers. It always succeeds synchronously:
// a unique payment reference is generated and the charge stays pending until
// back-office staff confirm the funds arrived. A deliberate exception to
// "success implies funds received".
type ManualGateway struct {
	logger *zap.Logger
}

// NewManualGateway creates the manual transfer gateway
func NewManualGateway(logger *zap.Logger) *ManualGateway {
	return &ManualGateway{logger: logger}
}

func (g *ManualGateway) Method() domain.PaymentMethod {
	return domain.PaymentMethodManualTransfer
}

func (g *ManualGateway) Process(ctx context.Context, req ChargeRequest) (domain.PaymentResult, error) {
	ref := newTransferReference()

	g.logger.Info("Manual transfer reference issued",
		zap.String("reference", ref),
		zap.String("order_number", req.OrderNumber),
	)

	return domain.PaymentResult{
		Success:       true,
		TransactionID: ref,
		Amount:        req.Amount,
		Method:        domain.PaymentMethodManualTransfer,
		Status:        domain.PaymentStatusPending,
	}, nil
}

// Verify reports the reference as pending; fund confirmation is a human
// process, not a gateway query.
func (g *ManualGateway) Verify(ctx context.Context, transactionID string) (domain.PaymentResult, error) {
	return domain.PaymentResult{
		Success:       true,
		TransactionID: transactionID,
		Method:        domain.PaymentMethodManualTransfer,
		Status:        domain.PaymentStatusPending,
	}, nil
}

func newTransferReference() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("BT-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("BT-%s", strings.ToUpper(hex.EncodeToString(buf)))
}
