package notification

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/config"
	"github.com/coralcart/storefront/internal/domain"
)

// Notifier sends customer-facing notifications. Best-effort collaborator:
// callers log failures and move on, a committed order is never rolled back
// over a notification.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order *domain.Order) error
}

type emailNotifier struct {
	cfg    config.NotifyConfig
	logger *zap.Logger
}

// NewEmailNotifier creates an SMTP-backed notifier. With no SMTP host
// configured it degrades to logging only, which keeps development setups
// working without a mail server.
func NewEmailNotifier(cfg config.NotifyConfig, logger *zap.Logger) *emailNotifier {
	return &emailNotifier{
		cfg:    cfg,
		logger: logger,
	}
}

func (n *emailNotifier) SendOrderConfirmation(ctx context.Context, order *domain.Order) error {
	if n.cfg.SMTPHost == "" {
		n.logger.Info("Order confirmation (no SMTP configured)",
			zap.String("order_number", order.OrderNumber),
			zap.String("email", order.Email),
		)
		return nil
	}

	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Order %s confirmed\r\n\r\n"+
			"Thank you for your order!\r\n\r\n"+
			"Order number: %s\r\nTotal: %s\r\n\r\n"+
			"You can track your order with your order number and email address.\r\n",
		n.cfg.FromAddress, order.Email, order.OrderNumber,
		order.OrderNumber, order.TotalAmount.StringFixed(2),
	)

	addr := n.cfg.SMTPHost + ":" + n.cfg.SMTPPort
	if err := smtp.SendMail(addr, nil, n.cfg.FromAddress, []string{order.Email}, []byte(body)); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}

	n.logger.Info("Order confirmation sent",
		zap.String("order_number", order.OrderNumber),
		zap.String("email", order.Email),
	)
	return nil
}
