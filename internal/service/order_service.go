package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/internal/repository"
	pkgerrors "github.com/coralcart/storefront/pkg/errors"
)

// PaymentVerifier re-queries a gateway for a past charge during reconciliation
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, method domain.PaymentMethod, transactionID string) (domain.PaymentResult, error)
}

type OrderService struct {
	repos    *repository.Repositories
	payments PaymentVerifier
	logger   *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(repos *repository.Repositories, payments PaymentVerifier, logger *zap.Logger) *OrderService {
	return &OrderService{
		repos:    repos,
		payments: payments,
		logger:   logger,
	}
}

// Track looks an order up by number and email for customer order tracking.
// The email must match; a mismatch reads the same as a missing order.
func (s *OrderService) Track(ctx context.Context, orderNumber, email string) (*domain.Order, []*domain.OrderItem, error) {
	order, err := s.repos.Order.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, nil, err
	}

	if !strings.EqualFold(order.Email, email) {
		return nil, nil, &pkgerrors.ErrNotFound{Resource: "order", ID: orderNumber}
	}

	items, err := s.repos.Order.GetItems(ctx, order.ID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// UpdateStatus moves an order to a new fulfillment status
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus domain.OrderStatus) error {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.Status.CanTransitionTo(newStatus) {
		return &pkgerrors.ErrInvalidStateTransition{
			From: order.Status,
			To:   newStatus,
		}
	}

	if err := s.repos.Order.UpdateStatus(ctx, orderID, newStatus); err != nil {
		return err
	}

	s.recordStatusChange(ctx, orderID, order.Status, newStatus, nil)
	return nil
}

// Ship marks an order shipped with tracking information
func (s *OrderService) Ship(ctx context.Context, orderID uuid.UUID, carrier, trackingNumber string, trackingURL *string) error {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.Status.CanTransitionTo(domain.OrderStatusShipped) {
		return &pkgerrors.ErrInvalidStateTransition{
			From: order.Status,
			To:   domain.OrderStatusShipped,
		}
	}

	if err := s.repos.Order.UpdateTracking(ctx, orderID, &carrier, &trackingNumber, trackingURL); err != nil {
		return err
	}

	extra := map[string]interface{}{
		"carrier":         carrier,
		"tracking_number": trackingNumber,
	}
	if trackingURL != nil {
		extra["tracking_url"] = *trackingURL
	}
	s.recordStatusChange(ctx, orderID, order.Status, domain.OrderStatusShipped, extra)
	return nil
}

// Cancel cancels an order and restores the stock its items consumed.
// The compensating action for checkout's stock decrement.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, reason string) error {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.Status.CanTransitionTo(domain.OrderStatusCancelled) {
		return &pkgerrors.ErrInvalidStateTransition{
			From: order.Status,
			To:   domain.OrderStatusCancelled,
		}
	}

	if err := s.repos.Order.CancelWithRestock(ctx, orderID); err != nil {
		return err
	}

	s.recordStatusChange(ctx, orderID, order.Status, domain.OrderStatusCancelled, map[string]interface{}{
		"reason": reason,
	})
	return nil
}

// MarkRefunded transitions a paid order to refunded. The gateway is
// re-queried first so a refund is never recorded for a charge that was
// never captured; the verification itself mutates nothing.
func (s *OrderService) MarkRefunded(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.PaymentStatus.CanTransitionTo(domain.PaymentStatusRefunded) {
		return &pkgerrors.ErrInvalidStateTransition{
			From: order.PaymentStatus,
			To:   domain.PaymentStatusRefunded,
		}
	}

	if order.PaymentMethod != domain.PaymentMethodManualTransfer {
		result, err := s.payments.VerifyPayment(ctx, order.PaymentMethod, order.PaymentRef)
		if err != nil {
			return err
		}
		if !result.Success {
			s.logger.Warn("Refund requested for unverified charge",
				zap.String("order_number", order.OrderNumber),
				zap.String("transaction_id", order.PaymentRef),
			)
		}
	}

	if err := s.repos.Order.UpdatePaymentStatus(ctx, orderID, domain.PaymentStatusRefunded); err != nil {
		return err
	}

	event := &domain.OrderEvent{
		OrderID:   orderID,
		EventType: "payment_refunded",
		EventData: map[string]interface{}{
			"transaction_id": order.PaymentRef,
		},
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		s.logger.Warn("Failed to record order event", zap.Error(err))
	}
	return nil
}

// ConfirmManualPayment marks a pending bank transfer as paid once back-office
// staff see the funds arrive.
func (s *OrderService) ConfirmManualPayment(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if order.PaymentMethod != domain.PaymentMethodManualTransfer {
		return &pkgerrors.ErrInvalidStateTransition{
			From: order.PaymentStatus,
			To:   domain.PaymentStatusPaid,
		}
	}
	if !order.PaymentStatus.CanTransitionTo(domain.PaymentStatusPaid) {
		return &pkgerrors.ErrInvalidStateTransition{
			From: order.PaymentStatus,
			To:   domain.PaymentStatusPaid,
		}
	}

	if err := s.repos.Order.UpdatePaymentStatus(ctx, orderID, domain.PaymentStatusPaid); err != nil {
		return err
	}

	event := &domain.OrderEvent{
		OrderID:   orderID,
		EventType: "payment_confirmed",
		EventData: map[string]interface{}{
			"reference": order.PaymentRef,
		},
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		s.logger.Warn("Failed to record order event", zap.Error(err))
	}
	return nil
}

func (s *OrderService) recordStatusChange(ctx context.Context, orderID uuid.UUID, from, to domain.OrderStatus, extra map[string]interface{}) {
	data := map[string]interface{}{
		"from": from,
		"to":   to,
	}
	for k, v := range extra {
		data[k] = v
	}

	event := &domain.OrderEvent{
		OrderID:   orderID,
		EventType: "status_change",
		EventData: data,
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		s.logger.Warn("Failed to record order event", zap.Error(err))
	}
}
