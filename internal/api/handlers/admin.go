package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/internal/repository"
	"github.com/coralcart/storefront/internal/service"
	"github.com/coralcart/storefront/pkg/errors"
)

// UpdateStatusRequest represents a fulfillment status change
type UpdateStatusRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
}

// ShipOrderRequest represents ship order request
type ShipOrderRequest struct {
	Carrier        string  `json:"carrier" binding:"required"`
	TrackingNumber string  `json:"tracking_number" binding:"required"`
	TrackingURL    *string `json:"tracking_url,omitempty"`
}

// CancelOrderRequest represents cancel order request
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// HandleListOrders handles GET /v1/admin/orders
func HandleListOrders(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if err != nil || limit < 1 || limit > 200 {
			limit = 50
		}
		offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if err != nil || offset < 0 {
			offset = 0
		}

		orders, err := repos.Order.List(c.Request.Context(), limit, offset)
		if err != nil {
			logger.Error("Failed to list orders", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		responses := make([]gin.H, len(orders))
		for i, order := range orders {
			responses[i] = gin.H{
				"id":             order.ID.String(),
				"order_number":   order.OrderNumber,
				"customer_name":  order.CustomerName,
				"email":          order.Email,
				"total_amount":   order.TotalAmount.StringFixed(2),
				"payment_method": order.PaymentMethod,
				"payment_status": order.PaymentStatus,
				"status":         order.Status,
				"created_at":     order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			}
		}

		c.JSON(http.StatusOK, gin.H{"orders": responses})
	}
}

// HandleGetOrder handles GET /v1/admin/orders/:id
func HandleGetOrder(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		order, err := repos.Order.GetByID(c.Request.Context(), orderID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			logger.Error("Failed to get order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		items, err := repos.Order.GetItems(c.Request.Context(), orderID)
		if err != nil {
			logger.Error("Failed to get order items", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		events, err := repos.OrderEvent.GetByOrderID(c.Request.Context(), orderID)
		if err != nil {
			logger.Error("Failed to get order events", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		eventResponses := make([]gin.H, len(events))
		for i, event := range events {
			eventResponses[i] = gin.H{
				"event_type": event.EventType,
				"event_data": event.EventData,
				"created_at": event.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"order":  buildOrderResponse(order, items),
			"email":  order.Email,
			"events": eventResponses,
		})
	}
}

// HandleUpdateOrderStatus handles POST /v1/admin/orders/:id/status
func HandleUpdateOrderStatus(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		var req UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}
		if !req.Status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}

		if err := orders.UpdateStatus(c.Request.Context(), orderID, req.Status); err != nil {
			respondOrderServiceError(c, logger, err, "Failed to update order status")
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": orderID.String(), "status": req.Status})
	}
}

// HandleShipOrder handles POST /v1/admin/orders/:id/ship
func HandleShipOrder(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		var req ShipOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		if err := orders.Ship(c.Request.Context(), orderID, req.Carrier, req.TrackingNumber, req.TrackingURL); err != nil {
			respondOrderServiceError(c, logger, err, "Failed to ship order")
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": orderID.String(), "status": domain.OrderStatusShipped})
	}
}

// HandleCancelOrder handles POST /v1/admin/orders/:id/cancel
func HandleCancelOrder(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		var req CancelOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		if err := orders.Cancel(c.Request.Context(), orderID, req.Reason); err != nil {
			respondOrderServiceError(c, logger, err, "Failed to cancel order")
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": orderID.String(), "status": domain.OrderStatusCancelled})
	}
}

// HandleRefundOrder handles POST /v1/admin/orders/:id/refund
func HandleRefundOrder(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		if err := orders.MarkRefunded(c.Request.Context(), orderID); err != nil {
			respondOrderServiceError(c, logger, err, "Failed to refund order")
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": orderID.String(), "payment_status": domain.PaymentStatusRefunded})
	}
}

// HandleConfirmPayment handles POST /v1/admin/orders/:id/confirm-payment
// Marks a pending bank transfer paid once the funds arrive.
func HandleConfirmPayment(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		if err := orders.ConfirmManualPayment(c.Request.Context(), orderID); err != nil {
			respondOrderServiceError(c, logger, err, "Failed to confirm payment")
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": orderID.String(), "payment_status": domain.PaymentStatusPaid})
	}
}

func respondOrderServiceError(c *gin.Context, logger *zap.Logger, err error, logMessage string) {
	switch err.(type) {
	case *errors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case *errors.ErrInvalidStateTransition:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error(logMessage, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
