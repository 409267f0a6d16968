package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/internal/service"
	"github.com/coralcart/storefront/pkg/errors"
)

// OrderResponse represents the order tracking response
type OrderResponse struct {
	OrderNumber     string               `json:"order_number"`
	Status          domain.OrderStatus   `json:"status"`
	PaymentStatus   domain.PaymentStatus `json:"payment_status"`
	PaymentMethod   domain.PaymentMethod `json:"payment_method"`
	PaymentRef      string               `json:"payment_reference,omitempty"`
	CustomerName    string               `json:"customer_name"`
	Subtotal        string               `json:"subtotal"`
	ShippingCost    string               `json:"shipping_cost"`
	TaxAmount       string               `json:"tax_amount"`
	TotalAmount     string               `json:"total_amount"`
	TrackingCarrier *string              `json:"tracking_carrier,omitempty"`
	TrackingNumber  *string              `json:"tracking_number,omitempty"`
	TrackingURL     *string              `json:"tracking_url,omitempty"`
	Items           []OrderItemResponse  `json:"items"`
	CreatedAt       string               `json:"created_at"`
}

type OrderItemResponse struct {
	ProductName string `json:"product_name"`
	ProductSKU  string `json:"product_sku"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
	Total       string `json:"total"`
}

// HandleTrackOrder handles GET /v1/orders/:number?email=
func HandleTrackOrder(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderNumber := c.Param("number")
		email := c.Query("email")
		if email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
			return
		}

		order, items, err := orders.Track(c.Request.Context(), orderNumber, email)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			logger.Error("Failed to track order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, buildOrderResponse(order, items))
	}
}

func buildOrderResponse(order *domain.Order, items []*domain.OrderItem) OrderResponse {
	itemResponses := make([]OrderItemResponse, len(items))
	for i, item := range items {
		itemResponses[i] = OrderItemResponse{
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			Quantity:    item.Quantity,
			Price:       item.Price.StringFixed(2),
			Total:       item.Total.StringFixed(2),
		}
	}

	return OrderResponse{
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		PaymentStatus:   order.PaymentStatus,
		PaymentMethod:   order.PaymentMethod,
		PaymentRef:      order.PaymentRef,
		CustomerName:    order.CustomerName,
		Subtotal:        order.Subtotal.StringFixed(2),
		ShippingCost:    order.ShippingCost.StringFixed(2),
		TaxAmount:       order.TaxAmount.StringFixed(2),
		TotalAmount:     order.TotalAmount.StringFixed(2),
		TrackingCarrier: order.TrackingCarrier,
		TrackingNumber:  order.TrackingNumber,
		TrackingURL:     order.TrackingURL,
		Items:           itemResponses,
		CreatedAt:       order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
