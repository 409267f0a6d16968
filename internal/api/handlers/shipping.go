package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/api/middleware"
	"github.com/coralcart/storefront/internal/service"
)

// HandleShippingMethods handles GET /v1/shipping/methods?country=XX
// Prices every available method for the current cart's weight and subtotal.
func HandleShippingMethods(carts *service.CartService, shipping *service.ShippingService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
			return
		}

		country := strings.ToUpper(c.Query("country"))
		if len(country) != 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "country must be a two-letter code"})
			return
		}

		cart, err := carts.Get(c.Request.Context(), session)
		if err != nil {
			logger.Error("Failed to load cart", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		summary, err := carts.Summary(c.Request.Context(), cart)
		if err != nil {
			logger.Error("Failed to compute cart summary", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		quotes, err := shipping.GetAvailableMethods(c.Request.Context(), country, summary.TotalWeight, summary.Subtotal)
		if err != nil {
			logger.Error("Failed to get shipping methods", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		// An empty list is the caller's "no methods available" signal
		c.JSON(http.StatusOK, gin.H{"methods": quotes})
	}
}
