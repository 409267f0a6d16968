package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/api/middleware"
	"github.com/coralcart/storefront/internal/payment"
	"github.com/coralcart/storefront/internal/service"
)

// HandleCheckout handles POST /v1/checkout. Business failures come back as a
// structured result with HTTP 200/402/409; a 5xx means infrastructure broke.
func HandleCheckout(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
			return
		}

		var req service.CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		result, err := checkout.Checkout(c.Request.Context(), session, req)
		if err != nil {
			logger.Error("Checkout failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		switch {
		case result.Success:
			c.JSON(http.StatusOK, result)
		case len(result.StockIssues) > 0:
			c.JSON(http.StatusConflict, result)
		case result.Suggestion != "":
			// Classified payment failure
			c.JSON(http.StatusPaymentRequired, result)
		default:
			c.JSON(http.StatusOK, result)
		}
	}
}

// CreateIntentRequest represents the wallet pre-step payload
type CreateIntentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// HandleCreateWalletIntent handles POST /v1/checkout/wallet-intent, the
// server-side pre-step of the two-phase wallet flow.
func HandleCreateWalletIntent(payments *payment.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
			return
		}

		var req CreateIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		intentID, err := payments.CreateWalletIntent(c.Request.Context(), req.Amount, map[string]string{
			"session": session.ID,
		})
		if err != nil {
			logger.Error("Failed to create wallet intent", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not start wallet payment"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": intentID})
	}
}
