package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/api/handlers"
	"github.com/coralcart/storefront/internal/api/middleware"
	"github.com/coralcart/storefront/internal/config"
	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/internal/payment"
	"github.com/coralcart/storefront/internal/repository"
	"github.com/coralcart/storefront/internal/service"
	"github.com/coralcart/storefront/pkg/metrics"
)

// Services holds the service layer dependencies the router wires into handlers
type Services struct {
	Cart     *service.CartService
	Shipping *service.ShippingService
	Checkout *service.CheckoutService
	Order    *service.OrderService
	Payment  *payment.Service
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, svcs *Services, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API v1 routes
	v1 := router.Group("/v1")
	{
		// Storefront routes (anonymous, session-scoped)
		storeRoutes := v1.Group("")
		storeRoutes.Use(middleware.SessionMiddleware())
		{
			storeRoutes.GET("/cart", handlers.HandleCartGet(svcs.Cart, logger))
			storeRoutes.POST("/cart/items", handlers.HandleCartAdd(svcs.Cart, logger))
			storeRoutes.PATCH("/cart/items/:productId", handlers.HandleCartUpdate(svcs.Cart, logger))
			storeRoutes.DELETE("/cart/items/:productId", handlers.HandleCartRemove(svcs.Cart, logger))

			storeRoutes.GET("/shipping/methods", handlers.HandleShippingMethods(svcs.Cart, svcs.Shipping, logger))

			storeRoutes.POST("/checkout", handlers.HandleCheckout(svcs.Checkout, logger))
			storeRoutes.POST("/checkout/wallet-intent", handlers.HandleCreateWalletIntent(svcs.Payment, logger))
		}

		// Order tracking needs no session, just number plus email
		v1.GET("/orders/:number", handlers.HandleTrackOrder(svcs.Order, logger))

		// Admin routes (API key auth, role-gated)
		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.AuthMiddleware(repos, domain.RoleContentManager, logger))
		{
			adminRoutes.GET("/orders", handlers.HandleListOrders(repos, logger))
			adminRoutes.GET("/orders/:id", handlers.HandleGetOrder(repos, logger))
			adminRoutes.POST("/orders/:id/status", handlers.HandleUpdateOrderStatus(svcs.Order, logger))
			adminRoutes.POST("/orders/:id/ship", handlers.HandleShipOrder(svcs.Order, logger))
			adminRoutes.POST("/orders/:id/cancel", handlers.HandleCancelOrder(svcs.Order, logger))
			adminRoutes.POST("/orders/:id/confirm-payment", handlers.HandleConfirmPayment(svcs.Order, logger))
		}

		// Refunds require the admin role
		refundRoutes := v1.Group("/admin")
		refundRoutes.Use(middleware.AuthMiddleware(repos, domain.RoleAdmin, logger))
		{
			refundRoutes.POST("/orders/:id/refund", handlers.HandleRefundOrder(svcs.Order, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
