package main

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/api"
	"github.com/coralcart/storefront/internal/cache"
	"github.com/coralcart/storefront/internal/config"
	"github.com/coralcart/storefront/internal/notification"
	"github.com/coralcart/storefront/internal/payment"
	"github.com/coralcart/storefront/internal/repository/postgres"
	"github.com/coralcart/storefront/internal/service"
	"github.com/coralcart/storefront/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, "migrations"); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	repos := postgres.NewRepositories(db, logger)

	// Redis holds the session carts
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	cartStore := cache.NewRedisCartStore(redisClient)

	// Payment gateways
	card := payment.NewCardGateway(cfg.Card, logger)
	wallet := payment.NewWalletGateway(cfg.Wallet, logger)
	manual := payment.NewManualGateway(logger)
	payments := payment.NewService(card, wallet, manual, logger)
	classifier := payment.NewClassifier(logger)

	taxRate, err := decimal.NewFromString(cfg.Checkout.TaxRate)
	if err != nil {
		logger.Fatal("Invalid TAX_RATE", zap.String("value", cfg.Checkout.TaxRate), zap.Error(err))
	}

	notifier := notification.NewEmailNotifier(cfg.Notify, logger)
	checkoutMetrics := metrics.NewCheckoutMetrics()

	// Services
	carts := service.NewCartService(cartStore, repos, logger)
	shipping := service.NewShippingService(repos, logger)
	checkout := service.NewCheckoutService(
		repos, carts, shipping, payments, classifier,
		notifier, checkoutMetrics, taxRate, cfg.Checkout.Currency, logger,
	)
	orders := service.NewOrderService(repos, payments, logger)

	router := api.NewRouter(cfg, repos, &api.Services{
		Cart:     carts,
		Shipping: shipping,
		Checkout: checkout,
		Order:    orders,
		Payment:  payments,
	}, logger)

	logger.Info("Starting server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)

	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
