package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/config"
	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/internal/repository/postgres"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	ctx := context.Background()

	domestic := &domain.ShippingZone{
		Name:      "Domestic",
		Countries: []string{"US"},
		IsActive:  true,
		SortOrder: 1,
	}
	international := &domain.ShippingZone{
		Name:      "International",
		Countries: []string{"CA", "GB", "DE", "FR", "AU", "JP"},
		IsActive:  true,
		SortOrder: 2,
	}

	for _, zone := range []*domain.ShippingZone{domestic, international} {
		if err := repos.Shipping.CreateZone(ctx, zone); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create zone %s: %v\n", zone.Name, err)
			os.Exit(1)
		}
		fmt.Printf("✅ Zone %s (%s)\n", zone.Name, zone.ID)
	}

	methods := []*domain.ShippingMethod{
		{
			ZoneID:                domestic.ID,
			Name:                  "Standard",
			BaseCost:              dec("0.00"),
			CostPerKg:             dec("0.00"),
			FreeShippingThreshold: decPtr("100.00"),
			EstimatedDaysMin:      3,
			EstimatedDaysMax:      7,
			Brackets: []domain.WeightBracket{
				{MinWeight: dec("0"), MaxWeight: decPtr("5"), Cost: dec("5.00")},
				{MinWeight: dec("5"), MaxWeight: decPtr("20"), Cost: dec("10.00")},
				{MinWeight: dec("20"), MaxWeight: nil, Cost: dec("20.00")},
			},
			IsActive: true,
		},
		{
			ZoneID:           domestic.ID,
			Name:             "Express",
			BaseCost:         dec("12.00"),
			CostPerKg:        dec("1.50"),
			MaxWeight:        decPtr("30"),
			EstimatedDaysMin: 1,
			EstimatedDaysMax: 2,
			IsActive:         true,
		},
		{
			ZoneID:           international.ID,
			Name:             "International Standard",
			BaseCost:         dec("15.00"),
			CostPerKg:        dec("4.00"),
			MaxWeight:        decPtr("20"),
			MinOrderAmount:   decPtr("25.00"),
			EstimatedDaysMin: 7,
			EstimatedDaysMax: 21,
			IsActive:         true,
		},
	}

	for _, method := range methods {
		if err := repos.Shipping.CreateMethod(ctx, method); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create method %s: %v\n", method.Name, err)
			os.Exit(1)
		}
		fmt.Printf("✅ Method %s (%s)\n", method.Name, method.ID)
	}

	fmt.Println("\nShipping zones and methods seeded.")
}
