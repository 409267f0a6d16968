package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/config"
	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/internal/repository/postgres"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: go run cmd/create-admin/main.go <name> <api-key> <role>")
		fmt.Println("Example: go run cmd/create-admin/main.go \"Rania\" \"rania-api-key-12345\" admin")
		fmt.Println("Roles: customer, content_manager, admin")
		os.Exit(1)
	}

	name := os.Args[1]
	apiKey := os.Args[2]
	role := domain.Role(os.Args[3])

	if !role.IsValid() {
		fmt.Fprintf(os.Stderr, "Unknown role %q (want customer, content_manager or admin)\n", os.Args[3])
		os.Exit(1)
	}

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

	// Hash the API key
	apiKeyHash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	// Create repositories
	repos := postgres.NewRepositories(db, logger)

	admin := &domain.AdminUser{
		Name:       name,
		APIKeyHash: string(apiKeyHash),
		Role:       role,
		IsActive:   true,
	}

	err = repos.Admin.Create(context.Background(), admin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create admin: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Admin created successfully!\n\n")
	fmt.Printf("Admin ID: %s\n", admin.ID.String())
	fmt.Printf("Name: %s\n", admin.Name)
	fmt.Printf("Role: %s\n", admin.Role)
	fmt.Printf("API Key: %s\n", apiKey)
	fmt.Printf("\n⚠️  IMPORTANT: Save this API key securely! You won't be able to see it again.\n")
	fmt.Printf("\nUse this API key in the Authorization header:\n")
	fmt.Printf("Authorization: Bearer %s\n", apiKey)
}
