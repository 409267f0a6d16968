package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Redis       RedisConfig
	Card        CardGatewayConfig
	Wallet      WalletGatewayConfig
	Checkout    CheckoutConfig
	Notify      NotifyConfig
	API         APIConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CardGatewayConfig struct {
	SecretKey string
	BaseURL   string
}

type WalletGatewayConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
}

type CheckoutConfig struct {
	TaxRate  string // decimal fraction, e.g. "0.00" or "0.11"
	Currency string
}

type NotifyConfig struct {
	FromAddress string
	SMTPHost    string
	SMTPPort    string
}

type APIConfig struct {
	KeyHashSalt string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", "0")
	viper.SetDefault("TAX_RATE", "0.00")
	viper.SetDefault("CURRENCY", "USD")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "coralcart"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrViper("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrViper("REDIS_PASSWORD", ""),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Card: CardGatewayConfig{
			SecretKey: getEnvOrViper("CARD_SECRET_KEY", ""),
			BaseURL:   getEnvOrViper("CARD_BASE_URL", "https://api.cardpay.example.com"),
		},
		Wallet: WalletGatewayConfig{
			ClientID:     getEnvOrViper("WALLET_CLIENT_ID", ""),
			ClientSecret: getEnvOrViper("WALLET_CLIENT_SECRET", ""),
			BaseURL:      getEnvOrViper("WALLET_BASE_URL", "https://api.wallet.example.com"),
		},
		Checkout: CheckoutConfig{
			TaxRate:  getEnvOrViper("TAX_RATE", "0.00"),
			Currency: getEnvOrViper("CURRENCY", "USD"),
		},
		Notify: NotifyConfig{
			FromAddress: getEnvOrViper("NOTIFY_FROM_ADDRESS", "orders@coralcart.example.com"),
			SMTPHost:    getEnvOrViper("SMTP_HOST", ""),
			SMTPPort:    getEnvOrViper("SMTP_PORT", "587"),
		},
		API: APIConfig{
			KeyHashSalt: getEnvOrViper("API_KEY_HASH_SALT", "default-salt-change-in-production"),
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.Card.SecretKey == "" {
		return nil, fmt.Errorf("CARD_SECRET_KEY is required")
	}
	if cfg.Wallet.ClientID == "" || cfg.Wallet.ClientSecret == "" {
		return nil, fmt.Errorf("WALLET_CLIENT_ID and WALLET_CLIENT_SECRET are required")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
