// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Payment     PaymentConfig
	Royalty     RoyaltyConfig
	Tiers       TierConfig
	Withdrawal  WithdrawalConfig
	Frontend    FrontendConfig
}

type FrontendConfig struct {
	BaseURL string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

type PaymentConfig struct {
	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string
	CheckoutSuccessURL   string
	CheckoutCancelURL    string
}

// RoyaltyConfig carries the fallback split parameters used when no
// platform-setting row overrides them. All rates are integer basis points;
// fixed amounts are minor currency units.
type RoyaltyConfig struct {
	// VATRatesBps maps ISO country code to the VAT rate extracted from the
	// gross price for buyers in that country.
	VATRatesBps map[string]int64
	// TransactionFeeBps + TransactionFeeFixedCents model the payment
	// processor's cut.
	TransactionFeeBps        int64
	TransactionFeeFixedCents int64
}

// TierConfig holds the fallback trailing-12-month thresholds (minor units)
// and royalty rates per tier.
type TierConfig struct {
	BronzeRateBps        int64
	SilverThresholdCents int64
	SilverRateBps        int64
	GoldThresholdCents   int64
	GoldRateBps          int64
}

type WithdrawalConfig struct {
	MinimumCents int64
	MaximumCents int64
	// FrequencyDays is the rolling window in which at most one request per
	// seller is allowed.
	FrequencyDays        int
	PayPalFeeBps         int64
	BankTransferFeeCents int64
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "edumarket"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL:  getEnvAsInt("JWT_ACCESS_TTL", 24),   // 24 hours
			RefreshTokenTTL: getEnvAsInt("JWT_REFRESH_TTL", 168), // 7 days
		},
		Payment: PaymentConfig{
			StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			StripeWebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
			CheckoutSuccessURL:   getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/purchases/complete?session_id={CHECKOUT_SESSION_ID}"),
			CheckoutCancelURL:    getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/purchases/cancelled"),
		},
		Royalty: RoyaltyConfig{
			VATRatesBps: map[string]int64{
				"GB": 2000,
				"DE": 1900,
				"FR": 2000,
				"IE": 2300,
				"ES": 2100,
				"IT": 2200,
				"NL": 2100,
			},
			TransactionFeeBps:        getEnvAsInt64("TRANSACTION_FEE_BPS", 150),
			TransactionFeeFixedCents: getEnvAsInt64("TRANSACTION_FEE_FIXED", 20),
		},
		Tiers: TierConfig{
			BronzeRateBps:        getEnvAsInt64("TIER_BRONZE_RATE_BPS", 6000),
			SilverThresholdCents: getEnvAsInt64("TIER_SILVER_THRESHOLD", 100000),
			SilverRateBps:        getEnvAsInt64("TIER_SILVER_RATE_BPS", 7000),
			GoldThresholdCents:   getEnvAsInt64("TIER_GOLD_THRESHOLD", 1000000),
			GoldRateBps:          getEnvAsInt64("TIER_GOLD_RATE_BPS", 8000),
		},
		Withdrawal: WithdrawalConfig{
			MinimumCents:         getEnvAsInt64("WITHDRAWAL_MINIMUM", 1000),
			MaximumCents:         getEnvAsInt64("WITHDRAWAL_MAXIMUM", 1000000),
			FrequencyDays:        getEnvAsInt("WITHDRAWAL_FREQUENCY_DAYS", 7),
			PayPalFeeBps:         getEnvAsInt64("WITHDRAWAL_PAYPAL_FEE_BPS", 200),
			BankTransferFeeCents: getEnvAsInt64("WITHDRAWAL_BANK_FEE", 100),
		},
		Frontend: FrontendConfig{
			BaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Payment.StripeSecretKey == "" && c.Environment == "production" {
		return fmt.Errorf("stripe secret key is required in production")
	}

	if c.Withdrawal.MinimumCents <= 0 || c.Withdrawal.MaximumCents < c.Withdrawal.MinimumCents {
		return fmt.Errorf("invalid withdrawal bounds: min=%d max=%d",
			c.Withdrawal.MinimumCents, c.Withdrawal.MaximumCents)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
