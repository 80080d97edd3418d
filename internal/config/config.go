package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port        int
	DatabaseURL string
	CORSOrigins []string

	// Auth provider (session verification + user webhooks)
	AuthJWTSecret     string
	AuthWebhookSecret string

	// Payment processor
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceMonthly  string
	StripePriceYearly   string

	// Object storage
	S3Bucket   string
	S3Region   string
	S3Endpoint string

	// AI completion endpoint
	AIAPIKey  string
	AIBaseURL string
	AIModel   string

	// Public app URL used for checkout/portal redirects
	AppURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	port, _ := strconv.Atoi(getEnv("PORT", "4001"))

	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	authSecret := getEnv("AUTH_JWT_SECRET", "")
	if authSecret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET is required")
	}

	webhookSecret := getEnv("AUTH_WEBHOOK_SECRET", "")
	if webhookSecret == "" {
		return nil, fmt.Errorf("AUTH_WEBHOOK_SECRET is required")
	}

	stripeKey := getEnv("STRIPE_SECRET_KEY", "")
	if stripeKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}

	bucket := getEnv("S3_BUCKET", "")
	if bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}

	origins := strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &Config{
		Port:        port,
		DatabaseURL: dbURL,
		CORSOrigins: origins,

		AuthJWTSecret:     authSecret,
		AuthWebhookSecret: webhookSecret,

		StripeSecretKey:     stripeKey,
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceMonthly:  getEnv("STRIPE_PRICE_MONTHLY", "price_monthly_placeholder"),
		StripePriceYearly:   getEnv("STRIPE_PRICE_YEARLY", "price_yearly_placeholder"),

		S3Bucket:   bucket,
		S3Region:   getEnv("S3_REGION", "us-east-1"),
		S3Endpoint: getEnv("S3_ENDPOINT", ""),

		AIAPIKey:  getEnv("AI_API_KEY", ""),
		AIBaseURL: getEnv("AI_BASE_URL", "https://api.anthropic.com"),
		AIModel:   getEnv("AI_MODEL", "claude-sonnet-4-20250514"),

		AppURL: getEnv("APP_URL", "http://localhost:3000"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
