package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// Booking store
	BookingsFile        string
	DefaultPropertyCode string
	PropertyMapJSON     string

	// Admin
	AdminPassword string

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeDryRun        bool
	Currency            string

	// Checkout defaults
	DefaultCleaningFeeCents int
	CheckoutSuccessURL      string
	CheckoutCancelURL       string

	// Klaviyo notification sink
	KlaviyoAPIKey     string
	KlaviyoAlertEmail string

	// Webhook idempotency tracker
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool
	WebhookEventTTL time.Duration

	// Store snapshot backup
	BackupS3Bucket      string
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		BookingsFile:        getEnv("BOOKINGS_FILE", "bookings.json"),
		DefaultPropertyCode: getEnv("DEFAULT_PROPERTY_CODE", "cos1"),
		PropertyMapJSON:     getEnv("PROPERTY_MAP_JSON", ""),

		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeDryRun:        getEnvAsBool("STRIPE_DRY_RUN", false),
		Currency:            strings.ToLower(getEnv("CURRENCY", "usd")),

		DefaultCleaningFeeCents: getEnvAsInt("DEFAULT_CLEANING_FEE_CENTS", 15000),
		CheckoutSuccessURL:      getEnv("CHECKOUT_SUCCESS_URL", "https://hrznstays.com/success"),
		CheckoutCancelURL:       getEnv("CHECKOUT_CANCEL_URL", "https://hrznstays.com/cancel"),

		KlaviyoAPIKey:     getEnv("KLAVIYO_API_KEY", ""),
		KlaviyoAlertEmail: getEnv("KLAVIYO_ALERT_EMAIL", ""),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),
		WebhookEventTTL: getEnvAsDuration("WEBHOOK_EVENT_TTL", 72*time.Hour),

		BackupS3Bucket:      getEnv("BACKUP_S3_BUCKET", ""),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", "*"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
