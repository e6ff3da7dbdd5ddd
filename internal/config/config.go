package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultCommissionRate applies when COMMISSION_RATE is unset.
	DefaultCommissionRate = 0.30

	defaultCheckoutExpiry   = 20 * time.Minute
	defaultTokenTTLFallback = 50 * time.Minute
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	PhonePeClientID      string
	PhonePeClientSecret  string
	PhonePeClientVersion string
	PhonePeAuthBaseURL   string
	PhonePeBaseURL       string
	WebhookUsername      string
	WebhookPassword      string

	// RedirectBaseURL is where PhonePe sends the browser back after
	// hosted checkout; the callback handler lives under it.
	RedirectBaseURL string
	CheckoutExpiry  time.Duration

	// TokenTTLFallback is used when the processor omits expires_at.
	TokenTTLFallback time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string

	CommissionRate float64
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),

		PhonePeClientID:      os.Getenv("PHONEPE_CLIENT_ID"),
		PhonePeClientSecret:  os.Getenv("PHONEPE_CLIENT_SECRET"),
		PhonePeClientVersion: os.Getenv("PHONEPE_CLIENT_VERSION"),
		PhonePeAuthBaseURL:   os.Getenv("PHONEPE_AUTH_BASE_URL"),
		PhonePeBaseURL:       os.Getenv("PHONEPE_BASE_URL"),
		WebhookUsername:      os.Getenv("PHONEPE_WEBHOOK_USERNAME"),
		WebhookPassword:      os.Getenv("PHONEPE_WEBHOOK_PASSWORD"),

		RedirectBaseURL:  os.Getenv("REDIRECT_BASE_URL"),
		CheckoutExpiry:   durationEnv("CHECKOUT_EXPIRY_SECONDS", defaultCheckoutExpiry),
		TokenTTLFallback: durationEnv("PHONEPE_TOKEN_TTL_SECONDS", defaultTokenTTLFallback),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     os.Getenv("SMTP_PORT"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		EmailFrom:    os.Getenv("EMAIL_FROM"),

		CommissionRate: floatEnv("COMMISSION_RATE", DefaultCommissionRate),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	if cfg.PhonePeClientID == "" || cfg.PhonePeClientSecret == "" {
		// Not fatal: the gateway surfaces a configuration error on first
		// use, so migrations and health checks still work without creds.
		log.Println("warning: PhonePe credentials are not configured")
	}

	return cfg
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		log.Printf("warning: invalid %s=%q, using default", key, raw)
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func floatEnv(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f > 1 {
		log.Printf("warning: invalid %s=%q, using default", key, raw)
		return fallback
	}
	return f
}
