package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_USER", "testuser")
		t.Setenv("DB_PASSWORD", "testpass")
		t.Setenv("DB_NAME", "testdb")
		t.Setenv("DB_PORT", "5432")
		t.Setenv("APP_PORT", "8080")
		t.Setenv("APP_ENV", "test")
		t.Setenv("PHONEPE_CLIENT_ID", "client-1")
		t.Setenv("PHONEPE_CLIENT_SECRET", "secret-1")
		t.Setenv("PHONEPE_CLIENT_VERSION", "1")
		t.Setenv("PHONEPE_AUTH_BASE_URL", "https://api.phonepe.com/apis/identity-manager")
		t.Setenv("PHONEPE_BASE_URL", "https://api.phonepe.com/apis/pg")
		t.Setenv("PHONEPE_WEBHOOK_USERNAME", "hook-user")
		t.Setenv("PHONEPE_WEBHOOK_PASSWORD", "hook-pass")
		t.Setenv("REDIRECT_BASE_URL", "https://festora.example")

		cfg := LoadConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "testuser", cfg.DBUser)
		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, "client-1", cfg.PhonePeClientID)
		assert.Equal(t, "secret-1", cfg.PhonePeClientSecret)
		assert.Equal(t, "hook-user", cfg.WebhookUsername)
		assert.Equal(t, "https://festora.example", cfg.RedirectBaseURL)
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("COMMISSION_RATE", "")
		t.Setenv("CHECKOUT_EXPIRY_SECONDS", "")

		cfg := LoadConfig()

		assert.Equal(t, DefaultCommissionRate, cfg.CommissionRate)
		assert.Equal(t, 20*time.Minute, cfg.CheckoutExpiry)
		assert.Equal(t, 50*time.Minute, cfg.TokenTTLFallback)
	})

	t.Run("CommissionRateOverride", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("COMMISSION_RATE", "0.25")

		cfg := LoadConfig()
		assert.Equal(t, 0.25, cfg.CommissionRate)
	})

	t.Run("InvalidCommissionRateFallsBack", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("COMMISSION_RATE", "1.5")

		cfg := LoadConfig()
		assert.Equal(t, DefaultCommissionRate, cfg.CommissionRate)
	})

	t.Run("CheckoutExpiryOverride", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("CHECKOUT_EXPIRY_SECONDS", "600")

		cfg := LoadConfig()
		assert.Equal(t, 10*time.Minute, cfg.CheckoutExpiry)
	})
}
