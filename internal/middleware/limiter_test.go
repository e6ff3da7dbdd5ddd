package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRateTier(t *testing.T) {
	t.Run("WebhookIsStrict", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/webhook/phonepe", nil)
		limit, burst, tier := resolveRateTier(r)
		assert.Equal(t, limitStrict, limit)
		assert.Equal(t, burstStrict, burst)
		assert.Equal(t, "strict", tier)
	})

	t.Run("CheckoutIsStrict", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/payment/checkout", nil)
		_, _, tier := resolveRateTier(r)
		assert.Equal(t, "strict", tier)
	})

	t.Run("StatusPollIsGeneral", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/payment/status/FST-1", nil)
		limit, _, tier := resolveRateTier(r)
		assert.Equal(t, limitGeneral, limit)
		assert.Equal(t, "general", tier)
	})

	t.Run("InternalHeaderMatchesSecret", func(t *testing.T) {
		t.Setenv("INTERNAL_SECRET_KEY", "svc-secret")
		r := httptest.NewRequest("GET", "/payment/status/FST-1", nil)
		r.Header.Set("X-Service-Auth", "svc-secret")
		_, _, tier := resolveRateTier(r)
		assert.Equal(t, "internal", tier)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(next)

	t.Run("StrictTierExhausts", func(t *testing.T) {
		var last int
		for i := 0; i < burstStrict+1; i++ {
			r := httptest.NewRequest("POST", "/payment/refund", nil)
			r.Header.Set("X-Device-ID", "dev-exhaust")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			last = w.Code
		}
		assert.Equal(t, http.StatusTooManyRequests, last)
	})

	t.Run("SeparateClientsHaveSeparateBuckets", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/payment/refund", nil)
		r.Header.Set("X-Device-ID", "dev-fresh")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("GeneralBucketUnaffectedByStrictExhaustion", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/health", nil)
		r.Header.Set("X-Device-ID", "dev-exhaust")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
