package phonepe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"festora-be/internal/config"
	"festora-be/internal/logger"

	"go.uber.org/zap"
)

// TokenSource is the process-wide single-slot cache for the O-Bearer
// token. PhonePe does not permit unbounded token requests, so a cached
// token is reused until its expiry; any use past expiry forces a
// synchronous refresh. Concurrent refreshes are serialized by the
// mutex; refreshing is idempotent on the processor side.
type TokenSource struct {
	clientID      string
	clientSecret  string
	clientVersion string
	authBaseURL   string
	fallbackTTL   time.Duration
	httpClient    *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	now func() time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"` // epoch seconds
}

func NewTokenSource(cfg *config.Config) *TokenSource {
	return &TokenSource{
		clientID:      cfg.PhonePeClientID,
		clientSecret:  cfg.PhonePeClientSecret,
		clientVersion: cfg.PhonePeClientVersion,
		authBaseURL:   strings.TrimRight(cfg.PhonePeAuthBaseURL, "/"),
		fallbackTTL:   cfg.TokenTTLFallback,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		now: time.Now,
	}
}

// Token returns the cached token while it is still valid, refreshing
// it against the processor otherwise.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && t.now().Before(t.expiresAt) {
		return t.token, nil
	}
	return t.refreshLocked(ctx)
}

func (t *TokenSource) refreshLocked(ctx context.Context) (string, error) {
	if t.clientID == "" || t.clientSecret == "" {
		return "", fmt.Errorf("%w: PHONEPE_CLIENT_ID/PHONEPE_CLIENT_SECRET not set", ErrConfiguration)
	}
	if t.authBaseURL == "" {
		return "", fmt.Errorf("%w: PHONEPE_AUTH_BASE_URL not set", ErrConfiguration)
	}

	form := url.Values{}
	form.Set("client_id", t.clientID)
	form.Set("client_secret", t.clientSecret)
	form.Set("client_version", t.clientVersion)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.authBaseURL+"/v1/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: token exchange: %v", ErrGatewayTimeout, err)
		}
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.L().Error("PhonePe token exchange rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", body),
		)
		if strings.Contains(strings.ToLower(string(body)), "invalid client") {
			return "", fmt.Errorf("%w: invalid client, check PHONEPE_CLIENT_ID and PHONEPE_CLIENT_SECRET", ErrAuth)
		}
		return "", fmt.Errorf("%w: token exchange returned %d", ErrAuth, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access_token in response", ErrAuth)
	}

	t.token = tr.AccessToken
	if tr.ExpiresAt > 0 {
		t.expiresAt = time.Unix(tr.ExpiresAt, 0)
	} else {
		t.expiresAt = t.now().Add(t.fallbackTTL)
	}

	logger.L().Info("PhonePe token refreshed",
		zap.Time("expires_at", t.expiresAt),
	)
	return t.token, nil
}
