package phonepe

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"festora-be/internal/config"
	"festora-be/internal/logger"
	"festora-be/internal/metrics"

	"go.uber.org/zap"
)

// Client wraps the PhonePe payment-gateway HTTP API. Every call
// obtains a token from the TokenSource first and carries a bounded
// timeout through the underlying http.Client.
type Client struct {
	baseURL         string
	tokens          *TokenSource
	httpClient      *http.Client
	webhookUsername string
	webhookPassword string
	metrics         *metrics.Settlement
}

func NewClient(cfg *config.Config, tokens *TokenSource, m *metrics.Settlement) *Client {
	if cfg.PhonePeBaseURL == "" {
		logger.L().Warn("PhonePe base URL is empty")
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.PhonePeBaseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		webhookUsername: cfg.WebhookUsername,
		webhookPassword: cfg.WebhookPassword,
		metrics:         m,
	}
}

// ----------------- CreateCheckout -----------------

func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("merchant_order_id", req.MerchantOrderID),
		zap.Int64("amount", req.Amount),
	)

	body := map[string]interface{}{
		"merchantOrderId": req.MerchantOrderID,
		"amount":          req.Amount,
		"expireAfter":     req.ExpireAfter,
		"metaInfo":        req.MetaInfo,
		"paymentFlow": map[string]interface{}{
			"type":    "PG_CHECKOUT",
			"message": req.Message,
			"merchantUrls": map[string]interface{}{
				"redirectUrl": req.RedirectURL,
			},
		},
	}

	var resp CheckoutResponse
	if err := c.post(ctx, "/checkout/v2/pay", "create_checkout", body, &resp); err != nil {
		log.Error("PhonePe checkout creation failed", zap.Error(err))
		return nil, err
	}

	log.Info("PhonePe checkout created",
		zap.String("processor_order_id", resp.OrderID),
		zap.String("state", resp.State),
	)
	return &resp, nil
}

// ----------------- OrderStatus -----------------

// OrderStatus polls the current settlement state; idempotent, safe to
// call repeatedly.
func (c *Client) OrderStatus(ctx context.Context, merchantOrderID string) (*StatusResponse, error) {
	log := logger.FromCtx(ctx).With(zap.String("merchant_order_id", merchantOrderID))

	var resp StatusResponse
	path := fmt.Sprintf("/checkout/v2/order/%s/status", merchantOrderID)
	if err := c.get(ctx, path, "order_status", &resp); err != nil {
		log.Error("PhonePe status query failed", zap.Error(err))
		return nil, err
	}

	log.Info("PhonePe status fetched",
		zap.String("state", resp.State),
		zap.String("transaction_id", resp.TransactionID()),
	)
	return &resp, nil
}

// ----------------- Refunds -----------------

func (c *Client) Refund(ctx context.Context, req RefundRequest) (*RefundResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("merchant_refund_id", req.MerchantRefundID),
		zap.String("original_merchant_order_id", req.OriginalMerchantOrderID),
		zap.Int64("amount", req.Amount),
	)

	var resp RefundResponse
	if err := c.post(ctx, "/payments/v2/refund", "refund", req, &resp); err != nil {
		log.Error("PhonePe refund failed", zap.Error(err))
		return nil, err
	}

	log.Info("PhonePe refund issued", zap.String("state", resp.State))
	return &resp, nil
}

func (c *Client) RefundStatus(ctx context.Context, merchantRefundID string) (*RefundResponse, error) {
	var resp RefundResponse
	path := fmt.Sprintf("/payments/v2/refund/%s/status", merchantRefundID)
	if err := c.get(ctx, path, "refund_status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ----------------- Webhook auth -----------------

// VerifyWebhookAuth checks the Authorization header PhonePe sends with
// webhooks: the hex SHA-256 of the configured "username:password".
func (c *Client) VerifyWebhookAuth(authorization string) error {
	if c.webhookUsername == "" || c.webhookPassword == "" {
		return fmt.Errorf("%w: webhook username/password not set", ErrConfiguration)
	}

	sum := sha256.Sum256([]byte(c.webhookUsername + ":" + c.webhookPassword))
	expected := hex.EncodeToString(sum[:])

	got := strings.TrimSpace(authorization)
	got = strings.TrimPrefix(got, "SHA256 ")

	if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
		return fmt.Errorf("%w: webhook authorization mismatch", ErrAuth)
	}
	return nil
}

// ----------------- HTTP plumbing -----------------

func (c *Client) post(ctx context.Context, path, endpoint string, body interface{}, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, endpoint, bytes.NewBuffer(jsonBody), out)
}

func (c *Client) get(ctx context.Context, path, endpoint string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, endpoint, nil, out)
}

// endpoint is the fixed operation name used as the metrics label; the
// path with its interpolated ids must never reach the collector.
func (c *Client) do(ctx context.Context, method, path, endpoint string, body io.Reader, out interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("%w: PHONEPE_BASE_URL not set", ErrConfiguration)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "O-Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveGateway(endpoint, time.Since(start))
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %s %s: %v", ErrGatewayTimeout, method, path, err)
		}
		return fmt.Errorf("phonepe request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read phonepe response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s rejected with 401", ErrAuth, path)
	}
	if resp.StatusCode != http.StatusOK {
		logger.L().Error("PhonePe returned non-success status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody),
		)
		return fmt.Errorf("%w: %s", ErrGateway, processorMessage(respBody, resp.StatusCode))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode phonepe response: %w", err)
		}
	}
	return nil
}

// processorMessage extracts a human-readable message from an error
// body, falling back to the raw body.
func processorMessage(body []byte, status int) string {
	var e struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		if e.Code != "" {
			return fmt.Sprintf("%s (%s)", e.Message, e.Code)
		}
		return e.Message
	}
	if len(body) > 0 {
		return string(body)
	}
	return fmt.Sprintf("status %d", status)
}
