package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"festora-be/internal/logger"
	"festora-be/internal/metrics"
	"festora-be/internal/order"
	"festora-be/internal/phonepe"
	"festora-be/internal/settlement"
	"festora-be/internal/utils"

	"go.uber.org/zap"
)

// Reconciler is the shared state machine all three entry points
// terminate in.
type Reconciler interface {
	Apply(ctx context.Context, ord *order.Order, transactionID string) (*order.Order, error)
	MarkFailed(ctx context.Context, ord *order.Order, reason string) error
}

type OrderLookup interface {
	GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*order.Order, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*order.Order, error)
}

type StatusGateway interface {
	OrderStatus(ctx context.Context, merchantOrderID string) (*phonepe.StatusResponse, error)
}

// AuthVerifier checks the processor's webhook authorization header.
type AuthVerifier interface {
	VerifyWebhookAuth(authorization string) error
}

type CheckoutService interface {
	InitiateCheckout(ctx context.Context, draft settlement.CheckoutDraft) (*settlement.CheckoutResult, error)
	Refund(ctx context.Context, merchantOrderID string, amount float64) (*phonepe.RefundResponse, error)
	RefundStatus(ctx context.Context, merchantRefundID string) (*phonepe.RefundResponse, error)
}

type Handler struct {
	Orders     OrderLookup
	Gateway    StatusGateway
	Reconciler Reconciler
	Auth       AuthVerifier
	Service    CheckoutService
	Metrics    *metrics.Settlement
}

func New(orders OrderLookup, gateway StatusGateway, rec Reconciler, auth AuthVerifier, svc CheckoutService, m *metrics.Settlement) *Handler {
	return &Handler{
		Orders:     orders,
		Gateway:    gateway,
		Reconciler: rec,
		Auth:       auth,
		Service:    svc,
		Metrics:    m,
	}
}

// ----------------- Checkout -----------------

type checkoutItem struct {
	ProductID *uint   `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"imageUrl"`
}

type checkoutRequest struct {
	CustomerName  string         `json:"customerName"`
	CustomerEmail string         `json:"customerEmail"`
	CustomerPhone string         `json:"customerPhone"`
	AddressLine1  string         `json:"addressLine1"`
	AddressLine2  *string        `json:"addressLine2"`
	City          string         `json:"city"`
	State         string         `json:"state"`
	Pincode       string         `json:"pincode"`
	Lat           *float64       `json:"lat"`
	Lng           *float64       `json:"lng"`
	Items         []checkoutItem `json:"items"`
	PaymentMethod string         `json:"paymentMethod"`
	TotalAmount   float64        `json:"totalAmount"`
	UpfrontAmount *float64       `json:"upfrontAmount"`
	SellerToken   *string        `json:"sellerToken"`
	CouponCode    *string        `json:"couponCode"`
	ScheduledFor  *time.Time     `json:"scheduledFor"`
}

// CheckoutHandler creates a pending order and returns the hosted
// checkout redirect URL.
func (h *Handler) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	draft := settlement.CheckoutDraft{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Address: order.Address{
			Line1:   req.AddressLine1,
			Line2:   req.AddressLine2,
			City:    req.City,
			State:   req.State,
			Pincode: req.Pincode,
			Lat:     req.Lat,
			Lng:     req.Lng,
		},
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
		TotalAmount:   req.TotalAmount,
		UpfrontAmount: req.UpfrontAmount,
		SellerToken:   req.SellerToken,
		CouponCode:    req.CouponCode,
		ScheduledFor:  req.ScheduledFor,
	}
	for _, it := range req.Items {
		draft.Items = append(draft.Items, order.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURL,
		})
	}

	res, err := h.Service.InitiateCheckout(r.Context(), draft)
	if err != nil {
		writeCheckoutError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"orderCode":       res.Order.Code,
		"merchantOrderId": res.Order.MerchantOrderID,
		"redirectUrl":     res.RedirectURL,
	})
}

func writeCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, settlement.ErrValidation):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, phonepe.ErrConfiguration):
		utils.WriteJSONError(w, "payment gateway not configured", http.StatusInternalServerError)
	case errors.Is(err, phonepe.ErrGatewayTimeout):
		utils.WriteJSONError(w, "payment gateway timed out", http.StatusGatewayTimeout)
	default:
		// Includes gateway rejections: the processor message travels
		// back so the caller sees why checkout failed.
		utils.WriteJSONError(w, err.Error(), http.StatusBadGateway)
	}
}

// ----------------- Webhook -----------------

// WebhookHandler receives PhonePe's server-to-server push. The
// processor keys retries off non-200 responses, so every processed or
// intentionally-ignored event answers 200.
func (h *Handler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context())

	if err := h.Auth.VerifyWebhookAuth(r.Header.Get("Authorization")); err != nil {
		if errors.Is(err, phonepe.ErrConfiguration) {
			log.Error("webhook credentials not configured", zap.Error(err))
			utils.WriteJSONError(w, "webhook not configured", http.StatusInternalServerError)
			return
		}
		log.Warn("webhook authorization rejected", zap.Error(err))
		h.Metrics.WebhookAuthFailure()
		utils.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.WriteJSONError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var envelope phonepe.WebhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	log = log.With(
		zap.String("event", envelope.Event),
		zap.String("merchant_order_id", envelope.Payload.MerchantOrderID),
		zap.String("state", envelope.Payload.State),
	)

	switch envelope.Event {
	case phonepe.EventOrderCompleted:
		if envelope.Payload.State != phonepe.StateCompleted {
			log.Warn("completed event with non-completed state, ignoring")
			w.WriteHeader(http.StatusOK)
			return
		}
		h.applyWebhookSuccess(w, r, envelope.Payload, log)

	case phonepe.EventOrderFailed:
		h.applyWebhookFailure(w, r, envelope.Payload, log)

	default:
		// Unrecognized events are acknowledged and ignored.
		log.Info("unrecognized webhook event, acknowledged")
		w.WriteHeader(http.StatusOK)
	}
}

func (h *Handler) applyWebhookSuccess(w http.ResponseWriter, r *http.Request, payload phonepe.WebhookPayload, log *zap.Logger) {
	ord, err := h.lookupOrder(r.Context(), payload, log)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			utils.WriteJSONError(w, "order not found", http.StatusNotFound)
			return
		}
		utils.WriteJSONError(w, "order lookup failed", http.StatusInternalServerError)
		return
	}

	if _, err := h.Reconciler.Apply(r.Context(), ord, payload.TransactionID); err != nil {
		if errors.Is(err, settlement.ErrInvalidTransition) {
			// Logged by the reconciler; acknowledged so the processor
			// stops redelivering.
			w.WriteHeader(http.StatusOK)
			return
		}
		log.Error("webhook settlement failed", zap.Error(err))
		utils.WriteJSONError(w, "failed to settle order", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) applyWebhookFailure(w http.ResponseWriter, r *http.Request, payload phonepe.WebhookPayload, log *zap.Logger) {
	ord, err := h.lookupOrder(r.Context(), payload, log)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			utils.WriteJSONError(w, "order not found", http.StatusNotFound)
			return
		}
		utils.WriteJSONError(w, "order lookup failed", http.StatusInternalServerError)
		return
	}

	if err := h.Reconciler.MarkFailed(r.Context(), ord, "processor reported failure"); err != nil {
		if errors.Is(err, settlement.ErrInvalidTransition) {
			w.WriteHeader(http.StatusOK)
			return
		}
		log.Error("webhook failure handling failed", zap.Error(err))
		utils.WriteJSONError(w, "failed to update order", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// lookupOrder resolves the webhook's order: merchant order id is the
// canonical key, transaction id is a fallback only.
func (h *Handler) lookupOrder(ctx context.Context, payload phonepe.WebhookPayload, log *zap.Logger) (*order.Order, error) {
	ord, err := h.Orders.GetByMerchantOrderID(ctx, payload.MerchantOrderID)
	if err == nil {
		return ord, nil
	}
	if errors.Is(err, order.ErrOrderNotFound) && payload.TransactionID != "" {
		log.Warn("merchant order id miss, falling back to transaction id",
			zap.String("transaction_id", payload.TransactionID),
		)
		return h.Orders.GetByTransactionID(ctx, payload.TransactionID)
	}
	return nil, err
}

// ----------------- Client callback -----------------

// CallbackHandler handles the browser returning from hosted checkout.
// The client-supplied status is untrusted; the outcome is re-verified
// against the gateway before anything is applied.
func (h *Handler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	merchantOrderID := r.URL.Query().Get("merchantOrderId")
	if merchantOrderID == "" {
		utils.WriteJSONError(w, "merchantOrderId is required", http.StatusBadRequest)
		return
	}

	log := logger.FromCtx(r.Context()).With(zap.String("merchant_order_id", merchantOrderID))

	ord, err := h.Orders.GetByMerchantOrderID(r.Context(), merchantOrderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			utils.WriteJSONError(w, "order not found", http.StatusNotFound)
			return
		}
		utils.WriteJSONError(w, "order lookup failed", http.StatusInternalServerError)
		return
	}

	status, err := h.Gateway.OrderStatus(r.Context(), merchantOrderID)
	if err != nil {
		log.Error("callback verification failed", zap.Error(err))
		writeGatewayError(w, err)
		return
	}

	switch status.State {
	case phonepe.StateCompleted:
		if ord, err = h.Reconciler.Apply(r.Context(), ord, status.TransactionID()); err != nil &&
			!errors.Is(err, settlement.ErrInvalidTransition) {
			utils.WriteJSONError(w, "failed to settle order", http.StatusInternalServerError)
			return
		}
	case phonepe.StateFailed:
		if err := h.Reconciler.MarkFailed(r.Context(), ord, "verified failure on callback"); err != nil &&
			!errors.Is(err, settlement.ErrInvalidTransition) {
			utils.WriteJSONError(w, "failed to update order", http.StatusInternalServerError)
			return
		}
	default:
		log.Info("callback while payment still pending")
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"merchantOrderId": ord.MerchantOrderID,
		"orderCode":       ord.Code,
		"paymentStatus":   string(ord.PaymentStatus),
		"processorState":  status.State,
	})
}

// ----------------- Status poll -----------------

// StatusHandler answers "what is the state of order X right now". A
// verified success on a still-pending order is applied proactively;
// the processor's raw payload is returned either way.
func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	merchantOrderID := r.PathValue("merchantOrderId")
	if merchantOrderID == "" {
		utils.WriteJSONError(w, "merchantOrderId is required", http.StatusBadRequest)
		return
	}

	log := logger.FromCtx(r.Context()).With(zap.String("merchant_order_id", merchantOrderID))

	ord, err := h.Orders.GetByMerchantOrderID(r.Context(), merchantOrderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			utils.WriteJSONError(w, "order not found", http.StatusNotFound)
			return
		}
		utils.WriteJSONError(w, "order lookup failed", http.StatusInternalServerError)
		return
	}

	status, err := h.Gateway.OrderStatus(r.Context(), merchantOrderID)
	if err != nil {
		log.Error("status query failed", zap.Error(err))
		writeGatewayError(w, err)
		return
	}

	if status.State == phonepe.StateCompleted && !ord.Settled() {
		if _, err := h.Reconciler.Apply(r.Context(), ord, status.TransactionID()); err != nil &&
			!errors.Is(err, settlement.ErrInvalidTransition) {
			// Still return the processor payload; the other channels
			// will retry the settlement.
			log.Error("proactive settlement from poll failed", zap.Error(err))
		}
	}

	utils.WriteJSON(w, http.StatusOK, status)
}

// ----------------- Refund -----------------

type refundRequest struct {
	MerchantOrderID string  `json:"merchantOrderId"`
	Amount          float64 `json:"amount"`
}

func (h *Handler) RefundHandler(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	resp, err := h.Service.Refund(r.Context(), req.MerchantOrderID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, settlement.ErrValidation):
			utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, order.ErrOrderNotFound):
			utils.WriteJSONError(w, "order not found", http.StatusNotFound)
		default:
			writeGatewayError(w, err)
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    resp,
	})
}

func (h *Handler) RefundStatusHandler(w http.ResponseWriter, r *http.Request) {
	merchantRefundID := r.PathValue("merchantRefundId")
	if merchantRefundID == "" {
		utils.WriteJSONError(w, "merchantRefundId is required", http.StatusBadRequest)
		return
	}

	resp, err := h.Service.RefundStatus(r.Context(), merchantRefundID)
	if err != nil {
		if errors.Is(err, settlement.ErrValidation) {
			utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeGatewayError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}

func writeGatewayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, phonepe.ErrGatewayTimeout):
		utils.WriteJSONError(w, "payment gateway timed out", http.StatusGatewayTimeout)
	case errors.Is(err, phonepe.ErrConfiguration):
		utils.WriteJSONError(w, "payment gateway not configured", http.StatusInternalServerError)
	default:
		utils.WriteJSONError(w, "payment gateway error", http.StatusBadGateway)
	}
}
