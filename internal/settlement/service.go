package settlement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"festora-be/internal/config"
	"festora-be/internal/logger"
	"festora-be/internal/order"
	"festora-be/internal/phonepe"
	"festora-be/internal/utils"

	"go.uber.org/zap"
)

// ErrValidation marks malformed caller input on checkout or refund.
var ErrValidation = errors.New("invalid checkout input")

// CheckoutDraft is the caller-supplied order before persistence.
type CheckoutDraft struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Address       order.Address
	Items         []order.Item
	PaymentMethod order.PaymentMethod
	TotalAmount   float64
	UpfrontAmount *float64
	SellerToken   *string
	CouponCode    *string
	ScheduledFor  *time.Time
}

// CheckoutResult is what the client needs to continue: where to send
// the browser and the key to poll with.
type CheckoutResult struct {
	Order       *order.Order
	RedirectURL string
}

// Service drives checkout initiation and refunds. Reconciliation of
// outcomes lives in Reconciler; this is the entry side of the
// workflow.
type Service struct {
	orders          OrderStore
	gateway         Gateway
	reconciler      *Reconciler
	redirectBaseURL string
	expireAfterSecs int64
}

func NewService(orders OrderStore, gateway Gateway, reconciler *Reconciler, cfg *config.Config) *Service {
	return &Service{
		orders:          orders,
		gateway:         gateway,
		reconciler:      reconciler,
		redirectBaseURL: strings.TrimRight(cfg.RedirectBaseURL, "/"),
		expireAfterSecs: int64(cfg.CheckoutExpiry.Seconds()),
	}
}

// InitiateCheckout creates a pending order and a hosted-checkout
// session for it. A gateway failure flips the order to failed without
// discarding it; the processor message travels back to the caller.
func (s *Service) InitiateCheckout(ctx context.Context, draft CheckoutDraft) (*CheckoutResult, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	ord := &order.Order{
		Code:            utils.NewOrderCode(),
		MerchantOrderID: utils.NewMerchantOrderID(),
		CustomerName:    draft.CustomerName,
		CustomerEmail:   draft.CustomerEmail,
		CustomerPhone:   draft.CustomerPhone,
		Address:         draft.Address,
		Items:           draft.Items,
		PaymentMethod:   draft.PaymentMethod,
		PaymentStatus:   order.StatusPending,
		TotalAmount:     draft.TotalAmount,
		UpfrontAmount:   draft.UpfrontAmount,
		SellerToken:     draft.SellerToken,
		CouponCode:      draft.CouponCode,
		ScheduledFor:    draft.ScheduledFor,
	}

	if draft.PaymentMethod == order.MethodCOD && draft.UpfrontAmount != nil {
		remaining := round2(draft.TotalAmount - *draft.UpfrontAmount)
		ord.RemainingAmount = &remaining
	}

	log := logger.FromCtx(ctx).With(
		zap.String("merchant_order_id", ord.MerchantOrderID),
		zap.String("order_code", ord.Code),
	)

	if err := s.orders.Create(ctx, ord); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	resp, err := s.gateway.CreateCheckout(ctx, s.checkoutRequest(ord))
	if err != nil {
		log.Error("checkout creation failed, marking order failed", zap.Error(err))
		if ferr := s.reconciler.MarkFailed(ctx, ord, "checkout creation failed"); ferr != nil {
			log.Error("could not mark order failed", zap.Error(ferr))
		}
		return nil, err
	}

	log.Info("checkout initiated",
		zap.String("processor_order_id", resp.OrderID),
		zap.String("state", resp.State),
	)

	return &CheckoutResult{Order: ord, RedirectURL: resp.RedirectURL}, nil
}

func (s *Service) checkoutRequest(ord *order.Order) phonepe.CheckoutRequest {
	meta := phonepe.MetaInfo{
		UDF1: ord.CustomerName,
		UDF2: ord.CustomerEmail + "|" + ord.CustomerPhone,
		UDF3: utils.PtrString(ord.SellerToken),
		UDF4: utils.PtrString(ord.CouponCode),
	}
	if ord.PaymentMethod == order.MethodCOD && ord.UpfrontAmount != nil {
		meta.UDF5 = fmt.Sprintf("upfront=%.2f;remaining=%.2f",
			*ord.UpfrontAmount, floatVal(ord.RemainingAmount))
	}

	redirect := fmt.Sprintf("%s/payment/callback?merchantOrderId=%s",
		s.redirectBaseURL, url.QueryEscape(ord.MerchantOrderID))

	return phonepe.CheckoutRequest{
		MerchantOrderID: ord.MerchantOrderID,
		Amount:          paise(ord.ChargeAmount()),
		ExpireAfter:     s.expireAfterSecs,
		RedirectURL:     redirect,
		Message:         "Festora order " + ord.Code,
		MetaInfo:        meta,
	}
}

// Refund issues a refund for a settled order; amount in rupees.
func (s *Service) Refund(ctx context.Context, merchantOrderID string, amount float64) (*phonepe.RefundResponse, error) {
	if merchantOrderID == "" || amount <= 0 {
		return nil, fmt.Errorf("%w: merchant order id and positive amount required", ErrValidation)
	}

	ord, err := s.orders.GetByMerchantOrderID(ctx, merchantOrderID)
	if err != nil {
		return nil, err
	}
	if !ord.Settled() {
		return nil, fmt.Errorf("%w: order %s is not settled", ErrValidation, merchantOrderID)
	}
	if amount > ord.ChargeAmount() {
		return nil, fmt.Errorf("%w: refund exceeds charged amount", ErrValidation)
	}

	return s.gateway.Refund(ctx, phonepe.RefundRequest{
		MerchantRefundID:        utils.NewRefundID(),
		OriginalMerchantOrderID: merchantOrderID,
		Amount:                  paise(amount),
	})
}

// RefundStatus queries the processor for the state of an issued refund.
func (s *Service) RefundStatus(ctx context.Context, merchantRefundID string) (*phonepe.RefundResponse, error) {
	if merchantRefundID == "" {
		return nil, fmt.Errorf("%w: merchant refund id required", ErrValidation)
	}
	return s.gateway.RefundStatus(ctx, merchantRefundID)
}

func validateDraft(draft CheckoutDraft) error {
	switch {
	case len(draft.Items) == 0:
		return fmt.Errorf("%w: order has no items", ErrValidation)
	case draft.TotalAmount <= 0:
		return fmt.Errorf("%w: total amount must be positive", ErrValidation)
	case draft.CustomerName == "" || draft.CustomerPhone == "":
		return fmt.Errorf("%w: customer name and phone required", ErrValidation)
	case draft.PaymentMethod != order.MethodOnline && draft.PaymentMethod != order.MethodCOD:
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, draft.PaymentMethod)
	case draft.PaymentMethod == order.MethodCOD &&
		(draft.UpfrontAmount == nil || *draft.UpfrontAmount <= 0 || *draft.UpfrontAmount > draft.TotalAmount):
		return fmt.Errorf("%w: cash-on-delivery requires an upfront amount within the total", ErrValidation)
	}
	return nil
}

// paise converts rupees to minor currency units.
func paise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func floatVal(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
