package settlement

import (
	"context"
	"errors"
	"math"
	"time"

	"festora-be/internal/commission"
	"festora-be/internal/logger"
	"festora-be/internal/metrics"
	"festora-be/internal/order"

	"go.uber.org/zap"
)

// notifyTimeout bounds the detached confirmation-email send.
const notifyTimeout = 30 * time.Second

// ErrInvalidTransition is returned when a settlement signal arrives
// for an order already marked failed. The attempt is logged and no
// side effect runs; callers acknowledge and move on.
var ErrInvalidTransition = errors.New("invalid payment status transition")

// Reconciler applies a verified payment outcome to an order exactly
// once. Webhook, client callback and status poll all funnel through
// Apply; the idempotency guard plus the store's conditional writeback
// make concurrent or repeated delivery safe without locks.
//
// Every side effect after the status commit (commission, stock,
// email) is deliberately log-and-continue: the payment has already
// succeeded at the processor, so bookkeeping failures must never
// unwind the commit.
type Reconciler struct {
	orders         OrderStore
	stock          StockStore
	commissions    CommissionStore
	notifier       Notifier
	commissionRate float64
	metrics        *metrics.Settlement
}

func NewReconciler(
	orders OrderStore,
	stock StockStore,
	commissions CommissionStore,
	notifier Notifier,
	commissionRate float64,
	m *metrics.Settlement,
) *Reconciler {
	return &Reconciler{
		orders:         orders,
		stock:          stock,
		commissions:    commissions,
		notifier:       notifier,
		commissionRate: commissionRate,
		metrics:        m,
	}
}

// Apply settles ord with the processor-confirmed transaction id.
//
// Transitions: pending -> completed (online), pending ->
// pending_upfront (cash-on-delivery), settled -> settled (no-op),
// failed -> anything (rejected).
func (r *Reconciler) Apply(ctx context.Context, ord *order.Order, transactionID string) (*order.Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("merchant_order_id", ord.MerchantOrderID),
		zap.String("transaction_id", transactionID),
	)

	// Idempotency guard: a settled order is never re-processed.
	if ord.Settled() {
		log.Info("order already settled, signal ignored",
			zap.String("status", string(ord.PaymentStatus)),
		)
		r.metrics.ReconcileDuplicate()
		return ord, nil
	}

	if ord.PaymentStatus == order.StatusFailed {
		log.Warn("rejecting settlement signal for failed order")
		r.metrics.ReconcileRejected()
		return ord, ErrInvalidTransition
	}

	target := order.StatusCompleted
	if ord.PaymentMethod == order.MethodCOD {
		target = order.StatusPendingUpfront
	}

	// The status commit happens before any other side effect: a crash
	// past this point leaves the order correctly marked even if the
	// bookkeeping below is skipped.
	won, err := r.orders.SettleIfPending(ctx, ord.MerchantOrderID, target, transactionID)
	if err != nil {
		return nil, err
	}

	ord.PaymentStatus = target
	ord.TransactionID = &transactionID

	if !won {
		// A concurrent channel settled first; its side effects ran.
		log.Info("settlement already applied by a concurrent channel")
		r.metrics.ReconcileDuplicate()
		return ord, nil
	}

	log.Info("order settled", zap.String("status", string(target)))
	r.metrics.ReconcileApplied(string(target))

	r.recordCommission(ctx, ord, log)
	r.decrementStock(ctx, ord, log)
	r.notify(ctx, ord, log)

	return ord, nil
}

// notify dispatches the confirmation email without holding up the
// settlement response: SMTP latency must not delay the webhook,
// callback or poll channel. The context is detached so the send
// survives the request ending, bounded by notifyTimeout.
func (r *Reconciler) notify(ctx context.Context, ord *order.Order, log *zap.Logger) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	go func() {
		defer cancel()
		if err := r.notifier.Send(sendCtx, ord); err != nil {
			log.Error("confirmation email failed", zap.Error(err))
		}
	}()
}

// MarkFailed flips a pending order to failed: the path for failed
// webhooks and for checkout creation that never got off the ground.
// Settled orders are never downgraded.
func (r *Reconciler) MarkFailed(ctx context.Context, ord *order.Order, reason string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("merchant_order_id", ord.MerchantOrderID),
		zap.String("reason", reason),
	)

	if ord.Settled() {
		log.Warn("rejecting failure signal for settled order",
			zap.String("status", string(ord.PaymentStatus)),
		)
		r.metrics.ReconcileRejected()
		return ErrInvalidTransition
	}
	if ord.PaymentStatus == order.StatusFailed {
		log.Info("order already failed, signal ignored")
		return nil
	}

	changed, err := r.orders.MarkFailed(ctx, ord.MerchantOrderID)
	if err != nil {
		return err
	}
	if changed {
		ord.PaymentStatus = order.StatusFailed
		r.metrics.OrderFailed()
		log.Info("order marked failed")
	}
	return nil
}

func (r *Reconciler) recordCommission(ctx context.Context, ord *order.Order, log *zap.Logger) {
	if ord.SellerToken == nil || *ord.SellerToken == "" {
		return
	}

	seller, err := r.commissions.SellerByToken(ctx, *ord.SellerToken)
	if err != nil {
		log.Error("seller lookup failed, commission skipped", zap.Error(err))
		return
	}

	amount := math.Round(ord.TotalAmount*r.commissionRate*100) / 100
	created, err := r.commissions.Create(ctx, &commission.Entry{
		OrderID:    ord.ID,
		SellerID:   seller.ID,
		BaseAmount: ord.TotalAmount,
		Rate:       r.commissionRate,
		Amount:     amount,
	})
	if err != nil {
		log.Error("commission entry failed", zap.Error(err))
		return
	}
	if created {
		log.Info("commission recorded",
			zap.Uint("seller_id", seller.ID),
			zap.Float64("amount", amount),
		)
	}
}

func (r *Reconciler) decrementStock(ctx context.Context, ord *order.Order, log *zap.Logger) {
	for _, it := range ord.Items {
		if it.ProductID == nil {
			continue
		}
		// Per-item and isolated: one bad product must not abort the rest.
		if err := r.stock.DecrementStock(ctx, *it.ProductID, it.Quantity); err != nil {
			log.Error("stock decrement failed",
				zap.Uint("product_id", *it.ProductID),
				zap.Int("quantity", it.Quantity),
				zap.Error(err),
			)
		}
	}
}
