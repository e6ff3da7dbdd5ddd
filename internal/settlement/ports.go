package settlement

import (
	"context"

	"festora-be/internal/commission"
	"festora-be/internal/order"
	"festora-be/internal/phonepe"
)

// OrderStore is the durable record of orders; the conditional
// writeback in SettleIfPending is the serialization point for the
// three racing reconciliation channels.
type OrderStore interface {
	Create(ctx context.Context, ord *order.Order) error
	GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*order.Order, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*order.Order, error)
	SettleIfPending(ctx context.Context, merchantOrderID string, status order.PaymentStatus, transactionID string) (bool, error)
	MarkFailed(ctx context.Context, merchantOrderID string) (bool, error)
}

// StockStore is the slice of the catalog subsystem the reconciler
// mutates.
type StockStore interface {
	DecrementStock(ctx context.Context, productID uint, quantity int) error
}

type CommissionStore interface {
	SellerByToken(ctx context.Context, token string) (*commission.Seller, error)
	Create(ctx context.Context, entry *commission.Entry) (bool, error)
}

type Gateway interface {
	CreateCheckout(ctx context.Context, req phonepe.CheckoutRequest) (*phonepe.CheckoutResponse, error)
	OrderStatus(ctx context.Context, merchantOrderID string) (*phonepe.StatusResponse, error)
	Refund(ctx context.Context, req phonepe.RefundRequest) (*phonepe.RefundResponse, error)
	RefundStatus(ctx context.Context, merchantRefundID string) (*phonepe.RefundResponse, error)
}

type Notifier interface {
	Send(ctx context.Context, ord *order.Order) error
}
