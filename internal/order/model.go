package order

import (
	"time"
)

type PaymentMethod string

const (
	MethodOnline PaymentMethod = "online"
	MethodCOD    PaymentMethod = "cash-on-delivery"
)

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	// StatusPendingUpfront is the COD terminal state for the online
	// leg: the deposit is confirmed, the remainder is collected on
	// delivery.
	StatusPendingUpfront PaymentStatus = "pending_upfront"
	StatusFailed         PaymentStatus = "failed"
)

type Address struct {
	Line1   string
	Line2   *string
	City    string
	State   string
	Pincode string
	Lat     *float64
	Lng     *float64
}

type Item struct {
	ID        uint
	OrderID   uint
	ProductID *uint
	Name      string
	Price     float64
	Quantity  int
	ImageURL  string
}

type Order struct {
	ID   uint
	Code string

	// MerchantOrderID is generated at checkout-creation time and is
	// the canonical correlation key for every reconciliation channel.
	MerchantOrderID string

	// TransactionID is assigned by the processor once it confirms;
	// kept as a secondary lookup index only.
	TransactionID *string

	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Address       Address
	Items         []Item

	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus

	TotalAmount     float64
	UpfrontAmount   *float64
	RemainingAmount *float64

	SellerToken  *string
	CouponCode   *string
	ScheduledFor *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Settled reports whether the order has reached a paid terminal state.
// Duplicate reconciliation signals for a settled order are no-ops.
func (o *Order) Settled() bool {
	return o.PaymentStatus == StatusCompleted || o.PaymentStatus == StatusPendingUpfront
}

// ChargeAmount is the amount collected online at checkout: the upfront
// deposit for cash-on-delivery orders, the full total otherwise.
func (o *Order) ChargeAmount() float64 {
	if o.PaymentMethod == MethodCOD && o.UpfrontAmount != nil {
		return *o.UpfrontAmount
	}
	return o.TotalAmount
}
