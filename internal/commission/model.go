package commission

import "time"

// Seller is the referral account a seller token resolves to. Seller
// account management itself lives outside this subsystem.
type Seller struct {
	ID    uint
	Name  string
	Email string
	Token string
}

// Entry records a seller's earned commission for one settled order.
// At most one entry exists per order.
type Entry struct {
	ID         uint
	OrderID    uint
	SellerID   uint
	BaseAmount float64
	Rate       float64
	Amount     float64
	CreatedAt  time.Time
}
