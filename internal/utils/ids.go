package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewMerchantOrderID builds the correlation key sent to the payment
// processor: prefixed millisecond timestamp plus a random suffix,
// unique per checkout attempt.
func NewMerchantOrderID() string {
	suffix := strings.SplitN(uuid.New().String(), "-", 2)[0]
	return fmt.Sprintf("FST-%d-%s", time.Now().UnixMilli(), suffix)
}

// NewOrderCode generates the human-readable order number.
func NewOrderCode() string {
	now := time.Now().UTC()
	datePart := now.Format("20060102-150405")

	// 4-digit cryptographic random
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// fallback: time-based entropy
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf("ORD-%s-%04d", datePart, n.Int64())
}

// NewRefundID generates a merchant refund id for the refund API.
func NewRefundID() string {
	suffix := strings.SplitN(uuid.New().String(), "-", 2)[0]
	return fmt.Sprintf("RF-%d-%s", time.Now().UnixMilli(), suffix)
}
