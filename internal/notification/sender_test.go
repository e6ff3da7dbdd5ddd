package notification

import (
	"context"
	"testing"
	"time"

	"festora-be/internal/config"
	"festora-be/internal/order"
	"festora-be/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() *order.Order {
	upfront := 100.0
	remaining := 350.0
	scheduled := time.Date(2026, 3, 14, 16, 0, 0, 0, time.UTC)
	productID := uint(7)

	return &order.Order{
		Code:          "ORD-20260301-101500-0042",
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		Address: order.Address{
			Line1:   "12 MG Road",
			Line2:   utils.StrPtr("Flat 4B"),
			City:    "Bengaluru",
			State:   "KA",
			Pincode: "560001",
		},
		Items: []order.Item{
			{ProductID: &productID, Name: "Balloon Arch Kit", Price: 350, Quantity: 1},
			{Name: "Custom Banner", Price: 50, Quantity: 2},
		},
		PaymentMethod:   order.MethodCOD,
		PaymentStatus:   order.StatusPendingUpfront,
		TotalAmount:     450,
		UpfrontAmount:   &upfront,
		RemainingAmount: &remaining,
		ScheduledFor:    &scheduled,
	}
}

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage("orders@festora.example", sampleOrder())
	require.NoError(t, err)

	body := string(msg)
	assert.Contains(t, body, "To: asha@example.com")
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "ORD-20260301-101500-0042")
	assert.Contains(t, body, "Balloon Arch Kit")
	assert.Contains(t, body, "Custom Banner x2")
	assert.Contains(t, body, "Total: Rs.450.00")
	assert.Contains(t, body, "Paid now: Rs.100.00")
	assert.Contains(t, body, "Due on delivery: Rs.350.00")
	assert.Contains(t, body, "Flat 4B")
	assert.Contains(t, body, "Scheduled delivery:")
	assert.Contains(t, body, "text/html")
}

func TestBuildMessage_OnlineOrderOmitsUpfront(t *testing.T) {
	ord := sampleOrder()
	ord.PaymentMethod = order.MethodOnline
	ord.UpfrontAmount = nil
	ord.RemainingAmount = nil

	msg, err := buildMessage("orders@festora.example", ord)
	require.NoError(t, err)
	assert.NotContains(t, string(msg), "Paid now")
	assert.NotContains(t, string(msg), "Due on delivery")
}

func TestSend_MockModeWithoutSMTPHost(t *testing.T) {
	s := NewEmailSender(&config.Config{})
	assert.NoError(t, s.Send(context.Background(), sampleOrder()))
}

func TestSend_SkipsWithoutRecipient(t *testing.T) {
	s := NewEmailSender(&config.Config{SMTPHost: "smtp.example", SMTPPort: "587"})
	ord := sampleOrder()
	ord.CustomerEmail = ""

	assert.NoError(t, s.Send(context.Background(), ord))
}
