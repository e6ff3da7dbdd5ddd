package phonepe

// Order states reported by the processor.
const (
	StateCompleted = "COMPLETED"
	StateFailed    = "FAILED"
	StatePending   = "PENDING"
)

// Webhook event types we recognize; anything else is acknowledged
// and ignored.
const (
	EventOrderCompleted = "checkout.order.completed"
	EventOrderFailed    = "checkout.order.failed"
)

// MetaInfo carries free-form business context on a checkout for audit
// purposes. PhonePe echoes it back verbatim on status queries.
type MetaInfo struct {
	UDF1 string `json:"udf1,omitempty"`
	UDF2 string `json:"udf2,omitempty"`
	UDF3 string `json:"udf3,omitempty"`
	UDF4 string `json:"udf4,omitempty"`
	UDF5 string `json:"udf5,omitempty"`
}

// CheckoutRequest describes one hosted-checkout session. Amount is in
// paise (minor currency units).
type CheckoutRequest struct {
	MerchantOrderID string
	Amount          int64
	ExpireAfter     int64 // seconds
	RedirectURL     string
	Message         string
	MetaInfo        MetaInfo
}

type CheckoutResponse struct {
	OrderID     string `json:"orderId"`
	State       string `json:"state"`
	RedirectURL string `json:"redirectUrl"`
	ExpireAt    int64  `json:"expireAt"`
}

type PaymentDetail struct {
	TransactionID string `json:"transactionId"`
	PaymentMode   string `json:"paymentMode"`
	Amount        int64  `json:"amount"`
	State         string `json:"state"`
	ErrorCode     string `json:"errorCode,omitempty"`
}

type StatusResponse struct {
	OrderID        string          `json:"orderId"`
	State          string          `json:"state"`
	Amount         int64           `json:"amount"`
	ErrorCode      *string         `json:"errorCode,omitempty"`
	MetaInfo       *MetaInfo       `json:"metaInfo,omitempty"`
	PaymentDetails []PaymentDetail `json:"paymentDetails,omitempty"`
}

// TransactionID returns the processor transaction id from the first
// payment detail, or empty when the processor has not assigned one yet.
func (s *StatusResponse) TransactionID() string {
	if len(s.PaymentDetails) == 0 {
		return ""
	}
	return s.PaymentDetails[0].TransactionID
}

type RefundRequest struct {
	MerchantRefundID        string `json:"merchantRefundId"`
	OriginalMerchantOrderID string `json:"originalMerchantOrderId"`
	Amount                  int64  `json:"amount"`
}

type RefundResponse struct {
	RefundID string `json:"refundId"`
	State    string `json:"state"`
	Amount   int64  `json:"amount"`
}

// WebhookEnvelope is the server-to-server push PhonePe sends on order
// settlement.
type WebhookEnvelope struct {
	Event   string         `json:"event"`
	Payload WebhookPayload `json:"payload"`
}

type WebhookPayload struct {
	MerchantOrderID string `json:"merchantOrderId"`
	OrderID         string `json:"orderId"`
	TransactionID   string `json:"transactionId"`
	State           string `json:"state"`
	Amount          int64  `json:"amount"`
	ErrorCode       string `json:"errorCode,omitempty"`
}
