package models

// Payment status values carried by the charge response and the callback.
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusSuccess   = "SUCCESS"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusCancelled = "CANCELLED"
)

type ChargeRequest struct {
	MerchantOrderID string `json:"merchant_order_id"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
}

type ChargeResponse struct {
	PaymentID     string `json:"payment_id"`
	Status        string `json:"status"`
	ProviderTxnID string `json:"provider_txn_id"`
}

// TerminalStatus reports whether the charge response already carries a
// final decision. A PENDING (or empty) status means the decision arrives
// later through the payment callback.
func (c *ChargeResponse) TerminalStatus() bool {
	switch c.Status {
	case PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

type PaymentCallback struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

type NotifyRequest struct {
	Type    string   `json:"type"`
	OrderID string   `json:"order_id"`
	Seats   []string `json:"seats"`
}

// Notification types.
const (
	NotifyOrderConfirmed = "ORDER_CONFIRMED"
	NotifyOrderFailed    = "ORDER_FAILED"
)
