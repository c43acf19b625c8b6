package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Order status values. CANCELLED and REFUNDED are reserved for the
// buyer-cancellation and refund flows which are not implemented yet.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusFailed    = "FAILED"
	OrderStatusCancelled = "CANCELLED"
	OrderStatusRefunded  = "REFUNDED"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	OrderID        string    `bun:"order_id,pk" json:"order_id"`
	IdempotencyKey string    `bun:"idempotency_key,unique" json:"idempotency_key"`
	UserID         string    `bun:"user_id" json:"user_id"`
	EventID        string    `bun:"event_id" json:"event_id"`
	SubtotalCents  int64     `bun:"subtotal_cents" json:"subtotal_cents"`
	TaxCents       int64     `bun:"tax_cents" json:"tax_cents"`
	TotalCents     int64     `bun:"total_cents" json:"total_cents"`
	Status         string    `bun:"status" json:"status"`
	CreatedAt      time.Time `bun:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bun:"updated_at" json:"updated_at"`
}

// OrderItem freezes the seat price at snapshot time. Rows are immutable
// after insert.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ItemID         string `bun:"item_id,pk" json:"item_id"`
	OrderID        string `bun:"order_id" json:"order_id"`
	SeatID         string `bun:"seat_id" json:"seat_id"`
	SeatCode       string `bun:"seat_code" json:"seat_code"`
	SeatPriceCents int64  `bun:"seat_price_cents" json:"seat_price_cents"`
}

type OrderRequest struct {
	UserID  string   `json:"user_id"`
	EventID string   `json:"event_id"`
	SeatIDs []string `json:"seat_ids"`
}

// OrderResult is what order creation returns to the caller. Payment is nil
// when the charge was only acknowledged (async path) or when the order was
// replayed from an earlier request with the same idempotency key.
type OrderResult struct {
	Order   *Order          `json:"order"`
	Items   []OrderItem     `json:"items"`
	Tickets []Ticket        `json:"tickets,omitempty"`
	Payment *ChargeResponse `json:"payment,omitempty"`
}

type OrderWithDetails struct {
	Order   *Order      `json:"order"`
	Items   []OrderItem `json:"items"`
	Tickets []Ticket    `json:"tickets"`
}
