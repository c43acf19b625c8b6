package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID   string    `bun:"ticket_id,pk" json:"ticket_id"`
	OrderID    string    `bun:"order_id" json:"order_id"`
	SeatID     string    `bun:"seat_id" json:"seat_id"`
	TicketCode string    `bun:"ticket_code,unique" json:"ticket_code"`
	QRCode     []byte    `bun:"qr_code" json:"qr_code,omitempty"`
	IssuedAt   time.Time `bun:"issued_at" json:"issued_at"`
}
