package models

// Seat status values as reported by the seating service.
const (
	SeatStatusAvailable = "AVAILABLE"
	SeatStatusReserved  = "RESERVED"
	SeatStatusAllocated = "ALLOCATED"
	SeatStatusBlocked   = "BLOCKED"
)

// SeatSnapshot is the per-seat view taken from the seating service before
// any mutation. It exists only to validate the request and compute totals;
// it is never persisted.
type SeatSnapshot struct {
	SeatID     string `json:"id"`
	SeatCode   string `json:"seat_code"`
	Status     string `json:"status"`
	PriceCents int64  `json:"price_cents"`
}

type SeatAvailabilityResponse struct {
	EventID string         `json:"event_id"`
	Seats   []SeatSnapshot `json:"seats"`
}

type ReserveRequest struct {
	EventID    string   `json:"event_id"`
	SeatIDs    []string `json:"seat_ids"`
	UserID     string   `json:"user_id"`
	TTLSeconds int      `json:"ttl_seconds"`
}

type ReserveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type AllocateRequest struct {
	OrderID string   `json:"order_id"`
	EventID string   `json:"event_id"`
	SeatIDs []string `json:"seat_ids"`
}

type ReleaseRequest struct {
	OrderID string   `json:"order_id"`
	EventID string   `json:"event_id"`
	SeatIDs []string `json:"seat_ids"`
}
