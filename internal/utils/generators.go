package utils

import "github.com/google/uuid"

// GenerateTicketCode returns an unguessable ticket code with a
// recognizable prefix, e.g. TICKET-9f4b....
func GenerateTicketCode() string {
	return "TICKET-" + uuid.NewString()
}

// DerivePaymentKey derives the charge idempotency key from the order's key
// so that a retried order-creation call maps to the same payment attempt.
func DerivePaymentKey(idempotencyKey string) string {
	return idempotencyKey + "-pay"
}

func GenerateOrderID() string {
	return uuid.NewString()
}

func GenerateItemID() string {
	return uuid.NewString()
}

// TaxCents computes ceil(subtotal * taxPercent / 100) in integer
// arithmetic, avoiding float rounding on money.
func TaxCents(subtotalCents int64, taxPercent int) int64 {
	if taxPercent <= 0 || subtotalCents <= 0 {
		return 0
	}
	return (subtotalCents*int64(taxPercent) + 99) / 100
}

func SumCents(amounts []int64) int64 {
	var total int64
	for _, a := range amounts {
		total += a
	}
	return total
}
