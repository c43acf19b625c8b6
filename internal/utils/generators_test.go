package utils_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ms-orders/internal/utils"
)

func TestTaxCents(t *testing.T) {
	// Exact division.
	assert.Equal(t, int64(350), utils.TaxCents(3500, 10))
	// Fractional results round up, never down.
	assert.Equal(t, int64(1), utils.TaxCents(1, 10))
	assert.Equal(t, int64(34), utils.TaxCents(333, 10))
	// Degenerate inputs.
	assert.Equal(t, int64(0), utils.TaxCents(0, 10))
	assert.Equal(t, int64(0), utils.TaxCents(3500, 0))
	assert.Equal(t, int64(0), utils.TaxCents(-100, 10))
}

func TestDerivePaymentKey(t *testing.T) {
	assert.Equal(t, "abc-123-pay", utils.DerivePaymentKey("abc-123"))
}

func TestGenerateTicketCode(t *testing.T) {
	a := utils.GenerateTicketCode()
	b := utils.GenerateTicketCode()

	assert.True(t, strings.HasPrefix(a, "TICKET-"))
	assert.NotEqual(t, a, b)
}

func TestSumCents(t *testing.T) {
	assert.Equal(t, int64(3500), utils.SumCents([]int64{1500, 2000}))
	assert.Equal(t, int64(0), utils.SumCents(nil))
}
