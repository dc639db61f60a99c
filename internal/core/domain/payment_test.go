package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTendered(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"30", "30"},
		{"30.5", "30.5"},
		{"30,50", "30.5"},
		{"  12,25 ", "12.25"},
		{"", "0"},
		{"abc", "0"},
		{"-5", "0"},
		{"1.2.3", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseTendered(tt.input)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestComputePayment(t *testing.T) {
	total := decimal.RequireFromString("37.50")

	t.Run("cash insufficient", func(t *testing.T) {
		state := ComputePayment(total, PaymentCash, "30", true)
		assert.Equal(t, "-7.50", FormatMoney(state.Change))
		assert.False(t, state.Eligible)
	})

	t.Run("cash exact", func(t *testing.T) {
		state := ComputePayment(total, PaymentCash, "37,50", true)
		assert.True(t, state.Change.IsZero())
		assert.True(t, state.Eligible)
	})

	t.Run("cash invalid input reads as zero", func(t *testing.T) {
		state := ComputePayment(total, PaymentCash, "lots", true)
		assert.True(t, state.Tendered.IsZero())
		assert.False(t, state.Eligible)
	})

	t.Run("card overwrites tendered", func(t *testing.T) {
		state := ComputePayment(total, PaymentCard, "5", true)
		assert.True(t, state.Tendered.Equal(total))
		assert.True(t, state.Change.IsZero())
		assert.True(t, state.Eligible)
	})

	t.Run("no lines", func(t *testing.T) {
		state := ComputePayment(decimal.Zero, PaymentOther, "", false)
		assert.False(t, state.Eligible)
	})
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod(" PIX ")
	require.NoError(t, err)
	assert.Equal(t, PaymentPix, m)

	_, err = ParsePaymentMethod("cheque")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, PaymentCash.RequiresTender())
	assert.False(t, PaymentCard.RequiresTender())
}

func TestError_KindAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewTransportError("could not reach the checkout service", cause)

	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrBusinessFailure))
	assert.Equal(t, "could not reach the checkout service", Message(err))
	assert.Equal(t, "could not reach the checkout service: connection refused", err.Error())
	assert.Equal(t, "plain", Message(errors.New("plain")))
}

func TestSaleRequest_FromCart(t *testing.T) {
	lines := []CartLine{
		NewCartLine(Product{ID: 1, Name: "A", UnitPrice: decimal.RequireFromString("2.50"), AvailableStock: 4}),
		NewCartLine(Product{ID: 2, Name: "B", UnitPrice: decimal.RequireFromString("1.00"), AvailableStock: 4}),
	}
	lines[0].Quantity = 3

	payment := ComputePayment(SumLines(lines), PaymentCash, "10", true)
	req := NewSaleRequest("req-1", "till-1", lines, payment, time.Unix(1700000000, 0))

	require.Len(t, req.Lines, 2)
	assert.Equal(t, 3, req.Lines[0].Quantity)
	assert.Equal(t, 4, req.Units())
	assert.Equal(t, "8.50", FormatMoney(req.TotalAmount))
	assert.Equal(t, "1.50", FormatMoney(req.ChangeAmount))
	assert.Equal(t, PaymentCash, req.PaymentMethod)

	// the request does not alias the cart
	lines[0].Quantity = 1
	assert.Equal(t, 3, req.Lines[0].Quantity)
}
