package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentCard  PaymentMethod = "card"
	PaymentPix   PaymentMethod = "pix"
	PaymentOther PaymentMethod = "other"
)

var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentPix, PaymentOther}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range PaymentMethods {
		if m == known {
			return m, nil
		}
	}
	return "", NewValidationError(fmt.Sprintf("unknown payment method %q", s))
}

// RequiresTender reports whether the operator must type the amount handed over.
func (m PaymentMethod) RequiresTender() bool {
	return m == PaymentCash
}

type PaymentState struct {
	Total    decimal.Decimal
	Tendered decimal.Decimal
	Method   PaymentMethod
	Change   decimal.Decimal
	Eligible bool
}

// Insufficient is the negative-change state; it is reported, never clamped.
func (p PaymentState) Insufficient() bool {
	return p.Change.IsNegative()
}

// ComputePayment derives the payment state from scratch. It must be called
// again on every cart, method or tendered-amount change.
func ComputePayment(total decimal.Decimal, method PaymentMethod, tenderedInput string, hasLines bool) PaymentState {
	state := PaymentState{Total: total, Method: method}

	if !method.RequiresTender() {
		state.Tendered = total
		state.Change = decimal.Zero
		state.Eligible = hasLines
		return state
	}

	state.Tendered = ParseTendered(tenderedInput)
	state.Change = state.Tendered.Sub(total)
	state.Eligible = hasLines && !state.Change.IsNegative()
	return state
}

// ParseTendered accepts "30", "30.5" and "30,50". Anything else, including
// negative amounts, reads as zero.
func ParseTendered(input string) decimal.Decimal {
	s := strings.TrimSpace(input)
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
