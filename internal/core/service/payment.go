package service

import "github.com/rl1809/pos-register/internal/core/domain"

// PaymentForm holds the operator-edited payment fields. The payment state is
// never stored; Compute derives it on demand.
type PaymentForm struct {
	Method        domain.PaymentMethod
	TenderedInput string
}

func NewPaymentForm(method domain.PaymentMethod) *PaymentForm {
	if method == "" {
		method = domain.PaymentCash
	}
	return &PaymentForm{Method: method}
}

func (f *PaymentForm) Compute(cart *CartStore) domain.PaymentState {
	return domain.ComputePayment(cart.Total(), f.Method, f.TenderedInput, !cart.IsEmpty())
}

// Reset returns the form to the empty-cart baseline. The method is kept.
func (f *PaymentForm) Reset() {
	f.TenderedInput = ""
}
