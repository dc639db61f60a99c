package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/pos-register/internal/core/domain"
)

type checkoutFixture struct {
	cart     *CartStore
	payment  *PaymentForm
	receipts *ReceiptDispatcher
	surfaces *mockSurfaces
	preview  *mockPreview
	client   *mockCheckout
	journal  *SaleJournal
	coord    *CheckoutCoordinator
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	f := &checkoutFixture{
		cart:     NewCartStore(),
		payment:  NewPaymentForm(domain.PaymentCash),
		surfaces: &mockSurfaces{},
		preview:  &mockPreview{},
		client:   &mockCheckout{},
		journal:  NewSaleJournal(10, zap.NewNop()),
	}
	f.receipts = NewReceiptDispatcher(f.surfaces, f.preview, zap.NewNop())
	f.coord = NewCheckoutCoordinator(CheckoutDeps{
		Client:     f.client,
		Cart:       f.cart,
		Payment:    f.payment,
		Receipts:   f.receipts,
		Journal:    f.journal,
		TerminalID: "till-1",
		Logger:     zap.NewNop(),
	})
	f.coord.newID = func() string { return "req-fixed" }
	f.coord.now = func() time.Time { return time.Unix(1700000000, 0) }
	return f
}

func (f *checkoutFixture) fill(t *testing.T) {
	t.Helper()
	require.NoError(t, f.cart.AddProduct(product(1, "Rice 5kg", "25.00", 4)))
	require.NoError(t, f.cart.AddProduct(product(2, "Beans 1kg", "12.50", 2)))
	require.NoError(t, f.cart.Increment(1))
	f.payment.TenderedInput = "100,00"
}

func TestCheckout_Settled(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fill(t)
	f.client.result = domain.SaleResult{
		Success:          true,
		Message:          "Sale completed",
		ReceiptDocuments: []string{"<p>r1</p>", "<p>r2</p>"},
	}

	out, err := f.coord.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CheckoutSettled, out.State)
	assert.Equal(t, CheckoutIdle, f.coord.State())

	require.Equal(t, 1, f.client.Calls())
	req := f.client.requests[0]
	assert.Equal(t, "req-fixed", req.RequestID)
	assert.Equal(t, "till-1", req.TerminalID)
	assert.Equal(t, "62.50", domain.FormatMoney(req.TotalAmount))
	assert.Equal(t, "100.00", domain.FormatMoney(req.TenderedAmount))
	assert.Equal(t, "37.50", domain.FormatMoney(req.ChangeAmount))
	require.Len(t, req.Lines, 2)
	assert.Equal(t, 2, req.Lines[0].Quantity)

	// receipts captured, then cart and payment reset
	assert.Equal(t, 2, f.receipts.Count())
	assert.Equal(t, []string{"<p>r1</p>"}, f.preview.shown)
	assert.True(t, f.cart.IsEmpty())
	assert.Empty(t, f.payment.TenderedInput)

	state := f.payment.Compute(f.cart)
	assert.True(t, state.Total.IsZero())
	assert.True(t, state.Change.IsZero())

	attempt := <-f.journal.Queue()
	assert.Equal(t, domain.OutcomeSettled, attempt.Outcome)
	assert.Equal(t, 2, attempt.ReceiptCount)
}

func TestCheckout_BusinessFailureKeepsCart(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fill(t)
	before := f.cart.Lines()
	f.client.result = domain.SaleResult{Success: false, Message: "Insufficient stock for Rice 5kg"}

	out, err := f.coord.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBusinessFailure))
	assert.Equal(t, "Insufficient stock for Rice 5kg", domain.Message(err))
	assert.Equal(t, CheckoutFailed, out.State)

	assert.Equal(t, before, f.cart.Lines())
	assert.Equal(t, "100,00", f.payment.TenderedInput)
	assert.Equal(t, 0, f.receipts.Count())

	attempt := <-f.journal.Queue()
	assert.Equal(t, domain.OutcomeFailed, attempt.Outcome)
	assert.Equal(t, "Insufficient stock for Rice 5kg", attempt.Message)
}

func TestCheckout_TransportFailureKeepsCart(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fill(t)
	before := f.cart.Lines()
	f.client.err = errors.New("dial tcp: connection refused")

	_, err := f.coord.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))
	assert.Equal(t, msgTransportFailure, domain.Message(err))
	assert.Equal(t, before, f.cart.Lines())
	assert.Equal(t, 1, f.client.Calls())
}

func TestCheckout_KeepsAdapterMessage(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fill(t)
	f.client.err = domain.NewBusinessFailure("Incomplete sale data")

	_, err := f.coord.Submit(context.Background())
	assert.True(t, errors.Is(err, domain.ErrBusinessFailure))
	assert.Equal(t, "Incomplete sale data", domain.Message(err))
}

func TestCheckout_GuardsIssueNoCall(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.coord.Submit(context.Background())
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, msgEmptyCart, domain.Message(err))

	require.NoError(t, f.cart.AddProduct(product(1, "Rice 5kg", "25.00", 4)))
	f.payment.TenderedInput = "10"
	_, err = f.coord.Submit(context.Background())
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, msgInsufficientCash, domain.Message(err))

	assert.Equal(t, 0, f.client.Calls())
	assert.Equal(t, CheckoutIdle, f.coord.State())
	_, attempts := f.coord.Last()
	assert.Equal(t, uint64(0), attempts)
}

func TestCheckout_RejectsSecondSubmitWhileInFlight(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fill(t)
	f.client.release = make(chan struct{})
	f.client.result = domain.SaleResult{Success: true}

	done := make(chan error, 1)
	go func() {
		_, err := f.coord.Submit(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return f.coord.State() == CheckoutSubmitting }, time.Second, time.Millisecond)

	_, err := f.coord.Submit(context.Background())
	assert.True(t, errors.Is(err, domain.ErrCheckoutInFlight))

	close(f.client.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.client.Calls())
	assert.Equal(t, CheckoutIdle, f.coord.State())
}

func TestCheckout_NonCashIgnoresTendered(t *testing.T) {
	f := newCheckoutFixture(t)
	require.NoError(t, f.cart.AddProduct(product(1, "Rice 5kg", "25.00", 4)))
	f.payment.Method = domain.PaymentCard
	f.payment.TenderedInput = "1"
	f.client.result = domain.SaleResult{Success: true, ReceiptDocuments: []string{"<p>r</p>"}}

	_, err := f.coord.Submit(context.Background())
	require.NoError(t, err)

	req := f.client.requests[0]
	assert.True(t, req.TenderedAmount.Equal(req.TotalAmount))
	assert.True(t, req.ChangeAmount.IsZero())
	assert.Equal(t, domain.PaymentCard, req.PaymentMethod)
	assert.Equal(t, domain.PaymentCard, f.payment.Method)
}
