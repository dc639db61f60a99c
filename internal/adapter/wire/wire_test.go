package wire

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/pos-register/internal/core/domain"
)

func saleRequest() domain.SaleRequest {
	lines := []domain.CartLine{
		{ProductID: 4, Name: "Rice 5kg", UnitPrice: decimal.RequireFromString("25.90"), Quantity: 2, StockAtAddTime: 5},
	}
	payment := domain.ComputePayment(domain.SumLines(lines), domain.PaymentCash, "60", true)
	return domain.NewSaleRequest("req-1", "till-1", lines, payment, time.Now())
}

func TestCheckoutJSON_MatchesRegisterContract(t *testing.T) {
	body, err := json.Marshal(CheckoutToJSON(saleRequest(), DefaultLabels()))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))

	assert.Equal(t, "Dinheiro", raw["payment_method"])
	assert.Equal(t, 51.8, raw["total_amount"])
	assert.Equal(t, 60.0, raw["paid_amount"])
	assert.Equal(t, 8.2, raw["change_amount"])
	assert.Equal(t, "req-1", raw["request_id"])

	cart, ok := raw["cart"].([]any)
	require.True(t, ok)
	require.Len(t, cart, 1)
	item := cart[0].(map[string]any)
	assert.Equal(t, 4.0, item["id"])
	assert.Equal(t, 25.9, item["price"])
	assert.Equal(t, 2.0, item["quantity"])
}

func TestCheckoutFromJSON(t *testing.T) {
	var body CheckoutRequestJSON
	require.NoError(t, json.Unmarshal([]byte(`{
		"cart": [{"id": 4, "name": "Rice 5kg", "price": "25.90", "quantity": 2}],
		"total_amount": 51.80,
		"payment_method": "Pix",
		"paid_amount": 51.80,
		"change_amount": 0
	}`), &body))

	req, err := CheckoutFromJSON(body, DefaultLabels())
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPix, req.PaymentMethod)
	assert.Equal(t, "51.80", domain.FormatMoney(req.TotalAmount))
	require.Len(t, req.Lines, 1)
	assert.Equal(t, 2, req.Lines[0].Quantity)
}

func TestCheckoutFromJSON_Incomplete(t *testing.T) {
	cases := map[string]string{
		"no cart":   `{"cart": [], "total_amount": 1, "payment_method": "Pix"}`,
		"no method": `{"cart": [{"id": 1, "quantity": 1}], "total_amount": 1}`,
		"no total":  `{"cart": [{"id": 1, "quantity": 1}], "payment_method": "Pix"}`,
		"zero qty":  `{"cart": [{"id": 1, "quantity": 0}], "total_amount": 1, "payment_method": "Pix"}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var body CheckoutRequestJSON
			require.NoError(t, json.Unmarshal([]byte(raw), &body))

			_, err := CheckoutFromJSON(body, DefaultLabels())
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}

func TestLabels(t *testing.T) {
	labels := DefaultLabels()
	assert.Equal(t, "Cartao", labels.Label(domain.PaymentCard))

	m, err := labels.Method("dinheiro")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCash, m)

	m, err = labels.Method("card")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCard, m)

	_, err = labels.Method("Boleto")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	custom := Labels{domain.PaymentCash: "Cash"}
	assert.Equal(t, "pix", custom.Label(domain.PaymentPix))
}

func TestCheckoutPB_RoundTrip(t *testing.T) {
	req := saleRequest()
	got, err := CheckoutFromPB(CheckoutToPB(req, DefaultLabels()), DefaultLabels())
	require.NoError(t, err)

	assert.Equal(t, req.RequestID, got.RequestID)
	assert.True(t, req.TotalAmount.Equal(got.TotalAmount))
	assert.True(t, req.ChangeAmount.Equal(got.ChangeAmount))
	assert.Equal(t, req.PaymentMethod, got.PaymentMethod)
	require.Len(t, got.Lines, 1)
	assert.True(t, req.Lines[0].UnitPrice.Equal(got.Lines[0].UnitPrice))
}

func TestProductFromPB_BadPrice(t *testing.T) {
	p := ProductToPB(domain.Product{ID: 1, Name: "x", UnitPrice: decimal.RequireFromString("1.5")})
	p.Price = "abc"

	_, err := ProductFromPB(p)
	assert.Error(t, err)
}
