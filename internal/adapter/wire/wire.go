// Package wire maps domain values to the register service's HTTP and gRPC
// message shapes.
package wire

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rl1809/pos-register/internal/core/domain"
)

// Money travels as a bare JSON number and accepts quoted or unquoted input.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Decimal.UnmarshalJSON(data)
}

type ProductJSON struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Price   Money  `json:"price"`
	Stock   int    `json:"stock"`
	Barcode string `json:"barcode,omitempty"`
}

type CartItemJSON struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    Money  `json:"price"`
	Quantity int    `json:"quantity"`
}

type CheckoutRequestJSON struct {
	Cart          []CartItemJSON `json:"cart"`
	TotalAmount   *Money         `json:"total_amount"`
	PaymentMethod string         `json:"payment_method"`
	PaidAmount    Money          `json:"paid_amount"`
	ChangeAmount  Money          `json:"change_amount"`
	RequestID     string         `json:"request_id,omitempty"`
	TerminalID    string         `json:"terminal_id,omitempty"`
}

type CheckoutResponseJSON struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	ReceiptHTMLs []string `json:"receipt_htmls,omitempty"`
}

type ErrorJSON struct {
	Error string `json:"error"`
}

// Labels names each payment method on the wire.
type Labels map[domain.PaymentMethod]string

func DefaultLabels() Labels {
	return Labels{
		domain.PaymentCash:  "Dinheiro",
		domain.PaymentCard:  "Cartao",
		domain.PaymentPix:   "Pix",
		domain.PaymentOther: "Outro",
	}
}

func (l Labels) Label(m domain.PaymentMethod) string {
	if label, ok := l[m]; ok && label != "" {
		return label
	}
	return string(m)
}

// Method resolves a wire label or a method code.
func (l Labels) Method(label string) (domain.PaymentMethod, error) {
	s := strings.TrimSpace(label)
	for m, lbl := range l {
		if strings.EqualFold(lbl, s) {
			return m, nil
		}
	}
	return domain.ParsePaymentMethod(s)
}

func ProductToJSON(p domain.Product) ProductJSON {
	return ProductJSON{
		ID:      p.ID,
		Name:    p.Name,
		Price:   NewMoney(p.UnitPrice),
		Stock:   p.AvailableStock,
		Barcode: p.Barcode,
	}
}

func ProductFromJSON(p ProductJSON) domain.Product {
	stock := p.Stock
	if stock < 0 {
		stock = 0
	}
	return domain.Product{
		ID:             p.ID,
		Name:           p.Name,
		UnitPrice:      p.Price.Decimal,
		AvailableStock: stock,
		Barcode:        p.Barcode,
	}
}

func CheckoutToJSON(req domain.SaleRequest, labels Labels) CheckoutRequestJSON {
	items := make([]CartItemJSON, 0, len(req.Lines))
	for _, l := range req.Lines {
		items = append(items, CartItemJSON{
			ID:       l.ProductID,
			Name:     l.Name,
			Price:    NewMoney(l.UnitPrice),
			Quantity: l.Quantity,
		})
	}

	total := NewMoney(req.TotalAmount)
	return CheckoutRequestJSON{
		Cart:          items,
		TotalAmount:   &total,
		PaymentMethod: labels.Label(req.PaymentMethod),
		PaidAmount:    NewMoney(req.TenderedAmount),
		ChangeAmount:  NewMoney(req.ChangeAmount),
		RequestID:     req.RequestID,
		TerminalID:    req.TerminalID,
	}
}

// CheckoutFromJSON rebuilds a sale request on the receiving side. Incomplete
// requests are a validation error.
func CheckoutFromJSON(body CheckoutRequestJSON, labels Labels) (domain.SaleRequest, error) {
	if len(body.Cart) == 0 || strings.TrimSpace(body.PaymentMethod) == "" || body.TotalAmount == nil {
		return domain.SaleRequest{}, domain.NewValidationError("incomplete sale data")
	}

	method, err := labels.Method(body.PaymentMethod)
	if err != nil {
		return domain.SaleRequest{}, err
	}

	lines := make([]domain.SaleLine, 0, len(body.Cart))
	for _, item := range body.Cart {
		if item.Quantity < 1 {
			return domain.SaleRequest{}, domain.NewValidationError(fmt.Sprintf("invalid quantity for product %d", item.ID))
		}
		lines = append(lines, domain.SaleLine{
			ProductID: item.ID,
			Name:      item.Name,
			UnitPrice: item.Price.Decimal,
			Quantity:  item.Quantity,
		})
	}

	return domain.SaleRequest{
		RequestID:      body.RequestID,
		TerminalID:     body.TerminalID,
		Lines:          lines,
		TotalAmount:    body.TotalAmount.Decimal,
		PaymentMethod:  method,
		TenderedAmount: body.PaidAmount.Decimal,
		ChangeAmount:   body.ChangeAmount.Decimal,
	}, nil
}

func ResultToJSON(r domain.SaleResult) CheckoutResponseJSON {
	return CheckoutResponseJSON{
		Success:      r.Success,
		Message:      r.Message,
		ReceiptHTMLs: r.ReceiptDocuments,
	}
}

func ResultFromJSON(r CheckoutResponseJSON) domain.SaleResult {
	return domain.SaleResult{
		Success:          r.Success,
		Message:          r.Message,
		ReceiptDocuments: r.ReceiptHTMLs,
	}
}
