package domain

import "github.com/shopspring/decimal"

type CartLine struct {
	ProductID      int64           `json:"product_id"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int             `json:"quantity"`
	StockAtAddTime int             `json:"stock_at_add_time"`
}

func NewCartLine(p Product) CartLine {
	return CartLine{
		ProductID:      p.ID,
		Name:           p.Name,
		UnitPrice:      p.UnitPrice,
		Quantity:       1,
		StockAtAddTime: p.AvailableStock,
	}
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SumLines accumulates at full precision; rounding happens at display time.
func SumLines(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// FormatMoney renders an amount with two decimal places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
