package domain

import "github.com/shopspring/decimal"

// Product is a catalog snapshot. AvailableStock is a point-in-time hint,
// not a reservation.
type Product struct {
	ID             int64
	Name           string
	UnitPrice      decimal.Decimal
	AvailableStock int
	Barcode        string
}

func (p Product) InStock() bool {
	return p.AvailableStock > 0
}
