package service

import (
	"github.com/shopspring/decimal"

	"github.com/rl1809/pos-register/internal/core/domain"
)

// CartObserver receives a copy of the lines after every successful mutation.
type CartObserver func(lines []domain.CartLine)

// CartStore owns the ordered cart lines. It is not safe for concurrent use;
// the session event loop serializes every call.
type CartStore struct {
	lines     []domain.CartLine
	observers []CartObserver
}

func NewCartStore() *CartStore {
	return &CartStore{}
}

func (s *CartStore) Subscribe(o CartObserver) {
	s.observers = append(s.observers, o)
}

func (s *CartStore) AddProduct(p domain.Product) error {
	if i := s.index(p.ID); i >= 0 {
		return s.increment(i)
	}

	if !p.InStock() {
		return domain.NewOutOfStockError(p.Name)
	}

	s.lines = append(s.lines, domain.NewCartLine(p))
	s.notify()
	return nil
}

func (s *CartStore) Increment(productID int64) error {
	i := s.index(productID)
	if i < 0 {
		return domain.NewLineNotFoundError(productID)
	}
	return s.increment(i)
}

// Decrement lowers the quantity by one; a line at quantity 1 is removed.
func (s *CartStore) Decrement(productID int64) error {
	i := s.index(productID)
	if i < 0 {
		return domain.NewLineNotFoundError(productID)
	}

	if s.lines[i].Quantity <= 1 {
		s.removeAt(i)
	} else {
		s.lines[i].Quantity--
	}
	s.notify()
	return nil
}

// SetQuantity clamps quantity to [1, stockAtAddTime] and returns the applied
// value. A quantity below 1 removes the line and returns 0.
func (s *CartStore) SetQuantity(productID int64, quantity int) (int, error) {
	i := s.index(productID)
	if i < 0 {
		return 0, domain.NewLineNotFoundError(productID)
	}

	if quantity < 1 {
		s.removeAt(i)
		s.notify()
		return 0, nil
	}

	if stock := s.lines[i].StockAtAddTime; quantity > stock {
		quantity = stock
	}
	s.lines[i].Quantity = quantity
	s.notify()
	return quantity, nil
}

// RemoveLine deletes the line if present.
func (s *CartStore) RemoveLine(productID int64) {
	i := s.index(productID)
	if i < 0 {
		return
	}
	s.removeAt(i)
	s.notify()
}

func (s *CartStore) Clear() {
	s.lines = nil
	s.notify()
}

// Restore replaces the cart with previously saved lines, dropping duplicates
// and lines that would break the quantity bounds. Observers are not notified.
func (s *CartStore) Restore(lines []domain.CartLine) {
	s.lines = nil
	for _, l := range lines {
		if l.StockAtAddTime < 1 || l.Quantity < 1 || s.index(l.ProductID) >= 0 {
			continue
		}
		if l.Quantity > l.StockAtAddTime {
			l.Quantity = l.StockAtAddTime
		}
		s.lines = append(s.lines, l)
	}
}

// Total is recomputed from the lines on every call.
func (s *CartStore) Total() decimal.Decimal {
	return domain.SumLines(s.lines)
}

func (s *CartStore) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *CartStore) Line(productID int64) (domain.CartLine, bool) {
	i := s.index(productID)
	if i < 0 {
		return domain.CartLine{}, false
	}
	return s.lines[i], true
}

func (s *CartStore) Len() int {
	return len(s.lines)
}

func (s *CartStore) IsEmpty() bool {
	return len(s.lines) == 0
}

func (s *CartStore) increment(i int) error {
	line := &s.lines[i]
	if line.Quantity+1 > line.StockAtAddTime {
		return domain.NewStockExceededError(line.Name, line.StockAtAddTime)
	}
	line.Quantity++
	s.notify()
	return nil
}

func (s *CartStore) index(productID int64) int {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *CartStore) removeAt(i int) {
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
}

func (s *CartStore) notify() {
	if len(s.observers) == 0 {
		return
	}
	snapshot := s.Lines()
	for _, o := range s.observers {
		o(snapshot)
	}
}
