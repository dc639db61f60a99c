// Package sim is an in-memory register: a product catalog with stock that
// accepts sales and renders one receipt per unit sold.
package sim

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/pos-register/internal/core/domain"
)

var (
	ErrIncompleteSale    = errors.New("incomplete sale data")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

const (
	DefaultSearchLimit = 10
	msgSaleCompleted   = "Sale completed"
)

type CatalogOptions struct {
	Renderer *ReceiptRenderer
	Now      func() time.Time
}

type Catalog struct {
	renderer *ReceiptRenderer
	now      func() time.Time

	mu        sync.Mutex
	products  map[int64]*domain.Product
	lastSale  int64
	revenue   decimal.Decimal
	processed map[string]domain.SaleResult
}

func NewCatalog(products []domain.Product, opts CatalogOptions) *Catalog {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Catalog{
		renderer:  opts.Renderer,
		now:       opts.Now,
		products:  make(map[int64]*domain.Product, len(products)),
		processed: make(map[string]domain.SaleResult),
	}
	for i := range products {
		p := products[i]
		c.products[p.ID] = &p
	}
	return c
}

// Search matches the exact id when the query is numeric, the exact barcode,
// or a case-insensitive substring of the name. Results are ordered by id.
func (c *Catalog) Search(query string, limit int) []domain.Product {
	q := strings.TrimSpace(query)
	if q == "" {
		return []domain.Product{}
	}
	if limit <= 0 || limit > DefaultSearchLimit {
		limit = DefaultSearchLimit
	}

	id, idErr := strconv.ParseInt(q, 10, 64)
	lower := strings.ToLower(q)

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Product, 0)
	for _, p := range c.products {
		switch {
		case idErr == nil && p.ID == id:
		case p.Barcode != "" && p.Barcode == q:
		case strings.Contains(strings.ToLower(p.Name), lower):
		default:
			continue
		}
		out = append(out, *p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (c *Catalog) Product(id int64) (domain.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return domain.Product{}, false
	}
	return *p, true
}

// Checkout checks every line against current stock and applies the sale only
// when all of them fit. A request id seen before returns the first result
// without touching stock again.
func (c *Catalog) Checkout(req domain.SaleRequest) (domain.SaleResult, error) {
	if len(req.Lines) == 0 || req.PaymentMethod == "" {
		return domain.SaleResult{}, &domain.Error{Kind: ErrIncompleteSale, Message: "Incomplete sale data"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if req.RequestID != "" {
		if res, ok := c.processed[req.RequestID]; ok {
			return res, nil
		}
	}

	wanted := make(map[int64]int, len(req.Lines))
	for _, l := range req.Lines {
		p, ok := c.products[l.ProductID]
		if !ok {
			return domain.SaleResult{}, &domain.Error{
				Kind:    ErrProductNotFound,
				Message: fmt.Sprintf("Product with ID %d not found", l.ProductID),
			}
		}
		wanted[l.ProductID] += l.Quantity
		if p.AvailableStock < wanted[l.ProductID] {
			return domain.SaleResult{}, &domain.Error{
				Kind: ErrInsufficientStock,
				Message: fmt.Sprintf("Insufficient stock for %s. Available: %d, requested: %d",
					p.Name, p.AvailableStock, wanted[l.ProductID]),
			}
		}
	}

	docs, err := c.receipts(c.lastSale+1, req)
	if err != nil {
		return domain.SaleResult{}, fmt.Errorf("render receipts: %w", err)
	}

	for id, qty := range wanted {
		c.products[id].AvailableStock -= qty
	}
	c.lastSale++
	c.revenue = c.revenue.Add(req.TotalAmount)

	res := domain.SaleResult{Success: true, Message: msgSaleCompleted, ReceiptDocuments: docs}
	if req.RequestID != "" {
		c.processed[req.RequestID] = res
	}
	return res, nil
}

// Snapshot returns every product ordered by id.
func (c *Catalog) Snapshot() []domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Catalog) Sales() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSale
}

func (c *Catalog) Revenue() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revenue
}

func (c *Catalog) receipts(saleID int64, req domain.SaleRequest) ([]string, error) {
	if c.renderer == nil {
		return []string{}, nil
	}

	docs := make([]string, 0, req.Units())
	at := c.now()
	for _, l := range req.Lines {
		for unit := 1; unit <= l.Quantity; unit++ {
			doc, err := c.renderer.Render(ReceiptData{
				SaleID:        saleID,
				Line:          l,
				Unit:          unit,
				Units:         l.Quantity,
				PaymentMethod: req.PaymentMethod,
				TerminalID:    req.TerminalID,
				IssuedAt:      at,
			})
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}
