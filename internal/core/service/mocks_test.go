package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/pos-register/internal/core/domain"
	"github.com/rl1809/pos-register/internal/port"
)

func product(id int64, name, price string, stock int) domain.Product {
	return domain.Product{
		ID:             id,
		Name:           name,
		UnitPrice:      decimal.RequireFromString(price),
		AvailableStock: stock,
	}
}

// Mock CatalogClient
type mockCatalog struct {
	mu       sync.Mutex
	products []domain.Product
	err      error
	delay    map[string]time.Duration
	queries  []string
}

func (m *mockCatalog) SearchProducts(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	delay := m.delay[query]
	products, err := m.products, m.err
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}

	var out []domain.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockCatalog) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// Mock CheckoutClient
type mockCheckout struct {
	mu       sync.Mutex
	result   domain.SaleResult
	err      error
	requests []domain.SaleRequest
	release  chan struct{}
}

func (m *mockCheckout) Checkout(ctx context.Context, req domain.SaleRequest) (domain.SaleResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	release := m.release
	m.mu.Unlock()

	if release != nil {
		<-release
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result, m.err
}

func (m *mockCheckout) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Mock print path
type printJob struct {
	title string
	doc   string
}

type mockSurfaces struct {
	mu     sync.Mutex
	jobs   []printJob
	failOn map[string]bool
	opened int
	closed int
}

type mockSurface struct {
	factory *mockSurfaces
	title   string
	doc     string
}

func (f *mockSurfaces) OpenSurface(ctx context.Context, title string) (port.PrintSurface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened++
	return &mockSurface{factory: f, title: title}, nil
}

func (f *mockSurfaces) Jobs() []printJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]printJob(nil), f.jobs...)
}

func (s *mockSurface) Write(doc string) error {
	s.doc += doc
	return nil
}

func (s *mockSurface) Print(ctx context.Context) error {
	s.factory.mu.Lock()
	defer s.factory.mu.Unlock()
	if s.factory.failOn[s.doc] {
		return errors.New("printer jammed")
	}
	s.factory.jobs = append(s.factory.jobs, printJob{title: s.title, doc: s.doc})
	return nil
}

func (s *mockSurface) Close() error {
	s.factory.mu.Lock()
	defer s.factory.mu.Unlock()
	s.factory.closed++
	return nil
}

type mockPreview struct {
	mu    sync.Mutex
	shown []string
}

func (p *mockPreview) Show(doc string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = append(p.shown, doc)
	return nil
}

// Mock DraftRepository
type mockDrafts struct {
	mu      sync.Mutex
	drafts  map[string][]domain.CartLine
	saves   int
	deletes int
}

func newMockDrafts() *mockDrafts {
	return &mockDrafts{drafts: make(map[string][]domain.CartLine)}
}

func (m *mockDrafts) SaveDraft(ctx context.Context, terminalID string, lines []domain.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.drafts[terminalID] = append([]domain.CartLine(nil), lines...)
	return nil
}

func (m *mockDrafts) LoadDraft(ctx context.Context, terminalID string) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CartLine(nil), m.drafts[terminalID]...), nil
}

func (m *mockDrafts) DeleteDraft(ctx context.Context, terminalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.drafts, terminalID)
	return nil
}

func (m *mockDrafts) Draft(terminalID string) ([]domain.CartLine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines, ok := m.drafts[terminalID]
	return lines, ok
}

// Mock JournalRepository
type mockJournal struct {
	mu       sync.Mutex
	attempts []domain.SaleAttempt
}

func (m *mockJournal) RecordAttempt(ctx context.Context, attempt domain.SaleAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, attempt)
	return nil
}

func (m *mockJournal) CashFlow(ctx context.Context, from, to time.Time) (domain.CashFlowReport, error) {
	return domain.CashFlowReport{From: from, To: to}, nil
}

func (m *mockJournal) Attempts() []domain.SaleAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SaleAttempt(nil), m.attempts...)
}
