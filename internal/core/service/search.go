package service

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/rl1809/pos-register/internal/core/domain"
	"github.com/rl1809/pos-register/internal/port"
)

const (
	DefaultSearchDebounce = 300 * time.Millisecond
	DefaultSearchLimit    = 10
	DefaultMinQueryLength = 2
)

// SearchPhase tracks the most recent query.
type SearchPhase int

const (
	SearchIdle SearchPhase = iota
	SearchPendingDebounce
	SearchInFlight
	SearchApplied
)

func (p SearchPhase) String() string {
	switch p {
	case SearchIdle:
		return "idle"
	case SearchPendingDebounce:
		return "pending"
	case SearchInFlight:
		return "in_flight"
	case SearchApplied:
		return "applied"
	default:
		return "unknown"
	}
}

// SearchResult is one of: too short (no request issued), failed, no match,
// or a list of products.
type SearchResult struct {
	Seq      uint64
	Query    string
	Products []domain.Product
	TooShort bool
	Err      error
}

func (r SearchResult) NoMatch() bool {
	return !r.TooShort && r.Err == nil && len(r.Products) == 0
}

type SearchOptions struct {
	Debounce       time.Duration
	Limit          int
	MinQueryLength int
}

func (o SearchOptions) withDefaults() SearchOptions {
	if o.Debounce <= 0 {
		o.Debounce = DefaultSearchDebounce
	}
	if o.Limit <= 0 {
		o.Limit = DefaultSearchLimit
	}
	if o.MinQueryLength <= 0 {
		o.MinQueryLength = DefaultMinQueryLength
	}
	return o
}

// CatalogSearcher debounces keystroke queries and applies responses in
// last-query-wins order. Responses to superseded queries are discarded.
type CatalogSearcher struct {
	client  port.CatalogClient
	opts    SearchOptions
	deliver func(SearchResult)
	logger  *zap.Logger

	mu        sync.Mutex
	seq       uint64
	phase     SearchPhase
	timer     *time.Timer
	discarded uint64
}

func NewCatalogSearcher(client port.CatalogClient, opts SearchOptions, deliver func(SearchResult), logger *zap.Logger) *CatalogSearcher {
	return &CatalogSearcher{
		client:  client,
		opts:    opts.withDefaults(),
		deliver: deliver,
		logger:  logger,
	}
}

// Input registers a new query. Queries shorter than the minimum length resolve
// immediately to a too-short result and issue no request; ok is false then.
// Otherwise the request fires once the input has been idle for the debounce
// interval and its result is passed to the deliver callback.
func (s *CatalogSearcher) Input(query string) (res SearchResult, ok bool) {
	q := strings.TrimSpace(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	seq := s.seq
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	if utf8.RuneCountInString(q) < s.opts.MinQueryLength {
		s.phase = SearchIdle
		return SearchResult{Seq: seq, Query: q, TooShort: true}, false
	}

	s.phase = SearchPendingDebounce
	s.timer = time.AfterFunc(s.opts.Debounce, func() { s.fire(seq, q) })
	return SearchResult{Seq: seq, Query: q}, true
}

// Latest is the sequence number of the most recent query.
func (s *CatalogSearcher) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

func (s *CatalogSearcher) Phase() SearchPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Discarded counts responses dropped because a newer query superseded them.
func (s *CatalogSearcher) Discarded() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discarded
}

// Stop cancels a pending debounce and invalidates any in-flight request.
func (s *CatalogSearcher) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.phase = SearchIdle
}

func (s *CatalogSearcher) fire(seq uint64, query string) {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return
	}
	s.phase = SearchInFlight
	s.timer = nil
	s.mu.Unlock()

	products, err := s.client.SearchProducts(context.Background(), query, s.opts.Limit)

	s.mu.Lock()
	if seq != s.seq {
		s.discarded++
		s.mu.Unlock()
		s.logger.Debug("stale search response discarded",
			zap.String("query", query),
			zap.Uint64("seq", seq))
		return
	}
	s.phase = SearchApplied
	s.mu.Unlock()

	res := SearchResult{Seq: seq, Query: query}
	if err != nil {
		s.logger.Warn("catalog search failed", zap.String("query", query), zap.Error(err))
		res.Err = domain.NewTransportError("could not search the catalog", err)
	} else {
		if len(products) > s.opts.Limit {
			products = products[:s.opts.Limit]
		}
		res.Products = products
	}

	s.deliver(res)
}
