package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/pos-register/internal/core/domain"
)

type resultSink struct {
	mu      sync.Mutex
	results []SearchResult
}

func (s *resultSink) deliver(r SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

func (s *resultSink) All() []SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SearchResult(nil), s.results...)
}

func newTestSearcher(client *mockCatalog, sink *resultSink) *CatalogSearcher {
	return NewCatalogSearcher(client, SearchOptions{Debounce: 20 * time.Millisecond, Limit: 2}, sink.deliver, zap.NewNop())
}

func TestSearch_TooShortIssuesNoRequest(t *testing.T) {
	client := &mockCatalog{}
	sink := &resultSink{}
	s := newTestSearcher(client, sink)

	for _, q := range []string{"", "a", " b "} {
		res, ok := s.Input(q)
		assert.False(t, ok)
		assert.True(t, res.TooShort)
		assert.False(t, res.NoMatch())
	}

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, client.Queries())
	assert.Empty(t, sink.All())
	assert.Equal(t, SearchIdle, s.Phase())
}

func TestSearch_NoMatchIsDistinct(t *testing.T) {
	client := &mockCatalog{products: []domain.Product{product(1, "Coffee", "9.90", 3)}}
	sink := &resultSink{}
	s := newTestSearcher(client, sink)

	_, ok := s.Input("ab")
	require.True(t, ok)

	require.Eventually(t, func() bool { return len(sink.All()) == 1 }, time.Second, 5*time.Millisecond)
	res := sink.All()[0]
	assert.True(t, res.NoMatch())
	assert.False(t, res.TooShort)
	assert.NoError(t, res.Err)
	assert.Equal(t, SearchApplied, s.Phase())
}

func TestSearch_DebounceCoalescesKeystrokes(t *testing.T) {
	client := &mockCatalog{products: []domain.Product{product(1, "Coffee", "9.90", 3)}}
	sink := &resultSink{}
	s := newTestSearcher(client, sink)

	for _, q := range []string{"co", "cof", "coff", "coffe"} {
		s.Input(q)
	}
	assert.Equal(t, SearchPendingDebounce, s.Phase())

	require.Eventually(t, func() bool { return len(sink.All()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"coffe"}, client.Queries())
	assert.Len(t, sink.All()[0].Products, 1)
}

func TestSearch_StaleResponseDiscarded(t *testing.T) {
	client := &mockCatalog{
		products: []domain.Product{product(1, "Coffee", "9.90", 3), product(2, "Cocoa", "7.00", 1)},
		delay:    map[string]time.Duration{"co": 150 * time.Millisecond},
	}
	sink := &resultSink{}
	s := newTestSearcher(client, sink)

	first, _ := s.Input("co")
	require.Eventually(t, func() bool { return s.Phase() == SearchInFlight }, time.Second, time.Millisecond)

	second, _ := s.Input("coc")
	assert.Greater(t, second.Seq, first.Seq)

	require.Eventually(t, func() bool { return s.Discarded() == 1 }, time.Second, 5*time.Millisecond)
	results := sink.All()
	require.Len(t, results, 1)
	assert.Equal(t, second.Seq, results[0].Seq)
	assert.Equal(t, "coc", results[0].Query)
}

func TestSearch_TransportErrorSurfaced(t *testing.T) {
	client := &mockCatalog{err: errors.New("connection reset")}
	sink := &resultSink{}
	s := newTestSearcher(client, sink)

	s.Input("milk")
	require.Eventually(t, func() bool { return len(sink.All()) == 1 }, time.Second, 5*time.Millisecond)

	res := sink.All()[0]
	assert.True(t, errors.Is(res.Err, domain.ErrTransport))
	assert.Empty(t, res.Products)
	assert.False(t, res.NoMatch())
}

func TestSearch_LimitApplied(t *testing.T) {
	client := &mockCatalog{products: []domain.Product{
		product(1, "Soap A", "1.00", 1),
		product(2, "Soap B", "1.00", 1),
		product(3, "Soap C", "1.00", 1),
	}}
	sink := &resultSink{}
	s := newTestSearcher(client, sink)

	s.Input("soap")
	require.Eventually(t, func() bool { return len(sink.All()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, sink.All()[0].Products, 2)
}

func TestSearch_StopCancelsPending(t *testing.T) {
	client := &mockCatalog{}
	sink := &resultSink{}
	s := newTestSearcher(client, sink)

	s.Input("bread")
	s.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, client.Queries())
	assert.Empty(t, sink.All())
}
