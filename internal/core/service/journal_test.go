package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/pos-register/internal/core/domain"
)

func attempt(id string, outcome domain.AttemptOutcome) domain.SaleAttempt {
	return domain.SaleAttempt{
		Request: domain.SaleRequest{RequestID: id},
		Outcome: outcome,
	}
}

func TestSaleJournal_WorkersDrainQueue(t *testing.T) {
	journal := NewSaleJournal(100, zap.NewNop())
	repo := &mockJournal{}

	var wg sync.WaitGroup
	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			RunJournalWorker(id, journal.Queue(), repo, zap.NewNop())
		}(i)
	}

	for i := 0; i < 50; i++ {
		require.True(t, journal.Record(attempt(fmt.Sprintf("req-%d", i), domain.OutcomeSettled)))
	}
	journal.Close()
	wg.Wait()

	assert.Len(t, repo.Attempts(), 50)
}

func TestSaleJournal_FullQueueDrops(t *testing.T) {
	journal := NewSaleJournal(2, zap.NewNop())

	assert.True(t, journal.Record(attempt("a", domain.OutcomeSettled)))
	assert.True(t, journal.Record(attempt("b", domain.OutcomeFailed)))
	assert.False(t, journal.Record(attempt("c", domain.OutcomeSettled)))
}

func TestSaleJournal_RecordAfterClose(t *testing.T) {
	journal := NewSaleJournal(2, zap.NewNop())
	journal.Close()
	journal.Close()

	assert.False(t, journal.Record(attempt("late", domain.OutcomeSettled)))
}
