package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/pos-register/internal/core/domain"
	"github.com/rl1809/pos-register/internal/port"
)

const journalWriteTimeout = 5 * time.Second

// SaleJournal queues checkout attempts for asynchronous persistence. Recording
// never blocks the checkout path: a full queue drops the entry.
type SaleJournal struct {
	logger *zap.Logger

	mu     sync.Mutex
	queue  chan domain.SaleAttempt
	closed bool
}

func NewSaleJournal(queueSize int, logger *zap.Logger) *SaleJournal {
	return &SaleJournal{
		logger: logger,
		queue:  make(chan domain.SaleAttempt, queueSize),
	}
}

func (j *SaleJournal) Record(attempt domain.SaleAttempt) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return false
	}

	select {
	case j.queue <- attempt:
		return true
	default:
		j.logger.Error("journal queue full, dropping attempt",
			zap.String("request_id", attempt.Request.RequestID),
			zap.String("outcome", string(attempt.Outcome)))
		return false
	}
}

func (j *SaleJournal) Queue() <-chan domain.SaleAttempt {
	return j.queue
}

func (j *SaleJournal) Close() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.closed {
		j.closed = true
		close(j.queue)
	}
}

// RunJournalWorker drains the queue into repo until the queue is closed.
func RunJournalWorker(id int, queue <-chan domain.SaleAttempt, repo port.JournalRepository, logger *zap.Logger) {
	for attempt := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)

		if err := repo.RecordAttempt(ctx, attempt); err != nil {
			logger.Error("failed to journal sale attempt",
				zap.Int("worker", id),
				zap.String("request_id", attempt.Request.RequestID),
				zap.Error(err))
		} else {
			logger.Debug("journaled sale attempt",
				zap.Int("worker", id),
				zap.String("request_id", attempt.Request.RequestID),
				zap.String("outcome", string(attempt.Outcome)))
		}

		cancel()
	}
}
