package port

import (
	"context"
	"time"

	"github.com/rl1809/pos-register/internal/core/domain"
)

type JournalRepository interface {
	// RecordAttempt persists one checkout attempt with its lines
	RecordAttempt(ctx context.Context, attempt domain.SaleAttempt) error

	// CashFlow sums settled sales per payment method in [from, to)
	CashFlow(ctx context.Context, from, to time.Time) (domain.CashFlowReport, error)
}
