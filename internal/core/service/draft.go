package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/pos-register/internal/core/domain"
	"github.com/rl1809/pos-register/internal/port"
)

const draftWriteTimeout = 2 * time.Second

// DraftSync mirrors the cart into a DraftRepository in the background so a
// restarted terminal can pick up where it left off. Writes are coalesced:
// only the latest snapshot is kept while a save is pending.
type DraftSync struct {
	repo       port.DraftRepository
	terminalID string
	logger     *zap.Logger

	pending chan []domain.CartLine
}

func NewDraftSync(repo port.DraftRepository, terminalID string, logger *zap.Logger) *DraftSync {
	return &DraftSync{
		repo:       repo,
		terminalID: terminalID,
		logger:     logger,
		pending:    make(chan []domain.CartLine, 1),
	}
}

// Schedule queues a snapshot without blocking. It can be used as a CartObserver.
func (d *DraftSync) Schedule(lines []domain.CartLine) {
	for {
		select {
		case d.pending <- lines:
			return
		default:
		}

		select {
		case <-d.pending:
		default:
		}
	}
}

// Restore loads the saved draft, if any.
func (d *DraftSync) Restore(ctx context.Context) ([]domain.CartLine, error) {
	lines, err := d.repo.LoadDraft(ctx, d.terminalID)
	if err != nil {
		return nil, err
	}
	if len(lines) > 0 {
		d.logger.Info("cart draft restored",
			zap.String("terminal_id", d.terminalID),
			zap.Int("lines", len(lines)))
	}
	return lines, nil
}

// Run persists snapshots until ctx is done, then flushes the last pending one.
func (d *DraftSync) Run(ctx context.Context) {
	for {
		select {
		case lines := <-d.pending:
			d.save(lines)
		case <-ctx.Done():
			select {
			case lines := <-d.pending:
				d.save(lines)
			default:
			}
			return
		}
	}
}

func (d *DraftSync) save(lines []domain.CartLine) {
	ctx, cancel := context.WithTimeout(context.Background(), draftWriteTimeout)
	defer cancel()

	var err error
	if len(lines) == 0 {
		err = d.repo.DeleteDraft(ctx, d.terminalID)
	} else {
		err = d.repo.SaveDraft(ctx, d.terminalID, lines)
	}
	if err != nil {
		d.logger.Warn("failed to sync cart draft",
			zap.String("terminal_id", d.terminalID),
			zap.Int("lines", len(lines)),
			zap.Error(err))
	}
}
