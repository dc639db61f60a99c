package port

import (
	"context"

	"github.com/rl1809/pos-register/internal/core/domain"
)

type DraftRepository interface {
	// SaveDraft stores the terminal's in-progress cart, replacing any previous draft
	SaveDraft(ctx context.Context, terminalID string, lines []domain.CartLine) error

	// LoadDraft returns the saved cart, or nil when there is none
	LoadDraft(ctx context.Context, terminalID string) ([]domain.CartLine, error)

	// DeleteDraft forgets the draft (checkout settled or cart cleared)
	DeleteDraft(ctx context.Context, terminalID string) error
}
