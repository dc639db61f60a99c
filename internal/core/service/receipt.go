package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rl1809/pos-register/internal/core/domain"
	"github.com/rl1809/pos-register/internal/port"
)

// ReceiptDispatcher keeps the receipts of the last settled sale, previews the
// first one and submits documents to the print path one surface at a time.
type ReceiptDispatcher struct {
	surfaces port.SurfaceFactory
	preview  port.Previewer
	logger   *zap.Logger

	docs []string
}

func NewReceiptDispatcher(surfaces port.SurfaceFactory, preview port.Previewer, logger *zap.Logger) *ReceiptDispatcher {
	return &ReceiptDispatcher{
		surfaces: surfaces,
		preview:  preview,
		logger:   logger,
	}
}

// Load replaces the held documents and previews the first. Documents are kept
// verbatim. Loading an empty sequence is valid and leaves nothing to print.
func (d *ReceiptDispatcher) Load(docs []string) error {
	d.docs = append([]string(nil), docs...)
	if len(d.docs) == 0 || d.preview == nil {
		return nil
	}

	if err := d.preview.Show(d.docs[0]); err != nil {
		d.logger.Warn("receipt preview failed", zap.Error(err))
		return fmt.Errorf("preview receipt: %w", err)
	}
	return nil
}

func (d *ReceiptDispatcher) Count() int {
	return len(d.docs)
}

func (d *ReceiptDispatcher) Preview() (string, bool) {
	if len(d.docs) == 0 {
		return "", false
	}
	return d.docs[0], true
}

func (d *ReceiptDispatcher) CanPrintAll() bool {
	return len(d.docs) > 1
}

// Current returns the document on preview as a one-element batch.
func (d *ReceiptDispatcher) Current() []string {
	if len(d.docs) == 0 {
		return nil
	}
	return []string{d.docs[0]}
}

func (d *ReceiptDispatcher) Documents() []string {
	return append([]string(nil), d.docs...)
}

// Dismiss forgets the held receipts.
func (d *ReceiptDispatcher) Dismiss() {
	d.docs = nil
}

func (d *ReceiptDispatcher) PrintCurrent(ctx context.Context) error {
	docs := d.Current()
	if len(docs) == 0 {
		return &domain.Error{Kind: domain.ErrNoReceipts, Message: "there is no receipt to print"}
	}
	_, err := d.Print(ctx, docs)
	return err
}

func (d *ReceiptDispatcher) PrintAll(ctx context.Context) (int, error) {
	docs := d.Documents()
	if len(docs) == 0 {
		return 0, &domain.Error{Kind: domain.ErrNoReceipts, Message: "there are no receipts to print"}
	}
	return d.Print(ctx, docs)
}

// Print submits every document exactly once, in order, each on its own
// surface. A failing document does not stop the rest; the failures are joined.
// It returns how many documents reached the print path.
func (d *ReceiptDispatcher) Print(ctx context.Context, docs []string) (int, error) {
	var errs []error
	printed := 0

	for i, doc := range docs {
		title := fmt.Sprintf("Receipt %d/%d", i+1, len(docs))
		if err := d.printOne(ctx, title, doc); err != nil {
			d.logger.Error("receipt print failed",
				zap.Int("index", i),
				zap.Int("total", len(docs)),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("receipt %d: %w", i+1, err))
			continue
		}
		printed++
	}

	return printed, errors.Join(errs...)
}

func (d *ReceiptDispatcher) printOne(ctx context.Context, title, doc string) error {
	surface, err := d.surfaces.OpenSurface(ctx, title)
	if err != nil {
		return fmt.Errorf("open surface: %w", err)
	}
	defer surface.Close()

	if err := surface.Write(doc); err != nil {
		return fmt.Errorf("write surface: %w", err)
	}
	if err := surface.Print(ctx); err != nil {
		return fmt.Errorf("print surface: %w", err)
	}
	return nil
}
