package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/pos-register/internal/core/domain"
)

func TestReceiptDispatcher_PrintAllInOrder(t *testing.T) {
	surfaces := &mockSurfaces{}
	preview := &mockPreview{}
	d := NewReceiptDispatcher(surfaces, preview, zap.NewNop())

	docs := []string{"<html>one</html>", "<div>two</div>", "three"}
	require.NoError(t, d.Load(docs))

	assert.Equal(t, []string{docs[0]}, preview.shown)
	doc, ok := d.Preview()
	require.True(t, ok)
	assert.Equal(t, docs[0], doc)
	assert.True(t, d.CanPrintAll())

	n, err := d.PrintAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	jobs := surfaces.Jobs()
	require.Len(t, jobs, 3)
	for i, job := range jobs {
		assert.Equal(t, docs[i], job.doc)
	}
	assert.Equal(t, "Receipt 1/3", jobs[0].title)
	assert.Equal(t, "Receipt 3/3", jobs[2].title)
	assert.Equal(t, 3, surfaces.opened)
	assert.Equal(t, 3, surfaces.closed)
}

func TestReceiptDispatcher_PrintCurrent(t *testing.T) {
	surfaces := &mockSurfaces{}
	d := NewReceiptDispatcher(surfaces, nil, zap.NewNop())
	require.NoError(t, d.Load([]string{"a", "b"}))

	require.NoError(t, d.PrintCurrent(context.Background()))
	jobs := surfaces.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "a", jobs[0].doc)
	assert.Equal(t, "Receipt 1/1", jobs[0].title)
}

func TestReceiptDispatcher_ContinuesPastFailure(t *testing.T) {
	surfaces := &mockSurfaces{failOn: map[string]bool{"b": true}}
	d := NewReceiptDispatcher(surfaces, nil, zap.NewNop())
	require.NoError(t, d.Load([]string{"a", "b", "c"}))

	n, err := d.PrintAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "receipt 2")
	assert.Equal(t, 2, n)

	jobs := surfaces.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].doc)
	assert.Equal(t, "c", jobs[1].doc)
	assert.Equal(t, 3, surfaces.closed)
}

func TestReceiptDispatcher_Empty(t *testing.T) {
	d := NewReceiptDispatcher(&mockSurfaces{}, &mockPreview{}, zap.NewNop())
	require.NoError(t, d.Load(nil))

	assert.Equal(t, 0, d.Count())
	assert.False(t, d.CanPrintAll())
	_, ok := d.Preview()
	assert.False(t, ok)

	assert.True(t, errors.Is(d.PrintCurrent(context.Background()), domain.ErrNoReceipts))
	_, err := d.PrintAll(context.Background())
	assert.True(t, errors.Is(err, domain.ErrNoReceipts))
}

func TestReceiptDispatcher_SingleDocument(t *testing.T) {
	d := NewReceiptDispatcher(&mockSurfaces{}, nil, zap.NewNop())
	require.NoError(t, d.Load([]string{"only"}))
	assert.False(t, d.CanPrintAll())

	d.Dismiss()
	assert.Equal(t, 0, d.Count())
}

func TestReceiptDispatcher_LoadCopiesInput(t *testing.T) {
	d := NewReceiptDispatcher(&mockSurfaces{}, nil, zap.NewNop())
	docs := []string{"a", "b"}
	require.NoError(t, d.Load(docs))

	docs[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, d.Documents())
}
