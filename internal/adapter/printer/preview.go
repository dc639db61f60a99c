package printer

import (
	"fmt"
	"os"
	"path/filepath"
)

// FilePreview keeps the receipt on preview in a single HTML file.
type FilePreview struct {
	path string
}

func NewFilePreview(path string) *FilePreview {
	return &FilePreview{path: path}
}

func (p *FilePreview) Path() string {
	return p.path
}

func (p *FilePreview) Show(doc string) error {
	page, err := Page("Receipt preview", doc)
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create preview dir: %w", err)
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(page), 0o644); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	return os.Rename(tmp, p.path)
}
