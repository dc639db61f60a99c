package printer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/pos-register/internal/port"
)

var ErrSurfaceClosed = errors.New("print surface closed")

// Spool opens one HTML file per receipt in a spool directory. When a print
// command is configured, Print runs it with the file path as last argument.
type Spool struct {
	dir     string
	command []string
	logger  *zap.Logger

	seq atomic.Uint64
	now func() time.Time
}

func NewSpool(dir string, command []string, logger *zap.Logger) (*Spool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &Spool{
		dir:     dir,
		command: command,
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (s *Spool) OpenSurface(ctx context.Context, title string) (port.PrintSurface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("receipt-%s-%04d.html", s.now().Format("20060102-150405"), s.seq.Add(1))
	return &spoolSurface{
		spool: s,
		title: title,
		path:  filepath.Join(s.dir, name),
	}, nil
}

type spoolSurface struct {
	spool *Spool
	title string
	path  string

	mu      sync.Mutex
	written bool
	closed  bool
}

func (s *spoolSurface) Write(doc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSurfaceClosed
	}

	page, err := Page(s.title, doc)
	if err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(page), 0o644); err != nil {
		return fmt.Errorf("write spool file: %w", err)
	}
	s.written = true
	return nil
}

func (s *spoolSurface) Print(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSurfaceClosed
	}
	if !s.written {
		return errors.New("nothing written to the surface")
	}

	if len(s.spool.command) == 0 {
		s.spool.logger.Info("receipt spooled", zap.String("path", s.path), zap.String("title", s.title))
		return nil
	}

	args := append(append([]string(nil), s.spool.command[1:]...), s.path)
	out, err := exec.CommandContext(ctx, s.spool.command[0], args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", s.spool.command[0], err, strings.TrimSpace(string(out)))
	}

	s.spool.logger.Info("receipt printed", zap.String("path", s.path), zap.String("title", s.title))
	return nil
}

func (s *spoolSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
