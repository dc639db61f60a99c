package port

import "context"

// PrintSurface is an isolated rendering target for a single receipt document.
type PrintSurface interface {
	Write(doc string) error
	Print(ctx context.Context) error
	Close() error
}

type SurfaceFactory interface {
	OpenSurface(ctx context.Context, title string) (PrintSurface, error)
}

type Previewer interface {
	Show(doc string) error
}
