package mock

import (
	"context"

	"github.com/fwojciec/siteingest"
)

var _ siteingest.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of siteingest.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*siteingest.PageBundle, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*siteingest.PageBundle, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ siteingest.Launcher = (*Launcher)(nil)

// Launcher is a mock implementation of siteingest.Launcher.
type Launcher struct {
	LaunchFn func(ctx context.Context) (siteingest.Fetcher, error)
}

func (l *Launcher) Launch(ctx context.Context) (siteingest.Fetcher, error) {
	return l.LaunchFn(ctx)
}
