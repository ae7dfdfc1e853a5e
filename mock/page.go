package mock

import (
	"context"

	"github.com/fwojciec/siteingest"
)

var _ siteingest.PageService = (*PageService)(nil)

// PageService is a mock implementation of siteingest.PageService.
type PageService struct {
	FindPageByURLFn func(ctx context.Context, url string) (*siteingest.Page, error)
	FindPagesFn     func(ctx context.Context, filter siteingest.PageFilter) ([]*siteingest.Page, error)
	CountPagesFn    func(ctx context.Context, filter siteingest.PageFilter) (int, error)
	ScreenshotFn    func(ctx context.Context, url string) ([]byte, error)
}

func (s *PageService) FindPageByURL(ctx context.Context, url string) (*siteingest.Page, error) {
	return s.FindPageByURLFn(ctx, url)
}

func (s *PageService) FindPages(ctx context.Context, filter siteingest.PageFilter) ([]*siteingest.Page, error) {
	return s.FindPagesFn(ctx, filter)
}

func (s *PageService) CountPages(ctx context.Context, filter siteingest.PageFilter) (int, error) {
	return s.CountPagesFn(ctx, filter)
}

func (s *PageService) Screenshot(ctx context.Context, url string) ([]byte, error) {
	return s.ScreenshotFn(ctx, url)
}
