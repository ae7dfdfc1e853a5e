package mock

import (
	"context"

	"github.com/fwojciec/siteingest"
)

var _ siteingest.URLFrontier = (*URLFrontier)(nil)

// URLFrontier is a mock implementation of siteingest.URLFrontier.
type URLFrontier struct {
	EnqueueFn     func(url string) bool
	TryClaimFn    func() (string, bool)
	ClaimFn       func(url string) bool
	MarkVisitedFn func(url string)
	LenFn         func() int
	VisitedFn     func(url string) bool
}

func (f *URLFrontier) Enqueue(url string) bool {
	return f.EnqueueFn(url)
}

func (f *URLFrontier) TryClaim() (string, bool) {
	return f.TryClaimFn()
}

func (f *URLFrontier) Claim(url string) bool {
	return f.ClaimFn(url)
}

func (f *URLFrontier) MarkVisited(url string) {
	f.MarkVisitedFn(url)
}

func (f *URLFrontier) Len() int {
	return f.LenFn()
}

func (f *URLFrontier) Visited(url string) bool {
	return f.VisitedFn(url)
}

var _ siteingest.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of siteingest.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
