package mock

import (
	"context"

	"github.com/fwojciec/siteingest"
)

var _ siteingest.ContentSink = (*ContentSink)(nil)

// ContentSink is a mock implementation of siteingest.ContentSink.
type ContentSink struct {
	PersistFn func(ctx context.Context, bundle *siteingest.PageBundle) error
}

func (s *ContentSink) Persist(ctx context.Context, bundle *siteingest.PageBundle) error {
	return s.PersistFn(ctx, bundle)
}

var _ siteingest.Observer = (*Observer)(nil)

// Observer is a mock implementation of siteingest.Observer.
type Observer struct {
	OnOutcomeFn func(o siteingest.Outcome)
}

func (o *Observer) OnOutcome(outcome siteingest.Outcome) {
	o.OnOutcomeFn(outcome)
}
