package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fwojciec/siteingest"
)

// Compile-time interface verification.
var (
	_ siteingest.ContentSink = MultiSink(nil)
	_ siteingest.ContentSink = (*DedupSink)(nil)
	_ siteingest.ContentSink = (*IngestSink)(nil)
)

// MultiSink persists each bundle to every sink in order. All sinks are
// attempted; their errors are joined.
type MultiSink []siteingest.ContentSink

// Persist implements siteingest.ContentSink.
func (m MultiSink) Persist(ctx context.Context, bundle *siteingest.PageBundle) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Persist(ctx, bundle); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Fingerprints remembers content hashes that have already been stored.
type Fingerprints interface {
	Test(key string) bool
	Add(key string)
}

// DedupSink drops bundles whose text was already persisted under another
// URL. Pages with no text are always forwarded. A fingerprint is recorded
// only after Next accepts the bundle, so failed writes can be repeated.
//
// While one bundle is being written, others with the same text wait for
// that write and are dropped if it succeeds.
type DedupSink struct {
	Next   siteingest.ContentSink
	Seen   Fingerprints
	Logger *slog.Logger

	mu       sync.Mutex
	inflight map[string]chan struct{}
}

// Persist implements siteingest.ContentSink.
func (s *DedupSink) Persist(ctx context.Context, bundle *siteingest.PageBundle) error {
	if bundle.Text == "" {
		return s.Next.Persist(ctx, bundle)
	}

	hash := ContentHash(bundle.Text)
	release, ok, err := s.reserve(ctx, hash)
	if err != nil {
		return err
	}
	if !ok {
		if s.Logger != nil {
			s.Logger.Debug("skip: duplicate content", "url", bundle.CanonicalURL(), "hash", hash)
		}
		return nil
	}

	err = s.Next.Persist(ctx, bundle)
	release(err == nil)
	return err
}

// reserve claims the fingerprint for one writer. It reports false when the
// fingerprint is already stored. The returned release must be called with
// whether the write succeeded.
func (s *DedupSink) reserve(ctx context.Context, hash string) (release func(stored bool), ok bool, err error) {
	for {
		s.mu.Lock()
		if s.Seen.Test(hash) {
			s.mu.Unlock()
			return nil, false, nil
		}
		wait, busy := s.inflight[hash]
		if !busy {
			if s.inflight == nil {
				s.inflight = make(map[string]chan struct{})
			}
			done := make(chan struct{})
			s.inflight[hash] = done
			s.mu.Unlock()

			return func(stored bool) {
				s.mu.Lock()
				defer s.mu.Unlock()
				if stored {
					s.Seen.Add(hash)
				}
				delete(s.inflight, hash)
				close(done)
			}, true, nil
		}
		s.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

// IngestSink fills Title and Markdown from the main content of the page
// before handing the bundle on. Extraction problems never block storage:
// the bundle is forwarded with whatever could be derived.
type IngestSink struct {
	Extractor siteingest.Extractor
	Converter siteingest.Converter
	Next      siteingest.ContentSink
	Logger    *slog.Logger
}

// Persist implements siteingest.ContentSink.
func (s *IngestSink) Persist(ctx context.Context, bundle *siteingest.PageBundle) error {
	if err := s.ingest(bundle); err != nil && s.Logger != nil {
		s.Logger.Warn("content extraction failed", "url", bundle.CanonicalURL(), "err", err)
	}
	return s.Next.Persist(ctx, bundle)
}

func (s *IngestSink) ingest(bundle *siteingest.PageBundle) error {
	if bundle.HTML == "" {
		return nil
	}

	result, err := s.Extractor.Extract(bundle.HTML, bundle.CanonicalURL())
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if bundle.Title == "" {
		bundle.Title = result.Title
	}
	if result.ContentHTML == "" {
		return nil
	}

	markdown, err := s.Converter.Convert(result.ContentHTML, bundle.CanonicalURL())
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	bundle.Markdown = markdown
	return nil
}
