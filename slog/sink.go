package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/siteingest"
)

// Ensure LoggingSink implements siteingest.ContentSink.
var _ siteingest.ContentSink = (*LoggingSink)(nil)

// LoggingSink wraps a ContentSink with logging.
type LoggingSink struct {
	next   siteingest.ContentSink
	name   string
	logger *slog.Logger
}

// NewLoggingSink creates a new LoggingSink. name identifies the wrapped sink
// in log output.
func NewLoggingSink(next siteingest.ContentSink, name string, logger *slog.Logger) *LoggingSink {
	return &LoggingSink{next: next, name: name, logger: logger}
}

// Persist delegates to the wrapped sink and logs the operation.
// Failures are logged at error level.
func (s *LoggingSink) Persist(ctx context.Context, bundle *siteingest.PageBundle) (err error) {
	defer func(begin time.Time) {
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "persist",
			"sink", s.name,
			"url", bundle.CanonicalURL(),
			"images", len(bundle.Images),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Persist(ctx, bundle)
}

// Ensure LoggingLinkExtractor implements siteingest.LinkExtractor.
var _ siteingest.LinkExtractor = (*LoggingLinkExtractor)(nil)

// LoggingLinkExtractor wraps a LinkExtractor with debug logging.
type LoggingLinkExtractor struct {
	next   siteingest.LinkExtractor
	logger *slog.Logger
}

// NewLoggingLinkExtractor creates a new LoggingLinkExtractor.
func NewLoggingLinkExtractor(next siteingest.LinkExtractor, logger *slog.Logger) *LoggingLinkExtractor {
	return &LoggingLinkExtractor{next: next, logger: logger}
}

// ExtractLinks delegates to the wrapped extractor and logs the link count.
func (e *LoggingLinkExtractor) ExtractLinks(html string) (links []string, err error) {
	defer func(begin time.Time) {
		e.logger.Debug("link extraction",
			"count", len(links),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.ExtractLinks(html)
}

// BaseURL delegates to the wrapped extractor.
func (e *LoggingLinkExtractor) BaseURL(html, pageURL string) string {
	return e.next.BaseURL(html, pageURL)
}
