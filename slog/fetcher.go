// Package slog provides logging decorators for siteingest services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/siteingest"
)

// Ensure LoggingFetcher implements siteingest.Fetcher.
var _ siteingest.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with debug logging.
type LoggingFetcher struct {
	next   siteingest.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next siteingest.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (bundle *siteingest.PageBundle, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"url", url,
			"duration", time.Since(begin),
		}
		if bundle != nil {
			attrs = append(attrs,
				"final_url", bundle.FinalURL,
				"bytes", len(bundle.HTML),
				"screenshot_bytes", len(bundle.Screenshot),
			)
		}
		if err != nil {
			attrs = append(attrs, "err", err)
		}
		f.logger.Debug("fetch", attrs...)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() (err error) {
	defer func() {
		f.logger.Info("browser session closed", "err", err)
	}()
	return f.next.Close()
}

// Ensure LoggingLauncher implements siteingest.Launcher.
var _ siteingest.Launcher = (*LoggingLauncher)(nil)

// LoggingLauncher wraps a Launcher so that the sessions it returns log too.
type LoggingLauncher struct {
	next   siteingest.Launcher
	logger *slog.Logger
}

// NewLoggingLauncher creates a new LoggingLauncher.
func NewLoggingLauncher(next siteingest.Launcher, logger *slog.Logger) *LoggingLauncher {
	return &LoggingLauncher{next: next, logger: logger}
}

// Launch logs the launch and wraps the resulting Fetcher.
func (l *LoggingLauncher) Launch(ctx context.Context) (siteingest.Fetcher, error) {
	begin := time.Now()
	f, err := l.next.Launch(ctx)
	if err != nil {
		l.logger.Error("browser launch failed", "duration", time.Since(begin), "err", err)
		return nil, err
	}
	l.logger.Info("browser launched", "duration", time.Since(begin))
	return NewLoggingFetcher(f, l.logger), nil
}
