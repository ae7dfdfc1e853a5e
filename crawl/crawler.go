// Package crawl provides the crawling engine: a URL frontier, per-page crawl
// tasks, bounded-concurrency drain passes, and a scheduler that runs passes
// until it is stopped.
package crawl

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/fwojciec/siteingest"
	"golang.org/x/sync/errgroup"
)

// Crawler defaults.
const (
	DefaultConcurrency  = 8
	DefaultPacingDelay  = 50 * time.Millisecond
	DefaultPollInterval = 5 * time.Second
)

// Crawler visits claimed URLs: fetch, link discovery, persistence.
// A Crawler is safe for concurrent use once its fields are set.
type Crawler struct {
	Frontier siteingest.URLFrontier
	Fetcher  siteingest.Fetcher
	Links    siteingest.LinkExtractor
	Sink     siteingest.ContentSink
	Scope    *Scope

	// Optional collaborators.
	Limiter  siteingest.DomainLimiter
	Observer siteingest.Observer
	Logger   *slog.Logger

	Concurrency int
	PacingDelay time.Duration
}

// Pass runs one drain round. It claims at most as many URLs as were queued
// when the round began and visits them with up to Concurrency tasks in
// flight. Links discovered during the round wait for the next one.
//
// Canceling ctx stops new claims; tasks already dispatched run to
// completion. Pass returns the number of tasks dispatched.
func (c *Crawler) Pass(ctx context.Context) int {
	n := c.Frontier.Len()
	if n == 0 {
		return 0
	}

	// Tasks must not be aborted by a stop request, only bounded by their
	// own navigation timeout.
	taskCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(c.concurrency())

	dispatched := 0
	for dispatched < n && ctx.Err() == nil {
		u, ok := c.Frontier.TryClaim()
		if !ok {
			break
		}
		dispatched++

		g.Go(func() error {
			defer c.recoverTask(u)
			c.Visit(taskCtx, u)
			c.pace(ctx)
			return nil
		})
	}
	_ = g.Wait()

	return dispatched
}

// Visit processes one claimed URL. The URL is marked visited on every exit
// path and is never retried.
func (c *Crawler) Visit(ctx context.Context, rawURL string) (outcome siteingest.Outcome) {
	logger := c.logger().With("url", rawURL)
	outcome.URL = rawURL

	defer func(begin time.Time) {
		outcome.Duration = time.Since(begin)
		if c.Observer != nil {
			c.Observer.OnOutcome(outcome)
		}
	}(time.Now())
	defer c.Frontier.MarkVisited(rawURL)

	allow := c.Scope.Snapshot()
	if !siteingest.IsInScope(rawURL, allow) {
		logger.Debug("skip: out of scope")
		outcome.Result = siteingest.ResultOutOfScope
		return outcome
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx, hostOf(rawURL)); err != nil {
			logger.Warn("rate limit wait failed", "err", err)
			outcome.Result = siteingest.ResultNavigationFailure
			outcome.Err = err
			return outcome
		}
	}

	bundle, err := c.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		outcome.Err = err
		outcome.Result = siteingest.ResultNavigationFailure
		if isTimeout(err) {
			outcome.Result = siteingest.ResultNavigationTimeout
		}
		logger.Warn("navigation failed", "result", outcome.Result, "err", err)
		return outcome
	}

	// The post-navigation URL is the identity of what was actually visited.
	finalURL := rawURL
	if normalized, ok := siteingest.Normalize(bundle.FinalURL, rawURL); ok {
		finalURL = normalized
	}
	bundle.URL = rawURL
	bundle.FinalURL = finalURL
	outcome.FinalURL = finalURL

	if finalURL != rawURL {
		logger = logger.With("final_url", finalURL)
		logger.Debug("redirected")
		if !siteingest.IsInScope(finalURL, allow) {
			logger.Debug("skip: redirected out of scope")
			outcome.Result = siteingest.ResultOutOfScope
			return outcome
		}
		if !c.Frontier.Claim(finalURL) {
			logger.Debug("skip: redirect target already visited")
			outcome.Result = siteingest.ResultAlreadyVisited
			return outcome
		}
		defer c.Frontier.MarkVisited(finalURL)
	}

	outcome.Discovered, outcome.Enqueued = c.enqueueLinks(bundle, finalURL, allow, logger)

	if err := c.Sink.Persist(ctx, bundle); err != nil {
		logger.Error("persist failed", "err", err)
		outcome.Result = siteingest.ResultPersistenceFailure
		outcome.Err = err
		return outcome
	}

	logger.Info("visited",
		"links", outcome.Discovered,
		"enqueued", outcome.Enqueued,
		"images", len(bundle.Images),
	)
	outcome.Result = siteingest.ResultPersisted
	return outcome
}

// enqueueLinks feeds the in-scope links of a page back into the frontier.
// It returns the number of anchors found and the number newly queued.
func (c *Crawler) enqueueLinks(bundle *siteingest.PageBundle, pageURL string, allow siteingest.AllowList, logger *slog.Logger) (discovered, enqueued int) {
	hrefs, err := c.Links.ExtractLinks(bundle.HTML)
	if err != nil {
		logger.Warn("link extraction failed", "err", err)
		return 0, 0
	}

	base := c.Links.BaseURL(bundle.HTML, pageURL)
	for _, href := range hrefs {
		link, ok := siteingest.Normalize(href, base)
		if !ok || !siteingest.IsInScope(link, allow) {
			continue
		}
		if c.Frontier.Enqueue(link) {
			enqueued++
		}
	}
	return len(hrefs), enqueued
}

// pace observes the politeness delay between tasks on one worker slot.
func (c *Crawler) pace(ctx context.Context) {
	if c.PacingDelay <= 0 {
		return
	}
	timer := time.NewTimer(c.PacingDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// recoverTask keeps a panicking task from taking down the pass.
func (c *Crawler) recoverTask(rawURL string) {
	if r := recover(); r != nil {
		c.logger().Error("crawl task panicked", "url", rawURL, "panic", r)
	}
}

func (c *Crawler) concurrency() int {
	if c.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return c.Concurrency
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

func isTimeout(err error) bool {
	return siteingest.ErrorCode(err) == siteingest.ETIMEOUT ||
		errors.Is(err, context.DeadlineExceeded)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
