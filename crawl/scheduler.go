package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/siteingest"
)

// State is the lifecycle state of a Scheduler.
type State int32

// Scheduler lifecycle states.
const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Scheduler owns the browser session and runs drain passes over the frontier
// until it is stopped. When a pass finds nothing to do it waits PollInterval
// and tries again, so a running crawl picks up seeds added at any time.
//
// Exported fields must be set before Start. A Scheduler runs once.
type Scheduler struct {
	Launcher siteingest.Launcher
	Links    siteingest.LinkExtractor
	Sink     siteingest.ContentSink
	Frontier *Frontier
	Scope    *Scope

	Limiter  siteingest.DomainLimiter
	Observer siteingest.Observer
	Logger   *slog.Logger

	Concurrency  int
	PacingDelay  time.Duration
	PollInterval time.Duration

	state atomic.Int32

	// lifecycle serializes Start and Stop.
	lifecycle   sync.Mutex
	fetcher     siteingest.Fetcher
	cancel      context.CancelFunc
	done        chan struct{}
	stopped     chan struct{}
	stoppedOnce sync.Once
}

// NewScheduler returns a Scheduler with an empty frontier, an empty
// allow-list, and default pacing.
func NewScheduler(launcher siteingest.Launcher, links siteingest.LinkExtractor, sink siteingest.ContentSink) *Scheduler {
	return &Scheduler{
		Launcher:     launcher,
		Links:        links,
		Sink:         sink,
		Frontier:     NewFrontier(),
		Scope:        NewScope(),
		Concurrency:  DefaultConcurrency,
		PacingDelay:  DefaultPacingDelay,
		PollInterval: DefaultPollInterval,
		stopped:      make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// AddSeedURLs normalizes the URLs and enqueues them. Seeds outside the
// allow-list are accepted here and skipped when claimed. Returns the number
// of URLs that were valid http(s) URLs.
func (s *Scheduler) AddSeedURLs(urls ...string) int {
	accepted := 0
	for _, raw := range urls {
		u, ok := siteingest.Normalize(raw, raw)
		if !ok {
			s.logger().Warn("ignoring invalid seed URL", "url", raw)
			continue
		}
		s.Frontier.Enqueue(u)
		accepted++
	}
	return accepted
}

// SetAllowedDomains replaces the allow-list. Tasks already running keep
// the list they started with.
func (s *Scheduler) SetAllowedDomains(rules ...string) {
	allow := siteingest.ParseAllowList(rules...)
	s.Scope.Set(allow)
	s.logger().Info("allowed domains updated", "rules", allow.Rules())
}

// Stats returns frontier counts.
func (s *Scheduler) Stats() siteingest.FrontierStats {
	return s.Frontier.Stats()
}

// Start launches the browser session and begins crawling in the background.
// A launch failure aborts Start and leaves the Scheduler stopped.
// ctx bounds the launch only; the crawl runs until Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateStarting)) {
		return siteingest.Errorf(siteingest.EINVALID, "scheduler cannot start from state %s", s.State())
	}

	fetcher, err := s.Launcher.Launch(ctx)
	if err != nil {
		s.markStopped()
		return fmt.Errorf("launching browser session: %w", err)
	}

	crawler := &Crawler{
		Frontier:    s.Frontier,
		Fetcher:     fetcher,
		Links:       s.Links,
		Sink:        s.Sink,
		Scope:       s.Scope,
		Limiter:     s.Limiter,
		Observer:    s.Observer,
		Logger:      s.Logger,
		Concurrency: s.Concurrency,
		PacingDelay: s.PacingDelay,
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.fetcher = fetcher
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state.Store(int32(StateRunning))

	s.logger().Info("crawler started",
		"queued", s.Frontier.Len(),
		"concurrency", crawler.concurrency(),
	)
	go s.run(runCtx, crawler)
	return nil
}

// run is the outer loop. Cancellation is observed before every pass and
// during the idle wait.
func (s *Scheduler) run(ctx context.Context, crawler *Crawler) {
	defer close(s.done)

	for ctx.Err() == nil {
		if n := crawler.Pass(ctx); n > 0 {
			s.logger().Debug("pass finished", "tasks", n, "queued", s.Frontier.Len())
			continue
		}

		timer := time.NewTimer(s.pollInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Stop cancels the crawl loop, waits for in-flight tasks to finish, and
// releases the browser session. If ctx expires first Stop returns its error
// and may be called again. Stop is idempotent and safe in any state.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	switch s.State() {
	case StateStopped:
		return nil
	case StateIdle:
		s.markStopped()
		return nil
	}

	s.state.Store(int32(StateStopping))
	s.cancel()

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	err := s.fetcher.Close()
	stats := s.Frontier.Stats()
	s.markStopped()
	s.logger().Info("crawler stopped",
		"queued", stats.Queued,
		"visited", stats.Visited,
	)
	if err != nil {
		return fmt.Errorf("closing browser session: %w", err)
	}
	return nil
}

// Kill closes the browser session without waiting for in-flight tasks; their
// fetches fail and the crawl loop winds down. Kill waits up to ctx for that
// and leaves the Scheduler stopped either way. It is meant for a Stop that
// ran out of time.
func (s *Scheduler) Kill(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	switch s.State() {
	case StateStopped:
		return nil
	case StateIdle:
		s.markStopped()
		return nil
	}

	s.state.Store(int32(StateStopping))
	s.cancel()
	closeErr := s.fetcher.Close()

	var waitErr error
	select {
	case <-s.done:
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	stats := s.Frontier.Stats()
	s.markStopped()
	s.logger().Warn("crawler killed",
		"claimed", stats.Claimed,
		"visited", stats.Visited,
	)
	if closeErr != nil {
		return fmt.Errorf("closing browser session: %w", closeErr)
	}
	return waitErr
}

// Wait blocks until the Scheduler is stopped.
func (s *Scheduler) Wait() {
	<-s.stopped
}

func (s *Scheduler) markStopped() {
	s.state.Store(int32(StateStopped))
	s.stoppedOnce.Do(func() { close(s.stopped) })
}

func (s *Scheduler) pollInterval() time.Duration {
	if s.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return s.PollInterval
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
