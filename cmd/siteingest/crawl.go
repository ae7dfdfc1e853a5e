package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/fwojciec/siteingest"
	"github.com/fwojciec/siteingest/bloom"
	"github.com/fwojciec/siteingest/crawl"
	"github.com/fwojciec/siteingest/fs"
	"github.com/fwojciec/siteingest/goquery"
	"github.com/fwojciec/siteingest/htmltomarkdown"
	siprom "github.com/fwojciec/siteingest/prometheus"
	"github.com/fwojciec/siteingest/readability"
	silog "github.com/fwojciec/siteingest/slog"
	"github.com/fwojciec/siteingest/sqlite"
	"github.com/fwojciec/siteingest/trafilatura"
	"github.com/prometheus/client_golang/prometheus"
)

// dedupFalsePositiveRate bounds how often distinct pages are mistaken for
// duplicates.
const dedupFalsePositiveRate = 1e-6

// killTimeout bounds the wind-down after the browser is force-closed.
const killTimeout = 5 * time.Second

// Run executes the crawl command. It returns after an interrupt or after
// the parent context ends, once in-flight pages are stored.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	logger := deps.Logger

	seeds, allow, err := c.targets()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", err)
		return err
	}
	if len(seeds) == 0 {
		return errors.New("no seed URLs: use --seed or --config")
	}
	if len(allow) == 0 {
		allow = seedHosts(seeds)
		logger.Info("no allowed domains given, using seed hosts", "domains", allow)
	}

	fingerprints := bloom.NewFilter(c.DedupCapacity, dedupFalsePositiveRate)
	links := silog.NewLoggingLinkExtractor(goquery.NewLinkExtractor(), logger)
	sched := crawl.NewScheduler(deps.Launcher, links, c.buildSink(deps, fingerprints))
	sched.Logger = logger
	sched.Concurrency = c.Concurrency
	sched.PacingDelay = c.Pacing
	sched.PollInterval = c.PollInterval
	if c.RateLimit > 0 {
		sched.Limiter = crawl.NewDomainLimiter(c.RateLimit, 1)
	}

	reg := prometheus.NewRegistry()
	sched.Observer = siprom.NewRecorder(reg)
	siprom.RegisterFrontier(reg, sched.Stats)
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "siteingest_content_fingerprints",
		Help: "Approximate number of distinct page texts stored.",
	}, func() float64 { return float64(fingerprints.EstimatedCount()) }))

	sched.SetAllowedDomains(allow...)
	if n := sched.AddSeedURLs(seeds...); n == 0 {
		return siteingest.Errorf(siteingest.EINVALID, "no valid seed URLs")
	}

	if c.MetricsAddr != "" {
		srv := serveMetrics(c.MetricsAddr, reg, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	if err := sched.Start(deps.Ctx); err != nil {
		fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed")
		return fmt.Errorf("failed to start crawl: %w", err)
	}
	fmt.Fprintf(deps.Stdout, "Crawling %d seed(s) within %v. Press Ctrl+C to stop.\n", len(seeds), allow)

	c.wait(deps, sched)

	ctx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer cancel()
	stopErr := sched.Stop(ctx)
	if errors.Is(stopErr, context.DeadlineExceeded) {
		logger.Warn("in-flight pages did not finish in time, closing browser", "timeout", c.ShutdownTimeout)
		killCtx, killCancel := context.WithTimeout(context.Background(), killTimeout)
		defer killCancel()
		if err := sched.Kill(killCtx); err != nil {
			logger.Error("closing browser failed", "err", err)
		}
	}

	stats := sched.Stats()
	fmt.Fprintf(deps.Stdout, "Stopped: %d visited, %d queued\n", stats.Visited, stats.Queued)
	if stopErr != nil {
		return fmt.Errorf("failed to stop crawl: %w", stopErr)
	}
	return nil
}

// wait blocks until the crawl should stop. SIGHUP reloads the config file
// instead.
func (c *CrawlCmd) wait(deps *Dependencies, sched *crawl.Scheduler) {
	for {
		select {
		case <-deps.Ctx.Done():
			return
		case sig, ok := <-deps.Signals:
			if !ok {
				return
			}
			if sig == syscall.SIGHUP {
				c.reload(sched, deps.Logger)
				continue
			}
			deps.Logger.Info("shutting down", "signal", sig.String())
			return
		}
	}
}

// reload applies the config file to a running crawl. The allow-list is
// replaced only when the file names domains.
func (c *CrawlCmd) reload(sched *crawl.Scheduler, logger *slog.Logger) {
	if c.Config == "" {
		logger.Warn("reload requested but no --config file given")
		return
	}
	cfg, err := LoadSeedConfig(c.Config)
	if err != nil {
		logger.Error("config reload failed", "err", err)
		return
	}
	if len(cfg.AllowedDomains) > 0 {
		sched.SetAllowedDomains(append(append([]string(nil), c.Allow...), cfg.AllowedDomains...)...)
	}
	added := sched.AddSeedURLs(cfg.Seeds...)
	logger.Info("config reloaded", "path", c.Config, "seeds", added)
}

func (c *CrawlCmd) targets() (seeds, allow []string, err error) {
	seeds = append(seeds, c.Seeds...)
	allow = append(allow, c.Allow...)
	if c.Config != "" {
		cfg, err := LoadSeedConfig(c.Config)
		if err != nil {
			return nil, nil, err
		}
		seeds = append(seeds, cfg.Seeds...)
		allow = append(allow, cfg.AllowedDomains...)
	}
	return seeds, allow, nil
}

// buildSink assembles the storage pipeline:
// ingest -> dedup -> (page files, sqlite).
func (c *CrawlCmd) buildSink(deps *Dependencies, seen crawl.Fingerprints) siteingest.ContentSink {
	logger := deps.Logger

	var sink siteingest.ContentSink = crawl.MultiSink{
		silog.NewLoggingSink(fs.NewBundleWriter(c.OutDir), "files", logger),
		silog.NewLoggingSink(sqlite.NewPageStore(deps.DB), "sqlite", logger),
	}
	sink = &crawl.DedupSink{
		Next:   sink,
		Seen:   seen,
		Logger: logger,
	}
	if !c.NoMarkdown {
		sink = &crawl.IngestSink{
			Extractor: &trafilatura.Extractor{Fallback: readability.NewExtractor()},
			Converter: htmltomarkdown.NewConverter(),
			Next:      sink,
			Logger:    logger,
		}
	}
	return sink
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", siprom.Handler(reg))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "err", err)
		}
	}()
	return srv
}

// seedHosts returns the distinct hosts of the seed URLs.
func seedHosts(seeds []string) []string {
	seen := make(map[string]bool, len(seeds))
	var hosts []string
	for _, raw := range seeds {
		u, err := url.Parse(raw)
		if err != nil || u.Hostname() == "" {
			continue
		}
		host := u.Hostname()
		if !seen[host] {
			seen[host] = true
			hosts = append(hosts, host)
		}
	}
	return hosts
}
