package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fwojciec/siteingest"
	"github.com/fwojciec/siteingest/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	DB       *sqlite.DB
	Pages    siteingest.PageService
	Launcher siteingest.Launcher
	Signals  <-chan os.Signal
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB        string `name:"db" env:"SITEINGEST_DB" default:"${db_path}" type:"path" help:"SQLite database path"`
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level (${enum})"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log format (${enum})"`

	Crawl CrawlCmd `cmd:"" help:"Crawl from seed URLs until interrupted"`
	Pages PagesCmd `cmd:"" help:"List stored pages"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Seeds  []string `name:"seed" short:"s" help:"Seed URL (repeatable)"`
	Allow  []string `name:"allow" short:"a" help:"Allowed domain, subdomains included (repeatable). Defaults to the seed hosts"`
	Config string   `name:"config" short:"c" type:"existingfile" help:"YAML file with seeds and allowed_domains, reloaded on SIGHUP"`

	OutDir     string `name:"out-dir" env:"SITEINGEST_OUT" default:"${out_dir}" type:"path" help:"Directory for page files"`
	ProfileDir string `name:"profile-dir" env:"SITEINGEST_PROFILE" default:"${profile_dir}" type:"path" help:"Chrome profile directory"`
	Headful    bool   `help:"Show the browser window"`
	Engine     string `default:"browser" enum:"browser,http" help:"Page fetcher: browser renders JavaScript, http only downloads (${enum})"`

	Concurrency       int           `short:"n" default:"8" help:"Pages fetched in parallel"`
	Pacing            time.Duration `default:"50ms" help:"Pause after each page"`
	PollInterval      time.Duration `name:"poll-interval" default:"5s" help:"Wait between passes when nothing is queued"`
	NavigationTimeout time.Duration `name:"navigation-timeout" default:"12s" help:"Navigation budget per page"`
	RateLimit         float64       `name:"rate-limit" default:"0" help:"Requests per second per host, 0 for no limit"`
	ShutdownTimeout   time.Duration `name:"shutdown-timeout" default:"30s" help:"How long to wait for in-flight pages on shutdown"`

	NoMarkdown    bool   `name:"no-markdown" help:"Skip main-content extraction and markdown conversion"`
	DedupCapacity uint   `name:"dedup-capacity" default:"1000000" help:"Expected number of distinct pages for duplicate detection"`
	MetricsAddr   string `name:"metrics-addr" help:"Serve Prometheus metrics on this address (e.g. :9090)"`
}

// PagesCmd is the "pages" subcommand.
type PagesCmd struct {
	Host   string `help:"Only list pages from this host"`
	Limit  int    `short:"l" default:"50" help:"Maximum pages to list"`
	Offset int    `help:"Pages to skip"`

	URL        string `name:"url" help:"Show one stored page instead of the list"`
	Screenshot string `name:"screenshot" type:"path" help:"With --url, write the page screenshot (PNG) to this file"`
}
