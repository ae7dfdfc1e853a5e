package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/alecthomas/kong"
	"github.com/fwojciec/siteingest"
	sihttp "github.com/fwojciec/siteingest/http"
	"github.com/fwojciec/siteingest/rod"
	silog "github.com/fwojciec/siteingest/slog"
	"github.com/fwojciec/siteingest/sqlite"
)

const appName = "siteingest"

func main() {
	ctx := context.Background()

	m := NewMain()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	m.Signals = sigs

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Default paths, overridable by flags and environment.
	DBPath     string
	OutDir     string
	ProfileDir string

	// SQLite database used by the page store.
	DB *sqlite.DB

	// Launcher overrides the Chrome launcher. Used by tests.
	Launcher siteingest.Launcher

	// Signals delivers SIGINT, SIGTERM and SIGHUP to a running crawl.
	Signals <-chan os.Signal
}

// NewMain returns a new instance of Main with XDG default paths.
func NewMain() *Main {
	return &Main{
		DBPath:     filepath.Join(xdg.DataHome, appName, "pages.db"),
		OutDir:     filepath.Join(xdg.DataHome, appName, "result"),
		ProfileDir: filepath.Join(xdg.DataHome, appName, "user-data-dir"),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:     ctx,
		Stdout:  stdout,
		Stderr:  stderr,
		Signals: m.Signals,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name(appName),
		kong.Description("Crawl websites with a headless browser and store each page for retrieval."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
		kong.Vars{
			"db_path":     m.DBPath,
			"out_dir":     m.OutDir,
			"profile_dir": m.ProfileDir,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'siteingest --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger, err := NewLogger(stderr, cli.LogLevel, cli.LogFormat)
	if err != nil {
		return err
	}
	deps.Logger = logger

	if err := os.MkdirAll(filepath.Dir(cli.DB), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	m.DB = sqlite.NewDB(cli.DB)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set SITEINGEST_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", cli.DB, err)
	}
	defer m.Close()

	deps.DB = m.DB
	deps.Pages = sqlite.NewPageStore(m.DB)

	if kongCtx.Command() == "crawl" {
		launcher := m.Launcher
		if launcher == nil {
			launcher = newLauncher(&cli.Crawl)
		}
		deps.Launcher = silog.NewLoggingLauncher(launcher, logger)
	}

	return kongCtx.Run(deps)
}

func newLauncher(c *CrawlCmd) siteingest.Launcher {
	if c.Engine == "http" {
		return &sihttp.Launcher{
			Timeout:   c.NavigationTimeout,
			UserAgent: rod.DefaultUserAgent,
		}
	}
	l := rod.NewLauncher(c.ProfileDir)
	l.Headless = !c.Headful
	l.NavigationTimeout = c.NavigationTimeout
	return l
}
