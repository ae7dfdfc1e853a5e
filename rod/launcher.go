// Package rod implements page fetching with Chrome browser automation.
package rod

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/siteingest"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// Session defaults.
const (
	DefaultNavigationTimeout = 12 * time.Second
	DefaultCaptureTimeout    = 12 * time.Second
	DefaultIdleWindow        = 500 * time.Millisecond
	DefaultSlowMotion        = 20 * time.Millisecond
	DefaultWindowWidth       = 1920
	DefaultWindowHeight      = 1080
	DefaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// DefaultConsentTexts are the button captions clicked to dismiss cookie
// banners. Rejecting is preferred; accepting is the last resort so the banner
// does not cover the screenshot.
var DefaultConsentTexts = []string{
	"Refuse all",
	"Reject all",
	"Godkänn alla kakor",
	"Alle ablehnen",
	"Tout refuser",
	"Rechazar todo",
	"Accept all",
}

// Ensure Launcher implements siteingest.Launcher at compile time.
var _ siteingest.Launcher = (*Launcher)(nil)

// Launcher starts Chrome with a persistent profile and returns a Session
// bound to it.
type Launcher struct {
	Headless bool

	// UserDataDir is the Chrome profile directory. Cookies and consent
	// choices persist in it across visits and runs. Empty uses a throwaway
	// profile.
	UserDataDir string

	UserAgent    string
	WindowWidth  int
	WindowHeight int

	// SlowMotion delays every browser input action.
	SlowMotion time.Duration

	// NavigationTimeout bounds the whole navigation of one page, including
	// the wait for network idle.
	NavigationTimeout time.Duration

	// CaptureTimeout bounds everything after navigation: consent clicks,
	// reading the DOM and the screenshot. Zero uses NavigationTimeout.
	CaptureTimeout time.Duration

	// IdleWindow is how long the network must be quiet to count as idle.
	IdleWindow time.Duration

	ConsentTexts []string
}

// NewLauncher returns a headless Launcher with default settings.
func NewLauncher(userDataDir string) *Launcher {
	return &Launcher{
		Headless:          true,
		UserDataDir:       userDataDir,
		UserAgent:         DefaultUserAgent,
		WindowWidth:       DefaultWindowWidth,
		WindowHeight:      DefaultWindowHeight,
		SlowMotion:        DefaultSlowMotion,
		NavigationTimeout: DefaultNavigationTimeout,
		CaptureTimeout:    DefaultCaptureTimeout,
		IdleWindow:        DefaultIdleWindow,
		ConsentTexts:      DefaultConsentTexts,
	}
}

// Launch starts the browser. The returned session lives until Close.
func (l *Launcher) Launch(ctx context.Context) (siteingest.Fetcher, error) {
	return l.LaunchSession(ctx)
}

// LaunchSession is Launch with the concrete return type.
func (l *Launcher) LaunchSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Set("window-size", fmt.Sprintf("%d,%d", l.windowWidth(), l.windowHeight())).
		Leakless(true).
		Headless(l.Headless)
	if l.UserAgent != "" {
		lnchr = lnchr.Set("user-agent", l.UserAgent)
	}
	if l.UserDataDir != "" {
		lnchr = lnchr.UserDataDir(l.UserDataDir)
	}

	u, err := lnchr.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().
		ControlURL(u).
		NoDefaultDevice().
		SlowMotion(l.SlowMotion)
	if err := browser.Connect(); err != nil {
		lnchr.Kill() // Clean up launched process on connection failure
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return &Session{
		browser:           browser,
		launcher:          lnchr,
		navigationTimeout: orDefault(l.NavigationTimeout, DefaultNavigationTimeout),
		captureTimeout:    orDefault(l.CaptureTimeout, orDefault(l.NavigationTimeout, DefaultCaptureTimeout)),
		idleWindow:        orDefault(l.IdleWindow, DefaultIdleWindow),
		consent:           consentPatterns(l.ConsentTexts),
	}, nil
}

func (l *Launcher) windowWidth() int {
	if l.WindowWidth <= 0 {
		return DefaultWindowWidth
	}
	return l.WindowWidth
}

func (l *Launcher) windowHeight() int {
	if l.WindowHeight <= 0 {
		return DefaultWindowHeight
	}
	return l.WindowHeight
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
