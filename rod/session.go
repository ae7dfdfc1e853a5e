package rod

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fwojciec/siteingest"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Session implements siteingest.Fetcher at compile time.
var _ siteingest.Fetcher = (*Session)(nil)

// consentSelector matches the elements that consent banners use as buttons.
const consentSelector = `button, a, [role="button"], input[type="button"], input[type="submit"]`

// Session is a running browser. Every Fetch opens its own tab, so a Session
// is safe for concurrent use by multiple goroutines.
type Session struct {
	browser  *rod.Browser
	launcher *launcher.Launcher

	navigationTimeout time.Duration
	captureTimeout    time.Duration
	idleWindow        time.Duration
	consent           []string

	closed atomic.Bool
}

// Fetch navigates a new tab to the URL, waits until the network is idle,
// dismisses cookie banners, and captures the page.
func (s *Session) Fetch(ctx context.Context, url string) (*siteingest.PageBundle, error) {
	if s.closed.Load() {
		return nil, siteingest.Errorf(siteingest.EINVALID, "browser session closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, siteingest.Errorf(siteingest.EINTERNAL, "opening tab: %v", err)
	}
	defer page.Close()

	// Nobody answers JavaScript dialogs in an unattended browser, and an
	// open dialog blocks every evaluation on the page.
	dialogCtx, stopDialogs := context.WithCancel(ctx)
	defer stopDialogs()
	go dismissDialogs(page.Context(dialogCtx))()

	navCtx, cancel := context.WithTimeout(ctx, s.navigationTimeout)
	defer cancel()
	nav := page.Context(navCtx)

	waitIdle := nav.WaitRequestIdle(s.idleWindow, nil, nil, nil)
	if err := nav.Navigate(url); err != nil {
		return nil, NavigationError(url, err)
	}
	if err := nav.WaitLoad(); err != nil {
		return nil, NavigationError(url, err)
	}
	waitIdle()
	if err := navCtx.Err(); err != nil {
		return nil, NavigationError(url, err)
	}

	// Capture has its own budget; the navigation budget is spent.
	captureCtx, cancelCapture := context.WithTimeout(ctx, s.captureTimeout)
	defer cancelCapture()
	page = page.Context(captureCtx)

	bundle := &siteingest.PageBundle{
		URL:        url,
		FinalURL:   url,
		CapturedAt: time.Now().UTC(),
	}
	if info, err := page.Info(); err == nil && info.URL != "" {
		bundle.FinalURL = info.URL
	}

	if s.dismissConsent(page) {
		// A dismissed banner may trigger a reflow or a reload.
		_ = page.WaitLoad()
	}

	html, err := page.HTML()
	if err != nil {
		if captureCtx.Err() != nil && ctx.Err() == nil {
			return nil, siteingest.Errorf(siteingest.ETIMEOUT, "capturing %s: timed out", url)
		}
		return nil, siteingest.Errorf(siteingest.ENAVIGATION, "reading HTML of %s: %v", url, err)
	}
	bundle.HTML = html

	if title, err := page.Eval(`() => document.title`); err == nil {
		bundle.Title = strings.TrimSpace(title.Value.Str())
	}
	if body, err := page.Sleeper(rod.NotFoundSleeper).Element("body"); err == nil {
		if text, err := body.Text(); err == nil {
			bundle.Text = text
		}
	}
	bundle.Images = imageSources(page, bundle.FinalURL)

	if shot, err := page.Screenshot(true, nil); err == nil {
		bundle.Screenshot = shot
	}

	return bundle, nil
}

// dismissDialogs subscribes to JavaScript dialogs on the page and answers
// each one until the page context ends. The returned function runs the
// event loop. Dialogs are dismissed, except beforeunload which is accepted
// so the tab can close.
func dismissDialogs(page *rod.Page) func() {
	return page.EachEvent(func(e *proto.PageJavascriptDialogOpening) {
		_ = proto.PageHandleJavaScriptDialog{
			Accept: e.Type == proto.PageDialogTypeBeforeunload,
		}.Call(page)
	})
}

// dismissConsent clicks the first visible element whose text matches one of
// the consent captions. It never waits for a banner to appear.
func (s *Session) dismissConsent(page *rod.Page) bool {
	finder := page.Sleeper(rod.NotFoundSleeper)
	for _, pattern := range s.consent {
		el, err := finder.ElementR(consentSelector, pattern)
		if err != nil {
			continue
		}
		if visible, err := el.Visible(); err != nil || !visible {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
			return true
		}
	}
	return false
}

// imageSources returns the absolute http(s) sources of all img elements.
func imageSources(page *rod.Page, pageURL string) []string {
	els, err := page.Elements("img")
	if err != nil {
		return nil
	}
	var images []string
	seen := make(map[string]bool, len(els))
	for _, el := range els {
		src, err := el.Attribute("src")
		if err != nil || src == nil {
			continue
		}
		abs, ok := siteingest.Normalize(*src, pageURL)
		if !ok || seen[abs] {
			continue
		}
		seen[abs] = true
		images = append(images, abs)
	}
	return images
}

// Close closes the browser and kills its process. Close is safe to call
// multiple times.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := s.browser.Close()
	s.launcher.Kill()
	return err
}

// LauncherPID returns the process ID of the browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (s *Session) LauncherPID() int {
	return s.launcher.PID()
}

// NavigationError classifies a navigation failure. Deadline expiry maps to
// ETIMEOUT; cancellation is returned as is; anything else is ENAVIGATION.
func NavigationError(url string, err error) error {
	var navErr *rod.NavigationError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return siteingest.Errorf(siteingest.ETIMEOUT, "navigating to %s: timed out", url)
	case errors.Is(err, context.Canceled):
		return err
	case errors.As(err, &navErr):
		return siteingest.Errorf(siteingest.ENAVIGATION, "navigating to %s: %s", url, navErr.Reason)
	default:
		return siteingest.Errorf(siteingest.ENAVIGATION, "navigating to %s: %v", url, err)
	}
}

// consentPatterns turns button captions into anchored regular expressions
// for rod's ElementR. Captions match whole element text, ignoring
// surrounding whitespace.
func consentPatterns(texts []string) []string {
	patterns := make([]string, 0, len(texts))
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		patterns = append(patterns, `^\s*`+regexp.QuoteMeta(text)+`\s*$`)
	}
	return patterns
}
