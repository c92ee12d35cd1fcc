// Package browser manages short-lived chromedp sessions hardened
// against basic bot fingerprinting. One session serves one scrape
// request; there is no pooling, which trades throughput for isolation.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/dustin/go-humanize"

	"github.com/stayscout/stayscout/internal/logger"
)

var (
	// ErrLaunch indicates the browser process could not be started.
	ErrLaunch = errors.New("browser launch failed")

	// ErrNavigation indicates the page did not load within the
	// navigation timeout.
	ErrNavigation = errors.New("page navigation failed")
)

// Config holds session launch settings.
type Config struct {
	Headless bool
	ExecPath string // explicit Chrome binary, overrides discovery
	UserAgent string

	// NavTimeout bounds page navigation. Deployments typically use a
	// shorter value in development than in production.
	NavTimeout time.Duration

	// ChallengeGrace is the longest a bot interstitial is waited out.
	ChallengeGrace time.Duration

	// ChallengeSettle is the extra delay applied when the interstitial
	// did not clear within the grace period.
	ChallengeSettle time.Duration

	// DebugDir, when set, receives the rendered HTML and a full-page
	// screenshot after extraction. Must stay empty in production.
	DebugDir string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:        true,
		UserAgent:       desktopUserAgent,
		NavTimeout:      60 * time.Second,
		ChallengeGrace:  15 * time.Second,
		ChallengeSettle: 5 * time.Second,
	}
}

// Session is a single live browser context. It must be closed on
// every exit path to avoid leaking the Chrome process.
type Session struct {
	cfg           Config
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// Launch starts a browser with the stealth fingerprint applied.
func Launch(parent context.Context, cfg Config) (*Session, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = desktopUserAgent
	}
	if cfg.NavTimeout == 0 {
		cfg.NavTimeout = DefaultConfig().NavTimeout
	}
	if cfg.ChallengeGrace == 0 {
		cfg.ChallengeGrace = DefaultConfig().ChallengeGrace
	}
	if cfg.ChallengeSettle == 0 {
		cfg.ChallengeSettle = DefaultConfig().ChallengeSettle
	}
	if cfg.ExecPath == "" {
		cfg.ExecPath = FindChromePath()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], stealthAllocatorOptions(cfg)...)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)

	// Start the browser now so a missing or broken binary surfaces as
	// a launch error rather than a navigation error later.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	logger.Debug("browser session launched",
		"headless", cfg.Headless,
		"exec_path", cfg.ExecPath,
		"nav_timeout", cfg.NavTimeout)

	return &Session{
		cfg:           cfg,
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}

// Ctx exposes the browser context for extractors that need to run
// their own chromedp actions against the live page.
func (s *Session) Ctx() context.Context {
	return s.ctx
}

// Navigate loads the target URL. It waits for DOM construction only,
// not network idle, so slow trackers cannot stall the scrape. A
// timeout here is fatal for the request.
func (s *Session) Navigate(ctx context.Context, targetURL string) error {
	timeoutCtx, cancel := context.WithTimeout(s.ctx, s.cfg.NavTimeout)
	defer cancel()

	headers := network.Headers{
		"Accept-Language":           "en-US,en;q=0.9",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
	}

	err := chromedp.Run(timeoutCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		injectStealthScript(),
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrNavigation, ctx.Err())
		}
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	logger.Debug("navigation complete", "url", targetURL)
	return nil
}

// challengeMarkers are title fragments bot interstitials use.
var challengeMarkers = []string{
	"just a moment",
	"attention required",
	"checking your browser",
	"access denied",
	"robot or human",
	"human verification",
}

func titleChallenged(title string) bool {
	lower := strings.ToLower(title)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// AwaitChallenge detects a bot interstitial by page title and waits it
// out. Three waits race: the title changing away from a challenge
// marker, the given content selector appearing, and the grace timer.
// Whichever resolves first ends the wait; if the title still looks
// challenged afterwards one settle delay is applied. The scrape then
// proceeds with whatever content is present. Never returns an error.
func (s *Session) AwaitChallenge(ctx context.Context, contentSelector string) bool {
	title, err := s.Title(ctx)
	if err != nil || !titleChallenged(title) {
		return false
	}

	logger.Info("bot challenge detected, waiting", "title", title)

	raceCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	won := make(chan string, 3)

	// Title poll: challenge pages swap the title once solved.
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-raceCtx.Done():
				return
			case <-ticker.C:
				var t string
				if err := chromedp.Run(raceCtx, chromedp.Title(&t)); err == nil && !titleChallenged(t) {
					won <- "title-change"
					return
				}
			}
		}
	}()

	// Content selector: real listing markup appearing means the
	// interstitial is gone even if the title lags.
	go func() {
		if err := chromedp.Run(raceCtx, chromedp.WaitReady(contentSelector)); err == nil {
			won <- "content-selector"
		}
	}()

	// Grace timer: hard ceiling on the whole wait.
	go func() {
		select {
		case <-raceCtx.Done():
		case <-time.After(s.cfg.ChallengeGrace):
			won <- "grace-timeout"
		}
	}()

	outcome := <-won
	cancel()
	logger.Debug("challenge wait finished", "outcome", outcome)

	if title, err := s.Title(ctx); err == nil && titleChallenged(title) {
		// Still on the interstitial. One final settle delay, then
		// proceed best-effort; an unresolved challenge is never fatal.
		logger.Warn("bot challenge unresolved, settling", "delay", s.cfg.ChallengeSettle)
		select {
		case <-ctx.Done():
		case <-time.After(s.cfg.ChallengeSettle):
		}
		return true
	}
	return true
}

// HTML returns the current rendered document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", err
	}
	return html, nil
}

// Title returns the current page title.
func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := chromedp.Run(s.ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// CookieHeader returns the session cookies as a Cookie request header
// value, for replaying authenticated calls against the page's origin.
func (s *Session) CookieHeader(ctx context.Context) (string, error) {
	var header string
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(cctx context.Context) error {
		cookies, err := network.GetCookies().Do(cctx)
		if err != nil {
			return err
		}
		parts := make([]string, 0, len(cookies))
		for _, c := range cookies {
			parts = append(parts, c.Name+"="+c.Value)
		}
		header = strings.Join(parts, "; ")
		return nil
	}))
	if err != nil {
		return "", err
	}
	return header, nil
}

// DumpArtifacts writes the rendered HTML and a full-page screenshot
// for diagnostics. No-op unless DebugDir is configured; production
// deployments leave it empty.
func (s *Session) DumpArtifacts(ctx context.Context, name string) {
	if s.cfg.DebugDir == "" {
		return
	}

	if err := os.MkdirAll(s.cfg.DebugDir, 0o755); err != nil {
		logger.Warn("debug artifact dir", "error", err)
		return
	}

	if html, err := s.HTML(ctx); err == nil {
		path := filepath.Join(s.cfg.DebugDir, name+".html")
		if err := os.WriteFile(path, []byte(html), 0o644); err == nil {
			logger.Debug("debug HTML saved", "path", path, "size", humanize.Bytes(uint64(len(html))))
		}
	}

	shotCtx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()
	var shot []byte
	if err := chromedp.Run(shotCtx, chromedp.FullScreenshot(&shot, 80)); err == nil {
		path := filepath.Join(s.cfg.DebugDir, name+".png")
		if err := os.WriteFile(path, shot, 0o644); err == nil {
			logger.Debug("debug screenshot saved", "path", path, "size", humanize.Bytes(uint64(len(shot))))
		}
	}
}

// Close tears down the browser process. Safe to call multiple times.
func (s *Session) Close() {
	if s.cancelBrowser != nil {
		s.cancelBrowser()
		s.cancelBrowser = nil
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
		s.cancelAlloc = nil
	}
}
