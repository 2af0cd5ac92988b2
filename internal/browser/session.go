// Package browser wraps playwright-go: one Chromium instance per Session and
// one browser context per Page, with video recording, screenshots and the
// element queries the quiz and layout checks need.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/moolen/quizcheck/internal/logging"
	"github.com/playwright-community/playwright-go"
)

// Viewport is a browser window size in CSS pixels.
type Viewport struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// VideoOptions enable recording for a page.
type VideoOptions struct {
	Dir    string
	Width  int // zero means the viewport size
	Height int
}

// Options configure the browser session.
type Options struct {
	Headless        bool
	SlowMo          time.Duration
	Viewport        Viewport
	ActionTimeout   time.Duration
	NavigateTimeout time.Duration
	InstallDriver   bool
}

// PageOptions configure a single page. Zero values fall back to the session.
type PageOptions struct {
	Viewport Viewport
	Video    *VideoOptions
}

// Session owns the playwright driver and the Chromium process. It implements
// lifecycle.Component.
type Session struct {
	opts   Options
	logger *logging.Logger

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	pages   []*Page
}

// NewSession returns an unstarted session.
func NewSession(opts Options) *Session {
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = time.Second
	}
	if opts.NavigateTimeout <= 0 {
		opts.NavigateTimeout = 30 * time.Second
	}
	if opts.Viewport.Width <= 0 || opts.Viewport.Height <= 0 {
		opts.Viewport = Viewport{Width: 1280, Height: 720}
	}
	return &Session{opts: opts, logger: logging.GetLogger("browser")}
}

// Name implements lifecycle.Component
func (s *Session) Name() string {
	return "browser"
}

// Start launches the driver and Chromium.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		return nil
	}
	if s.opts.InstallDriver {
		if err := EnsureInstalled(); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("could not start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.opts.Headless),
	}
	if s.opts.SlowMo > 0 {
		launch.SlowMo = playwright.Float(float64(s.opts.SlowMo.Milliseconds()))
	}
	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("could not launch browser: %w", err)
	}

	s.pw = pw
	s.browser = browser
	s.logger.Info("chromium %s launched (headless=%t, slowMo=%s)", browser.Version(), s.opts.Headless, s.opts.SlowMo)
	return nil
}

// Stop closes all pages, the browser and the driver.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	pages := s.pages
	s.pages = nil
	s.mu.Unlock()

	var errs []error
	for _, p := range pages {
		if _, err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		s.browser = nil
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		s.pw = nil
	}
	return errors.Join(errs...)
}

// NewPage opens a fresh browser context with its own page. Pages are
// independent and may be used from different goroutines.
func (s *Session) NewPage(ctx context.Context, opts PageOptions) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser == nil {
		return nil, fmt.Errorf("browser session not started")
	}

	viewport := opts.Viewport
	if viewport.Width <= 0 || viewport.Height <= 0 {
		viewport = s.opts.Viewport
	}
	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: viewport.Width, Height: viewport.Height},
	}
	if opts.Video != nil {
		size := playwright.Size{Width: opts.Video.Width, Height: opts.Video.Height}
		if size.Width <= 0 || size.Height <= 0 {
			size = playwright.Size{Width: viewport.Width, Height: viewport.Height}
		}
		ctxOpts.RecordVideo = &playwright.RecordVideo{Dir: opts.Video.Dir, Size: &size}
	}

	bctx, err := s.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	pwPage, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	page := &Page{
		page:            pwPage,
		bctx:            bctx,
		actionTimeout:   s.opts.ActionTimeout,
		navigateTimeout: s.opts.NavigateTimeout,
		recording:       opts.Video != nil,
		logger:          s.logger.WithField("viewport", fmt.Sprintf("%dx%d", viewport.Width, viewport.Height)),
	}
	s.track(page)
	return page, nil
}

// EnsureInstalled installs the playwright driver and Chromium if they are
// missing.
func EnsureInstalled() error {
	logger := logging.GetLogger("browser")
	pw, err := playwright.Run()
	if err == nil {
		_ = pw.Stop()
		return nil
	}
	logger.Info("playwright not available, installing chromium")
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	return nil
}

// track registers page for Stop; the page drops out again once closed.
// Callers hold s.mu.
func (s *Session) track(page *Page) {
	page.onClose = s.forget
	s.pages = append(s.pages, page)
}

func (s *Session) forget(page *Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pages {
		if p == page {
			s.pages = append(s.pages[:i], s.pages[i+1:]...)
			return
		}
	}
}
