package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/moolen/quizcheck/internal/logging"
	"github.com/playwright-community/playwright-go"
)

// ErrElementNotFound is returned when a selector matches nothing.
var ErrElementNotFound = errors.New("element not found")

// Box is an element's bounding box in CSS pixels.
type Box struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Right is the x coordinate of the right edge.
func (b Box) Right() float64 { return b.X + b.Width }

// Bottom is the y coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.Height }

// ScreenInfo describes the window the page is rendered in.
type ScreenInfo struct {
	ScreenWidth      float64 `json:"screen_width"`
	ScreenHeight     float64 `json:"screen_height"`
	InnerWidth       float64 `json:"inner_width"`
	InnerHeight      float64 `json:"inner_height"`
	DevicePixelRatio float64 `json:"device_pixel_ratio"`
}

// Page is one playwright page in its own browser context. It satisfies
// quiz.Page and quiz.ArtifactSink via ArtifactSink.
type Page struct {
	page            playwright.Page
	bctx            playwright.BrowserContext
	actionTimeout   time.Duration
	navigateTimeout time.Duration
	recording       bool
	logger          *logging.Logger

	closeOnce sync.Once
	videoPath string
	closeErr  error
	onClose   func(*Page)
}

// timeout bounds a playwright call by the action timeout and ctx's deadline,
// in milliseconds as playwright expects.
func (p *Page) timeout(ctx context.Context, limit time.Duration) *float64 {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < limit {
			limit = max(remaining, time.Millisecond)
		}
	}
	return playwright.Float(float64(limit.Milliseconds()))
}

// Navigate loads url and waits for the network to go idle.
func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   p.timeout(ctx, p.navigateTimeout),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	p.logger.Debug("navigated to %s", url)
	return nil
}

// locate returns the first match for selector, or ErrElementNotFound.
func (p *Page) locate(ctx context.Context, selector string) (playwright.Locator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc := p.page.Locator(selector)
	count, err := loc.Count()
	if err != nil {
		return nil, fmt.Errorf("counting %s: %w", selector, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrElementNotFound)
	}
	return loc.First(), nil
}

// IsVisible reports whether selector matches a visible element. A missing
// element is not visible.
func (p *Page) IsVisible(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	visible, err := p.page.Locator(selector).First().IsVisible()
	if err != nil {
		return false, fmt.Errorf("checking visibility of %s: %w", selector, err)
	}
	return visible, nil
}

// TextContent returns the text of the first element matching selector.
func (p *Page) TextContent(ctx context.Context, selector string) (string, error) {
	loc, err := p.locate(ctx, selector)
	if err != nil {
		return "", err
	}
	text, err := loc.TextContent(playwright.LocatorTextContentOptions{Timeout: p.timeout(ctx, p.actionTimeout)})
	if err != nil {
		return "", fmt.Errorf("reading text of %s: %w", selector, err)
	}
	return text, nil
}

// HasClass reports whether the first element matching selector carries class.
func (p *Page) HasClass(ctx context.Context, selector, class string) (bool, error) {
	loc, err := p.locate(ctx, selector)
	if err != nil {
		return false, err
	}
	attr, err := loc.GetAttribute("class", playwright.LocatorGetAttributeOptions{Timeout: p.timeout(ctx, p.actionTimeout)})
	if err != nil {
		return false, fmt.Errorf("reading class of %s: %w", selector, err)
	}
	return hasClass(attr, class), nil
}

func hasClass(attr, class string) bool {
	for _, c := range strings.Fields(attr) {
		if c == class {
			return true
		}
	}
	return false
}

// BoundingBox returns the box of selector, or nil when it is not rendered.
func (p *Page) BoundingBox(ctx context.Context, selector string) (*Box, error) {
	loc, err := p.locate(ctx, selector)
	if err != nil {
		return nil, err
	}
	rect, err := loc.BoundingBox(playwright.LocatorBoundingBoxOptions{Timeout: p.timeout(ctx, p.actionTimeout)})
	if err != nil {
		return nil, fmt.Errorf("measuring %s: %w", selector, err)
	}
	if rect == nil {
		return nil, nil
	}
	return &Box{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height}, nil
}

// FontSize returns the computed font size of selector in pixels.
func (p *Page) FontSize(ctx context.Context, selector string) (float64, error) {
	loc, err := p.locate(ctx, selector)
	if err != nil {
		return 0, err
	}
	v, err := loc.Evaluate(`el => parseFloat(window.getComputedStyle(el).fontSize)`, nil,
		playwright.LocatorEvaluateOptions{Timeout: p.timeout(ctx, p.actionTimeout)})
	if err != nil {
		return 0, fmt.Errorf("reading font size of %s: %w", selector, err)
	}
	size, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("unexpected font size %v for %s", v, selector)
	}
	return size, nil
}

// ScreenInfo reads the window and screen dimensions.
func (p *Page) ScreenInfo(ctx context.Context) (ScreenInfo, error) {
	if err := ctx.Err(); err != nil {
		return ScreenInfo{}, err
	}
	v, err := p.page.Evaluate(`() => ({
		screenWidth: window.screen.width,
		screenHeight: window.screen.height,
		innerWidth: window.innerWidth,
		innerHeight: window.innerHeight,
		devicePixelRatio: window.devicePixelRatio
	})`)
	if err != nil {
		return ScreenInfo{}, fmt.Errorf("reading screen info: %w", err)
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return ScreenInfo{}, fmt.Errorf("unexpected screen info %T", v)
	}
	info := ScreenInfo{}
	info.ScreenWidth, _ = toFloat(m["screenWidth"])
	info.ScreenHeight, _ = toFloat(m["screenHeight"])
	info.InnerWidth, _ = toFloat(m["innerWidth"])
	info.InnerHeight, _ = toFloat(m["innerHeight"])
	info.DevicePixelRatio, _ = toFloat(m["devicePixelRatio"])
	return info, nil
}

// SetViewport resizes the page.
func (p *Page) SetViewport(ctx context.Context, v Viewport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.SetViewportSize(v.Width, v.Height); err != nil {
		return fmt.Errorf("failed to set viewport %dx%d: %w", v.Width, v.Height, err)
	}
	return nil
}

// Screenshot writes a full-page PNG to path.
func (p *Page) Screenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to take screenshot: %w", err)
	}
	return nil
}

// Hold keeps the page open for d, e.g. so a recording shows the final screen.
func (p *Page) Hold(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Close closes the browser context. When the page was recording, the video is
// only complete after Close and its path is returned.
func (p *Page) Close() (string, error) {
	p.closeOnce.Do(func() {
		if p.onClose != nil {
			defer p.onClose(p)
		}
		if err := p.bctx.Close(); err != nil {
			p.closeErr = fmt.Errorf("failed to close browser context: %w", err)
			return
		}
		if !p.recording {
			return
		}
		video := p.page.Video()
		if video == nil {
			return
		}
		path, err := video.Path()
		if err != nil {
			p.closeErr = fmt.Errorf("failed to resolve video path: %w", err)
			return
		}
		p.videoPath = path
		p.logger.Info("video saved to %s", path)
	})
	return p.videoPath, p.closeErr
}

// ArtifactSink returns a screenshot sink writing PNGs into dir.
func (p *Page) ArtifactSink(dir string) *ScreenshotSink {
	return &ScreenshotSink{page: p, dir: dir}
}

// ScreenshotSink captures full-page screenshots by name.
type ScreenshotSink struct {
	page *Page
	dir  string
}

// Capture writes <dir>/<name>.png.
func (s *ScreenshotSink) Capture(ctx context.Context, name string) (string, error) {
	path := filepath.Join(s.dir, name+".png")
	if err := s.page.Screenshot(ctx, path); err != nil {
		return "", err
	}
	return path, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}
