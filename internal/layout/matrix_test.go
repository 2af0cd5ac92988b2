package layout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/moolen/quizcheck/internal/browser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage renders the quiz as proportional boxes of its viewport.
type fakePage struct {
	vp         browser.Viewport
	missing    map[string]bool
	navErr     error
	fontErr    error
	closed     atomic.Bool
	screenshot string
}

func (p *fakePage) IsVisible(ctx context.Context, selector string) (bool, error) {
	return !p.missing[selector], nil
}

func (p *fakePage) BoundingBox(ctx context.Context, selector string) (*browser.Box, error) {
	if p.missing[selector] {
		return nil, browser.ErrElementNotFound
	}
	w := float64(p.vp.Width)
	sel := DefaultSelectors()
	switch selector {
	case sel.Container:
		return &browser.Box{X: w * 0.1, Width: w * 0.8, Height: 600}, nil
	case sel.Title:
		return &browser.Box{X: w * 0.1, Y: 10, Width: 200, Height: 40}, nil
	case sel.Counter:
		return &browser.Box{X: w * 0.1, Y: 62, Width: 30, Height: 20}, nil
	case sel.Timer:
		return &browser.Box{X: w*0.9 - 30, Y: 62, Width: 30, Height: 20}, nil
	default:
		return &browser.Box{X: w * 0.1, Y: 100, Width: w * 0.8, Height: 60}, nil
	}
}

func (p *fakePage) FontSize(ctx context.Context, selector string) (float64, error) {
	if p.fontErr != nil {
		return 0, p.fontErr
	}
	scale := float64(p.vp.Width) / 100
	if selector == DefaultSelectors().Title {
		return max(20, 2.5*scale), nil
	}
	return max(18, 2.2*scale), nil
}

func (p *fakePage) Navigate(ctx context.Context, url string) error { return p.navErr }

func (p *fakePage) Screenshot(ctx context.Context, path string) error {
	p.screenshot = path
	return nil
}

func (p *fakePage) Close() (string, error) {
	p.closed.Store(true)
	return "", nil
}

func TestMeasure(t *testing.T) {
	page := &fakePage{vp: browser.Viewport{Width: 1920, Height: 1080}}
	m, err := Measure(context.Background(), page, DefaultSelectors(), page.vp)
	require.NoError(t, err)

	assert.Equal(t, allVisible(), m.Visible)
	require.NotNil(t, m.Container)
	assert.InDelta(t, 80.0, m.ContainerPct(), 1e-9)
	assert.Equal(t, 48.0, m.TitleFontPx)
	assert.Empty(t, Violations(Check(m, DefaultThresholds())))
}

func TestMeasureMissingElement(t *testing.T) {
	page := &fakePage{vp: browser.Viewport{Width: 1920, Height: 1080}, missing: map[string]bool{".timer": true}}
	m, err := Measure(context.Background(), page, DefaultSelectors(), page.vp)
	require.NoError(t, err)
	assert.False(t, m.Visible[ElementTimer])
	assert.Nil(t, m.Timer)
	assert.Equal(t, []string{"visible"}, rules(Violations(Check(m, DefaultThresholds()))))
}

func TestMeasureFontError(t *testing.T) {
	page := &fakePage{vp: browser.Viewport{Width: 800, Height: 600}, fontErr: errors.New("detached")}
	_, err := Measure(context.Background(), page, DefaultSelectors(), page.vp)
	assert.ErrorContains(t, err, "title font")
}

func TestMatrixRun(t *testing.T) {
	profiles := []Profile{
		{Name: "1080p", Viewport: browser.Viewport{Width: 1920, Height: 1080}},
		{Name: "4K", Viewport: browser.Viewport{Width: 3840, Height: 2160}},
		{Name: "Mobile", Viewport: browser.Viewport{Width: 375, Height: 667}},
		{Name: "Broken", Viewport: browser.Viewport{Width: 1280, Height: 720}},
	}

	var (
		mu       sync.Mutex
		pages    []*fakePage
		inflight atomic.Int32
		peak     atomic.Int32
	)
	factory := func(ctx context.Context, p Profile) (Page, error) {
		n := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)

		page := &fakePage{vp: p.Viewport}
		if p.Name == "Broken" {
			page.navErr = errors.New("net::ERR_CONNECTION_REFUSED")
		}
		mu.Lock()
		pages = append(pages, page)
		mu.Unlock()
		return page, nil
	}

	dir := t.TempDir()
	matrix := NewMatrix(factory, MatrixOptions{
		URL:           "http://127.0.0.1:9090/src/quiz.html",
		Selectors:     DefaultSelectors(),
		Thresholds:    DefaultThresholds(),
		Parallelism:   2,
		ScreenshotDir: dir,
	})

	results, err := matrix.Run(context.Background(), profiles)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, p := range profiles {
		assert.Equal(t, p.Name, results[i].Profile)
	}
	assert.True(t, results[0].Passed(), "%+v", results[0].Findings)
	assert.True(t, results[1].Passed(), "%+v", results[1].Findings)
	assert.True(t, results[2].Passed(), "%+v", results[2].Findings)
	assert.Contains(t, results[1].Screenshot, "layout-4k.png")

	assert.False(t, results[3].Passed())
	assert.Contains(t, results[3].Error, "ERR_CONNECTION_REFUSED")

	assert.LessOrEqual(t, peak.Load(), int32(2))
	for _, p := range pages {
		assert.True(t, p.closed.Load(), "every page is closed")
	}
}

func TestMatrixFactoryError(t *testing.T) {
	matrix := NewMatrix(func(ctx context.Context, p Profile) (Page, error) {
		return nil, errors.New("browser session not started")
	}, MatrixOptions{Parallelism: 0})

	results, err := matrix.Run(context.Background(), []Profile{{Name: "720p"}})
	require.NoError(t, err)
	assert.ErrorContains(t, results[0].Err, "opening page")
}

func TestMatrixCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	matrix := NewMatrix(func(ctx context.Context, p Profile) (Page, error) {
		return &fakePage{vp: p.Viewport}, nil
	}, MatrixOptions{Parallelism: 1})

	_, err := matrix.Run(ctx, []Profile{{Name: "720p"}, {Name: "1080p"}})
	assert.ErrorIs(t, err, context.Canceled)
}
