package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moolen/quizcheck/internal/logging"
	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasClass(t *testing.T) {
	tests := []struct {
		attr  string
		class string
		want  bool
	}{
		{"content-wrapper show-explanation", "show-explanation", true},
		{"content-wrapper", "show-explanation", false},
		{"  show\tresult-container ", "show", true},
		{"showing", "show", false},
		{"", "show", false},
	}
	for _, tt := range tests {
		t.Run(tt.attr+"/"+tt.class, func(t *testing.T) {
			assert.Equal(t, tt.want, hasClass(tt.attr, tt.class))
		})
	}
}

func TestToFloat(t *testing.T) {
	for _, v := range []interface{}{float64(2), float32(2), 2, int64(2), int32(2)} {
		f, ok := toFloat(v)
		assert.True(t, ok)
		assert.Equal(t, 2.0, f)
	}
	_, ok := toFloat("2")
	assert.False(t, ok)
	_, ok = toFloat(nil)
	assert.False(t, ok)
}

func TestTimeoutUsesContextDeadline(t *testing.T) {
	p := &Page{}

	got := p.timeout(context.Background(), time.Second)
	assert.Equal(t, 1000.0, *got)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	got = p.timeout(ctx, time.Second)
	assert.LessOrEqual(t, *got, 100.0)
	assert.GreaterOrEqual(t, *got, 0.0)
}

func TestBoxEdges(t *testing.T) {
	b := Box{X: 10, Y: 20, Width: 100, Height: 50}
	assert.Equal(t, 110.0, b.Right())
	assert.Equal(t, 70.0, b.Bottom())
}

func TestNewSessionDefaults(t *testing.T) {
	s := NewSession(Options{})
	assert.Equal(t, Viewport{Width: 1280, Height: 720}, s.opts.Viewport)
	assert.Equal(t, time.Second, s.opts.ActionTimeout)
	assert.Equal(t, 30*time.Second, s.opts.NavigateTimeout)
	assert.Equal(t, "browser", s.Name())
}

func TestNewPageRequiresStart(t *testing.T) {
	s := NewSession(Options{})
	_, err := s.NewPage(context.Background(), PageOptions{})
	assert.ErrorContains(t, err, "not started")
	assert.NoError(t, s.Stop(context.Background()))
}

type fakeBrowserContext struct {
	playwright.BrowserContext
	closed int
	err    error
}

func (f *fakeBrowserContext) Close(options ...playwright.BrowserContextCloseOptions) error {
	f.closed++
	return f.err
}

func trackedPage(s *Session, bctx *fakeBrowserContext) *Page {
	p := &Page{bctx: bctx, logger: logging.GetLogger("browser")}
	s.mu.Lock()
	s.track(p)
	s.mu.Unlock()
	return p
}

func TestClosedPagesAreForgotten(t *testing.T) {
	s := NewSession(Options{})
	first, second := &fakeBrowserContext{}, &fakeBrowserContext{}
	p1 := trackedPage(s, first)
	p2 := trackedPage(s, second)
	require.Len(t, s.pages, 2)

	video, err := p1.Close()
	require.NoError(t, err)
	assert.Empty(t, video)
	assert.Equal(t, []*Page{p2}, s.pages)

	_, err = p1.Close()
	require.NoError(t, err)
	assert.Equal(t, 1, first.closed)

	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, 1, second.closed)
	assert.Empty(t, s.pages)
}

func TestFailedCloseIsStillForgotten(t *testing.T) {
	s := NewSession(Options{})
	p := trackedPage(s, &fakeBrowserContext{err: errors.New("target closed")})

	_, err := p.Close()
	assert.ErrorContains(t, err, "target closed")
	assert.Empty(t, s.pages)
}
