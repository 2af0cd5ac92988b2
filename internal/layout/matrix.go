package layout

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/moolen/quizcheck/internal/browser"
	"github.com/moolen/quizcheck/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Profile is a named viewport.
type Profile struct {
	Name     string
	Viewport browser.Viewport
}

// Page is what the matrix needs from a browser page.
type Page interface {
	Inspector
	Navigate(ctx context.Context, url string) error
	Screenshot(ctx context.Context, path string) error
	Close() (string, error)
}

// PageFactory opens a page sized for a profile.
type PageFactory func(ctx context.Context, p Profile) (Page, error)

// Result is the outcome for one profile.
type Result struct {
	Profile     string      `json:"profile" yaml:"profile"`
	Measurement Measurement `json:"measurement" yaml:"measurement"`
	Findings    []Finding   `json:"findings,omitempty" yaml:"findings,omitempty"`
	Screenshot  string      `json:"screenshot,omitempty" yaml:"screenshot,omitempty"`
	Error       string      `json:"error,omitempty" yaml:"error,omitempty"`

	Err error `json:"-" yaml:"-"`
}

// Passed is true when the profile was measured and has no violations.
func (r Result) Passed() bool {
	return r.Err == nil && r.Error == "" && len(Violations(r.Findings)) == 0
}

// MatrixOptions configure a Matrix.
type MatrixOptions struct {
	URL           string
	Selectors     Selectors
	Thresholds    Thresholds
	Parallelism   int
	Settle        time.Duration
	ScreenshotDir string
}

// Matrix checks the layout at several profiles concurrently, each on its own
// page.
type Matrix struct {
	opts    MatrixOptions
	factory PageFactory
	logger  *logging.Logger
}

// NewMatrix returns a matrix opening pages through factory.
func NewMatrix(factory PageFactory, opts MatrixOptions) *Matrix {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return &Matrix{opts: opts, factory: factory, logger: logging.GetLogger("layout")}
}

// Run checks every profile and returns results in profile order. A profile
// that fails to load is reported in its Result; only ctx cancellation makes
// Run itself fail.
func (m *Matrix) Run(ctx context.Context, profiles []Profile) ([]Result, error) {
	results := make([]Result, len(profiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Parallelism)
	for i, p := range profiles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = m.check(gctx, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (m *Matrix) check(ctx context.Context, p Profile) Result {
	logger := m.logger.WithField("profile", p.Name)
	res := Result{Profile: p.Name}
	fail := func(err error) Result {
		res.Err = err
		res.Error = err.Error()
		logger.Error("layout check failed: %v", err)
		return res
	}

	page, err := m.factory(ctx, p)
	if err != nil {
		return fail(fmt.Errorf("opening page: %w", err))
	}
	defer func() {
		if _, err := page.Close(); err != nil {
			logger.Warn("failed to close page: %v", err)
		}
	}()

	if err := page.Navigate(ctx, m.opts.URL); err != nil {
		return fail(err)
	}
	if err := settle(ctx, m.opts.Settle); err != nil {
		return fail(err)
	}

	measurement, err := Measure(ctx, page, m.opts.Selectors, p.Viewport)
	if err != nil {
		return fail(err)
	}
	res.Measurement = measurement
	res.Findings = Check(measurement, m.opts.Thresholds)

	if m.opts.ScreenshotDir != "" {
		path := filepath.Join(m.opts.ScreenshotDir, "layout-"+slug(p.Name)+".png")
		if err := page.Screenshot(ctx, path); err != nil {
			logger.Warn("failed to capture screenshot: %v", err)
		} else {
			res.Screenshot = path
		}
	}

	logger.InfoWithFields("layout measured",
		logging.Field("container_pct", fmt.Sprintf("%.1f", measurement.ContainerPct())),
		logging.Field("title_font_px", measurement.TitleFontPx),
		logging.Field("question_font_px", measurement.QuestionFontPx),
		logging.Field("violations", len(Violations(res.Findings))),
	)
	return res
}

func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func slug(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
}
