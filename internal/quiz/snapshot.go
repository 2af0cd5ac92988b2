package quiz

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Snapshot is a point-in-time read of the quiz page.
type Snapshot struct {
	TakenAt          time.Time `json:"taken_at" yaml:"taken_at"`
	QuestionVisible  bool      `json:"question_visible" yaml:"question_visible"`
	QuestionText     string    `json:"question_text" yaml:"question_text"`
	ExplanationShown bool      `json:"explanation_shown" yaml:"explanation_shown"`
	Counter          string    `json:"counter" yaml:"counter"`
	ResultsVisible   bool      `json:"results_visible" yaml:"results_visible"`
	ResultsShown     bool      `json:"results_shown" yaml:"results_shown"`
}

// Page is the slice of a browser page the quiz package reads from.
type Page interface {
	IsVisible(ctx context.Context, selector string) (bool, error)
	TextContent(ctx context.Context, selector string) (string, error)
	HasClass(ctx context.Context, selector, class string) (bool, error)
}

// SnapshotReader produces fresh snapshots.
type SnapshotReader interface {
	Read(ctx context.Context) (Snapshot, error)
}

// Selectors locate the quiz elements on the page.
type Selectors struct {
	QuestionText     string
	ContentWrapper   string
	QuestionCounter  string
	ResultContainer  string
	ExplanationClass string
	ShownClass       string
}

// DefaultSelectors match the quiz markup.
func DefaultSelectors() Selectors {
	return Selectors{
		QuestionText:     "#questionText",
		ContentWrapper:   "#contentWrapper",
		QuestionCounter:  "#questionCounter",
		ResultContainer:  "#resultContainer",
		ExplanationClass: "show-explanation",
		ShownClass:       "show",
	}
}

// PageReader reads snapshots from a Page.
type PageReader struct {
	page Page
	sel  Selectors
	now  func() time.Time
}

// NewPageReader returns a reader over page using sel.
func NewPageReader(page Page, sel Selectors) *PageReader {
	return &PageReader{page: page, sel: sel, now: time.Now}
}

// Read takes a snapshot. Any element that cannot be read turns into a
// SnapshotUnavailableError; context errors are returned as is.
func (r *PageReader) Read(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{TakenAt: r.now()}

	var err error
	if snap.QuestionVisible, err = r.page.IsVisible(ctx, r.sel.QuestionText); err != nil {
		return Snapshot{}, r.unavailable(ctx, r.sel.QuestionText, err)
	}
	if snap.QuestionText, err = r.page.TextContent(ctx, r.sel.QuestionText); err != nil {
		return Snapshot{}, r.unavailable(ctx, r.sel.QuestionText, err)
	}
	snap.QuestionText = strings.TrimSpace(snap.QuestionText)
	if snap.ExplanationShown, err = r.page.HasClass(ctx, r.sel.ContentWrapper, r.sel.ExplanationClass); err != nil {
		return Snapshot{}, r.unavailable(ctx, r.sel.ContentWrapper, err)
	}
	counter, err := r.page.TextContent(ctx, r.sel.QuestionCounter)
	if err != nil {
		return Snapshot{}, r.unavailable(ctx, r.sel.QuestionCounter, err)
	}
	snap.Counter = strings.TrimSpace(counter)
	if snap.ResultsVisible, err = r.page.IsVisible(ctx, r.sel.ResultContainer); err != nil {
		return Snapshot{}, r.unavailable(ctx, r.sel.ResultContainer, err)
	}
	if snap.ResultsShown, err = r.page.HasClass(ctx, r.sel.ResultContainer, r.sel.ShownClass); err != nil {
		return Snapshot{}, r.unavailable(ctx, r.sel.ResultContainer, err)
	}
	return snap, nil
}

func (r *PageReader) unavailable(ctx context.Context, selector string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &SnapshotUnavailableError{Selector: selector, Err: err}
}

// ParseCounter splits a counter label such as "2/5".
func ParseCounter(s string) (current, total int, ok bool) {
	left, right, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found {
		return 0, 0, false
	}
	current, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, false
	}
	total, err = strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return 0, 0, false
	}
	return current, total, true
}

// FormatCounter renders the counter label for question q of total.
func FormatCounter(q, total int) string {
	return strconv.Itoa(q) + "/" + strconv.Itoa(total)
}
