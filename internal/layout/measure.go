package layout

import (
	"context"
	"errors"
	"fmt"

	"github.com/moolen/quizcheck/internal/browser"
)

// Selectors locate the measured elements.
type Selectors struct {
	Container string
	Title     string
	Timer     string
	Counter   string
	Question  string
}

// DefaultSelectors match the quiz markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Container: ".quiz-container",
		Title:     ".quiz-title",
		Timer:     ".timer",
		Counter:   ".question-counter",
		Question:  ".question-text",
	}
}

// Inspector is the part of a page Measure reads from.
type Inspector interface {
	IsVisible(ctx context.Context, selector string) (bool, error)
	BoundingBox(ctx context.Context, selector string) (*browser.Box, error)
	FontSize(ctx context.Context, selector string) (float64, error)
}

// Measure reads the layout of the page. Missing elements are recorded as
// invisible rather than failing the measurement.
func Measure(ctx context.Context, page Inspector, sel Selectors, vp browser.Viewport) (Measurement, error) {
	m := Measurement{Viewport: vp, Visible: make(map[string]bool, len(elementNames))}

	elements := []struct {
		name     string
		selector string
		box      **browser.Box
	}{
		{ElementContainer, sel.Container, &m.Container},
		{ElementTitle, sel.Title, &m.Title},
		{ElementTimer, sel.Timer, &m.Timer},
		{ElementCounter, sel.Counter, &m.Counter},
		{ElementQuestion, sel.Question, &m.Question},
	}
	for _, el := range elements {
		visible, err := page.IsVisible(ctx, el.selector)
		if err != nil {
			return Measurement{}, fmt.Errorf("measuring %s: %w", el.name, err)
		}
		m.Visible[el.name] = visible
		if !visible {
			continue
		}
		box, err := page.BoundingBox(ctx, el.selector)
		if err != nil && !errors.Is(err, browser.ErrElementNotFound) {
			return Measurement{}, fmt.Errorf("measuring %s: %w", el.name, err)
		}
		*el.box = box
	}

	var err error
	if m.Visible[ElementTitle] {
		if m.TitleFontPx, err = page.FontSize(ctx, sel.Title); err != nil {
			return Measurement{}, fmt.Errorf("measuring title font: %w", err)
		}
	}
	if m.Visible[ElementQuestion] {
		if m.QuestionFontPx, err = page.FontSize(ctx, sel.Question); err != nil {
			return Measurement{}, fmt.Errorf("measuring question font: %w", err)
		}
	}
	return m, nil
}
