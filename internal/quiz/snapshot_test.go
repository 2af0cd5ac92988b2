package quiz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage is a static DOM: selectors absent from text are missing.
type fakePage struct {
	visible map[string]bool
	text    map[string]string
	classes map[string][]string
}

func (p *fakePage) IsVisible(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return p.visible[selector], nil
}

func (p *fakePage) TextContent(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, ok := p.text[selector]
	if !ok {
		return "", errNoElement
	}
	return text, nil
}

func (p *fakePage) HasClass(ctx context.Context, selector, class string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	classes, ok := p.classes[selector]
	if !ok {
		return false, errNoElement
	}
	for _, c := range classes {
		if c == class {
			return true, nil
		}
	}
	return false, nil
}

func quizPage() *fakePage {
	return &fakePage{
		visible: map[string]bool{"#questionText": true},
		text: map[string]string{
			"#questionText":    "  What does HTML stand for?\n",
			"#questionCounter": " 2/5 ",
		},
		classes: map[string][]string{
			"#contentWrapper":  {"content", "show-explanation"},
			"#resultContainer": {"result-container"},
		},
	}
}

func TestPageReaderRead(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewPageReader(quizPage(), DefaultSelectors())
	r.now = func() time.Time { return fixed }

	snap, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Snapshot{
		TakenAt:          fixed,
		QuestionVisible:  true,
		QuestionText:     "What does HTML stand for?",
		ExplanationShown: true,
		Counter:          "2/5",
	}, snap)
}

func TestPageReaderMissingElement(t *testing.T) {
	page := quizPage()
	delete(page.classes, "#resultContainer")
	r := NewPageReader(page, DefaultSelectors())

	_, err := r.Read(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSnapshotUnavailable)
	assert.ErrorIs(t, err, errNoElement)

	var unavailable *SnapshotUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "#resultContainer", unavailable.Selector)
	assert.Contains(t, err.Error(), "#resultContainer")
}

func TestPageReaderContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPageReader(quizPage(), DefaultSelectors()).Read(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrSnapshotUnavailable)
}

func TestPageReaderCustomSelectors(t *testing.T) {
	page := &fakePage{
		visible: map[string]bool{".q": true, ".results": true},
		text:    map[string]string{".q": "Q", ".count": "5/5"},
		classes: map[string][]string{".wrap": {}, ".results": {"visible"}},
	}
	sel := Selectors{
		QuestionText:     ".q",
		ContentWrapper:   ".wrap",
		QuestionCounter:  ".count",
		ResultContainer:  ".results",
		ExplanationClass: "explaining",
		ShownClass:       "visible",
	}

	snap, err := NewPageReader(page, sel).Read(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.ResultsVisible)
	assert.True(t, snap.ResultsShown)
	assert.False(t, snap.ExplanationShown)
	assert.True(t, Evaluate(Target{Phase: PhaseResults, Question: 5, Total: 5}, snap))
}
