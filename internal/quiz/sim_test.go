package quiz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var errNoElement = errors.New("element not found")

// quizSim plays the quiz forward by one tick on every Read. Each question
// shows for questionTicks reads, then its explanation for explanationTicks
// reads, then the next question or the results screen follows.
type quizSim struct {
	mu sync.Mutex

	total            int
	questionTicks    int
	explanationTicks int
	texts            []string

	counter   func(q, total int) string
	noResults bool
	failTicks map[int]bool
	tick      int
}

func newQuizSim(total int) *quizSim {
	texts := make([]string, total)
	for i := range texts {
		texts[i] = fmt.Sprintf("Question number %d?", i+1)
	}
	return &quizSim{
		total:            total,
		questionTicks:    3,
		explanationTicks: 3,
		texts:            texts,
		counter:          FormatCounter,
	}
}

func (s *quizSim) Read(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick++
	if s.failTicks[s.tick] {
		return Snapshot{}, &SnapshotUnavailableError{Selector: "#questionText", Err: errNoElement}
	}

	cycle := s.questionTicks + s.explanationTicks
	q := (s.tick-1)/cycle + 1
	within := (s.tick - 1) % cycle

	if q > s.total {
		if s.noResults {
			return Snapshot{}, &SnapshotUnavailableError{Selector: "#resultContainer", Err: errNoElement}
		}
		return Snapshot{
			TakenAt:          time.Now(),
			QuestionVisible:  true,
			QuestionText:     s.texts[s.total-1],
			ExplanationShown: true,
			Counter:          s.counter(s.total, s.total),
			ResultsVisible:   true,
			ResultsShown:     true,
		}, nil
	}

	return Snapshot{
		TakenAt:          time.Now(),
		QuestionVisible:  true,
		QuestionText:     s.texts[q-1],
		ExplanationShown: within >= s.questionTicks,
		Counter:          s.counter(q, s.total),
	}, nil
}

// staticReader always returns the same snapshot or error.
type staticReader struct {
	snap  Snapshot
	err   error
	reads int
	mu    sync.Mutex
}

func (r *staticReader) Read(ctx context.Context) (Snapshot, error) {
	r.mu.Lock()
	r.reads++
	r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	return r.snap, r.err
}

func fastTimings() Timings {
	return Timings{
		Timer:            50 * time.Millisecond,
		Explanation:      50 * time.Millisecond,
		TransitionBuffer: 20 * time.Millisecond,
		PollInterval:     time.Millisecond,
		Margin:           200 * time.Millisecond,
	}
}

type recordingObserver struct {
	mu    sync.Mutex
	steps []StepResult
	runs  []*ScenarioReport
}

func (o *recordingObserver) StepCompleted(step StepResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps = append(o.steps, step)
}

func (o *recordingObserver) RunCompleted(report *ScenarioReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs = append(o.runs, report)
}

type fakeSink struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (f *fakeSink) Capture(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.names = append(f.names, name)
	return "/artifacts/" + name + ".png", nil
}
