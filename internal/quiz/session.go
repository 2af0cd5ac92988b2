package quiz

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTotalQuestions is the question count of the shipped quiz.
const DefaultTotalQuestions = 5

// Session tracks where a run is in the expected phase sequence. It holds the
// current position and the time each phase was entered, nothing else.
type Session struct {
	TotalQuestions int
	Timings        Timings
	Sentinel       string

	plan    []Target
	index   int
	entered []time.Time
}

// NewSession validates the inputs and builds the expected phase sequence.
func NewSession(total int, timings Timings, sentinel string) (*Session, error) {
	if total < 1 {
		return nil, fmt.Errorf("total questions must be at least 1, got %d", total)
	}
	if timings.Timer <= 0 || timings.Explanation <= 0 || timings.PollInterval <= 0 {
		return nil, fmt.Errorf("timer, explanation and poll interval must be positive")
	}
	if timings.TransitionBuffer < 0 || timings.Margin < 0 {
		return nil, fmt.Errorf("transition buffer and margin must not be negative")
	}
	// Page text is compared trimmed, so the sentinel is too.
	sentinel = strings.TrimSpace(sentinel)
	if sentinel == "" {
		sentinel = DefaultSentinel
	}

	s := &Session{
		TotalQuestions: total,
		Timings:        timings,
		Sentinel:       sentinel,
	}
	for q := 1; q <= total; q++ {
		last := PhaseTransition
		if q == total {
			last = PhaseResults
		}
		for _, p := range []Phase{PhaseQuestion, PhaseExplanation, last} {
			s.plan = append(s.plan, Target{Phase: p, Question: q, Total: total, Sentinel: sentinel})
		}
	}
	s.entered = make([]time.Time, len(s.plan))
	return s, nil
}

// Plan returns the full expected sequence.
func (s *Session) Plan() []Target {
	out := make([]Target, len(s.plan))
	copy(out, s.plan)
	return out
}

// Next returns the target to wait for, or false once the sequence is done.
func (s *Session) Next() (Target, bool) {
	if s.index >= len(s.plan) {
		return Target{}, false
	}
	return s.plan[s.index], true
}

// Done reports whether every step has been entered or skipped.
func (s *Session) Done() bool {
	return s.index >= len(s.plan)
}

// Advance records that t was reached at the given time. It rejects any
// target other than the next expected one.
func (s *Session) Advance(t Target, at time.Time) error {
	if err := s.expect(t); err != nil {
		return err
	}
	s.entered[s.index] = at
	s.index++
	return nil
}

// Skip moves past t without recording an entry time, after a failed step.
func (s *Session) Skip(t Target) error {
	if err := s.expect(t); err != nil {
		return err
	}
	s.index++
	return nil
}

func (s *Session) expect(t Target) error {
	next, ok := s.Next()
	if !ok {
		return fmt.Errorf("session complete, cannot advance to %s", t)
	}
	if next.Phase != t.Phase || next.Question != t.Question {
		return fmt.Errorf("out of order: expected %s, got %s", next, t)
	}
	return nil
}

// LastCompleted returns the most recent target that was actually reached.
func (s *Session) LastCompleted() (Target, bool) {
	for i := s.index - 1; i >= 0; i-- {
		if !s.entered[i].IsZero() {
			return s.plan[i], true
		}
	}
	return Target{}, false
}

// EnteredAt returns when step i of the plan was reached; zero if it was not.
func (s *Session) EnteredAt(i int) time.Time {
	if i < 0 || i >= len(s.entered) {
		return time.Time{}
	}
	return s.entered[i]
}

// ExpectedDuration is how long a run takes when every phase lands on time:
// the nominal phase durations plus one transition buffer per question for
// the next question to load.
func (s *Session) ExpectedDuration() time.Duration {
	var d time.Duration
	for _, t := range s.plan {
		d += t.Phase.Nominal(s.Timings)
	}
	return d + time.Duration(s.TotalQuestions)*s.Timings.TransitionBuffer
}
