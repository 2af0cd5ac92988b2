package quiz

import (
	"fmt"
	"strings"
	"time"
)

// Phase is one observable stage of a question's lifecycle.
type Phase int

const (
	PhaseQuestion Phase = iota
	PhaseExplanation
	PhaseTransition
	PhaseResults
)

// DefaultSentinel is the placeholder the quiz shows before a question loads.
const DefaultSentinel = "Loading question..."

// Target is one expected occurrence of a phase.
type Target struct {
	Phase    Phase
	Question int // 1-based
	Total    int

	// Sentinel is the loading placeholder that never counts as question text.
	Sentinel string
}

func (t Target) String() string {
	return fmt.Sprintf("%s (question %d/%d)", t.Phase, t.Question, t.Total)
}

// IsLast reports whether the target belongs to the final question.
func (t Target) IsLast() bool {
	return t.Question >= t.Total
}

// Predicate decides whether a snapshot shows the target phase.
type Predicate func(s Snapshot, t Target) bool

// Timings are the nominal durations of the quiz plus the waiter settings.
type Timings struct {
	Timer            time.Duration `json:"timer" yaml:"timer"`
	Explanation      time.Duration `json:"explanation" yaml:"explanation"`
	TransitionBuffer time.Duration `json:"transition_buffer" yaml:"transition_buffer"`
	PollInterval     time.Duration `json:"poll_interval" yaml:"poll_interval"`
	Margin           time.Duration `json:"margin" yaml:"margin"`
}

// DefaultTimings match the quiz as it ships.
func DefaultTimings() Timings {
	return Timings{
		Timer:            15 * time.Second,
		Explanation:      10 * time.Second,
		TransitionBuffer: 2 * time.Second,
		PollInterval:     200 * time.Millisecond,
		Margin:           3 * time.Second,
	}
}

type phaseSpec struct {
	name      string
	predicate Predicate
	// budget bounds the wait for the phase, measured from the end of the
	// previous wait
	budget func(Timings) time.Duration
	// nominal is how long after the previous phase this one should appear
	nominal func(Timings) time.Duration
}

var phaseTable = [...]phaseSpec{
	PhaseQuestion: {
		name:      "question",
		predicate: questionShown,
		budget:    func(t Timings) time.Duration { return t.TransitionBuffer + t.Margin },
		nominal:   func(Timings) time.Duration { return 0 },
	},
	PhaseExplanation: {
		name:      "explanation",
		predicate: explanationShown,
		budget:    func(t Timings) time.Duration { return t.Timer + t.Margin },
		nominal:   func(t Timings) time.Duration { return t.Timer },
	},
	PhaseTransition: {
		name:      "transition",
		predicate: advanced,
		budget:    func(t Timings) time.Duration { return t.Explanation + t.TransitionBuffer + t.Margin },
		nominal:   func(t Timings) time.Duration { return t.Explanation },
	},
	PhaseResults: {
		name:      "results",
		predicate: resultsShown,
		budget:    func(t Timings) time.Duration { return t.Explanation + t.TransitionBuffer + t.Margin },
		nominal:   func(t Timings) time.Duration { return t.Explanation },
	},
}

// Phases returns all phases in table order.
func Phases() []Phase {
	return []Phase{PhaseQuestion, PhaseExplanation, PhaseTransition, PhaseResults}
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return p >= PhaseQuestion && int(p) < len(phaseTable)
}

func (p Phase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseTable[p].name
}

// Budget is the longest the waiter should wait for p.
func (p Phase) Budget(t Timings) time.Duration {
	if !p.Valid() {
		return 0
	}
	return phaseTable[p].budget(t)
}

// Nominal is the expected delay between the previous phase and p.
func (p Phase) Nominal(t Timings) time.Duration {
	if !p.Valid() {
		return 0
	}
	return phaseTable[p].nominal(t)
}

// ParsePhase parses a phase name.
func ParsePhase(s string) (Phase, error) {
	for i, def := range phaseTable {
		if strings.EqualFold(s, def.name) {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid phase %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
