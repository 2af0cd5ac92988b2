package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	question := Snapshot{QuestionVisible: true, QuestionText: "What is 2+2?", Counter: "2/5"}
	explaining := Snapshot{QuestionVisible: true, QuestionText: "What is 2+2?", ExplanationShown: true, Counter: "2/5"}
	results := Snapshot{QuestionVisible: true, QuestionText: "What is 5?", ExplanationShown: true, Counter: "5/5", ResultsVisible: true, ResultsShown: true}

	target := func(p Phase, q int) Target { return Target{Phase: p, Question: q, Total: 5} }

	tests := []struct {
		name   string
		target Target
		snap   Snapshot
		want   bool
	}{
		{"question shown", target(PhaseQuestion, 2), question, true},
		{"question hidden", target(PhaseQuestion, 2), Snapshot{QuestionText: "What is 2+2?"}, false},
		{"question empty", target(PhaseQuestion, 2), Snapshot{QuestionVisible: true, QuestionText: "   "}, false},
		{"question loading", target(PhaseQuestion, 1), Snapshot{QuestionVisible: true, QuestionText: DefaultSentinel}, false},
		{"custom sentinel", Target{Phase: PhaseQuestion, Question: 1, Total: 5, Sentinel: "..."}, Snapshot{QuestionVisible: true, QuestionText: "..."}, false},
		{"padded sentinel", Target{Phase: PhaseQuestion, Question: 1, Total: 5, Sentinel: " Loading "}, Snapshot{QuestionVisible: true, QuestionText: "Loading"}, false},
		{"padded page text", Target{Phase: PhaseQuestion, Question: 1, Total: 5, Sentinel: "Loading"}, Snapshot{QuestionVisible: true, QuestionText: "  Loading\n"}, false},
		{"blank sentinel falls back to default", Target{Phase: PhaseQuestion, Question: 1, Total: 5, Sentinel: "  "}, Snapshot{QuestionVisible: true, QuestionText: DefaultSentinel}, false},
		{"question during explanation", target(PhaseQuestion, 2), explaining, false},
		{"explanation shown", target(PhaseExplanation, 2), explaining, true},
		{"explanation not yet", target(PhaseExplanation, 2), question, false},
		{"transition counter advanced", target(PhaseTransition, 1), question, true},
		{"transition counter unchanged", target(PhaseTransition, 2), explaining, false},
		{"transition garbage counter", target(PhaseTransition, 1), Snapshot{Counter: "two of five"}, false},
		{"transition on last question uses results", target(PhaseTransition, 5), results, true},
		{"results shown", target(PhaseResults, 5), results, true},
		{"results visible without class", target(PhaseResults, 5), Snapshot{ResultsVisible: true}, false},
		{"results class but hidden", target(PhaseResults, 5), Snapshot{ResultsShown: true}, false},
		{"unknown phase", Target{Phase: Phase(42)}, results, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.target, tt.snap))
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	snap := Snapshot{QuestionVisible: true, QuestionText: " Q ", Counter: "1/5"}
	before := snap
	for _, p := range Phases() {
		target := Target{Phase: p, Question: 1, Total: 5}
		first := Evaluate(target, snap)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Evaluate(target, snap), "phase %s", p)
		}
	}
	assert.Equal(t, before, snap)
}

func TestParseCounter(t *testing.T) {
	tests := []struct {
		in             string
		current, total int
		ok             bool
	}{
		{"1/5", 1, 5, true},
		{" 3 / 5 ", 3, 5, true},
		{"5/5", 5, 5, true},
		{"", 0, 0, false},
		{"3", 0, 0, false},
		{"a/5", 0, 0, false},
		{"3/b", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			current, total, ok := ParseCounter(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.current, current)
			assert.Equal(t, tt.total, total)
		})
	}
	assert.Equal(t, "2/5", FormatCounter(2, 5))
}
