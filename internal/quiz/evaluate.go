package quiz

import "strings"

// Evaluate reports whether s shows the phase described by t. It is a pure
// function of its arguments.
func Evaluate(t Target, s Snapshot) bool {
	if !t.Phase.Valid() {
		return false
	}
	return phaseTable[t.Phase].predicate(s, t)
}

func questionShown(s Snapshot, t Target) bool {
	sentinel := strings.TrimSpace(t.Sentinel)
	if sentinel == "" {
		sentinel = DefaultSentinel
	}
	text := strings.TrimSpace(s.QuestionText)
	return s.QuestionVisible &&
		text != "" &&
		text != sentinel &&
		!s.ExplanationShown
}

func explanationShown(s Snapshot, _ Target) bool {
	return s.ExplanationShown
}

func advanced(s Snapshot, t Target) bool {
	if t.IsLast() {
		return s.ResultsShown
	}
	current, _, ok := ParseCounter(s.Counter)
	return ok && current == t.Question+1
}

func resultsShown(s Snapshot, _ Target) bool {
	return s.ResultsVisible && s.ResultsShown
}
