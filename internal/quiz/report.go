package quiz

import (
	"time"

	"github.com/google/uuid"
)

// StepResult is the outcome of waiting for one phase.
type StepResult struct {
	Question  int           `json:"question" yaml:"question"`
	Phase     Phase         `json:"phase" yaml:"phase"`
	Passed    bool          `json:"passed" yaml:"passed"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Elapsed   time.Duration `json:"elapsed_ns" yaml:"elapsed"`
	Budget    time.Duration `json:"budget_ns" yaml:"budget"`
	Nominal   time.Duration `json:"nominal_ns" yaml:"nominal"`
	// Drift is Elapsed minus Nominal; only meaningful when Passed.
	Drift     time.Duration `json:"drift_ns" yaml:"drift"`
	Snapshot  *Snapshot     `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	Artifact  string        `json:"artifact,omitempty" yaml:"artifact,omitempty"`

	Err error `json:"-" yaml:"-"`
}

// ScenarioReport is the result of one run.
type ScenarioReport struct {
	RunID          string       `json:"run_id" yaml:"run_id"`
	URL            string       `json:"url,omitempty" yaml:"url,omitempty"`
	Profile        string       `json:"profile,omitempty" yaml:"profile,omitempty"`
	TotalQuestions int          `json:"total_questions" yaml:"total_questions"`
	Timings        Timings      `json:"timings" yaml:"timings"`
	StartedAt      time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time    `json:"finished_at" yaml:"finished_at"`
	Steps          []StepResult `json:"steps" yaml:"steps"`
	QuestionTexts  []string     `json:"question_texts" yaml:"question_texts"`
	AbortReason    string       `json:"abort_reason,omitempty" yaml:"abort_reason,omitempty"`
	Video          string       `json:"video,omitempty" yaml:"video,omitempty"`

	Aborted error `json:"-" yaml:"-"`
}

func newReport(s *Session, started time.Time) *ScenarioReport {
	return &ScenarioReport{
		RunID:          uuid.NewString(),
		TotalQuestions: s.TotalQuestions,
		Timings:        s.Timings,
		StartedAt:      started,
		Steps:          make([]StepResult, 0, len(s.plan)),
	}
}

// Passed is true when every step passed and the run was not aborted.
func (r *ScenarioReport) Passed() bool {
	if r.Aborted != nil || r.AbortReason != "" {
		return false
	}
	for _, s := range r.Steps {
		if !s.Passed {
			return false
		}
	}
	return len(r.Steps) > 0
}

// Failures returns the failed steps in order.
func (r *ScenarioReport) Failures() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if !s.Passed {
			out = append(out, s)
		}
	}
	return out
}

// Phases returns the phase of every recorded step in order.
func (r *ScenarioReport) Phases() []Phase {
	out := make([]Phase, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = s.Phase
	}
	return out
}

// Duration is the wall time of the run.
func (r *ScenarioReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
