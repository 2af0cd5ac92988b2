package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/moolen/quizcheck/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const artifactTimeout = 5 * time.Second

// Observer is notified as a run progresses.
type Observer interface {
	StepCompleted(step StepResult)
	RunCompleted(report *ScenarioReport)
}

// ArtifactSink captures debugging material such as screenshots and returns
// where it was stored.
type ArtifactSink interface {
	Capture(ctx context.Context, name string) (string, error)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithObserver adds an observer. May be given more than once.
func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithArtifacts captures an artifact for every failed step, and for every
// reached question when eachQuestion is set.
func WithArtifacts(sink ArtifactSink, eachQuestion bool) RunnerOption {
	return func(r *Runner) {
		r.artifacts = sink
		r.captureQuestions = eachQuestion
	}
}

// WithTracer overrides the tracer used for run and step spans.
func WithTracer(t trace.Tracer) RunnerOption {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

// Runner drives a Session through a Waiter.
type Runner struct {
	waiter           *Waiter
	observers        []Observer
	artifacts        ArtifactSink
	captureQuestions bool
	tracer           trace.Tracer
	logger           *logging.Logger
	now              func() time.Time
}

// NewRunner returns a runner that waits with w.
func NewRunner(w *Waiter, opts ...RunnerOption) *Runner {
	r := &Runner{
		waiter: w,
		tracer: otel.GetTracerProvider().Tracer("quizcheck/quiz"),
		logger: logging.GetLogger("quiz.runner"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run walks the session from the first question to the results screen. It
// always returns a report; a context deadline stops the run and is recorded
// in ScenarioReport.Aborted.
func (r *Runner) Run(ctx context.Context, s *Session) *ScenarioReport {
	started := r.now()
	report := newReport(s, started)
	logger := r.logger.WithContext(ctx).WithField("run_id", report.RunID)

	ctx, span := r.tracer.Start(ctx, "quiz.run", trace.WithAttributes(
		attribute.String("quiz.run_id", report.RunID),
		attribute.Int("quiz.total_questions", s.TotalQuestions),
	))
	defer span.End()

	logger.Info("starting quiz run with %d questions", s.TotalQuestions)

	seen := make(map[string]int, s.TotalQuestions)
	mark := started
	for {
		target, ok := s.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			report.Aborted = r.abortError(s, target, err)
			break
		}

		step := r.runStep(ctx, s, target, mark, seen, report)
		mark = step.StartedAt.Add(step.Elapsed)
		report.Steps = append(report.Steps, step)
		r.notifyStep(step)

		var timeout *TimeoutExceededError
		if errors.As(step.Err, &timeout) && timeout.Cause != nil {
			report.Aborted = r.abortError(s, target, timeout.Cause)
			break
		}
	}

	report.FinishedAt = r.now()
	if report.Aborted != nil {
		report.AbortReason = report.Aborted.Error()
		span.RecordError(report.Aborted)
		span.SetStatus(codes.Error, "run aborted")
		logger.Error("quiz run aborted: %v", report.Aborted)
	} else if failures := report.Failures(); len(failures) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d steps failed", len(failures)))
		logger.Warn("quiz run finished with %d failed steps in %s", len(failures), report.Duration())
	} else {
		logger.Info("quiz run passed in %s", report.Duration())
	}

	for _, o := range r.observers {
		o.RunCompleted(report)
	}
	return report
}

func (r *Runner) runStep(ctx context.Context, s *Session, t Target, mark time.Time, seen map[string]int, report *ScenarioReport) StepResult {
	ctx, span := r.tracer.Start(ctx, "quiz.wait."+t.Phase.String(), trace.WithAttributes(
		attribute.Int("quiz.question", t.Question),
		attribute.String("quiz.phase", t.Phase.String()),
	))
	defer span.End()

	budget := t.Phase.Budget(s.Timings)
	step := StepResult{
		Question:  t.Question,
		Phase:     t.Phase,
		StartedAt: mark,
		Budget:    budget,
		Nominal:   t.Phase.Nominal(s.Timings),
	}

	snap, err := r.waiter.WaitFor(ctx, t, budget)
	reached := r.now()
	step.Elapsed = reached.Sub(mark)

	if err == nil {
		step.Snapshot = &snap
		if t.Phase == PhaseQuestion {
			report.QuestionTexts = append(report.QuestionTexts, snap.QuestionText)
			err = checkQuestion(t, snap, seen)
		}
	} else {
		var timeout *TimeoutExceededError
		if errors.As(err, &timeout) && timeout.Last != nil {
			step.Snapshot = timeout.Last
		}
	}

	if err != nil {
		step.Err = err
		step.ErrorKind = ErrorKind(err)
		step.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, step.ErrorKind)
		if skipErr := s.Skip(t); skipErr != nil {
			r.logger.Error("session out of sync: %v", skipErr)
		}
		r.logger.WarnWithFields(fmt.Sprintf("%s failed", t),
			logging.Field("kind", step.ErrorKind),
			logging.Field("elapsed", step.Elapsed.String()),
		)
		step.Artifact = r.capture(ctx, fmt.Sprintf("question-%d-%s", t.Question, t.Phase))
		return step
	}

	step.Passed = true
	step.Drift = step.Elapsed - step.Nominal
	if advErr := s.Advance(t, reached); advErr != nil {
		r.logger.Error("session out of sync: %v", advErr)
	}
	r.logger.InfoWithFields(fmt.Sprintf("%s reached", t),
		logging.Field("elapsed", step.Elapsed.String()),
		logging.Field("drift", step.Drift.String()),
	)
	if t.Phase == PhaseQuestion && r.captureQuestions {
		step.Artifact = r.capture(ctx, fmt.Sprintf("question-%d", t.Question))
	}
	return step
}

// checkQuestion enforces the counter label and text uniqueness for a reached
// question.
func checkQuestion(t Target, snap Snapshot, seen map[string]int) error {
	want := FormatCounter(t.Question, t.Total)
	if snap.Counter != want {
		return &UnexpectedValueError{Target: t, Field: "question counter", Got: snap.Counter, Want: fmt.Sprintf("%q", want)}
	}
	text := strings.TrimSpace(snap.QuestionText)
	if prev, dup := seen[text]; dup {
		return &UnexpectedValueError{Target: t, Field: "question text", Got: text, Want: fmt.Sprintf("text distinct from question %d", prev)}
	}
	seen[text] = t.Question
	return nil
}

func (r *Runner) capture(ctx context.Context, name string) string {
	if r.artifacts == nil {
		return ""
	}
	// the run context may already be done when a step fails on the deadline
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), artifactTimeout)
	defer cancel()
	path, err := r.artifacts.Capture(cctx, name)
	if err != nil {
		r.logger.Warn("failed to capture %s: %v", name, err)
		return ""
	}
	r.logger.Debug("captured %s to %s", name, path)
	return path
}

func (r *Runner) notifyStep(step StepResult) {
	for _, o := range r.observers {
		o.StepCompleted(step)
	}
}

func (r *Runner) abortError(s *Session, pending Target, cause error) error {
	err := &TimeoutExceededError{
		Target: pending,
		Budget: pending.Phase.Budget(s.Timings),
		Cause:  cause,
	}
	if last, ok := s.LastCompleted(); ok {
		err.LastCompleted = &last
	}
	return err
}
