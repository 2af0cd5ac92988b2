package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/moolen/quizcheck/internal/browser"
	"github.com/moolen/quizcheck/internal/config"
	"github.com/moolen/quizcheck/internal/logging"
	"github.com/moolen/quizcheck/internal/quiz"
	"github.com/moolen/quizcheck/internal/report"
)

type scenarioOptions struct {
	Profile string
	Page    browser.PageOptions
	// Hold keeps the results screen open before the page is closed.
	Hold time.Duration
}

// runScenario opens a page, walks the quiz and closes the page again. A run
// that fails verification is not an error; only setup failures are.
func runScenario(ctx context.Context, cfg *config.Config, st *stack, so scenarioOptions) (*quiz.ScenarioReport, error) {
	logger := logging.GetLogger("quizcheck")

	session, err := quiz.NewSession(cfg.Quiz.TotalQuestions, quizTimings(cfg.Quiz), cfg.Quiz.LoadingSentinel)
	if err != nil {
		return nil, fmt.Errorf("invalid quiz session: %w", err)
	}

	page, err := st.browser.NewPage(ctx, so.Page)
	if err != nil {
		return nil, err
	}
	defer func() {
		if _, err := page.Close(); err != nil {
			logger.Warn("%v", err)
		}
	}()

	if err := page.Navigate(ctx, cfg.Quiz.URL); err != nil {
		return nil, err
	}

	opts := []quiz.RunnerOption{quiz.WithTracer(st.tracing.Tracer("quizcheck/quiz"))}
	if st.metrics != nil {
		opts = append(opts, quiz.WithObserver(st.metrics))
	}
	if dir := cfg.Browser.ArtifactsDir; dir != "" {
		opts = append(opts, quiz.WithArtifacts(page.ArtifactSink(dir), cfg.Browser.ScreenshotEachQuestion))
	}

	reader := quiz.NewPageReader(page, quizSelectors(cfg.Selectors))
	runner := quiz.NewRunner(quiz.NewWaiter(reader, ms(cfg.Quiz.PollIntervalMs)), opts...)

	runCtx, cancel := context.WithTimeout(ctx, ms(cfg.Quiz.RunTimeoutMs))
	rep := runner.Run(runCtx, session)
	cancel()

	rep.URL = cfg.Quiz.URL
	rep.Profile = so.Profile

	if so.Hold > 0 && rep.Aborted == nil {
		logger.Info("Holding the results screen for %s", so.Hold)
		if err := page.Hold(ctx, so.Hold); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("hold interrupted: %v", err)
		}
	}

	video, err := page.Close()
	if err != nil {
		logger.Warn("%v", err)
	}
	rep.Video = video
	return rep, nil
}

// emitReport saves rep when out is set and renders it to w.
func emitReport(w io.Writer, rep *quiz.ScenarioReport, format, out string) error {
	f, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	if out != "" {
		if err := report.Save(out, rep); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		logging.GetLogger("quizcheck").Info("Report written to %s", out)
	}
	return report.Write(w, rep, f, renderOptions(w))
}

// renderOptions enables color and terminal width only when w is a terminal.
func renderOptions(w io.Writer) report.Options {
	if f, ok := w.(*os.File); ok {
		return report.OptionsFor(f)
	}
	return report.Options{Width: 80}
}
