package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/moolen/quizcheck/internal/browser"
	"github.com/moolen/quizcheck/internal/config"
	"github.com/moolen/quizcheck/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Walk the quiz once and verify every phase",
	Long: `Run drives Chromium through the whole quiz: each question, its explanation
and the transition to the next question, then the results screen. Every phase
is awaited with a condition-based wait bounded by the configured timings.

The process exits with status 1 when any step failed or the run was aborted.`,
	RunE: runQuiz,
}

type runFlags struct {
	url            string
	totalQuestions int
	headless       bool
	profile        string
	screenshots    bool
	video          bool
	format         string
	out            string
	watch          bool
}

var runOpts runFlags

func init() {
	f := runCmd.Flags()
	f.StringVar(&runOpts.url, "url", "", "Quiz URL (overrides quiz.url)")
	f.IntVar(&runOpts.totalQuestions, "total-questions", 0, "Number of questions (overrides quiz.total_questions)")
	f.BoolVar(&runOpts.headless, "headless", true, "Run Chromium headless (overrides browser.headless)")
	f.StringVar(&runOpts.profile, "profile", "", "Resolution profile for the viewport, e.g. 1080p or 4K")
	f.BoolVar(&runOpts.screenshots, "screenshots", false, "Capture a screenshot of every question (overrides browser.screenshot_each_question)")
	f.BoolVar(&runOpts.video, "video", false, "Record a video of the run (overrides browser.video.enabled)")
	f.StringVar(&runOpts.format, "report-format", "text", "Report format: text, json, yaml or markdown")
	f.StringVarP(&runOpts.out, "report-out", "o", "", "Also save the report to this .json, .yaml or .md file")
	f.BoolVar(&runOpts.watch, "watch", false, "Re-run whenever the config file changes (requires --config)")
}

// apply copies the flags the user set onto cfg.
func (o runFlags) apply(flags *pflag.FlagSet, cfg *config.Config) error {
	if flags.Changed("url") {
		cfg.Quiz.URL = o.url
	}
	if flags.Changed("total-questions") {
		cfg.Quiz.TotalQuestions = o.totalQuestions
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = o.headless
	}
	if flags.Changed("screenshots") {
		cfg.Browser.ScreenshotEachQuestion = o.screenshots
	}
	if flags.Changed("video") {
		cfg.Browser.Video.Enabled = o.video
	}
	if o.profile != "" {
		p, ok := cfg.Profile(o.profile)
		if !ok {
			return unknownProfile(cfg, o.profile)
		}
		cfg.Browser.Viewport = config.ViewportConfig{Width: p.Width, Height: p.Height}
		if p.SlowMoMs > 0 {
			cfg.Browser.SlowMoMs = p.SlowMoMs
		}
	}
	return cfg.Validate()
}

func runQuiz(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runOpts.watch {
		return watchQuiz(ctx, cmd)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := runOpts.apply(cmd.Flags(), cfg); err != nil {
		return err
	}
	return runOnce(ctx, cmd, cfg)
}

func runOnce(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	var passed bool
	err := withStack(ctx, cfg, browserOptions(cfg.Browser), func(ctx context.Context, st *stack) error {
		rep, err := runScenario(ctx, cfg, st, scenarioOptions{
			Profile: runOpts.profile,
			Page: browser.PageOptions{
				Video: videoOptions(cfg.Browser.Video),
			},
		})
		if err != nil {
			return err
		}
		passed = rep.Passed()
		return emitReport(cmd.OutOrStdout(), rep, runOpts.format, runOpts.out)
	})
	if err != nil {
		return err
	}
	if !passed {
		return errChecksFailed
	}
	return nil
}

// watchQuiz runs once per config version until ctx is cancelled. A reload
// that arrives during a run is picked up when the run finishes; only the
// newest pending config is kept.
func watchQuiz(ctx context.Context, cmd *cobra.Command) error {
	if configPath == "" {
		return fmt.Errorf("--watch requires --config")
	}
	logger := logging.GetLogger("quizcheck")

	pending := make(chan *config.Config, 1)
	watcher, err := config.NewWatcher(config.WatcherOptions{FilePath: configPath}, func(cfg *config.Config) error {
		if err := applyConfigLogLevel(cmd.Flags(), cfg); err != nil {
			return err
		}
		if err := runOpts.apply(cmd.Flags(), cfg); err != nil {
			return err
		}
		select {
		case <-pending:
		default:
		}
		select {
		case pending <- cfg:
		default:
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := watcher.Stop(); err != nil {
			logger.Warn("failed to stop config watcher: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Watch stopped")
			return nil
		case cfg := <-pending:
			err := runOnce(ctx, cmd, cfg)
			switch {
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, errChecksFailed):
				logger.Warn("Quiz checks failed; waiting for config changes")
			case err != nil:
				logger.Error("Run failed: %v", err)
			default:
				logger.Info("Quiz checks passed; waiting for config changes")
			}
		}
	}
}
