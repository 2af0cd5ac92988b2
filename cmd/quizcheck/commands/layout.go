package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/moolen/quizcheck/internal/browser"
	"github.com/moolen/quizcheck/internal/config"
	"github.com/moolen/quizcheck/internal/layout"
	"github.com/moolen/quizcheck/internal/report"
	"github.com/spf13/cobra"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Check the responsive layout at several resolutions",
	Long: `Layout opens the quiz at every selected resolution profile, measures the
container, title, timer, counter and question text and checks them against the
layout thresholds in the config. Profiles are checked concurrently.

Examples:
  quizcheck layout
  quizcheck layout --profiles 4K,Mobile --format markdown`,
	RunE: runLayout,
}

var (
	layoutProfileNames []string
	layoutParallelism  int
	layoutFormat       string
	layoutScreenshots  string
	layoutURL          string
)

func init() {
	f := layoutCmd.Flags()
	f.StringSliceVar(&layoutProfileNames, "profiles", nil, "Profiles to check (defaults to layout.profiles, or all)")
	f.IntVar(&layoutParallelism, "parallelism", 0, "Profiles checked at once (defaults to layout.parallelism)")
	f.StringVar(&layoutFormat, "format", "text", "Output format: text, json, yaml or markdown")
	f.StringVar(&layoutScreenshots, "screenshots", "", "Directory for one screenshot per profile (defaults to layout.screenshot_dir)")
	f.StringVar(&layoutURL, "url", "", "Quiz URL (overrides quiz.url)")
}

func layoutMatrixOptions(cfg *config.Config) layout.MatrixOptions {
	opts := layout.MatrixOptions{
		URL:           cfg.Quiz.URL,
		Selectors:     layoutSelectors(cfg.Selectors),
		Thresholds:    layoutThresholds(cfg.Layout),
		Parallelism:   cfg.Layout.Parallelism,
		Settle:        ms(cfg.Layout.SettleMs),
		ScreenshotDir: cfg.Layout.ScreenshotDir,
	}
	if layoutURL != "" {
		opts.URL = layoutURL
	}
	if layoutParallelism > 0 {
		opts.Parallelism = layoutParallelism
	}
	if layoutScreenshots != "" {
		opts.ScreenshotDir = layoutScreenshots
	}
	return opts
}

func runLayout(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format, err := report.ParseFormat(layoutFormat)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	names := layoutProfileNames
	if len(names) == 0 {
		names = cfg.Layout.Profiles
	}
	profiles, err := layoutProfiles(cfg, names)
	if err != nil {
		return err
	}

	var passed bool
	err = withStack(ctx, cfg, browserOptions(cfg.Browser), func(ctx context.Context, st *stack) error {
		factory := func(ctx context.Context, p layout.Profile) (layout.Page, error) {
			page, err := st.browser.NewPage(ctx, browser.PageOptions{Viewport: p.Viewport})
			if err != nil {
				return nil, err
			}
			return page, nil
		}
		results, err := layout.NewMatrix(factory, layoutMatrixOptions(cfg)).Run(ctx, profiles)
		if err != nil {
			return err
		}
		passed = true
		for _, r := range results {
			passed = passed && r.Passed()
		}
		return report.WriteLayout(cmd.OutOrStdout(), results, format, renderOptions(cmd.OutOrStdout()))
	})
	if err != nil {
		return err
	}
	if !passed {
		return errChecksFailed
	}
	return nil
}
