package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/moolen/quizcheck/internal/browser"
	"github.com/moolen/quizcheck/internal/config"
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a video of the full quiz at a resolution profile",
	Long: `Record runs the full quiz with video recording enabled at the viewport of a
resolution profile (see 'profiles' in the config), holds the results screen and
then closes the browser context so the video is written out.

Examples:
  quizcheck record --profile 4K
  quizcheck record --profile 720p --hold-ms 3000 --dir recordings`,
	RunE: runRecord,
}

var (
	recordProfile      string
	recordDir          string
	recordHoldMs       int
	recordReportFormat string
)

func init() {
	f := recordCmd.Flags()
	f.StringVarP(&recordProfile, "profile", "p", "", "Resolution profile (defaults to record.profile)")
	f.StringVar(&recordDir, "dir", "", "Directory for the video (defaults to record.dir)")
	f.IntVar(&recordHoldMs, "hold-ms", -1, "How long to keep the results screen on video (defaults to record.results_hold_ms)")
	f.StringVar(&recordReportFormat, "report-format", "text", "Report format: text, json, yaml or markdown")
}

// recordSetup resolves the profile and derives the browser and page options.
func recordSetup(cfg *config.Config) (config.ProfileConfig, browser.Options, scenarioOptions, error) {
	if recordProfile != "" {
		cfg.Record.Profile = recordProfile
	}
	if recordDir != "" {
		cfg.Record.Dir = recordDir
	}
	if recordHoldMs >= 0 {
		cfg.Record.ResultsHoldMs = recordHoldMs
	}

	profile, ok := cfg.Profile(cfg.Record.Profile)
	if !ok {
		return config.ProfileConfig{}, browser.Options{}, scenarioOptions{}, unknownProfile(cfg, cfg.Record.Profile)
	}
	if cfg.Record.Dir == "" {
		return config.ProfileConfig{}, browser.Options{}, scenarioOptions{}, fmt.Errorf("record.dir must not be empty")
	}

	vp := viewportOf(profile)
	opts := browserOptions(cfg.Browser)
	opts.Viewport = vp
	if profile.SlowMoMs > 0 {
		opts.SlowMo = ms(profile.SlowMoMs)
	}

	so := scenarioOptions{
		Profile: profile.Name,
		Page: browser.PageOptions{
			Viewport: vp,
			Video:    &browser.VideoOptions{Dir: cfg.Record.Dir, Width: vp.Width, Height: vp.Height},
		},
		Hold: ms(cfg.Record.ResultsHoldMs),
	}
	return profile, opts, so, nil
}

func runRecord(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	profile, opts, so, err := recordSetup(cfg)
	if err != nil {
		return err
	}

	var passed bool
	err = withStack(ctx, cfg, opts, func(ctx context.Context, st *stack) error {
		rep, err := runScenario(ctx, cfg, st, so)
		if err != nil {
			return err
		}
		passed = rep.Passed()
		if err := emitReport(cmd.OutOrStdout(), rep, recordReportFormat, ""); err != nil {
			return err
		}
		if rep.Video == "" {
			return fmt.Errorf("no video was recorded for profile %s", profile.Name)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Recorded %s (%dx%d) to %s\n", profile.Name, profile.Width, profile.Height, rep.Video)
		return nil
	})
	if err != nil {
		return err
	}
	if !passed {
		return errChecksFailed
	}
	return nil
}
