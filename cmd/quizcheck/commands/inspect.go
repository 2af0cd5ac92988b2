package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/moolen/quizcheck/internal/browser"
	"github.com/moolen/quizcheck/internal/layout"
	"github.com/moolen/quizcheck/internal/report"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print screen metrics and the quiz layout at one viewport",
	Long: `Inspect opens the quiz once and prints the screen and window size, the
container geometry relative to the viewport, the computed font sizes and the
visibility of the key elements. A full-page screenshot is saved alongside.`,
	RunE: runInspect,
}

var (
	inspectProfile    string
	inspectScreenshot string
	inspectFormat     string
	inspectURL        string
)

func init() {
	f := inspectCmd.Flags()
	f.StringVarP(&inspectProfile, "profile", "p", "", "Resolution profile (defaults to browser.viewport)")
	f.StringVar(&inspectScreenshot, "screenshot", "debug-screen-size.png", "Screenshot path; empty disables it")
	f.StringVar(&inspectFormat, "format", "text", "Output format: text, json or yaml")
	f.StringVar(&inspectURL, "url", "", "Quiz URL (overrides quiz.url)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format, err := report.ParseFormat(inspectFormat)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if inspectURL != "" {
		cfg.Quiz.URL = inspectURL
	}

	vp := browser.Viewport{Width: cfg.Browser.Viewport.Width, Height: cfg.Browser.Viewport.Height}
	if inspectProfile != "" {
		p, ok := cfg.Profile(inspectProfile)
		if !ok {
			return unknownProfile(cfg, inspectProfile)
		}
		vp = viewportOf(p)
	}

	return withStack(ctx, cfg, browserOptions(cfg.Browser), func(ctx context.Context, st *stack) error {
		page, err := st.browser.NewPage(ctx, browser.PageOptions{Viewport: vp})
		if err != nil {
			return err
		}
		defer page.Close()

		if err := page.Navigate(ctx, cfg.Quiz.URL); err != nil {
			return err
		}
		screen, err := page.ScreenInfo(ctx)
		if err != nil {
			return err
		}
		m, err := layout.Measure(ctx, page, layoutSelectors(cfg.Selectors), vp)
		if err != nil {
			return err
		}

		in := &report.Inspection{URL: cfg.Quiz.URL, Profile: inspectProfile, Screen: screen, Measurement: m}
		if inspectScreenshot != "" {
			if err := page.Screenshot(ctx, inspectScreenshot); err != nil {
				return err
			}
			in.Screenshot = inspectScreenshot
		}
		return report.WriteInspection(cmd.OutOrStdout(), in, format, renderOptions(cmd.OutOrStdout()))
	})
}
