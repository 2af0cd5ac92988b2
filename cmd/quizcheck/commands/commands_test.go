package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moolen/quizcheck/internal/browser"
	"github.com/moolen/quizcheck/internal/config"
	"github.com/moolen/quizcheck/internal/quiz"
	"github.com/moolen/quizcheck/internal/report"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuizTimingsFromConfig(t *testing.T) {
	assert.Equal(t, quiz.DefaultTimings(), quizTimings(config.Default().Quiz))
}

func TestSelectorsFromConfig(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, quiz.DefaultSelectors(), quizSelectors(cfg.Selectors))

	sel := layoutSelectors(cfg.Selectors)
	assert.Equal(t, ".question-counter", sel.Counter)
	assert.Equal(t, ".question-text", sel.Question)
}

func TestBrowserOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Browser.SlowMoMs = 100
	cfg.Browser.NavigateTimeoutMs = 45000

	opts := browserOptions(cfg.Browser)
	assert.True(t, opts.Headless)
	assert.Equal(t, 100*time.Millisecond, opts.SlowMo)
	assert.Equal(t, browser.Viewport{Width: 1280, Height: 720}, opts.Viewport)
	assert.Equal(t, time.Second, opts.ActionTimeout)
	assert.Equal(t, 45*time.Second, opts.NavigateTimeout)

	assert.Nil(t, videoOptions(cfg.Browser.Video))
	cfg.Browser.Video.Enabled = true
	assert.Equal(t, &browser.VideoOptions{Dir: "test-results"}, videoOptions(cfg.Browser.Video))
}

func TestLayoutProfiles(t *testing.T) {
	cfg := config.Default()

	all, err := layoutProfiles(cfg, nil)
	require.NoError(t, err)
	assert.Len(t, all, len(cfg.Profiles))

	some, err := layoutProfiles(cfg, []string{"4k", " mobile "})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "4K", some[0].Name)
	assert.Equal(t, browser.Viewport{Width: 3840, Height: 2160}, some[0].Viewport)
	assert.Equal(t, "Mobile", some[1].Name)

	_, err = layoutProfiles(cfg, []string{"8K"})
	assert.ErrorContains(t, err, `unknown profile "8K"`)
}

func TestRunFlagsApply(t *testing.T) {
	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	var o runFlags
	flags.StringVar(&o.url, "url", "", "")
	flags.IntVar(&o.totalQuestions, "total-questions", 0, "")
	flags.BoolVar(&o.headless, "headless", true, "")
	flags.BoolVar(&o.screenshots, "screenshots", false, "")
	flags.BoolVar(&o.video, "video", false, "")
	flags.StringVar(&o.profile, "profile", "", "")
	require.NoError(t, flags.Parse([]string{
		"--url", "http://localhost:8000/quiz.html",
		"--total-questions", "3",
		"--headless=false",
		"--video",
		"--profile", "4K",
	}))

	cfg := config.Default()
	require.NoError(t, o.apply(flags, cfg))
	assert.Equal(t, "http://localhost:8000/quiz.html", cfg.Quiz.URL)
	assert.Equal(t, 3, cfg.Quiz.TotalQuestions)
	assert.False(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.Video.Enabled)
	assert.False(t, cfg.Browser.ScreenshotEachQuestion)
	assert.Equal(t, config.ViewportConfig{Width: 3840, Height: 2160}, cfg.Browser.Viewport)
	assert.Equal(t, 100, cfg.Browser.SlowMoMs)
}

func TestRunFlagsApplyRejectsInvalid(t *testing.T) {
	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	var o runFlags
	flags.IntVar(&o.totalQuestions, "total-questions", 0, "")
	require.NoError(t, flags.Parse([]string{"--total-questions", "0"}))

	assert.Error(t, o.apply(flags, config.Default()))

	o = runFlags{profile: "8K"}
	assert.ErrorContains(t, o.apply(pflag.NewFlagSet("run", pflag.ContinueOnError), config.Default()), "unknown profile")
}

func TestRecordSetup(t *testing.T) {
	t.Cleanup(func() {
		recordProfile, recordDir, recordHoldMs = "", "", -1
	})
	recordProfile, recordDir, recordHoldMs = "4K", "videos", 0

	cfg := config.Default()
	profile, opts, so, err := recordSetup(cfg)
	require.NoError(t, err)

	assert.Equal(t, "4K", profile.Name)
	assert.Equal(t, 100*time.Millisecond, opts.SlowMo)
	assert.Equal(t, browser.Viewport{Width: 3840, Height: 2160}, opts.Viewport)
	assert.Equal(t, "4K", so.Profile)
	assert.Equal(t, browser.Viewport{Width: 3840, Height: 2160}, so.Page.Viewport)
	require.NotNil(t, so.Page.Video)
	assert.Equal(t, browser.VideoOptions{Dir: "videos", Width: 3840, Height: 2160}, *so.Page.Video)
	assert.Zero(t, so.Hold)
}

func TestRecordSetupDefaults(t *testing.T) {
	t.Cleanup(func() {
		recordProfile, recordDir, recordHoldMs = "", "", -1
	})
	recordProfile, recordDir, recordHoldMs = "", "", -1

	_, opts, so, err := recordSetup(config.Default())
	require.NoError(t, err)
	assert.Equal(t, "720p", so.Profile)
	assert.Zero(t, opts.SlowMo)
	assert.Equal(t, 5*time.Second, so.Hold)
	assert.Equal(t, "test-results", so.Page.Video.Dir)

	recordProfile = "8K"
	_, _, _, err = recordSetup(config.Default())
	assert.ErrorContains(t, err, "unknown profile")
}

func TestRecordHelpExamplesParse(t *testing.T) {
	t.Cleanup(func() {
		recordProfile, recordDir, recordHoldMs = "", "", -1
		recordCmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	})

	var examples int
	for _, line := range strings.Split(recordCmd.Long, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "quizcheck record") {
			continue
		}
		examples++
		args := strings.Fields(strings.TrimPrefix(line, "quizcheck record"))
		require.NoError(t, recordCmd.ParseFlags(args), line)
	}
	assert.Equal(t, 2, examples)
	assert.Equal(t, "720p", recordProfile)
	assert.Equal(t, 3000, recordHoldMs)
	assert.Equal(t, "recordings", recordDir)
}

func TestLayoutMatrixOptions(t *testing.T) {
	t.Cleanup(func() {
		layoutURL, layoutParallelism, layoutScreenshots = "", 0, ""
	})

	cfg := config.Default()
	opts := layoutMatrixOptions(cfg)
	assert.Equal(t, cfg.Quiz.URL, opts.URL)
	assert.Equal(t, 2, opts.Parallelism)
	assert.Equal(t, 2*time.Second, opts.Settle)
	assert.Equal(t, 60.0, opts.Thresholds.MinContainerPct)
	assert.Empty(t, opts.ScreenshotDir)

	layoutURL, layoutParallelism, layoutScreenshots = "http://localhost/q.html", 5, "shots"
	opts = layoutMatrixOptions(cfg)
	assert.Equal(t, "http://localhost/q.html", opts.URL)
	assert.Equal(t, 5, opts.Parallelism)
	assert.Equal(t, "shots", opts.ScreenshotDir)
}

func savedReport(t *testing.T, passed bool) string {
	t.Helper()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rep := &quiz.ScenarioReport{
		RunID:          "run-7",
		TotalQuestions: 1,
		Timings:        quiz.DefaultTimings(),
		StartedAt:      start,
		FinishedAt:     start.Add(26 * time.Second),
		QuestionTexts:  []string{"What does CSS stand for?"},
		Steps: []quiz.StepResult{
			{Question: 1, Phase: quiz.PhaseQuestion, Passed: true, Elapsed: time.Second},
			{Question: 1, Phase: quiz.PhaseExplanation, Passed: true, Elapsed: 15 * time.Second},
			{Question: 1, Phase: quiz.PhaseResults, Passed: passed, Elapsed: 10 * time.Second},
		},
	}
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, report.Save(path, rep))
	return path
}

func TestReportRenderCommand(t *testing.T) {
	path := savedReport(t, true)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	rootCmd.SetArgs([]string{"report", "render", path, "--format", "text", "--check=true"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "run-7")
	assert.Contains(t, out.String(), "What does CSS stand for?")

	out.Reset()
	rootCmd.SetArgs([]string{"report", "render", path, "--format", "yaml", "--check=false"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "run_id: run-7")
}

func TestReportRenderCheckFails(t *testing.T) {
	path := savedReport(t, false)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	rootCmd.SetArgs([]string{"report", "render", path, "--format", "json", "--check=true"})
	assert.ErrorIs(t, rootCmd.Execute(), errChecksFailed)
	assert.Contains(t, out.String(), `"run_id": "run-7"`)

	rootCmd.SetArgs([]string{"report", "render", filepath.Join(t.TempDir(), "missing.json"), "--format", "text", "--check=false"})
	assert.Error(t, rootCmd.Execute())
}
