package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/moolen/quizcheck/internal/browser"
	"github.com/moolen/quizcheck/internal/config"
	"github.com/moolen/quizcheck/internal/layout"
	"github.com/moolen/quizcheck/internal/quiz"
)

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func quizTimings(q config.QuizConfig) quiz.Timings {
	return quiz.Timings{
		Timer:            ms(q.TimerDurationMs),
		Explanation:      ms(q.ExplanationDurationMs),
		TransitionBuffer: ms(q.TransitionBufferMs),
		PollInterval:     ms(q.PollIntervalMs),
		Margin:           ms(q.TimeoutMarginMs),
	}
}

func quizSelectors(s config.SelectorConfig) quiz.Selectors {
	return quiz.Selectors{
		QuestionText:     s.QuestionText,
		ContentWrapper:   s.ContentWrapper,
		QuestionCounter:  s.QuestionCounter,
		ResultContainer:  s.ResultContainer,
		ExplanationClass: s.ExplanationClass,
		ShownClass:       s.ShownClass,
	}
}

func layoutSelectors(s config.SelectorConfig) layout.Selectors {
	return layout.Selectors{
		Container: s.Container,
		Title:     s.Title,
		Timer:     s.Timer,
		Counter:   s.CounterLabel,
		Question:  s.QuestionBlock,
	}
}

func layoutThresholds(l config.LayoutConfig) layout.Thresholds {
	return layout.Thresholds{
		MinContainerPct:         l.MinContainerPct,
		LargeWidth:              l.LargeWidth,
		UHDWidth:                l.UHDWidth,
		UHDMinTitlePx:           l.UHDMinTitlePx,
		UHDMinQuestionPx:        l.UHDMinQuestionPx,
		CompactWidth:            l.CompactWidth,
		CompactMaxTitlePx:       l.CompactMaxTitlePx,
		CompactMaxQuestionPx:    l.CompactMaxQuestionPx,
		MinCounterTimerGapPx:    l.MinCounterTimerGapPx,
		TitleOverlapTolerancePx: l.TitleOverlapTolerancePx,
	}
}

func browserOptions(b config.BrowserConfig) browser.Options {
	return browser.Options{
		Headless:        b.Headless,
		SlowMo:          ms(b.SlowMoMs),
		Viewport:        browser.Viewport{Width: b.Viewport.Width, Height: b.Viewport.Height},
		ActionTimeout:   ms(b.ActionTimeoutMs),
		NavigateTimeout: ms(b.NavigateTimeoutMs),
		InstallDriver:   b.InstallDriver,
	}
}

// videoOptions returns nil when recording is off.
func videoOptions(v config.VideoConfig) *browser.VideoOptions {
	if !v.Enabled {
		return nil
	}
	return &browser.VideoOptions{Dir: v.Dir, Width: v.Width, Height: v.Height}
}

func viewportOf(p config.ProfileConfig) browser.Viewport {
	return browser.Viewport{Width: p.Width, Height: p.Height}
}

// layoutProfiles resolves names against the configured profiles. No names
// selects every profile.
func layoutProfiles(cfg *config.Config, names []string) ([]layout.Profile, error) {
	if len(names) == 0 {
		out := make([]layout.Profile, 0, len(cfg.Profiles))
		for _, p := range cfg.Profiles {
			out = append(out, layout.Profile{Name: p.Name, Viewport: viewportOf(p)})
		}
		return out, nil
	}

	out := make([]layout.Profile, 0, len(names))
	for _, name := range names {
		p, ok := cfg.Profile(strings.TrimSpace(name))
		if !ok {
			return nil, unknownProfile(cfg, name)
		}
		out = append(out, layout.Profile{Name: p.Name, Viewport: viewportOf(p)})
	}
	return out, nil
}

func profileNames(cfg *config.Config) string {
	names := make([]string, 0, len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

func unknownProfile(cfg *config.Config, name string) error {
	return fmt.Errorf("unknown profile %q (known: %s)", name, profileNames(cfg))
}
