// Package layout measures the quiz at different viewport sizes and checks the
// responsive layout rules.
package layout

import (
	"fmt"

	"github.com/moolen/quizcheck/internal/browser"
)

// Severity of a finding.
type Severity string

const (
	SeverityViolation Severity = "violation"
	SeverityWarning   Severity = "warning"
)

// Finding is one rule outcome.
type Finding struct {
	Rule     string   `json:"rule" yaml:"rule"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
}

// Thresholds tune the rules. Widths are viewport widths in CSS pixels.
type Thresholds struct {
	MinContainerPct         float64
	LargeWidth              int
	UHDWidth                int
	UHDMinTitlePx           float64
	UHDMinQuestionPx        float64
	CompactWidth            int
	CompactMaxTitlePx       float64
	CompactMaxQuestionPx    float64
	MinCounterTimerGapPx    float64
	TitleOverlapTolerancePx float64
}

// DefaultThresholds match the quiz's design targets.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinContainerPct:         60,
		LargeWidth:              1920,
		UHDWidth:                3840,
		UHDMinTitlePx:           30,
		UHDMinQuestionPx:        35,
		CompactWidth:            768,
		CompactMaxTitlePx:       35,
		CompactMaxQuestionPx:    40,
		MinCounterTimerGapPx:    50,
		TitleOverlapTolerancePx: 10,
	}
}

// Measurement is everything read from one page at one viewport.
type Measurement struct {
	Viewport       browser.Viewport `json:"viewport" yaml:"viewport"`
	Visible        map[string]bool  `json:"visible" yaml:"visible"`
	Container      *browser.Box     `json:"container,omitempty" yaml:"container,omitempty"`
	Title          *browser.Box     `json:"title,omitempty" yaml:"title,omitempty"`
	Timer          *browser.Box     `json:"timer,omitempty" yaml:"timer,omitempty"`
	Counter        *browser.Box     `json:"counter,omitempty" yaml:"counter,omitempty"`
	Question       *browser.Box     `json:"question,omitempty" yaml:"question,omitempty"`
	TitleFontPx    float64          `json:"title_font_px" yaml:"title_font_px"`
	QuestionFontPx float64          `json:"question_font_px" yaml:"question_font_px"`
}

// ContainerPct is the container width as a percentage of the viewport.
func (m Measurement) ContainerPct() float64 {
	if m.Container == nil || m.Viewport.Width == 0 {
		return 0
	}
	return m.Container.Width / float64(m.Viewport.Width) * 100
}

// Check applies every rule to m.
func Check(m Measurement, th Thresholds) []Finding {
	var findings []Finding
	violate := func(rule, format string, args ...interface{}) {
		findings = append(findings, Finding{Rule: rule, Severity: SeverityViolation, Message: fmt.Sprintf(format, args...)})
	}
	warn := func(rule, format string, args ...interface{}) {
		findings = append(findings, Finding{Rule: rule, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
	}

	for _, name := range elementNames {
		if !m.Visible[name] {
			violate("visible", "%s is not visible", name)
		}
	}

	width := m.Viewport.Width
	if m.Container != nil {
		if m.Container.Width > float64(width) {
			violate("container-fits", "container width %.0fpx exceeds viewport %dpx", m.Container.Width, width)
		}
		if m.Container.X < 0 || m.Container.Right() > float64(width) {
			warn("container-overflow", "container spans %.0f..%.0fpx outside the %dpx viewport", m.Container.X, m.Container.Right(), width)
		}
		if width >= th.LargeWidth && m.ContainerPct() <= th.MinContainerPct {
			violate("container-share", "container uses %.1f%% of the viewport, want more than %.0f%%", m.ContainerPct(), th.MinContainerPct)
		}
	}

	if width >= th.UHDWidth {
		if m.TitleFontPx <= th.UHDMinTitlePx {
			violate("uhd-title-font", "title font %.1fpx, want more than %.0fpx", m.TitleFontPx, th.UHDMinTitlePx)
		}
		if m.QuestionFontPx <= th.UHDMinQuestionPx {
			violate("uhd-question-font", "question font %.1fpx, want more than %.0fpx", m.QuestionFontPx, th.UHDMinQuestionPx)
		}
	}
	if width <= th.CompactWidth {
		if m.TitleFontPx >= th.CompactMaxTitlePx {
			violate("compact-title-font", "title font %.1fpx, want less than %.0fpx", m.TitleFontPx, th.CompactMaxTitlePx)
		}
		if m.QuestionFontPx >= th.CompactMaxQuestionPx {
			violate("compact-question-font", "question font %.1fpx, want less than %.0fpx", m.QuestionFontPx, th.CompactMaxQuestionPx)
		}
	}

	if m.Counter != nil && m.Timer != nil && m.Counter.Right() >= m.Timer.X-th.MinCounterTimerGapPx {
		violate("counter-timer-gap", "counter ends at %.0fpx, timer starts at %.0fpx; need a %.0fpx gap",
			m.Counter.Right(), m.Timer.X, th.MinCounterTimerGapPx)
	}
	if m.Title != nil {
		limit := m.Title.Bottom() - th.TitleOverlapTolerancePx
		if m.Timer != nil && m.Timer.Y <= limit {
			violate("title-overlap", "timer top %.0fpx overlaps title bottom %.0fpx", m.Timer.Y, m.Title.Bottom())
		}
		if m.Counter != nil && m.Counter.Y <= limit {
			violate("title-overlap", "counter top %.0fpx overlaps title bottom %.0fpx", m.Counter.Y, m.Title.Bottom())
		}
	}
	return findings
}

// Element names used in Measurement.Visible.
const (
	ElementContainer = "container"
	ElementTitle     = "title"
	ElementTimer     = "timer"
	ElementCounter   = "counter"
	ElementQuestion  = "question"
)

var elementNames = []string{ElementContainer, ElementTitle, ElementTimer, ElementCounter, ElementQuestion}

// Violations filters findings down to violations.
func Violations(findings []Finding) []Finding {
	return filter(findings, SeverityViolation)
}

// Warnings filters findings down to warnings.
func Warnings(findings []Finding) []Finding {
	return filter(findings, SeverityWarning)
}

func filter(findings []Finding, sev Severity) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}
