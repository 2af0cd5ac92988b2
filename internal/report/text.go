package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/moolen/quizcheck/internal/quiz"
	"github.com/muesli/termenv"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#00D4FF")
)

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	pass   lipgloss.Style
	fail   lipgloss.Style
	warn   lipgloss.Style
	muted  lipgloss.Style
}

func newStyles(w io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(colorPrimary),
		header: r.NewStyle().Bold(true),
		pass:   r.NewStyle().Foreground(colorSuccess),
		fail:   r.NewStyle().Foreground(colorError).Bold(true),
		warn:   r.NewStyle().Foreground(colorWarning),
		muted:  r.NewStyle().Foreground(colorMuted),
	}
}

func writeText(w io.Writer, r *quiz.ScenarioReport, opts Options) error {
	st := newStyles(w, opts.Color)
	var b strings.Builder

	verdict := st.pass.Render("PASSED")
	if !r.Passed() {
		verdict = st.fail.Render("FAILED")
	}
	fmt.Fprintf(&b, "%s %s %s\n", st.title.Render("Quiz run"), r.RunID, verdict)
	if r.URL != "" {
		fmt.Fprintf(&b, "%s %s\n", st.muted.Render("url:     "), r.URL)
	}
	if r.Profile != "" {
		fmt.Fprintf(&b, "%s %s\n", st.muted.Render("profile: "), r.Profile)
	}
	fmt.Fprintf(&b, "%s %d questions in %s\n\n", st.muted.Render("run:     "), r.TotalQuestions, r.Duration().Round(time.Millisecond))

	fmt.Fprintln(&b, st.header.Render(fmt.Sprintf("%-3s %-12s %-7s %10s %10s %10s", "Q", "PHASE", "RESULT", "ELAPSED", "NOMINAL", "DRIFT")))
	for _, s := range r.Steps {
		result := st.pass.Render(fmt.Sprintf("%-7s", "ok"))
		drift := signed(s.Drift)
		if !s.Passed {
			result = st.fail.Render(fmt.Sprintf("%-7s", "FAIL"))
			drift = "-"
		}
		fmt.Fprintf(&b, "%-3d %-12s %s %10s %10s %10s\n",
			s.Question, s.Phase, result,
			s.Elapsed.Round(time.Millisecond), s.Nominal.Round(time.Millisecond), drift)
	}

	if failures := r.Failures(); len(failures) > 0 {
		fmt.Fprintf(&b, "\n%s\n", st.fail.Render("Failures:"))
		for _, f := range failures {
			fmt.Fprintf(&b, "  question %d %s [%s]: %s\n", f.Question, f.Phase, f.ErrorKind, f.Error)
			if f.Artifact != "" {
				fmt.Fprintf(&b, "    %s %s\n", st.muted.Render("artifact:"), f.Artifact)
			}
		}
	}
	if r.AbortReason != "" {
		fmt.Fprintf(&b, "\n%s %s\n", st.fail.Render("Aborted:"), r.AbortReason)
	}
	if len(r.QuestionTexts) > 0 {
		fmt.Fprintf(&b, "\n%s\n", st.header.Render("Questions:"))
		for i, text := range r.QuestionTexts {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, text)
		}
	}
	if r.Video != "" {
		fmt.Fprintf(&b, "\n%s %s\n", st.muted.Render("video:"), r.Video)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func signed(d time.Duration) string {
	d = d.Round(time.Millisecond)
	if d >= 0 {
		return "+" + d.String()
	}
	return d.String()
}
