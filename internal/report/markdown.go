package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/moolen/quizcheck/internal/quiz"
)

// Markdown renders r as a Markdown document.
func Markdown(r *quiz.ScenarioReport) string {
	var b strings.Builder

	verdict := "PASSED"
	if !r.Passed() {
		verdict = "FAILED"
	}
	fmt.Fprintf(&b, "# Quiz run %s\n\n", verdict)
	fmt.Fprintf(&b, "- **Run ID:** `%s`\n", r.RunID)
	if r.URL != "" {
		fmt.Fprintf(&b, "- **URL:** %s\n", r.URL)
	}
	if r.Profile != "" {
		fmt.Fprintf(&b, "- **Profile:** %s\n", r.Profile)
	}
	fmt.Fprintf(&b, "- **Questions:** %d\n", r.TotalQuestions)
	fmt.Fprintf(&b, "- **Duration:** %s\n", r.Duration().Round(time.Millisecond))
	if r.Video != "" {
		fmt.Fprintf(&b, "- **Video:** `%s`\n", r.Video)
	}

	b.WriteString("\n## Steps\n\n")
	b.WriteString("| Question | Phase | Result | Elapsed | Nominal | Drift |\n")
	b.WriteString("|---:|---|---|---:|---:|---:|\n")
	for _, s := range r.Steps {
		result, drift := "ok", signed(s.Drift)
		if !s.Passed {
			result, drift = "**FAIL** ("+s.ErrorKind+")", "-"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
			s.Question, s.Phase, result, s.Elapsed.Round(time.Millisecond), s.Nominal.Round(time.Millisecond), drift)
	}

	if failures := r.Failures(); len(failures) > 0 {
		b.WriteString("\n## Failures\n\n")
		for _, f := range failures {
			fmt.Fprintf(&b, "- Question %d, %s: %s\n", f.Question, f.Phase, escapePipes(f.Error))
			if f.Artifact != "" {
				fmt.Fprintf(&b, "  - artifact: `%s`\n", f.Artifact)
			}
		}
	}
	if r.AbortReason != "" {
		fmt.Fprintf(&b, "\n> **Aborted:** %s\n", r.AbortReason)
	}
	if len(r.QuestionTexts) > 0 {
		b.WriteString("\n## Questions\n\n")
		for i, text := range r.QuestionTexts {
			fmt.Fprintf(&b, "%d. %s\n", i+1, text)
		}
	}
	return b.String()
}

func writeMarkdown(w io.Writer, md string, opts Options) error {
	if !opts.Color {
		_, err := io.WriteString(w, md)
		return err
	}
	out, err := RenderMarkdown(md, glamour.WithAutoStyle(), opts.Width)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// RenderMarkdown renders md for a terminal with the given glamour style.
func RenderMarkdown(md string, style glamour.TermRendererOption, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
