package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/moolen/quizcheck/internal/layout"
)

// WriteLayout renders layout matrix results.
func WriteLayout(w io.Writer, results []layout.Result, f Format, opts Options) error {
	switch f {
	case FormatText:
		return writeLayoutText(w, results, opts)
	case FormatJSON:
		return writeJSON(w, results)
	case FormatYAML:
		return writeYAML(w, results)
	case FormatMarkdown:
		return writeMarkdown(w, LayoutMarkdown(results), opts)
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
}

func writeLayoutText(w io.Writer, results []layout.Result, opts Options) error {
	st := newStyles(w, opts.Color)
	var b strings.Builder

	fmt.Fprintln(&b, st.header.Render(fmt.Sprintf("%-10s %-11s %-7s %10s %9s %12s", "PROFILE", "VIEWPORT", "RESULT", "CONTAINER", "TITLE", "QUESTION")))
	for _, r := range results {
		m := r.Measurement
		result := st.pass.Render(fmt.Sprintf("%-7s", "ok"))
		if !r.Passed() {
			result = st.fail.Render(fmt.Sprintf("%-7s", "FAIL"))
		}
		fmt.Fprintf(&b, "%-10s %-11s %s %9.1f%% %7.1fpx %10.1fpx\n",
			r.Profile, fmt.Sprintf("%dx%d", m.Viewport.Width, m.Viewport.Height), result,
			m.ContainerPct(), m.TitleFontPx, m.QuestionFontPx)
		if r.Error != "" {
			fmt.Fprintf(&b, "  %s %s\n", st.fail.Render("error:"), r.Error)
		}
		for _, f := range r.Findings {
			style := st.fail
			if f.Severity == layout.SeverityWarning {
				style = st.warn
			}
			fmt.Fprintf(&b, "  %s %s: %s\n", style.Render(string(f.Severity)), f.Rule, f.Message)
		}
		if r.Screenshot != "" {
			fmt.Fprintf(&b, "  %s %s\n", st.muted.Render("screenshot:"), r.Screenshot)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// LayoutMarkdown renders layout results as a Markdown table with findings.
func LayoutMarkdown(results []layout.Result) string {
	var b strings.Builder
	b.WriteString("# Responsive layout\n\n")
	b.WriteString("| Profile | Viewport | Result | Container | Title font | Question font |\n")
	b.WriteString("|---|---|---|---:|---:|---:|\n")
	for _, r := range results {
		m := r.Measurement
		result := "ok"
		if !r.Passed() {
			result = "**FAIL**"
		}
		fmt.Fprintf(&b, "| %s | %dx%d | %s | %.1f%% | %.1fpx | %.1fpx |\n",
			r.Profile, m.Viewport.Width, m.Viewport.Height, result, m.ContainerPct(), m.TitleFontPx, m.QuestionFontPx)
	}

	var details []string
	for _, r := range results {
		if r.Error != "" {
			details = append(details, fmt.Sprintf("- **%s** error: %s", r.Profile, escapePipes(r.Error)))
		}
		for _, f := range r.Findings {
			details = append(details, fmt.Sprintf("- **%s** %s `%s`: %s", r.Profile, f.Severity, f.Rule, f.Message))
		}
	}
	if len(details) > 0 {
		b.WriteString("\n## Findings\n\n")
		b.WriteString(strings.Join(details, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}
