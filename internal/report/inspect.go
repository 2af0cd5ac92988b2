package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/moolen/quizcheck/internal/browser"
	"github.com/moolen/quizcheck/internal/layout"
)

// Inspection is a one-off look at the rendered quiz: window metrics, the
// measured layout and where the screenshot went.
type Inspection struct {
	URL         string             `json:"url" yaml:"url"`
	Profile     string             `json:"profile,omitempty" yaml:"profile,omitempty"`
	Screen      browser.ScreenInfo `json:"screen" yaml:"screen"`
	Measurement layout.Measurement `json:"measurement" yaml:"measurement"`
	Screenshot  string             `json:"screenshot,omitempty" yaml:"screenshot,omitempty"`
}

// WriteInspection renders in as text, JSON or YAML.
func WriteInspection(w io.Writer, in *Inspection, f Format, opts Options) error {
	switch f {
	case FormatText:
		return writeInspectionText(w, in, opts)
	case FormatJSON:
		return writeJSON(w, in)
	case FormatYAML:
		return writeYAML(w, in)
	default:
		return fmt.Errorf("inspection cannot be rendered as %s", f)
	}
}

func writeInspectionText(w io.Writer, in *Inspection, opts Options) error {
	st := newStyles(w, opts.Color)
	m := in.Measurement
	var b strings.Builder

	title := "Screen inspection"
	if in.Profile != "" {
		title += " (" + in.Profile + ")"
	}
	fmt.Fprintln(&b, st.title.Render(title))
	fmt.Fprintf(&b, "%s %s\n", st.muted.Render("url:"), in.URL)

	fmt.Fprintln(&b, st.header.Render("Window"))
	fmt.Fprintf(&b, "  screen       %.0fx%.0f\n", in.Screen.ScreenWidth, in.Screen.ScreenHeight)
	fmt.Fprintf(&b, "  inner        %.0fx%.0f\n", in.Screen.InnerWidth, in.Screen.InnerHeight)
	fmt.Fprintf(&b, "  pixel ratio  %g\n", in.Screen.DevicePixelRatio)

	fmt.Fprintln(&b, st.header.Render("Container"))
	if c := m.Container; c != nil {
		fmt.Fprintf(&b, "  size         %.0fx%.0f at (%.0f, %.0f)\n", c.Width, c.Height, c.X, c.Y)
		fmt.Fprintf(&b, "  viewport     %.1f%% of %dpx\n", m.ContainerPct(), m.Viewport.Width)
	} else {
		fmt.Fprintf(&b, "  %s\n", st.warn.Render("not found"))
	}

	fmt.Fprintln(&b, st.header.Render("Fonts"))
	fmt.Fprintf(&b, "  title        %.1fpx\n", m.TitleFontPx)
	fmt.Fprintf(&b, "  question     %.1fpx\n", m.QuestionFontPx)

	fmt.Fprintln(&b, st.header.Render("Visibility"))
	names := make([]string, 0, len(m.Visible))
	for name := range m.Visible {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		state := st.pass.Render("visible")
		if !m.Visible[name] {
			state = st.fail.Render("hidden")
		}
		fmt.Fprintf(&b, "  %-12s %s\n", name, state)
	}

	if in.Screenshot != "" {
		fmt.Fprintf(&b, "%s %s\n", st.muted.Render("screenshot:"), in.Screenshot)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
