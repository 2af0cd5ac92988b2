// Package report renders scenario reports and layout results as text, JSON,
// YAML or Markdown, and reads saved reports back.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/moolen/quizcheck/internal/quiz"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Format is an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML, FormatMarkdown}
}

// ParseFormat parses a format name; "md" and "yml" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want one of %v)", s, Formats())
	}
}

// FormatForPath picks a format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".txt", ".log":
		return FormatText, nil
	default:
		return "", fmt.Errorf("cannot infer report format from %q", path)
	}
}

// Options control rendering.
type Options struct {
	// Color enables ANSI styling for text and glamour rendering for Markdown.
	Color bool
	// Width wraps rendered Markdown; zero means 80.
	Width int
}

// OptionsFor returns options suited to f: color and terminal width when f is
// a terminal and NO_COLOR is unset.
func OptionsFor(f *os.File) Options {
	opts := Options{Width: 80}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return opts
	}
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		opts.Width = w
	}
	_, noColor := os.LookupEnv("NO_COLOR")
	opts.Color = !noColor
	return opts
}

// Write renders r to w.
func Write(w io.Writer, r *quiz.ScenarioReport, f Format, opts Options) error {
	switch f {
	case FormatText:
		return writeText(w, r, opts)
	case FormatJSON:
		return writeJSON(w, r)
	case FormatYAML:
		return writeYAML(w, r)
	case FormatMarkdown:
		return writeMarkdown(w, Markdown(r), opts)
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
}

// Save writes r to path in the format implied by its extension.
func Save(path string, r *quiz.ScenarioReport) error {
	f, err := FormatForPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := Write(file, r, f, Options{}); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// Load reads a report saved as JSON or YAML.
func Load(path string) (*quiz.ScenarioReport, error) {
	f, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var r quiz.ScenarioReport
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &r)
	case FormatYAML:
		err = yaml.Unmarshal(data, &r)
	default:
		return nil, fmt.Errorf("cannot load %s reports, only json and yaml", f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse report %q: %w", path, err)
	}
	return &r, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}
