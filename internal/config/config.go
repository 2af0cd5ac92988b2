package config

import (
	"fmt"
	"strings"

	"github.com/moolen/quizcheck/internal/logging"
)

// Config holds all configuration for quizcheck
type Config struct {
	// LogLevel is the default logging level (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	Quiz      QuizConfig      `yaml:"quiz"`
	Selectors SelectorConfig  `yaml:"selectors"`
	Browser   BrowserConfig   `yaml:"browser"`
	Server    ServerConfig    `yaml:"server"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Layout    LayoutConfig    `yaml:"layout"`
	Record    RecordConfig    `yaml:"record"`
	Profiles  []ProfileConfig `yaml:"profiles"`
}

// QuizConfig describes the quiz under test and its expected timing.
type QuizConfig struct {
	// URL is the page the browser navigates to
	URL string `yaml:"url"`

	TotalQuestions        int `yaml:"total_questions"`
	TimerDurationMs       int `yaml:"timer_duration_ms"`
	ExplanationDurationMs int `yaml:"explanation_duration_ms"`
	TransitionBufferMs    int `yaml:"transition_buffer_ms"`

	// PollIntervalMs is how often the waiter re-reads the page
	PollIntervalMs int `yaml:"poll_interval_ms"`

	// TimeoutMarginMs is added on top of each nominal phase duration
	TimeoutMarginMs int `yaml:"timeout_margin_ms"`

	// RunTimeoutMs bounds one full scenario
	RunTimeoutMs int `yaml:"run_timeout_ms"`

	// LoadingSentinel is the placeholder text shown before a question loads
	LoadingSentinel string `yaml:"loading_sentinel"`
}

// SelectorConfig names the DOM elements the verifier reads.
type SelectorConfig struct {
	QuestionText     string `yaml:"question_text"`
	ContentWrapper   string `yaml:"content_wrapper"`
	QuestionCounter  string `yaml:"question_counter"`
	ResultContainer  string `yaml:"result_container"`
	ExplanationClass string `yaml:"explanation_class"`
	ShownClass       string `yaml:"shown_class"`

	// Layout elements
	Container       string `yaml:"container"`
	Title           string `yaml:"title"`
	Timer           string `yaml:"timer"`
	CounterLabel    string `yaml:"counter_label"`
	QuestionBlock   string `yaml:"question_block"`
	QuestionSection string `yaml:"question_section"`
}

// BrowserConfig controls the Playwright browser.
type BrowserConfig struct {
	Headless          bool           `yaml:"headless"`
	SlowMoMs          int            `yaml:"slow_mo_ms"`
	Viewport          ViewportConfig `yaml:"viewport"`
	ActionTimeoutMs   int            `yaml:"action_timeout_ms"`
	NavigateTimeoutMs int            `yaml:"navigate_timeout_ms"`

	// ArtifactsDir receives screenshots captured on failed steps
	ArtifactsDir           string `yaml:"artifacts_dir"`
	ScreenshotEachQuestion bool   `yaml:"screenshot_each_question"`

	// InstallDriver installs the Playwright driver and Chromium when missing
	InstallDriver bool `yaml:"install_driver"`

	Video VideoConfig `yaml:"video"`
}

// ViewportConfig is a width/height pair in CSS pixels.
type ViewportConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// VideoConfig enables Playwright video recording for a browser context.
type VideoConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
}

// ServerConfig controls the built-in static host for the quiz page.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Root    string `yaml:"root"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`

	// ReuseExisting skips starting the host when the port already answers
	ReuseExisting bool `yaml:"reuse_existing"`
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	TLSCAPath   string `yaml:"tls_ca_path"`
	TLSInsecure bool   `yaml:"tls_insecure"`
}

// MetricsConfig toggles Prometheus metrics on the quiz host.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LayoutConfig holds the responsive layout thresholds.
type LayoutConfig struct {
	// Profiles restricts the matrix to these profile names; empty means all
	Profiles    []string `yaml:"profiles"`
	Parallelism int      `yaml:"parallelism"`

	// SettleMs is how long a page renders before it is measured
	SettleMs int `yaml:"settle_ms"`

	// ScreenshotDir receives one screenshot per profile; empty disables them
	ScreenshotDir string `yaml:"screenshot_dir"`

	MinContainerPct         float64 `yaml:"min_container_pct"`
	LargeWidth              int     `yaml:"large_width"`
	UHDWidth                int     `yaml:"uhd_width"`
	UHDMinTitlePx           float64 `yaml:"uhd_min_title_px"`
	UHDMinQuestionPx        float64 `yaml:"uhd_min_question_px"`
	CompactWidth            int     `yaml:"compact_width"`
	CompactMaxTitlePx       float64 `yaml:"compact_max_title_px"`
	CompactMaxQuestionPx    float64 `yaml:"compact_max_question_px"`
	MinCounterTimerGapPx    float64 `yaml:"min_counter_timer_gap_px"`
	TitleOverlapTolerancePx float64 `yaml:"title_overlap_tolerance_px"`
}

// RecordConfig controls `quizcheck record`.
type RecordConfig struct {
	Profile       string `yaml:"profile"`
	ResultsHoldMs int    `yaml:"results_hold_ms"`
	Dir           string `yaml:"dir"`
}

// ProfileConfig is a named screen resolution.
type ProfileConfig struct {
	Name     string `yaml:"name"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	SlowMoMs int    `yaml:"slow_mo_ms"`
}

// Default returns the configuration matching the quiz as it ships: five
// questions, a 15s timer and a 10s explanation.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Quiz: QuizConfig{
			URL:                   "http://127.0.0.1:9090/src/quiz.html",
			TotalQuestions:        5,
			TimerDurationMs:       15000,
			ExplanationDurationMs: 10000,
			TransitionBufferMs:    2000,
			PollIntervalMs:        200,
			TimeoutMarginMs:       3000,
			RunTimeoutMs:          180000,
			LoadingSentinel:       "Loading question...",
		},
		Selectors: SelectorConfig{
			QuestionText:     "#questionText",
			ContentWrapper:   "#contentWrapper",
			QuestionCounter:  "#questionCounter",
			ResultContainer:  "#resultContainer",
			ExplanationClass: "show-explanation",
			ShownClass:       "show",
			Container:        ".quiz-container",
			Title:            ".quiz-title",
			Timer:            ".timer",
			CounterLabel:     ".question-counter",
			QuestionBlock:    ".question-text",
			QuestionSection:  ".question-section",
		},
		Browser: BrowserConfig{
			Headless:          true,
			Viewport:          ViewportConfig{Width: 1280, Height: 720},
			ActionTimeoutMs:   1000,
			NavigateTimeoutMs: 30000,
			ArtifactsDir:      "debug-artifacts",
			Video: VideoConfig{
				Dir: "test-results",
			},
		},
		Server: ServerConfig{
			Enabled:       true,
			Root:          ".",
			Host:          "127.0.0.1",
			Port:          9090,
			ReuseExisting: true,
		},
		Layout: LayoutConfig{
			Parallelism:             2,
			SettleMs:                2000,
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
		},
		Record: RecordConfig{
			Profile:       "720p",
			ResultsHoldMs: 5000,
			Dir:           "test-results",
		},
		Profiles: DefaultProfiles(),
	}
}

// DefaultProfiles returns the resolutions the quiz is checked and recorded at.
func DefaultProfiles() []ProfileConfig {
	return []ProfileConfig{
		{Name: "720p", Width: 1280, Height: 720},
		{Name: "1080p", Width: 1920, Height: 1080},
		{Name: "1440p", Width: 2560, Height: 1440},
		{Name: "4K", Width: 3840, Height: 2160, SlowMoMs: 100},
		{Name: "Mobile", Width: 375, Height: 667},
		{Name: "Tablet", Width: 768, Height: 1024},
	}
}

// Profile looks up a profile by case-insensitive name.
func (c *Config) Profile(name string) (ProfileConfig, bool) {
	for _, p := range c.Profiles {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return ProfileConfig{}, false
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.LogLevel != "" && !logging.ValidLevel(c.LogLevel) {
		return NewConfigError(fmt.Sprintf("log_level: invalid level %q", c.LogLevel))
	}

	q := c.Quiz
	if q.URL == "" {
		return NewConfigError("quiz.url must not be empty")
	}
	if q.TotalQuestions < 1 {
		return NewConfigError("quiz.total_questions must be at least 1")
	}
	if q.TimerDurationMs < 1 || q.ExplanationDurationMs < 1 {
		return NewConfigError("quiz.timer_duration_ms and quiz.explanation_duration_ms must be positive")
	}
	if q.TransitionBufferMs < 0 || q.TimeoutMarginMs < 0 {
		return NewConfigError("quiz.transition_buffer_ms and quiz.timeout_margin_ms must not be negative")
	}
	if q.PollIntervalMs < 1 {
		return NewConfigError("quiz.poll_interval_ms must be at least 1")
	}
	if q.RunTimeoutMs < 1 {
		return NewConfigError("quiz.run_timeout_ms must be at least 1")
	}

	s := c.Selectors
	for name, v := range map[string]string{
		"selectors.question_text":     s.QuestionText,
		"selectors.content_wrapper":   s.ContentWrapper,
		"selectors.question_counter":  s.QuestionCounter,
		"selectors.result_container":  s.ResultContainer,
		"selectors.explanation_class": s.ExplanationClass,
		"selectors.shown_class":       s.ShownClass,
	} {
		if strings.TrimSpace(v) == "" {
			return NewConfigError(name + " must not be empty")
		}
	}

	if c.Browser.Viewport.Width < 1 || c.Browser.Viewport.Height < 1 {
		return NewConfigError("browser.viewport must have positive width and height")
	}
	if c.Browser.SlowMoMs < 0 {
		return NewConfigError("browser.slow_mo_ms must not be negative")
	}
	if c.Browser.Video.Enabled && c.Browser.Video.Dir == "" {
		return NewConfigError("browser.video.dir must be set when video is enabled")
	}

	if c.Server.Enabled && (c.Server.Port < 1 || c.Server.Port > 65535) {
		return NewConfigError("server.port must be between 1 and 65535")
	}
	if c.Server.Enabled && c.Server.Root == "" {
		return NewConfigError("server.root must not be empty when the server is enabled")
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return NewConfigError("tracing.endpoint must be set when tracing is enabled")
	}

	if c.Layout.Parallelism < 1 {
		return NewConfigError("layout.parallelism must be at least 1")
	}
	if c.Layout.SettleMs < 0 {
		return NewConfigError("layout.settle_ms must not be negative")
	}

	seen := make(map[string]bool, len(c.Profiles))
	for i, p := range c.Profiles {
		key := strings.ToLower(p.Name)
		if key == "" {
			return NewConfigError(fmt.Sprintf("profiles[%d]: name must not be empty", i))
		}
		if seen[key] {
			return NewConfigError(fmt.Sprintf("profiles[%d]: duplicate profile name %q", i, p.Name))
		}
		seen[key] = true
		if p.Width < 1 || p.Height < 1 {
			return NewConfigError(fmt.Sprintf("profiles[%d]: width and height must be positive", i))
		}
	}
	for _, name := range c.Layout.Profiles {
		if !seen[strings.ToLower(name)] {
			return NewConfigError(fmt.Sprintf("layout.profiles: unknown profile %q", name))
		}
	}
	if c.Record.Profile != "" && !seen[strings.ToLower(c.Record.Profile)] {
		return NewConfigError(fmt.Sprintf("record.profile: unknown profile %q", c.Record.Profile))
	}
	if c.Record.ResultsHoldMs < 0 {
		return NewConfigError("record.results_hold_ms must not be negative")
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}
