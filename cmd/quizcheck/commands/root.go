package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/moolen/quizcheck/internal/config"
	"github.com/moolen/quizcheck/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const Version = "0.1.0"

var (
	logLevelFlags []string // Supports multiple --log-level flags
	configPath    string
)

// errChecksFailed is returned when the run completed but verification did
// not pass; the details have already been printed.
var errChecksFailed = errors.New("quiz checks failed")

var rootCmd = &cobra.Command{
	Use:   "quizcheck",
	Short: "quizcheck - verify a timed quiz page in a real browser",
	Long: `quizcheck drives headless Chromium through a timed quiz page and verifies
that every question, explanation and transition appears in order and on time.
It can also record the quiz as a video and check its responsive layout.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLog(logLevelFlags)
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errChecksFailed) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	// Supports per-package log levels: --log-level debug --log-level quiz.waiter=debug
	rootCmd.PersistentFlags().StringSliceVar(&logLevelFlags, "log-level",
		[]string{"info"},
		"Log level for packages. Use 'default=level' for default, or 'package.name=level' for per-package.\n"+
			"Examples: --log-level debug (all), --log-level quiz.waiter=debug --log-level quizhost=warn")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to the quizcheck YAML config (defaults are used when empty)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(reportCmd)
}

// setupLog initializes the logging system with parsed log level flags
// Priority: CLI flags > Environment variables > Initialize default
func setupLog(flags []string) error {
	defaultLevel, packageLevels, err := parseLogLevelFlags(flags)
	if err != nil {
		return err
	}
	return logging.Initialize(defaultLevel, packageLevels)
}

// loadConfig loads --config and lets its log_level take over as the default
// level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := applyConfigLogLevel(cmd.Flags(), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyConfigLogLevel re-initializes logging with cfg.LogLevel as the default
// level. An explicit --log-level wins; LOG_LEVEL_* package overrides still
// apply on top.
func applyConfigLogLevel(flags *pflag.FlagSet, cfg *config.Config) error {
	if cfg.LogLevel == "" || flags.Changed("log-level") {
		return nil
	}
	return setupLog([]string{cfg.LogLevel})
}

// parseLogLevelFlags parses CLI flags and environment variables
// Priority: CLI flags > Environment variables
//
// CLI format: ["debug"], ["default=info", "quiz.waiter=debug"], or ["info"]
// Env vars: LOG_LEVEL_QUIZ_WAITER=debug (package name uppercased, dots to underscores)
//
// Returns: (defaultLevel, packageLevels map, error)
func parseLogLevelFlags(flags []string) (string, map[string]string, error) {
	result := make(map[string]string)

	for _, envPair := range os.Environ() {
		if !strings.HasPrefix(envPair, "LOG_LEVEL_") {
			continue
		}
		key, level, ok := strings.Cut(envPair, "=")
		if !ok {
			continue
		}
		result[convertEnvKeyToPackageName(key)] = level
	}

	for _, flag := range flags {
		pkg, level, ok := strings.Cut(flag, "=")
		if !ok {
			// "debug" alone sets the default level
			result["default"] = flag
			continue
		}
		result[pkg] = level
	}

	defaultLevel := "info"
	if level, exists := result["default"]; exists {
		defaultLevel = level
		delete(result, "default")
	}

	if err := validateLogLevel(defaultLevel); err != nil {
		return "", nil, err
	}
	for pkg, level := range result {
		if err := validateLogLevel(level); err != nil {
			return "", nil, fmt.Errorf("invalid log level for package %q: %v", pkg, err)
		}
	}

	return defaultLevel, result, nil
}

// convertEnvKeyToPackageName converts LOG_LEVEL_QUIZ_WAITER -> quiz.waiter
func convertEnvKeyToPackageName(envKey string) string {
	name := strings.TrimPrefix(envKey, "LOG_LEVEL_")
	return strings.ToLower(strings.ReplaceAll(name, "_", "."))
}

// validateLogLevel checks if a level string is valid
func validateLogLevel(level string) error {
	if !logging.ValidLevel(level) {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error, fatal)", level)
	}
	return nil
}
