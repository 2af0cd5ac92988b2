// Package logging provides the leveled, structured logger used across quizcheck.
//
// Initialize the logger once at startup and ask for named loggers per component:
//
//	logging.Initialize("info", map[string]string{"quiz.*": "debug"})
//	logger := logging.GetLogger("quiz.runner")
//	logger.Info("question %d reached", 3)
//	logger.InfoWithFields("phase reached",
//	    logging.Field("phase", "explanation"),
//	    logging.Field("elapsed_ms", 15012),
//	)
//
// Loggers are immutable: WithField, WithFields and WithContext return copies,
// so a logger can be shared between goroutines without coordination.
//
// Per-package levels match exact names ("quiz.runner") or wildcard prefixes
// ("quiz.*"); the most specific pattern wins.
//
// Set LOG_TIMESTAMP to pin timestamps in tests.
package logging

import (
	"context"
	"os"
	"strings"
	"sync"
)

const rootLoggerName = "quizcheck"

var (
	globalLogger *Logger
	initOnce     sync.Once
	// exitFunc is called by Fatal. Tests replace it.
	exitFunc = os.Exit
)

// Initialize sets the default level and optional per-package overrides.
// Unknown default levels fall back to INFO.
func Initialize(levelStr string, packageLevels ...map[string]string) error {
	level, err := parseLevel(levelStr)
	if err != nil {
		level = INFO
	}

	globalLogger = &Logger{
		level: level,
		name:  rootLoggerName,
	}

	if len(packageLevels) > 0 && packageLevels[0] != nil {
		if err := SetPackageLogLevels(packageLevels[0]); err != nil {
			return err
		}
	}
	return nil
}

// GetLogger returns a logger with the given component name.
func GetLogger(name string) *Logger {
	initOnce.Do(func() {
		if globalLogger == nil {
			_ = Initialize("info")
		}
	})
	return &Logger{
		level:  globalLogger.level,
		name:   name,
		fields: make(map[string]interface{}),
	}
}

func (l *Logger) shouldLog(level LogLevel) bool {
	if pkgLevel := GetPackageLogLevel(l.name); pkgLevel >= 0 {
		return level >= pkgLevel
	}
	return level >= l.level
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.shouldLog(DEBUG) {
		l.logf(DEBUG, msg, args...)
	}
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.shouldLog(INFO) {
		l.logf(INFO, msg, args...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.shouldLog(WARN) {
		l.logf(WARN, msg, args...)
	}
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.shouldLog(ERROR) {
		l.logf(ERROR, msg, args...)
	}
}

// Fatal logs and exits the process with code 1.
func (l *Logger) Fatal(msg string, args ...interface{}) {
	if l.shouldLog(FATAL) {
		l.logf(FATAL, msg, args...)
		exitFunc(1)
	}
}

// ErrorWithErr logs msg followed by err.
func (l *Logger) ErrorWithErr(msg string, err error, args ...interface{}) {
	if l.shouldLog(ERROR) {
		args = append(args, err)
		l.logf(ERROR, msg+" - %v", args...)
	}
}

// DebugWithFields logs a debug message with structured fields
func (l *Logger) DebugWithFields(msg string, fields ...LogField) {
	if l.shouldLog(DEBUG) {
		l.logWithFields(DEBUG, msg, fields...)
	}
}

// InfoWithFields logs an info message with structured fields
func (l *Logger) InfoWithFields(msg string, fields ...LogField) {
	if l.shouldLog(INFO) {
		l.logWithFields(INFO, msg, fields...)
	}
}

// WarnWithFields logs a warning message with structured fields
func (l *Logger) WarnWithFields(msg string, fields ...LogField) {
	if l.shouldLog(WARN) {
		l.logWithFields(WARN, msg, fields...)
	}
}

// ErrorWithFields logs an error message with structured fields
func (l *Logger) ErrorWithFields(msg string, fields ...LogField) {
	if l.shouldLog(ERROR) {
		l.logWithFields(ERROR, msg, fields...)
	}
}

// WithName returns a copy of the logger under a different component name.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		level:  l.level,
		name:   name,
		fields: make(map[string]interface{}),
		ctx:    l.ctx,
	}
}

// WithField returns a copy of the logger carrying key=value on every line.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(Field(key, value))
}

// WithFields returns a copy of the logger carrying the given fields.
func (l *Logger) WithFields(fields ...LogField) *Logger {
	next := &Logger{
		level:  l.level,
		name:   l.name,
		fields: cloneFields(l.fields),
		ctx:    l.ctx,
	}
	for _, f := range fields {
		next.fields[f.Key] = f.Value
	}
	return next
}

// WithContext returns a copy of the logger that adds trace_id and span_id from
// ctx to every line.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{
		level:  l.level,
		name:   l.name,
		fields: cloneFields(l.fields),
		ctx:    ctx,
	}
}

// Name returns the component name.
func (l *Logger) Name() string {
	return l.name
}

// logWithFields merges context, persistent and call-site fields (last wins).
func (l *Logger) logWithFields(level LogLevel, msg string, fields ...LogField) {
	merged := l.mergedFields()
	if len(fields) > 0 && merged == nil {
		merged = make(map[string]interface{}, len(fields))
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	l.writeLog(level, msg, merged)
}

func (l *Logger) mergedFields() map[string]interface{} {
	contextFields := extractContextFields(l.ctx)
	if contextFields == nil && len(l.fields) == 0 {
		return nil
	}
	merged := make(map[string]interface{}, len(contextFields)+len(l.fields))
	for k, v := range contextFields {
		merged[k] = v
	}
	for k, v := range l.fields {
		merged[k] = v
	}
	return merged
}

func cloneFields(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// levelFromString is used by the CLI to validate flags.
func levelFromString(s string) (LogLevel, bool) {
	level, err := parseLevel(strings.TrimSpace(s))
	return level, err == nil
}

// ValidLevel reports whether s names a log level.
func ValidLevel(s string) bool {
	_, ok := levelFromString(s)
	return ok
}
