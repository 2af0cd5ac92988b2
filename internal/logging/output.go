package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	outMu     sync.Mutex
	stdout    io.Writer = os.Stdout
	stderrOut io.Writer = os.Stderr
)

// SetOutput redirects log output. ERROR and FATAL go to errOut, everything
// else to out. Passing nil keeps the current writer.
func SetOutput(out, errOut io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	if out != nil {
		stdout = out
	}
	if errOut != nil {
		stderrOut = errOut
	}
}

// writeLog formats one line:
//
//	[timestamp] [LEVEL] name: message | k1=v1 k2=v2
//
// Fields are sorted by key.
func (l *Logger) writeLog(level LogLevel, msg string, fields map[string]interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s: %s", GetTimestamp(), level, l.name, msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}
	b.WriteByte('\n')

	outMu.Lock()
	defer outMu.Unlock()
	w := stdout
	if level >= ERROR {
		w = stderrOut
	}
	_, _ = io.WriteString(w, b.String())
}

func (l *Logger) logf(level LogLevel, msg string, args ...interface{}) {
	formatted := msg
	if len(args) > 0 {
		formatted = fmt.Sprintf(msg, args...)
	}
	l.writeLog(level, formatted, l.mergedFields())
}

// GetTimestamp returns the current time in RFC3339, or LOG_TIMESTAMP when set.
func GetTimestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}
