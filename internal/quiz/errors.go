package quiz

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")
	ErrTimeoutExceeded     = errors.New("timeout exceeded")
	ErrUnexpectedValue     = errors.New("unexpected value")
)

// Error kinds as they appear in reports.
const (
	KindSnapshotUnavailable = "snapshot_unavailable"
	KindTimeoutExceeded     = "timeout_exceeded"
	KindUnexpectedValue     = "unexpected_value"
	KindOther               = "error"
)

// SnapshotUnavailableError means the page could not be read, e.g. because an
// element is missing or the page navigated away.
type SnapshotUnavailableError struct {
	Selector string
	Err      error
}

func (e *SnapshotUnavailableError) Error() string {
	if e.Selector == "" {
		return fmt.Sprintf("snapshot unavailable: %v", e.Err)
	}
	return fmt.Sprintf("snapshot unavailable: reading %s: %v", e.Selector, e.Err)
}

func (e *SnapshotUnavailableError) Unwrap() error { return e.Err }

func (e *SnapshotUnavailableError) Is(target error) bool {
	return target == ErrSnapshotUnavailable
}

// TimeoutExceededError is returned when a phase did not appear within its
// budget, or when the run deadline cut the wait short.
type TimeoutExceededError struct {
	Target Target
	Budget time.Duration

	// Last is the last snapshot that could be read, if any.
	Last *Snapshot
	// LastErr is the last read error seen while polling.
	LastErr error
	// Cause is set when the context ended the wait.
	Cause error
	// LastCompleted is the last phase reached before a run was aborted.
	LastCompleted *Target
}

func (e *TimeoutExceededError) Error() string {
	msg := fmt.Sprintf("timeout exceeded waiting for %s after %s", e.Target, e.Budget)
	if e.Cause != nil {
		msg = fmt.Sprintf("run deadline reached waiting for %s: %v", e.Target, e.Cause)
	}
	if e.LastCompleted != nil {
		msg += fmt.Sprintf("; last completed phase: %s", *e.LastCompleted)
	}
	if e.LastErr != nil {
		msg += fmt.Sprintf("; last read error: %v", e.LastErr)
	}
	return msg
}

func (e *TimeoutExceededError) Unwrap() []error {
	var errs []error
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if e.LastErr != nil {
		errs = append(errs, e.LastErr)
	}
	return errs
}

func (e *TimeoutExceededError) Is(target error) bool {
	return target == ErrTimeoutExceeded
}

// UnexpectedValueError means a phase was reached but showed the wrong content.
type UnexpectedValueError struct {
	Target Target
	Field  string
	Got    string
	Want   string
}

func (e *UnexpectedValueError) Error() string {
	return fmt.Sprintf("unexpected %s at %s: got %q, want %s", e.Field, e.Target, e.Got, e.Want)
}

func (e *UnexpectedValueError) Is(target error) bool {
	return target == ErrUnexpectedValue
}

// ErrorKind classifies err for reports and metrics. A nil error has no kind.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeoutExceeded):
		return KindTimeoutExceeded
	case errors.Is(err, ErrUnexpectedValue):
		return KindUnexpectedValue
	case errors.Is(err, ErrSnapshotUnavailable):
		return KindSnapshotUnavailable
	default:
		return KindOther
	}
}
