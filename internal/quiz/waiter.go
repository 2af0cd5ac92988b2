package quiz

import (
	"context"
	"time"

	"github.com/moolen/quizcheck/internal/logging"
)

// Waiter polls a SnapshotReader until a target phase appears.
type Waiter struct {
	reader   SnapshotReader
	interval time.Duration
	logger   *logging.Logger
}

// NewWaiter returns a waiter polling reader every interval.
func NewWaiter(reader SnapshotReader, interval time.Duration) *Waiter {
	if interval <= 0 {
		interval = DefaultTimings().PollInterval
	}
	return &Waiter{
		reader:   reader,
		interval: interval,
		logger:   logging.GetLogger("quiz.waiter"),
	}
}

// WaitFor blocks until the snapshot satisfies t, timeout elapses, or ctx
// ends. The page is checked once before the first sleep, and a snapshot that
// cannot be read only means "not yet".
func (w *Waiter) WaitFor(ctx context.Context, t Target, timeout time.Duration) (Snapshot, error) {
	deadline := time.Now().Add(timeout)
	var (
		last    *Snapshot
		lastErr error
		polls   int
	)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return Snapshot{}, &TimeoutExceededError{Target: t, Budget: timeout, Last: last, LastErr: lastErr, Cause: err}
		}

		polls++
		snap, err := w.reader.Read(ctx)
		switch {
		case err == nil:
			if Evaluate(t, snap) {
				w.logger.Debug("%s reached after %d polls", t, polls)
				return snap, nil
			}
			s := snap
			last = &s
		case ctx.Err() != nil:
			return Snapshot{}, &TimeoutExceededError{Target: t, Budget: timeout, Last: last, LastErr: lastErr, Cause: ctx.Err()}
		default:
			lastErr = err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Snapshot{}, &TimeoutExceededError{Target: t, Budget: timeout, Last: last, LastErr: lastErr}
		}
		sleep := min(w.interval, remaining)
		if timer == nil {
			timer = time.NewTimer(sleep)
		} else {
			timer.Reset(sleep)
		}
		select {
		case <-ctx.Done():
			return Snapshot{}, &TimeoutExceededError{Target: t, Budget: timeout, Last: last, LastErr: lastErr, Cause: ctx.Err()}
		case <-timer.C:
		}
	}
}
