package quiz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForReturnsSatisfyingSnapshot(t *testing.T) {
	sim := newQuizSim(5)
	w := NewWaiter(sim, time.Millisecond)

	snap, err := w.WaitFor(context.Background(), Target{Phase: PhaseExplanation, Question: 1, Total: 5}, time.Second)
	require.NoError(t, err)
	assert.True(t, snap.ExplanationShown)
	assert.Equal(t, "1/5", snap.Counter)
	assert.Equal(t, 4, sim.tick, "explanation starts on the fourth read")
}

func TestWaitForChecksBeforeSleeping(t *testing.T) {
	reader := &staticReader{snap: Snapshot{QuestionVisible: true, QuestionText: "Q1", Counter: "1/5"}}
	w := NewWaiter(reader, time.Hour)

	_, err := w.WaitFor(context.Background(), Target{Phase: PhaseQuestion, Question: 1, Total: 5}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, reader.reads)
}

func TestWaitForTinyBudgetTimesOut(t *testing.T) {
	onQuestion := Snapshot{QuestionVisible: true, QuestionText: "Q1", Counter: "1/5"}
	reader := &staticReader{snap: onQuestion}
	w := NewWaiter(reader, 200*time.Millisecond)

	done := make(chan struct{})
	var err error
	go func() {
		defer close(done)
		_, err = w.WaitFor(context.Background(), Target{Phase: PhaseExplanation, Question: 1, Total: 5}, time.Millisecond)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitFor did not return")
	}

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeoutExceeded)

	var timeout *TimeoutExceededError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, PhaseExplanation, timeout.Target.Phase)
	assert.Equal(t, time.Millisecond, timeout.Budget)
	require.NotNil(t, timeout.Last)
	assert.Equal(t, "Q1", timeout.Last.QuestionText)
	assert.Nil(t, timeout.Cause)
}

func TestWaitForUnavailableMeansNotYet(t *testing.T) {
	sim := newQuizSim(5)
	sim.failTicks = map[int]bool{1: true, 2: true}
	w := NewWaiter(sim, time.Millisecond)

	snap, err := w.WaitFor(context.Background(), Target{Phase: PhaseQuestion, Question: 1, Total: 5}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Question number 1?", snap.QuestionText)
	assert.Equal(t, 3, sim.tick)
}

func TestWaitForUnavailableEscalatesToTimeout(t *testing.T) {
	readErr := &SnapshotUnavailableError{Selector: "#resultContainer", Err: errNoElement}
	reader := &staticReader{err: readErr}
	w := NewWaiter(reader, time.Millisecond)

	_, err := w.WaitFor(context.Background(), Target{Phase: PhaseResults, Question: 5, Total: 5}, 20*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeoutExceeded)
	assert.ErrorIs(t, err, ErrSnapshotUnavailable, "last read error is wrapped")
	assert.ErrorIs(t, err, errNoElement)

	var timeout *TimeoutExceededError
	require.ErrorAs(t, err, &timeout)
	assert.Nil(t, timeout.Last)
	assert.Equal(t, readErr, timeout.LastErr)
	assert.Greater(t, reader.reads, 1)
}

func TestWaitForContextCancel(t *testing.T) {
	reader := &staticReader{snap: Snapshot{}}
	w := NewWaiter(reader, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	start := time.Now()
	_, err := w.WaitFor(ctx, Target{Phase: PhaseQuestion, Question: 1, Total: 5}, time.Minute)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.ErrorIs(t, err, ErrTimeoutExceeded)
	assert.ErrorIs(t, err, context.Canceled)

	var timeout *TimeoutExceededError
	require.ErrorAs(t, err, &timeout)
	assert.True(t, errors.Is(timeout.Cause, context.Canceled))
}

func TestNewWaiterDefaultsInterval(t *testing.T) {
	w := NewWaiter(&staticReader{}, 0)
	assert.Equal(t, DefaultTimings().PollInterval, w.interval)
}
