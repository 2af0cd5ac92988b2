package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingComponent struct {
	name     string
	log      *[]string
	startErr error
	stopErr  error
	stopWait time.Duration
}

func (c *recordingComponent) Start(ctx context.Context) error {
	*c.log = append(*c.log, "start:"+c.name)
	return c.startErr
}

func (c *recordingComponent) Stop(ctx context.Context) error {
	*c.log = append(*c.log, "stop:"+c.name)
	if c.stopWait > 0 {
		select {
		case <-time.After(c.stopWait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c.stopErr
}

func (c *recordingComponent) Name() string { return c.name }

func TestManagerStartsInDependencyOrder(t *testing.T) {
	var log []string
	tracing := &recordingComponent{name: "tracing", log: &log}
	host := &recordingComponent{name: "host", log: &log}
	browser := &recordingComponent{name: "browser", log: &log}

	m := NewManager()
	require.NoError(t, m.Register(tracing))
	require.NoError(t, m.Register(host, tracing))
	require.NoError(t, m.Register(browser, host, tracing))

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, m.IsRunning(browser))

	require.NoError(t, m.Stop(context.Background()))
	assert.False(t, m.IsRunning(browser))

	assert.Equal(t, []string{
		"start:tracing", "start:host", "start:browser",
		"stop:browser", "stop:host", "stop:tracing",
	}, log)
}

func TestManagerRegisterValidation(t *testing.T) {
	var log []string
	a := &recordingComponent{name: "a", log: &log}
	unregistered := &recordingComponent{name: "b", log: &log}

	m := NewManager()
	assert.Error(t, m.Register(nil))
	assert.Error(t, m.Register(&recordingComponent{log: &log}))
	require.NoError(t, m.Register(a))
	assert.Error(t, m.Register(a), "duplicate registration")
	assert.Error(t, m.Register(&recordingComponent{name: "c", log: &log}, unregistered))
}

func TestManagerRollsBackOnStartFailure(t *testing.T) {
	var log []string
	host := &recordingComponent{name: "host", log: &log}
	browser := &recordingComponent{name: "browser", log: &log, startErr: errors.New("no chromium")}

	m := NewManager()
	require.NoError(t, m.Register(host))
	require.NoError(t, m.Register(browser, host))

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser")
	assert.Contains(t, err.Error(), "no chromium")

	assert.Equal(t, []string{"start:host", "start:browser", "stop:host"}, log)
	assert.False(t, m.IsRunning(host))
}

func TestManagerStopJoinsErrorsAndTimesOut(t *testing.T) {
	var log []string
	slow := &recordingComponent{name: "slow", log: &log, stopWait: time.Second}
	broken := &recordingComponent{name: "broken", log: &log, stopErr: errors.New("close failed")}

	m := NewManager()
	m.SetShutdownTimeout(20 * time.Millisecond)
	require.NoError(t, m.Register(slow))
	require.NoError(t, m.Register(broken))
	require.NoError(t, m.Start(context.Background()))

	err := m.Stop(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "close failed")
	assert.Equal(t, []string{"start:slow", "start:broken", "stop:broken", "stop:slow"}, log)
}
