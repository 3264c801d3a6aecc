package daemon

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tx7do/kratos-transport-aws/broker"
)

func TestNewManagerRequiresWork(t *testing.T) {
	_, err := NewManager(nil, nil)
	assert.True(t, errors.Is(err, broker.ErrConfiguration))
}

func TestManagerLifecycle(t *testing.T) {
	b := newBlockingWork()
	hooks := 0
	m, err := NewManager(nil, b.run, WithStopHook(func() { hooks++ }))
	require.NoError(t, err)

	status, err := m.Start()
	require.NoError(t, err)
	waitStarted(t, b)
	assert.Equal(t, fmt.Sprintf("Listener started with PID:%d", m.Pid()), status)

	first := m.Pid()
	status, err = m.Restart()
	require.NoError(t, err)
	waitStarted(t, b)
	assert.NotEqual(t, first, m.Pid())
	assert.Equal(t, fmt.Sprintf("Listener restarted. New PID:%d", m.Pid()), status)

	status, err = m.Stop()
	require.NoError(t, err)
	assert.Equal(t, "Listener successfully stopped", status)
	assert.Equal(t, 1, hooks)
	assert.Equal(t, 0, m.Pid())
}

func TestManagerRestartWithoutStart(t *testing.T) {
	b := newBlockingWork()
	m, err := NewManager(NewController(), b.run)
	require.NoError(t, err)

	status, err := m.Restart()
	require.NoError(t, err)
	waitStarted(t, b)
	assert.Equal(t, fmt.Sprintf("Listener restarted. New PID:%d", m.Pid()), status)

	_, err = m.Stop()
	require.NoError(t, err)
}

func TestManagerStopProblem(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	work := func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		<-release
		return nil
	}

	m, err := NewManager(NewController(WithJoinTimeout(10*time.Millisecond)), work)
	require.NoError(t, err)

	_, err = m.Start()
	require.NoError(t, err)
	<-started

	status, err := m.Stop()
	assert.Equal(t, "There was a problem stopping the listener", status)
	assert.True(t, errors.Is(err, broker.ErrJoinTimeout))

	close(release)
	status, err = m.Stop()
	require.NoError(t, err)
	assert.Equal(t, "Listener successfully stopped", status)
}
