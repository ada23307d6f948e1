package executor_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/slackmgr/appenders/internal/executor"
	"github.com/slackmgr/appenders/internal/logtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliver_WaitsForCompletion(t *testing.T) {
	t.Parallel()

	logger := logtest.New()
	pool := executor.NewPool("test", 2, logger)
	defer pool.Shutdown(time.Second)

	var sent atomic.Bool

	err := pool.Deliver(executor.Delivery{
		Send: func() error {
			time.Sleep(10 * time.Millisecond)
			return nil
		},
		OnSuccess: func() { sent.Store(true) },
	}, true, time.Second)

	require.NoError(t, err)
	assert.True(t, sent.Load())
	assert.Zero(t, logger.Count("debug", "Did not receive a response"))
}

func TestDeliver_TimeoutIsNotAnError(t *testing.T) {
	t.Parallel()

	logger := logtest.New()
	pool := executor.NewPool("test", 1, logger)
	release := make(chan struct{})

	var failed atomic.Bool

	start := time.Now()
	err := pool.Deliver(executor.Delivery{
		Send: func() error {
			<-release
			return errors.New("late failure")
		},
		Message: "write failed",
		OnError: func(error) { failed.Store(true) },
	}, true, 10*time.Millisecond)

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 1, logger.Count("debug", "Did not receive a response within 10ms"))

	close(release)
	assert.True(t, pool.Shutdown(time.Second))
	assert.True(t, failed.Load())
	assert.Equal(t, 1, logger.Count("error", "write failed: late failure"))
}

func TestDeliver_NoWait(t *testing.T) {
	t.Parallel()

	logger := logtest.New()
	pool := executor.NewPool("test", 1, logger)
	release := make(chan struct{})

	err := pool.Deliver(executor.Delivery{
		Send: func() error {
			<-release
			return nil
		},
	}, false, time.Second)

	require.NoError(t, err)
	assert.Equal(t, int64(1), pool.InFlight())

	close(release)
	assert.True(t, pool.Shutdown(time.Second))
	assert.Zero(t, logger.Count("debug", "Did not receive a response"))
}

func TestDeliver_ClosedPool(t *testing.T) {
	t.Parallel()

	pool := executor.NewPool("test", 1, logtest.New())
	pool.Shutdown(0)

	err := pool.Deliver(executor.Delivery{Send: func() error { return nil }}, true, time.Second)
	assert.ErrorIs(t, err, executor.ErrPoolClosed)
}
