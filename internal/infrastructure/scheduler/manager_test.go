package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landreg/cadastre/internal/shared/logger"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Execute(context.Context) (int, error) {
	j.runs.Add(1)
	return 3, j.err
}

func TestSchedulerManager_SessionExpiryRunsImmediately(t *testing.T) {
	m, err := NewSchedulerManager(logger.NewNopLogger())
	require.NoError(t, err)

	job := &countingJob{}
	require.NoError(t, m.RegisterSessionExpiryJob(job, time.Hour))
	require.Len(t, m.Jobs(), 1)
	assert.Equal(t, "session-expiry", m.Jobs()[0].Name())

	m.Start()
	m.Start()
	assert.True(t, m.IsStarted())

	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.False(t, m.IsStarted())
	require.NoError(t, m.Stop())
}

func TestSchedulerManager_JobErrorDoesNotStopScheduler(t *testing.T) {
	m, err := NewSchedulerManager(logger.NewNopLogger())
	require.NoError(t, err)

	job := &countingJob{err: errors.New("db down")}
	require.NoError(t, m.RegisterSessionExpiryJob(job, 50*time.Millisecond))

	m.Start()
	defer func() { _ = m.Stop() }()

	assert.Eventually(t, func() bool { return job.runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

type reloader struct{ calls atomic.Int32 }

func (r *reloader) LoadPolicy() error {
	r.calls.Add(1)
	return nil
}

func TestSchedulerManager_PolicyReload(t *testing.T) {
	m, err := NewSchedulerManager(logger.NewNopLogger())
	require.NoError(t, err)

	r := &reloader{}
	require.NoError(t, m.RegisterPolicyReloadJob(r, 50*time.Millisecond))

	m.Start()
	defer func() { _ = m.Stop() }()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}
