package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testJob is a programmable Job.
type testJob struct {
	name  string
	runs  int
	err   error
	panic bool
}

func (j *testJob) Name() string        { return j.name }
func (j *testJob) Description() string { return "test job" }

func (j *testJob) Run(context.Context) error {
	j.runs++
	if j.panic {
		panic("boom")
	}
	return j.err
}

// fixedSchedule fires at one fixed time.
type fixedSchedule struct{ at time.Time }

func (s fixedSchedule) Next(t time.Time) time.Time {
	if t.Before(s.at) {
		return s.at
	}
	return time.Time{}
}

func (s fixedSchedule) String() string { return "fixed" }

func farFuture() Schedule {
	return fixedSchedule{at: time.Now().Add(24 * time.Hour)}
}

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})

	require.NoError(t, s.Register(&testJob{name: "daily"}, farFuture()))

	assert.ErrorIs(t, s.Register(nil, farFuture()), ErrNilJob)
	assert.ErrorIs(t, s.Register(&testJob{name: "weekly"}, nil), ErrNilSchedule)
	assert.ErrorIs(t, s.Register(&testJob{name: "daily"}, farFuture()), ErrJobAlreadyExists)

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "daily", infos[0].Name)
	assert.True(t, infos[0].Enabled)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	require.NoError(t, s.Register(&testJob{name: "daily"}, farFuture()))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestScheduler_RunNow(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	job := &testJob{name: "daily"}
	require.NoError(t, s.Register(job, farFuture()))

	result, err := s.RunNow(context.Background(), "daily")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Manual)
	assert.Equal(t, 1, job.runs)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RunNow_JobError(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	job := &testJob{name: "daily", err: errors.New("db down")}
	require.NoError(t, s.Register(job, farFuture()))

	result, err := s.RunNow(context.Background(), "daily")
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, err, result.Error)
}

func TestScheduler_RunNow_ContainsPanic(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	require.NoError(t, s.Register(&testJob{name: "daily", panic: true}, farFuture()))

	result, err := s.RunNow(context.Background(), "daily")
	assert.ErrorIs(t, err, ErrJobPanicked)
	assert.False(t, result.Success)
}

func TestScheduler_EnableDisable(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	require.NoError(t, s.Register(&testJob{name: "daily"}, farFuture()))

	require.NoError(t, s.DisableJob("daily"))
	assert.False(t, s.ListJobs()[0].Enabled)

	require.NoError(t, s.EnableJob("daily"))
	assert.True(t, s.ListJobs()[0].Enabled)

	assert.ErrorIs(t, s.DisableJob("missing"), ErrJobNotFound)
}

func TestSchedulerMetrics(t *testing.T) {
	m := NewSchedulerMetrics()

	m.RecordExecution("daily", time.Second, true)
	m.RecordExecution("daily", time.Second, false)

	assert.Equal(t, int64(2), m.TotalExecutions)
	assert.Equal(t, int64(1), m.TotalSuccesses)
	assert.Equal(t, int64(1), m.TotalFailures)
	assert.Equal(t, int64(2), m.ExecutionsByJob["daily"])
	assert.Equal(t, int64(1), m.FailuresByJob["daily"])
}
