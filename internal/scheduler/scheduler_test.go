package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return "counting" }
func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func TestScheduler_RunsJobOnSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{}

	require.NoError(t, s.AddJob("@every 50ms", job))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.AddJob("not a schedule", &countingJob{})
	assert.Error(t, err)
}

func TestScheduler_JobFailureDoesNotStopScheduler(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{err: errors.New("boom")}

	require.NoError(t, s.AddJob("@every 50ms", job))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{}

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestScheduler_StatusTracksOutcomes(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{err: errors.New("boom")}

	require.NoError(t, s.AddJob("@every 1h", job))

	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, "counting", status[0].Name)
	assert.Equal(t, "@every 1h", status[0].Schedule)
	assert.Nil(t, status[0].LastRun)

	assert.Error(t, s.RunNow(job))

	status = s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, 1, status[0].Runs)
	assert.Equal(t, 1, status[0].Failures)
	assert.Equal(t, "boom", status[0].LastError)
	assert.NotNil(t, status[0].LastRun)

	job.err = nil
	require.NoError(t, s.RunNow(job))
	status = s.Status()
	assert.Equal(t, 2, status[0].Runs)
	assert.Empty(t, status[0].LastError)
}
