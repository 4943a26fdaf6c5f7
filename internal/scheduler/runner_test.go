package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmedAllulu/articles-backend-sub000/internal/scheduler"
)

func TestRunRecordsStats(t *testing.T) {
	r := scheduler.NewRunner(0)

	outcome, err := r.Run(context.Background(), "refresh", func(context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, scheduler.OutcomeCompleted, outcome)

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "refresh", snap[0].Name)
	assert.False(t, snap[0].Running)
	assert.Equal(t, int64(1), snap[0].TotalRuns)
	assert.Empty(t, snap[0].LastError)
	assert.NotNil(t, snap[0].LastStarted)
	assert.NotNil(t, snap[0].LastCompleted)
}

func TestRunFailureKeepsLastError(t *testing.T) {
	r := scheduler.NewRunner(0)

	outcome, err := r.Run(context.Background(), "refresh", func(context.Context) error {
		return errors.New("discovery unreachable")
	})
	assert.Equal(t, scheduler.OutcomeFailed, outcome)
	assert.Error(t, err)

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "discovery unreachable", snap[0].LastError)

	// A later success clears it.
	_, err = r.Run(context.Background(), "refresh", func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Empty(t, r.Snapshot()[0].LastError)
}

func TestConcurrentInvocationSkipped(t *testing.T) {
	r := scheduler.NewRunner(0)

	started := make(chan struct{})
	release := make(chan struct{})
	runs := 0

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = r.Run(context.Background(), "generate", func(context.Context) error {
			runs++
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	outcome, err := r.Run(context.Background(), "generate", func(context.Context) error {
		runs++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, scheduler.OutcomeSkipped, outcome)

	close(release)
	wg.Wait()

	// The skipped invocation never touched the job body.
	assert.Equal(t, 1, runs)
	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(1), snap[0].TotalRuns)
}

func TestDifferentJobsRunIndependently(t *testing.T) {
	r := scheduler.NewRunner(0)

	blocked := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = r.Run(context.Background(), "refresh", func(context.Context) error {
			close(blocked)
			<-release
			return nil
		})
	}()

	<-blocked
	outcome, err := r.Run(context.Background(), "generate", func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, scheduler.OutcomeCompleted, outcome)

	close(release)
	wg.Wait()
}

func TestPanicReleasesLock(t *testing.T) {
	r := scheduler.NewRunner(0)

	outcome, err := r.Run(context.Background(), "generate", func(context.Context) error {
		panic("nil trend")
	})
	assert.Equal(t, scheduler.OutcomeFailed, outcome)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	// The job is runnable again immediately.
	outcome, err = r.Run(context.Background(), "generate", func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, scheduler.OutcomeCompleted, outcome)

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(2), snap[0].TotalRuns)
}

func TestMovingAverage(t *testing.T) {
	r := scheduler.NewRunner(0)

	durations := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 600 * time.Millisecond}
	for _, d := range durations {
		dur := d
		_, err := r.Run(context.Background(), "refresh", func(context.Context) error {
			time.Sleep(dur)
			return nil
		})
		require.NoError(t, err)
	}

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(3), snap[0].TotalRuns)
	// avg of ~100,200,600ms lands near 300ms; generous bounds absorb sleep
	// jitter.
	assert.Greater(t, snap[0].AvgDuration, 250*time.Millisecond)
	assert.Less(t, snap[0].AvgDuration, 450*time.Millisecond)
	assert.Greater(t, snap[0].LastDuration, 550*time.Millisecond)
}

func TestCronRejectsBadSpec(t *testing.T) {
	c := scheduler.NewCron(time.UTC)
	err := c.Add("refresh", "not a cron spec", func() {})
	assert.Error(t, err)

	require.NoError(t, c.Add("refresh", "0 */6 * * *", func() {}))
	assert.True(t, c.NextRun("refresh").IsZero())
	assert.True(t, c.NextRun("unknown").IsZero())
}
