package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(time.UTC, slog.New(slog.DiscardHandler))
}

// waitFor polls until cond returns true or the deadline passes
func waitFor(t *testing.T, cond func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func noop(ctx context.Context, trigger Trigger) error { return nil }

func TestRegister_Duplicate(t *testing.T) {
	s := newTestService(t)

	require.NoError(t, s.Register("funnels-sync", "0 * * * *", noop))
	assert.ErrorIs(t, s.Register("funnels-sync", "0 * * * *", noop), ErrAlreadyRegistered)
}

func TestRegister_InvalidSchedule(t *testing.T) {
	s := newTestService(t)

	assert.Error(t, s.Register("funnels-sync", "not a cron", noop))
}

func TestRunNow_UnknownJob(t *testing.T) {
	s := newTestService(t)

	assert.ErrorIs(t, s.RunNow("nope"), ErrUnknownJob)
}

func TestRunNow_ConcurrencyRejection(t *testing.T) {
	s := newTestService(t)

	release := make(chan struct{})
	var runs atomic.Int32
	require.NoError(t, s.Register("items-sync", "0 * * * *", func(ctx context.Context, trigger Trigger) error {
		runs.Add(1)
		<-release
		return nil
	}))

	// First trigger is accepted and holds the lock
	require.NoError(t, s.RunNow("items-sync"))
	waitFor(t, func() bool { return runs.Load() == 1 }, time.Second)

	// Second trigger while executing is rejected, not queued
	assert.ErrorIs(t, s.RunNow("items-sync"), ErrAlreadyRunning)

	close(release)
	waitFor(t, func() bool {
		status, err := s.Status("items-sync")
		return err == nil && !status.Executing
	}, time.Second)

	// The rejection never produced a second run
	assert.Equal(t, int32(1), runs.Load())

	// After completion the job can run again
	require.NoError(t, s.RunNow("items-sync"))
}

func TestRunNow_CallableWhileStopped(t *testing.T) {
	s := newTestService(t)

	done := make(chan struct{})
	require.NoError(t, s.Register("funnels-sync", "0 * * * *", func(ctx context.Context, trigger Trigger) error {
		assert.Equal(t, TriggerManual, trigger)
		close(done)
		return nil
	}))

	// Never started; manual trigger still works
	require.NoError(t, s.RunNow("funnels-sync"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("manual run did not execute")
	}
}

func TestStatus_Snapshot(t *testing.T) {
	s := newTestService(t)

	require.NoError(t, s.Register("funnels-sync", "0 6,12,18 * * *", noop))

	status, err := s.Status("funnels-sync")
	require.NoError(t, err)
	assert.Equal(t, "funnels-sync", status.Name)
	assert.Equal(t, "0 6,12,18 * * *", status.Schedule)
	assert.False(t, status.Armed)
	assert.False(t, status.Executing)
	assert.Nil(t, status.LastRunAt)
	assert.Nil(t, status.NextRunAt, "disarmed job has no next run")

	require.NoError(t, s.Start("funnels-sync"))
	t.Cleanup(func() { s.StopAll() })

	status, err = s.Status("funnels-sync")
	require.NoError(t, err)
	assert.True(t, status.Armed)
	require.NotNil(t, status.NextRunAt)
	assert.True(t, status.NextRunAt.After(time.Now().Add(-time.Minute)))

	_, err = s.Status("unknown")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestStatus_UnsupportedScheduleHasNoEstimate(t *testing.T) {
	s := newTestService(t)

	require.NoError(t, s.Register("odd-job", "*/5 * * * *", noop))
	require.NoError(t, s.Start("odd-job"))
	t.Cleanup(func() { s.StopAll() })

	status, err := s.Status("odd-job")
	require.NoError(t, err)
	assert.True(t, status.Armed)
	assert.Nil(t, status.NextRunAt, "estimator must report unknown, not guess")
}

func TestStatusAll_SortedByName(t *testing.T) {
	s := newTestService(t)

	require.NoError(t, s.Register("b-sync", "0 * * * *", noop))
	require.NoError(t, s.Register("a-sync", "0 * * * *", noop))
	require.NoError(t, s.Register("c-sync", "0 * * * *", noop))

	statuses := s.StatusAll()
	require.Len(t, statuses, 3)
	assert.Equal(t, "a-sync", statuses[0].Name)
	assert.Equal(t, "b-sync", statuses[1].Name)
	assert.Equal(t, "c-sync", statuses[2].Name)
}

func TestStartStop_Transitions(t *testing.T) {
	s := newTestService(t)

	require.NoError(t, s.Register("funnels-sync", "0 * * * *", noop))

	require.NoError(t, s.Start("funnels-sync"))
	// Starting an armed job is a no-op
	require.NoError(t, s.Start("funnels-sync"))

	status, err := s.Status("funnels-sync")
	require.NoError(t, err)
	assert.True(t, status.Armed)

	require.NoError(t, s.Stop("funnels-sync"))
	// Stopping a stopped job is a no-op
	require.NoError(t, s.Stop("funnels-sync"))

	status, err = s.Status("funnels-sync")
	require.NoError(t, err)
	assert.False(t, status.Armed)

	assert.ErrorIs(t, s.Start("unknown"), ErrUnknownJob)
	assert.ErrorIs(t, s.Stop("unknown"), ErrUnknownJob)
}

func TestStop_DoesNotAbortInFlightRun(t *testing.T) {
	s := newTestService(t)

	release := make(chan struct{})
	finished := make(chan struct{})
	require.NoError(t, s.Register("items-sync", "0 * * * *", func(ctx context.Context, trigger Trigger) error {
		<-release
		close(finished)
		return nil
	}))

	require.NoError(t, s.Start("items-sync"))
	require.NoError(t, s.RunNow("items-sync"))

	waitFor(t, func() bool {
		status, err := s.Status("items-sync")
		return err == nil && status.Executing
	}, time.Second)

	// Stop disarms the timer but the running callback proceeds to completion
	require.NoError(t, s.Stop("items-sync"))

	status, err := s.Status("items-sync")
	require.NoError(t, err)
	assert.False(t, status.Armed)
	assert.True(t, status.Executing)

	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("in-flight run did not complete")
	}
}

func TestStartAllStopAll(t *testing.T) {
	s := newTestService(t)

	require.NoError(t, s.Register("a-sync", "0 * * * *", noop))
	require.NoError(t, s.Register("b-sync", "0 * * * *", noop))

	s.StartAll()
	for _, status := range s.StatusAll() {
		assert.True(t, status.Armed, "job %s should be armed", status.Name)
	}

	s.StopAll()
	for _, status := range s.StatusAll() {
		assert.False(t, status.Armed, "job %s should be stopped", status.Name)
	}
}
