package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/procurement-backend/pkg/logger"
)

type fakeLock struct {
	held     bool
	acquires int
	releases int
	err      error
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.acquires++
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.releases++
	f.held = false
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

type recordingMetrics struct {
	durations map[string]int
	successes map[string]int
	failures  map[string]int
	cycles    map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		durations: map[string]int{},
		successes: map[string]int{},
		failures:  map[string]int{},
		cycles:    map[string]int{},
	}
}

func (m *recordingMetrics) ObserveDuration(job string, _ time.Duration) { m.durations[job]++ }
func (m *recordingMetrics) IncSuccess(job string)                       { m.successes[job]++ }
func (m *recordingMetrics) IncFailure(job string)                       { m.failures[job]++ }
func (m *recordingMetrics) IncCycle(outcome string)                     { m.cycles[outcome]++ }

func newTestService(t *testing.T, lock Lock, metrics jobMetrics, jobs ...Job) *Service {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics,
	})
	require.NoError(t, err)
	return svc
}

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "success"}
	bad := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	metrics := newRecordingMetrics()
	svc := newTestService(t, lock, metrics, ok, bad)

	require.NoError(t, svc.RunOnce(context.Background()))

	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, bad.runs)
	assert.Equal(t, 1, metrics.successes["success"])
	assert.Equal(t, 1, metrics.failures["fail"])
	assert.Equal(t, 1, metrics.durations["fail"])
	assert.Equal(t, 1, metrics.cycles["ran"])
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "approval-aging"}
	lock := &fakeLock{held: true}
	metrics := newRecordingMetrics()
	svc := newTestService(t, lock, metrics, job)

	require.NoError(t, svc.RunOnce(context.Background()))
	assert.Zero(t, job.runs)
	assert.Zero(t, lock.releases)
	assert.Equal(t, 1, metrics.cycles["skipped"])
}

func TestRunOnceReturnsLockErrors(t *testing.T) {
	svc := newTestService(t, &fakeLock{err: errors.New("redis down")}, nil, &testJob{name: "x"})
	require.Error(t, svc.RunOnce(context.Background()))
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "x"}
	svc := newTestService(t, &fakeLock{}, nil, job)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, job.runs, "canceled context must not start jobs")
}
