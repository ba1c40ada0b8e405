package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/procurement-backend/pkg/logger"
	"github.com/angelmondragon/procurement-backend/pkg/metrics"
)

const (
	defaultInterval = time.Hour
	releaseTimeout  = 5 * time.Second
)

type jobMetrics interface {
	ObserveDuration(job string, duration time.Duration)
	IncSuccess(job string)
	IncFailure(job string)
	IncCycle(outcome string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveDuration(string, time.Duration) {}
func (nopMetrics) IncSuccess(string)                     {}
func (nopMetrics) IncFailure(string)                     {}
func (nopMetrics) IncCycle(string)                       {}

// ServiceParams configure the scheduler. Metrics and Registry are optional.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  jobMetrics
	Interval time.Duration
}

// Service runs the registered jobs once per interval, on one replica at a time.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  jobMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Lock == nil:
		return nil, fmt.Errorf("lock required")
	}
	svc := &Service{
		logg:     params.Logger,
		registry: params.Registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: params.Interval,
	}
	if svc.registry == nil {
		svc.registry = &Registry{}
	}
	if svc.metrics == nil {
		svc.metrics = nopMetrics{}
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	return svc, nil
}

// Run starts a cycle immediately, then one per tick, until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.logg.Error(ctx, "cron cycle failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce runs one cycle. It returns an error only when the lock could not be
// consulted; a cycle held elsewhere is skipped and job failures are counted.
func (s *Service) RunOnce(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	switch {
	case err != nil:
		s.metrics.IncCycle(metrics.CycleLockError)
		return fmt.Errorf("lock acquire: %w", err)
	case !locked:
		s.metrics.IncCycle(metrics.CycleSkipped)
		s.logg.Info(ctx, "cron cycle held by another replica; skipping")
		return nil
	}
	s.metrics.IncCycle(metrics.CycleRan)
	defer s.release(ctx)

	jobs := s.registry.Jobs()
	cycleCtx := s.logg.WithField(ctx, "jobs", len(jobs))
	s.logg.Info(cycleCtx, "cron cycle starting")

	failed := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		if err := s.runJob(ctx, job); err != nil {
			failed++
		}
	}
	s.logg.Info(s.logg.WithField(cycleCtx, "failed", failed), "cron cycle complete")
	return nil
}

// release runs on a context detached from shutdown cancellation.
func (s *Service) release(ctx context.Context) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := s.lock.Release(releaseCtx); err != nil {
		s.logg.Error(ctx, "failed to release cron lock", err)
	}
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})
	s.logg.Debug(jobCtx, "job start")

	start := time.Now()
	err := job.Run(jobCtx)
	elapsed := time.Since(start)
	s.metrics.ObserveDuration(name, elapsed)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())

	if err != nil && !errors.Is(err, context.Canceled) {
		s.metrics.IncFailure(name)
		s.logg.Error(jobCtx, "job failed", err)
		return err
	}
	s.metrics.IncSuccess(name)
	s.logg.Info(jobCtx, "job completed")
	return nil
}
