package main

import (
	"context"
	"errors"
	"flag"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/procurement-backend/internal/cron"
	"github.com/angelmondragon/procurement-backend/internal/orders"
	"github.com/angelmondragon/procurement-backend/pkg/bootstrap"
	"github.com/angelmondragon/procurement-backend/pkg/db"
	"github.com/angelmondragon/procurement-backend/pkg/metrics"
	"github.com/angelmondragon/procurement-backend/pkg/migrate"
	"github.com/angelmondragon/procurement-backend/pkg/outbox"
	"github.com/angelmondragon/procurement-backend/pkg/redis"
)

const serviceKind = "cron-worker"

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	proc := bootstrap.Start(serviceKind)
	cfg, logg := proc.Config, proc.Logger
	ctx := context.Background()

	loc, err := cfg.Orders.Location()
	proc.Require(ctx, "order timezone", err)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	proc.Require(ctx, "database", err)
	defer proc.Close(ctx, "database", dbClient)

	proc.Require(ctx, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	proc.Require(ctx, "redis", err)
	defer proc.Close(ctx, "redis", redisClient)

	outboxRepo := outbox.NewRepository(dbClient.DB())

	agingJob, err := cron.NewApprovalAgingJob(cron.ApprovalAgingJobParams{
		Logger:      logg,
		DB:          dbClient,
		Orders:      orders.NewRepository(dbClient.DB()),
		Outbox:      outbox.NewService(outboxRepo, logg),
		OverdueDays: cfg.Cron.ApprovalOverdueDays,
		Location:    loc,
	})
	proc.Require(ctx, "approval aging job", err)

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
		Retention:  cfg.Cron.OutboxRetention,
	})
	proc.Require(ctx, "outbox retention job", err)

	jobs, err := cron.NewRegistry(agingJob, retentionJob)
	proc.Require(ctx, "cron registry", err)

	// The lock outlives a cycle so a slow replica cannot overlap the next tick.
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cfg.App.Env, serviceKind), 2*cfg.Cron.Interval)
	proc.Require(ctx, "cron lock", err)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	proc.Require(ctx, "cron service", err)

	runCtx, stop := proc.SignalContext()
	defer stop()
	logg.Info(runCtx, "starting cron worker")

	if *once {
		if err := service.RunOnce(runCtx); err != nil {
			proc.Fail(runCtx, "cron cycle failed", err)
		}
		return
	}

	proc.ServeMetrics(runCtx)
	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		proc.Fail(runCtx, "cron worker stopped unexpectedly", err)
	}
	logg.Info(runCtx, "cron worker shutting down gracefully")
}
