package main

import (
	"context"
	"errors"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/procurement-backend/internal/analytics/router"
	"github.com/angelmondragon/procurement-backend/internal/analytics/worker"
	"github.com/angelmondragon/procurement-backend/internal/analytics/writer"
	"github.com/angelmondragon/procurement-backend/pkg/bigquery"
	"github.com/angelmondragon/procurement-backend/pkg/bootstrap"
	"github.com/angelmondragon/procurement-backend/pkg/metrics"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/procurement-backend/pkg/pubsub"
	"github.com/angelmondragon/procurement-backend/pkg/redis"
)

const flushTimeout = 10 * time.Second

func main() {
	proc := bootstrap.Start("analytics-worker")
	cfg, logg := proc.Config, proc.Logger
	ctx := context.Background()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	proc.Require(ctx, "redis", err)
	defer proc.Close(ctx, "redis", redisClient)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, pubsub.RoleSubscriber, logg)
	proc.Require(ctx, "pubsub", err)
	defer proc.Close(ctx, "pubsub client", pubsubClient)

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	proc.Require(ctx, "bigquery client", err)
	defer proc.Close(ctx, "bigquery client", bqClient)

	subscription := pubsubClient.OrdersSubscription()
	if subscription == nil {
		proc.Require(ctx, "orders subscription", errors.New("subscription not configured"))
	}

	seen, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	proc.Require(ctx, "idempotency manager", err)

	rows, err := writer.New(bqClient, writer.Config{})
	proc.Require(ctx, "analytics bigquery writer", err)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := rows.Flush(flushCtx); err != nil {
			logg.Error(ctx, "failed to flush buffered order events", err)
		}
	}()

	handler, err := router.NewRouter(rows, logg)
	proc.Require(ctx, "analytics router", err)

	service, err := worker.NewService(subscription, handler, seen, logg, metrics.NewAnalyticsMetrics(prometheus.DefaultRegisterer))
	proc.Require(ctx, "analytics worker service", err)

	runCtx, stop := proc.SignalContext()
	defer stop()
	proc.ServeMetrics(runCtx)
	logg.Info(logg.WithField(runCtx, "table", bqClient.TableName()), "analytics worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		proc.Fail(runCtx, "analytics worker failed", err)
	}
	logg.Info(ctx, "analytics worker stopped")
}
