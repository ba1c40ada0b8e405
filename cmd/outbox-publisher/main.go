package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/procurement-backend/pkg/bootstrap"
	"github.com/angelmondragon/procurement-backend/pkg/db"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
	"github.com/angelmondragon/procurement-backend/pkg/metrics"
	"github.com/angelmondragon/procurement-backend/pkg/migrate"
	"github.com/angelmondragon/procurement-backend/pkg/outbox"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/registry"
	"github.com/angelmondragon/procurement-backend/pkg/pubsub"
)

const serviceKind = "outbox-publisher"

func main() {
	proc := bootstrap.Start(serviceKind)
	cfg, logg := proc.Config, proc.Logger
	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	proc.Require(ctx, "database", err)
	defer proc.Close(ctx, "database", dbClient)

	proc.Require(ctx, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, pubsub.RolePublisher, logg)
	proc.Require(ctx, "pubsub", err)
	defer proc.Close(ctx, "pubsub client", pubsubClient)

	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	proc.Require(ctx, "event registry", err)

	dlqRepo := outbox.NewDLQRepository(dbClient.DB())
	service, err := NewService(ServiceParams{
		Logger:      logg,
		DB:          dbClient,
		Topics:      pubsubClient,
		Store:       outbox.NewRepository(dbClient.DB()),
		Registry:    eventRegistry,
		DeadLetters: dlqRepo,
		Metrics:     metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
		Options:     OptionsFromConfig(cfg.Outbox),
	})
	proc.Require(ctx, "outbox publisher", err)

	runCtx, stop := proc.SignalContext()
	defer stop()
	proc.ServeMetrics(runCtx)

	reportDLQBacklog(runCtx, logg, dlqRepo)
	logg.Info(runCtx, "starting outbox publisher")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		proc.Fail(runCtx, "outbox publisher stopped unexpectedly", err)
	}
	logg.Info(ctx, "outbox publisher shut down")
}

func reportDLQBacklog(ctx context.Context, logg *logger.Logger, dlq *outbox.DLQRepository) {
	backlog, err := dlq.CountByReason(ctx)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "outbox dlq backlog unavailable")
		return
	}
	if len(backlog) == 0 {
		return
	}
	fields := make(map[string]any, len(backlog))
	for reason, total := range backlog {
		fields["dlq_"+reason.String()] = total
	}
	logg.Warn(logg.WithFields(ctx, fields), "outbox dlq has entries awaiting remediation")
}
