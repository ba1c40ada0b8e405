package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/procurement-backend/api/controllers"
	"github.com/angelmondragon/procurement-backend/api/routes"
	"github.com/angelmondragon/procurement-backend/internal/dashboard"
	"github.com/angelmondragon/procurement-backend/internal/orders"
	"github.com/angelmondragon/procurement-backend/internal/reports"
	"github.com/angelmondragon/procurement-backend/internal/suppliers"
	"github.com/angelmondragon/procurement-backend/pkg/bootstrap"
	"github.com/angelmondragon/procurement-backend/pkg/db"
	"github.com/angelmondragon/procurement-backend/pkg/metrics"
	"github.com/angelmondragon/procurement-backend/pkg/migrate"
	"github.com/angelmondragon/procurement-backend/pkg/outbox"
	"github.com/angelmondragon/procurement-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	proc := bootstrap.Start("api")
	cfg, logg := proc.Config, proc.Logger
	ctx := context.Background()

	loc, err := cfg.Orders.Location()
	proc.Require(ctx, "orders timezone", err)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	proc.Require(ctx, "database", err)
	defer proc.Close(ctx, "database", dbClient)

	proc.Require(ctx, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	proc.Require(ctx, "redis", err)
	defer proc.Close(ctx, "redis", redisClient)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, outboxService, logg, orders.Options{
		Location:     loc,
		StrictTotals: cfg.Orders.StrictTotals,
		Metrics:      metrics.NewOrderMetrics(prometheus.DefaultRegisterer),
	})
	proc.Require(ctx, "orders service", err)

	suppliersService, err := suppliers.NewService(suppliers.NewRepository(dbClient.DB()), dbClient, outboxService, logg)
	proc.Require(ctx, "suppliers service", err)

	dashboardService, err := dashboard.NewService(dbClient.DB(), dashboard.Options{Location: loc})
	proc.Require(ctx, "dashboard service", err)

	reportsService, err := reports.NewService(dbClient.DB(), loc, time.Now)
	proc.Require(ctx, "reports service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	sigCtx, stop := proc.SignalContext()
	defer stop()
	ctx = logg.WithField(sigCtx, "addr", addr)

	handler := routes.NewRouter(
		cfg,
		logg,
		redisClient,
		metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		promhttp.Handler(),
		routes.Services{
			Orders:    ordersService,
			Suppliers: suppliersService,
			Dashboard: dashboardService,
			Reports:   reportsService,
		},
		controllers.Dependency{Name: "database", Pinger: dbClient},
		controllers.Dependency{Name: "redis", Pinger: redisClient},
	)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			proc.Fail(ctx, "api server stopped unexpectedly", err)
		}
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server stopped")
	}
}
