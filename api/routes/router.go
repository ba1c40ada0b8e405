package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/procurement-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/procurement-backend/api/controllers/orders"
	reportcontrollers "github.com/angelmondragon/procurement-backend/api/controllers/reports"
	suppliercontrollers "github.com/angelmondragon/procurement-backend/api/controllers/suppliers"
	"github.com/angelmondragon/procurement-backend/api/middleware"
	"github.com/angelmondragon/procurement-backend/internal/dashboard"
	"github.com/angelmondragon/procurement-backend/internal/orders"
	"github.com/angelmondragon/procurement-backend/internal/reports"
	"github.com/angelmondragon/procurement-backend/internal/suppliers"
	"github.com/angelmondragon/procurement-backend/pkg/config"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
	"github.com/angelmondragon/procurement-backend/pkg/metrics"
	"github.com/angelmondragon/procurement-backend/pkg/redis"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Orders    orders.Service
	Suppliers suppliers.Service
	Dashboard dashboard.Service
	Reports   reports.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	idempotencyStore redis.IdempotencyStore,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	services Services,
	readiness ...controllers.Dependency,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
		middleware.Metrics(httpMetrics),
		middleware.Actor(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	var idempotency func(http.Handler) http.Handler
	if idempotencyStore != nil {
		idempotency = middleware.Idempotency(idempotencyStore, cfg.FeatureFlags.IdempotencyRequired, logg)
	} else {
		idempotency = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/orders", func(r chi.Router) {
		r.Use(idempotency)
		r.Get("/", ordercontrollers.List(services.Orders, logg))
		r.Post("/", ordercontrollers.Create(services.Orders, logg))
		r.Get("/kpis", ordercontrollers.KPIs(services.Dashboard, logg))
		r.Get("/charts", ordercontrollers.Charts(services.Dashboard, logg))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", ordercontrollers.Detail(services.Orders, logg))
			r.Put("/", ordercontrollers.Update(services.Orders, logg))
			r.Delete("/", ordercontrollers.Delete(services.Orders, logg))
			r.Put("/status", ordercontrollers.UpdateStatus(services.Orders, logg))
			r.Post("/attachments", ordercontrollers.AddAttachment(services.Orders, logg))
		})
	})

	r.Route("/suppliers", func(r chi.Router) {
		r.Use(idempotency)
		r.Get("/", suppliercontrollers.List(services.Suppliers, logg))
		r.Post("/", suppliercontrollers.Create(services.Suppliers, logg))
		r.Post("/import", suppliercontrollers.Import(services.Suppliers, logg))
		r.Get("/{ruc}", suppliercontrollers.Detail(services.Suppliers, logg))
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/monthly-billing", reportcontrollers.MonthlyBilling(services.Reports, logg))
	})

	return r
}
