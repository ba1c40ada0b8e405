package orders

import (
	"net/http"

	"github.com/angelmondragon/procurement-backend/api/responses"
	"github.com/angelmondragon/procurement-backend/api/validators"
	"github.com/angelmondragon/procurement-backend/internal/dashboard"
	pkgerrors "github.com/angelmondragon/procurement-backend/pkg/errors"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
)

// KPIs returns the dashboard indicators.
func KPIs(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}
		kpis, err := svc.KPIs(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, kpis)
	}
}

// Charts returns the dashboard chart series. topN bounds the supplier ranking.
func Charts(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}
		topN, err := validators.ParseQueryInt(r, "topN", dashboard.DefaultTopSuppliers, 1, dashboard.MaxTopSuppliers)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		charts, err := svc.Charts(r.Context(), topN)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, charts)
	}
}
