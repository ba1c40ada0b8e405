package reports

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalreports "github.com/angelmondragon/procurement-backend/internal/reports"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
)

type stubReports struct {
	lastYear int
}

func (s *stubReports) MonthlyBilling(_ context.Context, year int) (*internalreports.MonthlyBilling, error) {
	s.lastYear = year
	if year == 0 {
		year = 2025
	}
	return &internalreports.MonthlyBilling{
		Year:   year,
		Total:  "118.00",
		Months: []internalreports.MonthlyBillingRow{{Month: "2025-03", Total: "118.00", Orders: 1}},
	}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestMonthlyBilling(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		status   int
		wantYear int
	}{
		{"default year", "/reports/monthly-billing", http.StatusOK, 0},
		{"explicit year", "/reports/monthly-billing?year=2024", http.StatusOK, 2024},
		{"out of range", "/reports/monthly-billing?year=1999", http.StatusBadRequest, -1},
		{"not numeric", "/reports/monthly-billing?year=abc", http.StatusBadRequest, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubReports{lastYear: -1}
			w := httptest.NewRecorder()
			MonthlyBilling(svc, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			require.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.wantYear, svc.lastYear)
		})
	}
}

func TestMonthlyBillingEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	MonthlyBilling(&stubReports{}, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/monthly-billing?year=2025", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"year":2025,"total":"118.00","months":[{"month":"2025-03","total":"118.00","orders":1}]}}`, w.Body.String())
}
