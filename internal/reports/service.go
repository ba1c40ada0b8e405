// Package reports serves the billing report read models.
package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurement-backend/pkg/db"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/procurement-backend/pkg/errors"
)

const (
	minYear = 2000
	maxYear = 9999
)

// MonthlyBillingRow is the billed total for one issue month.
type MonthlyBillingRow struct {
	Month  string `json:"month"`
	Total  string `json:"total"`
	Orders int64  `json:"orders"`
}

// MonthlyBilling is the report for one calendar year.
type MonthlyBilling struct {
	Year   int                 `json:"year"`
	Total  string              `json:"total"`
	Months []MonthlyBillingRow `json:"months"`
}

// Service exposes the reports read model.
type Service interface {
	// MonthlyBilling groups non-voided orders by issue month. A zero year means the current one.
	MonthlyBilling(ctx context.Context, year int) (*MonthlyBilling, error)
}

type service struct {
	conn *gorm.DB
	loc  *time.Location
	now  func() time.Time
}

// NewService builds the reports service. loc decides the current year; nil means UTC.
func NewService(conn *gorm.DB, loc *time.Location, now func() time.Time) (Service, error) {
	if conn == nil {
		return nil, fmt.Errorf("database connection required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &service{conn: conn, loc: loc, now: now}, nil
}

func (s *service) MonthlyBilling(ctx context.Context, year int) (*MonthlyBilling, error) {
	if year == 0 {
		year = s.now().In(s.loc).Year()
	}
	if year < minYear || year > maxYear {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "year out of range").
			WithDetails(map[string]any{"year": year})
	}

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	conn := s.conn.WithContext(ctx)
	bucket := db.MonthBucket(conn, "issue_date")

	var rows []struct {
		Month  string          `gorm:"column:month"`
		Total  decimal.Decimal `gorm:"column:total"`
		Orders int64           `gorm:"column:orders"`
	}
	if err := conn.Table("purchase_orders").
		Select(fmt.Sprintf("%s AS month, COALESCE(SUM(total), 0) AS total, COUNT(*) AS orders", bucket)).
		Where("status <> ?", string(enums.PurchaseOrderStatusVoided)).
		Where("issue_date >= ? AND issue_date < ?", start, end).
		Group(bucket).
		Scan(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "monthly billing report")
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })

	report := &MonthlyBilling{Year: year, Months: make([]MonthlyBillingRow, 0, len(rows))}
	sum := decimal.Zero
	for _, row := range rows {
		sum = sum.Add(row.Total)
		report.Months = append(report.Months, MonthlyBillingRow{
			Month:  row.Month,
			Total:  row.Total.Round(2).StringFixed(2),
			Orders: row.Orders,
		})
	}
	report.Total = sum.Round(2).StringFixed(2)
	return report, nil
}
