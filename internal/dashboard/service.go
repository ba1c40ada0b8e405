// Package dashboard computes read-only KPI and chart aggregations over purchase orders.
package dashboard

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

// Bounds for the Charts supplier ranking.
const (
	DefaultTopSuppliers = 5
	MaxTopSuppliers     = 20
	seriesMonths        = 12
)

// spendExcluded never count towards spend figures.
var spendExcluded = []string{
	string(enums.PurchaseOrderStatusDraft),
	string(enums.PurchaseOrderStatusVoided),
}

// Service exposes dashboard aggregations.
type Service interface {
	KPIs(ctx context.Context) (*KPIs, error)
	Charts(ctx context.Context, topN int) (*Charts, error)
}

// Options controls which calendar the "current month" and aging are computed in.
type Options struct {
	Location *time.Location
	Now      func() time.Time
}

type service struct {
	conn *gorm.DB
	loc  *time.Location
	now  func() time.Time
}

// NewService builds a dashboard service reading from conn.
func NewService(conn *gorm.DB, opts Options) (Service, error) {
	if conn == nil {
		return nil, fmt.Errorf("database connection required")
	}
	s := &service{conn: conn, loc: opts.Location, now: opts.Now}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *service) KPIs(ctx context.Context) (*KPIs, error) {
	conn := s.conn.WithContext(ctx)

	counts, total, err := s.countsByStatus(conn)
	if err != nil {
		return nil, err
	}

	monthStart := monthOf(s.now().In(s.loc))
	spend, err := s.spendBetween(conn, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}

	out := &KPIs{
		CountsByStatus:   counts,
		TotalOrders:      total,
		MonthlySpend:     formatMoney(spend),
		InsufficientData: []string{},
	}

	out.AvgApprovalHours, err = s.avgApprovalHours(conn)
	if err != nil {
		return nil, err
	}
	if out.AvgApprovalHours == nil {
		out.InsufficientData = append(out.InsufficientData, MetricAvgApprovalHours)
	}

	out.OnTimeDeliveryPct, err = s.onTimeDeliveryPct(conn)
	if err != nil {
		return nil, err
	}
	if out.OnTimeDeliveryPct == nil {
		out.InsufficientData = append(out.InsufficientData, MetricOnTimeDeliveryPct)
	}
	return out, nil
}

func (s *service) Charts(ctx context.Context, topN int) (*Charts, error) {
	conn := s.conn.WithContext(ctx)
	topN = normalizeTopN(topN)

	categories, err := s.spendByCategory(conn)
	if err != nil {
		return nil, err
	}
	suppliers, err := s.topSuppliers(conn, topN)
	if err != nil {
		return nil, err
	}

	today := s.now().In(s.loc)
	series, err := s.monthlySeries(conn, monthOf(today))
	if err != nil {
		return nil, err
	}

	var issued []time.Time
	if err := conn.Table("purchase_orders").
		Where("status = ?", string(enums.PurchaseOrderStatusPendingApproval)).
		Pluck("issue_date", &issued).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pending approval orders")
	}

	return &Charts{
		SpendByCategory: categories,
		TopSuppliers:    suppliers,
		MonthlySpend:    series,
		Aging:           BucketAging(today, issued),
	}, nil
}

func (s *service) countsByStatus(conn *gorm.DB) ([]StatusCount, int64, error) {
	var rows []struct {
		Status string `gorm:"column:status"`
		Count  int64  `gorm:"column:count"`
	}
	if err := conn.Table("purchase_orders").
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders by status")
	}

	byStatus := make(map[enums.PurchaseOrderStatus]int64, len(rows))
	var total int64
	for _, row := range rows {
		byStatus[enums.PurchaseOrderStatus(row.Status)] += row.Count
		total += row.Count
	}

	statuses := enums.PurchaseOrderStatuses()
	counts := make([]StatusCount, 0, len(statuses))
	for _, status := range statuses {
		counts = append(counts, StatusCount{Status: status, Count: byStatus[status]})
	}
	return counts, total, nil
}

func (s *service) spendBetween(conn *gorm.DB, from, to time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := conn.Table("purchase_orders").
		Select("COALESCE(SUM(total), 0) AS total").
		Where("status NOT IN ?", spendExcluded).
		Where("issue_date >= ? AND issue_date < ?", from, to).
		Scan(&row).Error; err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum monthly spend")
	}
	return row.Total, nil
}

func (s *service) avgApprovalHours(conn *gorm.DB) (*float64, error) {
	var row struct {
		Samples int64    `gorm:"column:samples"`
		Hours   *float64 `gorm:"column:hours"`
	}
	expr := db.HoursBetween(conn, "created_at", "approved_at")
	if err := conn.Table("purchase_orders").
		Select(fmt.Sprintf("COUNT(*) AS samples, AVG(%s) AS hours", expr)).
		Where("approved_at IS NOT NULL").
		Scan(&row).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "average approval hours")
	}
	if row.Samples == 0 || row.Hours == nil {
		return nil, nil
	}
	return roundPtr(*row.Hours, 2), nil
}

func (s *service) onTimeDeliveryPct(conn *gorm.DB) (*float64, error) {
	var row struct {
		Samples int64 `gorm:"column:samples"`
		OnTime  int64 `gorm:"column:on_time"`
	}
	onTime := fmt.Sprintf("COALESCE(SUM(CASE WHEN %s <= %s THEN 1 ELSE 0 END), 0) AS on_time",
		db.DateOf(conn, "received_at"), db.DateOf(conn, "estimated_delivery_date"))
	if err := conn.Table("purchase_orders").
		Select("COUNT(*) AS samples, "+onTime).
		Where("received_at IS NOT NULL AND estimated_delivery_date IS NOT NULL").
		Scan(&row).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "on-time delivery rate")
	}
	if row.Samples == 0 {
		return nil, nil
	}
	pct := float64(row.OnTime) * 100 / float64(row.Samples)
	return roundPtr(pct, 1), nil
}

func (s *service) spendByCategory(conn *gorm.DB) ([]CategorySpend, error) {
	var rows []struct {
		Category string          `gorm:"column:category"`
		Total    decimal.Decimal `gorm:"column:total"`
		Orders   int64           `gorm:"column:orders"`
	}
	if err := conn.Table("purchase_orders").
		Select("category, COALESCE(SUM(total), 0) AS total, COUNT(*) AS orders").
		Where("status NOT IN ?", spendExcluded).
		Group("category").
		Scan(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "spend by category")
	}

	out := make([]CategorySpend, 0, len(rows))
	for _, row := range rows {
		out = append(out, CategorySpend{Category: row.Category, Total: formatMoney(row.Total), Orders: row.Orders})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := decimal.RequireFromString(out[i].Total), decimal.RequireFromString(out[j].Total)
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (s *service) topSuppliers(conn *gorm.DB, limit int) ([]SupplierSpend, error) {
	var rows []struct {
		RUC    string          `gorm:"column:ruc"`
		Name   string          `gorm:"column:business_name"`
		Total  decimal.Decimal `gorm:"column:total"`
		Orders int64           `gorm:"column:orders"`
	}
	if err := conn.Table("purchase_orders AS po").
		Select("s.ruc, s.business_name, COALESCE(SUM(po.total), 0) AS total, COUNT(*) AS orders").
		Joins("JOIN suppliers s ON s.id = po.supplier_id").
		Where("po.status NOT IN ?", spendExcluded).
		Group("s.id, s.ruc, s.business_name").
		Order("total DESC").
		Order("s.business_name ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "top suppliers by spend")
	}

	out := make([]SupplierSpend, 0, len(rows))
	for _, row := range rows {
		out = append(out, SupplierSpend{
			SupplierRUC:  row.RUC,
			SupplierName: row.Name,
			Total:        formatMoney(row.Total),
			Orders:       row.Orders,
		})
	}
	return out, nil
}

// monthlySeries returns spend for the twelve months ending with current, zero-filled.
func (s *service) monthlySeries(conn *gorm.DB, current time.Time) ([]MonthSpend, error) {
	start := current.AddDate(0, -(seriesMonths - 1), 0)
	end := current.AddDate(0, 1, 0)

	var rows []struct {
		Month string          `gorm:"column:month"`
		Total decimal.Decimal `gorm:"column:total"`
	}
	bucket := db.MonthBucket(conn, "issue_date")
	if err := conn.Table("purchase_orders").
		Select(fmt.Sprintf("%s AS month, COALESCE(SUM(total), 0) AS total", bucket)).
		Where("status NOT IN ?", spendExcluded).
		Where("issue_date >= ? AND issue_date < ?", start, end).
		Group(bucket).
		Scan(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "monthly spend series")
	}

	byMonth := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		byMonth[row.Month] = row.Total
	}

	series := make([]MonthSpend, 0, seriesMonths)
	for month := start; month.Before(end); month = month.AddDate(0, 1, 0) {
		key := month.Format("2006-01")
		series = append(series, MonthSpend{Month: key, Total: formatMoney(byMonth[key])})
	}
	return series, nil
}

func normalizeTopN(n int) int {
	if n <= 0 {
		return DefaultTopSuppliers
	}
	if n > MaxTopSuppliers {
		return MaxTopSuppliers
	}
	return n
}

// monthOf returns the first day of t's month as a UTC calendar date.
func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func formatMoney(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

func roundPtr(v float64, places int32) *float64 {
	rounded, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return &rounded
}
