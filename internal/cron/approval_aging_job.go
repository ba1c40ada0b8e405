package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurement-backend/internal/orders"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
	"github.com/angelmondragon/procurement-backend/pkg/outbox"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/payloads"
)

const (
	defaultOverdueDays = 7
	approvalAgingBatch = 500
)

type pendingApprovalReader interface {
	ListPendingApproval(ctx context.Context, issuedBefore time.Time, limit int) ([]orders.OrderRow, error)
}

type overdueEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (bool, error)
}

// ApprovalAgingJobParams configure the overdue approval scanner.
type ApprovalAgingJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Orders      pendingApprovalReader
	Outbox      overdueEmitter
	OverdueDays int
	Location    *time.Location
}

// NewApprovalAgingJob flags orders that have waited in PendingApproval longer
// than OverdueDays. Each order is flagged at most once.
func NewApprovalAgingJob(params ApprovalAgingJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	days := params.OverdueDays
	if days <= 0 {
		days = defaultOverdueDays
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	return &approvalAgingJob{
		logg:   params.Logger,
		db:     params.DB,
		orders: params.Orders,
		outbox: params.Outbox,
		days:   days,
		loc:    loc,
		now:    time.Now,
	}, nil
}

type approvalAgingJob struct {
	logg   *logger.Logger
	db     txRunner
	orders pendingApprovalReader
	outbox overdueEmitter
	days   int
	loc    *time.Location
	now    func() time.Time
}

func (j *approvalAgingJob) Name() string { return "approval-aging" }

func (j *approvalAgingJob) Run(ctx context.Context) error {
	today := j.today()
	cutoff := today.AddDate(0, 0, -j.days)

	rows, err := j.orders.ListPendingApproval(ctx, cutoff, approvalAgingBatch)
	if err != nil {
		return fmt.Errorf("query overdue approvals: %w", err)
	}

	var errs error
	flagged := 0
	for _, row := range rows {
		emitted, err := j.flag(ctx, row, today)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", row.ID, err))
			continue
		}
		if emitted {
			flagged++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff.Format("2006-01-02"),
		"overdue_days": j.days,
		"scanned":      len(rows),
		"flagged":      flagged,
		"failed":       len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "approval aging scan complete")
	return errs
}

func (j *approvalAgingJob) flag(ctx context.Context, row orders.OrderRow, today time.Time) (bool, error) {
	var emitted bool
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		buyer := ""
		if row.Buyer != nil {
			buyer = *row.Buyer
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderApprovalOverdue,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   row.ID,
			Version:       1,
			OccurredAt:    j.now().UTC(),
			Data: payloads.OrderApprovalOverdueEvent{
				OrderID:     row.ID,
				SupplierRUC: row.SupplierRUC,
				Buyer:       buyer,
				IssueDate:   row.IssueDate.UTC().Format("2006-01-02"),
				DaysPending: int(today.Sub(row.IssueDate.UTC()).Hours() / 24),
				Total:       row.Total,
			},
		}
		ok, err := j.outbox.EmitIfNotExists(ctx, tx, event)
		emitted = ok
		return err
	})
	return emitted, err
}

// today is the current calendar date in the job's location as a UTC midnight,
// matching how issue dates are stored.
func (j *approvalAgingJob) today() time.Time {
	y, m, d := j.now().In(j.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
