package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurement-backend/internal/orders"
	"github.com/angelmondragon/procurement-backend/pkg/db"
	"github.com/angelmondragon/procurement-backend/pkg/db/dbtest"
	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
	"github.com/angelmondragon/procurement-backend/pkg/outbox"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/payloads"
)

func civil(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newApprovalAgingJob(t *testing.T, conn *gorm.DB, emitter overdueEmitter, now time.Time) *approvalAgingJob {
	t.Helper()
	if emitter == nil {
		emitter = outbox.NewService(outbox.NewRepository(conn), nil)
	}
	job, err := NewApprovalAgingJob(ApprovalAgingJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
		DB:     db.NewFromConn(conn),
		Orders: orders.NewRepository(conn),
		Outbox: emitter,
	})
	require.NoError(t, err)
	aging := job.(*approvalAgingJob)
	aging.now = func() time.Time { return now }
	return aging
}

func TestApprovalAgingJobFlagsOverdueOrdersOnce(t *testing.T) {
	conn := dbtest.Open(t)
	supplier := dbtest.SeedSupplier(t, conn, "20123456789", "Acme SAC")
	for _, seed := range []dbtest.OrderSeed{
		{ID: "OC-2025-0001", Status: enums.PurchaseOrderStatusPendingApproval, Total: "118.00", IssueDate: civil(2025, time.March, 1)},
		{ID: "OC-2025-0002", Status: enums.PurchaseOrderStatusPendingApproval, Total: "50.00", IssueDate: civil(2025, time.March, 13)},
		{ID: "OC-2025-0003", Status: enums.PurchaseOrderStatusPendingApproval, Total: "75.00", IssueDate: civil(2025, time.March, 12)},
		{ID: "OC-2025-0004", Status: enums.PurchaseOrderStatusApproved, Total: "10.00", IssueDate: civil(2025, time.January, 2)},
	} {
		seed.Supplier = supplier
		dbtest.SeedOrder(t, conn, seed)
	}

	job := newApprovalAgingJob(t, conn, nil, time.Date(2025, time.March, 20, 15, 0, 0, 0, time.UTC))
	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))

	var events []models.OutboxEvent
	require.NoError(t, conn.Order("aggregate_id ASC").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, "OC-2025-0001", events[0].AggregateID)
	assert.Equal(t, "OC-2025-0003", events[1].AggregateID)
	assert.Equal(t, enums.EventOrderApprovalOverdue, events[0].EventType)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	var payload payloads.OrderApprovalOverdueEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, 19, payload.DaysPending)
	assert.Equal(t, "2025-03-01", payload.IssueDate)
	assert.Equal(t, "20123456789", payload.SupplierRUC)
}

type flakyEmitter struct {
	failFor string
	calls   int
}

func (f *flakyEmitter) EmitIfNotExists(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) (bool, error) {
	f.calls++
	if event.AggregateID == f.failFor {
		return false, errors.New("insert failed")
	}
	return true, nil
}

func TestApprovalAgingJobCombinesPerOrderErrors(t *testing.T) {
	conn := dbtest.Open(t)
	supplier := dbtest.SeedSupplier(t, conn, "20123456789", "Acme SAC")
	for _, id := range []string{"OC-2025-0001", "OC-2025-0002", "OC-2025-0003"} {
		dbtest.SeedOrder(t, conn, dbtest.OrderSeed{
			ID: id, Supplier: supplier, Status: enums.PurchaseOrderStatusPendingApproval,
			Total: "1.00", IssueDate: civil(2025, time.January, 1),
		})
	}

	emitter := &flakyEmitter{failFor: "OC-2025-0002"}
	job := newApprovalAgingJob(t, conn, emitter, time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC))

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OC-2025-0002")
	assert.Equal(t, 3, emitter.calls, "remaining orders are still processed")
}

func TestApprovalAgingJobUsesLocationForToday(t *testing.T) {
	lima, err := time.LoadLocation("America/Lima")
	require.NoError(t, err)

	job := &approvalAgingJob{loc: lima, now: func() time.Time {
		return time.Date(2025, time.March, 21, 3, 0, 0, 0, time.UTC)
	}}
	assert.Equal(t, civil(2025, time.March, 20), job.today())
}
