package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/procurement-backend/pkg/db/dbtest"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/procurement-backend/pkg/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthlyBilling(t *testing.T) {
	conn := dbtest.Open(t)
	supplier := dbtest.SeedSupplier(t, conn, "20123456789", "Acme SAC")

	for _, seed := range []dbtest.OrderSeed{
		{ID: "OC-2025-0001", Status: enums.PurchaseOrderStatusApproved, Total: "100.00", IssueDate: date(2025, time.March, 2)},
		{ID: "OC-2025-0002", Status: enums.PurchaseOrderStatusClosed, Total: "250.25", IssueDate: date(2025, time.March, 31)},
		{ID: "OC-2025-0003", Status: enums.PurchaseOrderStatusDraft, Total: "10.00", IssueDate: date(2025, time.January, 9)},
		{ID: "OC-2025-0004", Status: enums.PurchaseOrderStatusVoided, Total: "999.00", IssueDate: date(2025, time.January, 10)},
		{ID: "OC-2025-0005", Status: enums.PurchaseOrderStatusSent, Total: "40.00", IssueDate: date(2025, time.December, 31)},
		{ID: "OC-2024-0001", Status: enums.PurchaseOrderStatusClosed, Total: "70.00", IssueDate: date(2024, time.December, 31)},
	} {
		seed.Supplier = supplier
		dbtest.SeedOrder(t, conn, seed)
	}

	svc, err := NewService(conn, nil, func() time.Time { return date(2025, time.June, 1) })
	require.NoError(t, err)

	report, err := svc.MonthlyBilling(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 2025, report.Year)
	assert.Equal(t, "400.25", report.Total)
	assert.Equal(t, []MonthlyBillingRow{
		{Month: "2025-01", Total: "10.00", Orders: 1},
		{Month: "2025-03", Total: "350.25", Orders: 2},
		{Month: "2025-12", Total: "40.00", Orders: 1},
	}, report.Months)

	previous, err := svc.MonthlyBilling(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, []MonthlyBillingRow{{Month: "2024-12", Total: "70.00", Orders: 1}}, previous.Months)

	empty, err := svc.MonthlyBilling(context.Background(), 2023)
	require.NoError(t, err)
	assert.Empty(t, empty.Months)
	assert.Equal(t, "0.00", empty.Total)
}

func TestMonthlyBillingRejectsYearOutOfRange(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(conn, nil, nil)
	require.NoError(t, err)

	_, err = svc.MonthlyBilling(context.Background(), 12)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
