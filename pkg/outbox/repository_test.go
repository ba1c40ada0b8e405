package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurement-backend/pkg/db/dbtest"
	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/payloads"
)

func TestServiceEmitStoresEnvelope(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	occurred := time.Date(2025, 5, 2, 15, 0, 0, 0, time.UTC)
	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderDeleted,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   "OC-2025-0009",
			Actor:         &ActorRef{Name: "Ana Quispe"},
			Data:          payloads.OrderDeletedEvent{OrderID: "OC-2025-0009", Status: enums.PurchaseOrderStatusDraft},
			OccurredAt:    occurred,
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "OC-2025-0009", rows[0].AggregateID)
	assert.Equal(t, enums.EventOrderDeleted, rows[0].EventType)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.True(t, occurred.Equal(envelope.OccurredAt))
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, "Ana Quispe", envelope.Actor.Name)

	var data payloads.OrderDeletedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, enums.PurchaseOrderStatusDraft, data.Status)
}

func TestServiceEmitRollsBackWithTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   "OC-2025-0001",
			Data:          map[string]string{"order_id": "OC-2025-0001"},
		}); err != nil {
			return err
		}
		return errors.New("line item insert failed")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestServiceEmitValidatesEvent(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	err := svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     "order_teleported",
		AggregateType: enums.AggregatePurchaseOrder,
		AggregateID:   "OC-2025-0001",
	})
	assert.Error(t, err)

	err = svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregatePurchaseOrder,
	})
	assert.Error(t, err)

	err = svc.Emit(context.Background(), nil, DomainEvent{})
	assert.Error(t, err)
}

func TestServiceEmitIfNotExists(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	event := DomainEvent{
		EventType:     enums.EventOrderApprovalOverdue,
		AggregateType: enums.AggregatePurchaseOrder,
		AggregateID:   "OC-2025-0004",
		Data:          payloads.OrderApprovalOverdueEvent{OrderID: "OC-2025-0004", DaysPending: 9},
	}

	emitted, err := svc.EmitIfNotExists(context.Background(), conn, event)
	require.NoError(t, err)
	assert.True(t, emitted)

	emitted, err = svc.EmitIfNotExists(context.Background(), conn, event)
	require.NoError(t, err)
	assert.False(t, emitted)

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := make([]uuid.UUID, 3)
	for i := range ids {
		ids[i] = uuid.New()
		require.NoError(t, repo.Insert(conn, models.OutboxEvent{
			ID:            ids[i],
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   "OC-2025-000" + string(rune('1'+i)),
			Payload:       json.RawMessage(`{}`),
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}))
	}

	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ids[0], rows[0].ID)

	require.NoError(t, repo.MarkPublishedTx(conn, ids[0]))
	require.NoError(t, repo.MarkFailedTx(conn, ids[1], errors.New("pubsub unavailable")))
	require.NoError(t, repo.MarkTerminalTx(conn, ids[2], errors.New("bad payload"), 3))

	rows, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ids[1], rows[0].ID)
	assert.Equal(t, 1, rows[0].AttemptCount)
	require.NotNil(t, rows[0].LastError)
	assert.Equal(t, "pubsub unavailable", *rows[0].LastError)

	deleted, err := repo.DeletePublishedBefore(conn, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = repo.DeletePublishedBefore(conn, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestDLQRepositoryInsertTruncates(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewDLQRepository(conn)

	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	msg := string(long)
	eventID := uuid.New()
	require.NoError(t, repo.InsertTx(conn, models.OutboxDLQ{
		EventID:       eventID,
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregatePurchaseOrder,
		AggregateID:   "OC-2025-0001",
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonNonRetryable,
		ErrorMessage:  &msg,
		FailedAt:      time.Now().UTC(),
	}))

	entry, err := repo.FindByEventID(context.Background(), eventID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.NotNil(t, entry.ErrorMessage)
	assert.Len(t, *entry.ErrorMessage, maxLastErrorLen)

	missing, err := repo.FindByEventID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	counts, err := repo.CountByReason(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[enums.OutboxDLQErrorReason]int64{enums.OutboxDLQReasonNonRetryable: 1}, counts)
}

func TestDLQRepositoryCountByReason(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewDLQRepository(conn)

	for _, reason := range []enums.OutboxDLQErrorReason{
		enums.OutboxDLQReasonMaxAttempts,
		enums.OutboxDLQReasonMaxAttempts,
		enums.OutboxDLQReasonUnroutable,
	} {
		require.NoError(t, repo.InsertTx(conn, models.OutboxDLQ{
			EventID:       uuid.New(),
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   "OC-2025-0004",
			Payload:       json.RawMessage(`{}`),
			ErrorReason:   reason,
			FailedAt:      time.Now().UTC(),
		}))
	}

	counts, err := repo.CountByReason(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[enums.OutboxDLQReasonMaxAttempts])
	assert.Equal(t, int64(1), counts[enums.OutboxDLQReasonUnroutable])
	assert.Zero(t, counts[enums.OutboxDLQReasonNonRetryable])
}

func TestClipKeepsRunesWhole(t *testing.T) {
	short := "timeout"
	assert.Equal(t, short, clip(short))

	long := strings.Repeat("a", maxLastErrorLen-1) + "ñandú"
	clipped := clip(long)
	assert.LessOrEqual(t, len(clipped), maxLastErrorLen)
	assert.True(t, utf8.ValidString(clipped))
	assert.Equal(t, strings.Repeat("a", maxLastErrorLen-1), clipped)
}
