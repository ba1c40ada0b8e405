package registry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/procurement-backend/pkg/config"
	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	"github.com/angelmondragon/procurement-backend/pkg/outbox"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/payloads"
)

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: " orders-topic "})
	require.NoError(t, err)
	return reg
}

func envelopeFor(t *testing.T, data any) json.RawMessage {
	t.Helper()
	raw, ok := data.([]byte)
	if !ok {
		var err error
		raw, err = json.Marshal(data)
		require.NoError(t, err)
	}
	encoded, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	require.NoError(t, err)
	return encoded
}

func TestEventRegistryResolvesStatusChange(t *testing.T) {
	reg := newTestEventRegistry(t)

	resolved, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregatePurchaseOrder,
		AggregateID:   "OC-2025-0007",
		Payload: envelopeFor(t, payloads.OrderStatusChangedEvent{
			OrderID: "OC-2025-0007",
			From:    enums.PurchaseOrderStatusPendingApproval,
			To:      enums.PurchaseOrderStatusApproved,
			Action:  enums.HistoryActionApproved,
			Actor:   "Lucia Torres",
			Total:   decimal.RequireFromString("1180.00"),
		}),
	})
	require.NoError(t, err)

	assert.Equal(t, "orders-topic", resolved.Descriptor.Topic)
	assert.NotEmpty(t, resolved.Envelope.EventID)
	payload, ok := resolved.Payload.(*payloads.OrderStatusChangedEvent)
	require.True(t, ok, "payload type %T", resolved.Payload)
	assert.Equal(t, enums.PurchaseOrderStatusApproved, payload.To)
	assert.Equal(t, enums.HistoryActionApproved, payload.Action)
	assert.True(t, payload.Total.Equal(decimal.RequireFromString("1180")))
}

func TestEventRegistryRoutesEveryEventType(t *testing.T) {
	reg := newTestEventRegistry(t)
	expected := map[enums.OutboxEventType]enums.OutboxAggregateType{
		enums.EventOrderCreated:         enums.AggregatePurchaseOrder,
		enums.EventOrderUpdated:         enums.AggregatePurchaseOrder,
		enums.EventOrderStatusChanged:   enums.AggregatePurchaseOrder,
		enums.EventOrderDeleted:         enums.AggregatePurchaseOrder,
		enums.EventOrderApprovalOverdue: enums.AggregatePurchaseOrder,
		enums.EventSuppliersImported:    enums.AggregateSupplier,
	}
	for eventType, aggregate := range expected {
		desc, ok := reg.Descriptor(eventType)
		require.True(t, ok, eventType)
		assert.Equal(t, aggregate, desc.AggregateType, eventType)
		assert.Equal(t, "orders-topic", desc.Topic)
	}
}

func TestEventRegistryRejectsInvalidRows(t *testing.T) {
	reg := newTestEventRegistry(t)

	cases := []struct {
		name  string
		event models.OutboxEvent
		want  string
	}{
		{
			name: "unknown event",
			event: models.OutboxEvent{
				EventType:     "order_teleported",
				AggregateType: enums.AggregatePurchaseOrder,
				AggregateID:   "OC-2025-0001",
				Payload:       envelopeFor(t, []byte(`{}`)),
			},
			want: "unsupported event type",
		},
		{
			name: "aggregate mismatch",
			event: models.OutboxEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateSupplier,
				AggregateID:   "OC-2025-0001",
				Payload:       envelopeFor(t, []byte(`{"order_id":"OC-2025-0001"}`)),
			},
			want: "aggregate mismatch",
		},
		{
			name: "missing aggregate id",
			event: models.OutboxEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregatePurchaseOrder,
				AggregateID:   " ",
				Payload:       envelopeFor(t, []byte(`{}`)),
			},
			want: "missing aggregate_id",
		},
		{
			name: "null payload",
			event: models.OutboxEvent{
				EventType:     enums.EventOrderDeleted,
				AggregateType: enums.AggregatePurchaseOrder,
				AggregateID:   "OC-2025-0001",
				Payload:       envelopeFor(t, []byte("null")),
			},
			want: "payload missing",
		},
		{
			name: "payload of the wrong shape",
			event: models.OutboxEvent{
				EventType:     enums.EventOrderDeleted,
				AggregateType: enums.AggregatePurchaseOrder,
				AggregateID:   "OC-2025-0001",
				Payload:       envelopeFor(t, []byte(`["OC-2025-0001"]`)),
			},
			want: "decode order_deleted payload",
		},
		{
			name: "broken envelope",
			event: models.OutboxEvent{
				EventType:     enums.EventOrderDeleted,
				AggregateType: enums.AggregatePurchaseOrder,
				AggregateID:   "OC-2025-0001",
				Payload:       json.RawMessage(`{"data":`),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := reg.Resolve(tc.event)
			require.Error(t, err)
			var nonRetry NonRetryableError
			assert.ErrorAs(t, err, &nonRetry)
			if tc.want != "" {
				assert.ErrorContains(t, err, tc.want)
			}
		})
	}
}

func TestNewEventRegistryRequiresTopic(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "  "})
	assert.EqualError(t, err, "orders topic is required")
}

func TestNonRetryableErrorMessage(t *testing.T) {
	assert.Equal(t, "non-retryable error", NonRetryableError{}.Error())
	assert.Nil(t, NonRetryableError{}.Unwrap())
}
