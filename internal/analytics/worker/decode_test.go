package worker

import (
	"encoding/json"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/procurement-backend/pkg/enums"
	"github.com/angelmondragon/procurement-backend/pkg/outbox"
)

func message(t *testing.T, env outbox.PayloadEnvelope, attrs map[string]string) *gcppubsub.Message {
	t.Helper()
	data, err := json.Marshal(env)
	require.NoError(t, err)
	return &gcppubsub.Message{ID: "msg-1", Data: data, Attributes: attrs}
}

func orderAttrs(eventType, orderID string) map[string]string {
	return map[string]string{
		"event_type":     eventType,
		"aggregate_type": "purchase_order",
		"aggregate_id":   orderID,
	}
}

func TestDecode(t *testing.T) {
	occurred := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := message(t, outbox.PayloadEnvelope{
		Version:    1,
		EventID:    "evt-1",
		OccurredAt: occurred,
		Data:       json.RawMessage(`{"orderId":"OC-2025-0001"}`),
	}, orderAttrs(" order_created ", "OC-2025-0001"))

	env, err := Decode(msg)
	require.NoError(t, err)
	assert.Equal(t, enums.EventOrderCreated, env.EventType)
	assert.Equal(t, enums.AggregatePurchaseOrder, env.AggregateType)
	assert.Equal(t, "OC-2025-0001", env.AggregateID)
	assert.Equal(t, "evt-1", env.EventID)
	assert.Equal(t, 1, env.Version)
	assert.True(t, env.OccurredAt.Equal(occurred))
	assert.JSONEq(t, `{"orderId":"OC-2025-0001"}`, string(env.Payload))
}

func TestDecodeFallsBackToAttributes(t *testing.T) {
	attrs := orderAttrs("order_deleted", "OC-2025-0001")
	attrs["event_id"] = "evt-attr"
	attrs["created_at"] = "2025-03-01T10:00:00Z"
	msg := message(t, outbox.PayloadEnvelope{Data: json.RawMessage(`{}`)}, attrs)

	env, err := Decode(msg)
	require.NoError(t, err)
	assert.Equal(t, "evt-attr", env.EventID)
	assert.True(t, env.OccurredAt.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))
}

func TestDecodeRejects(t *testing.T) {
	valid := outbox.PayloadEnvelope{EventID: "evt-2", Data: json.RawMessage(`{}`)}
	cases := map[string]*gcppubsub.Message{
		"nil message":        nil,
		"not json":           {Data: []byte("invalid json")},
		"missing data":       message(t, outbox.PayloadEnvelope{EventID: "evt-2"}, orderAttrs("order_created", "OC-1")),
		"unknown event type": message(t, valid, orderAttrs("invoice_posted", "OC-1")),
		"missing aggregate":  message(t, valid, orderAttrs("order_created", " ")),
		"missing event id":   message(t, outbox.PayloadEnvelope{Data: json.RawMessage(`{}`)}, orderAttrs("order_created", "OC-1")),
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(msg)
			assert.ErrorIs(t, err, ErrMalformedMessage)
		})
	}
}

func TestDecodeReportsEveryBadAttribute(t *testing.T) {
	msg := message(t, outbox.PayloadEnvelope{Data: json.RawMessage(`{}`)}, map[string]string{})

	_, err := Decode(msg)
	require.Error(t, err)
	for _, want := range []string{"event_type", "aggregate_type", "aggregate_id missing", "event_id missing"} {
		assert.Contains(t, err.Error(), want)
	}
}
