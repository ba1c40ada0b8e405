package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/procurement-backend/pkg/enums"
)

func TestNewOutboxDLQCopiesEvent(t *testing.T) {
	event := OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregatePurchaseOrder,
		AggregateID:   "OC-2025-0001",
		Payload:       json.RawMessage(`{"version":1}`),
		AttemptCount:  3,
	}
	failedAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.FixedZone("PET", -5*3600))

	entry := NewOutboxDLQ(event, enums.OutboxDLQReasonUnroutable, errors.New("no topic"), failedAt)

	assert.Equal(t, event.ID, entry.EventID)
	assert.Equal(t, event.AggregateID, entry.AggregateID)
	assert.Equal(t, enums.OutboxDLQReasonUnroutable, entry.ErrorReason)
	assert.Equal(t, 3, entry.AttemptCount)
	assert.Equal(t, time.UTC, entry.FailedAt.Location())
	require.NotNil(t, entry.ErrorMessage)
	assert.Equal(t, "no topic", *entry.ErrorMessage)
}

func TestNewOutboxDLQWithoutCause(t *testing.T) {
	entry := NewOutboxDLQ(OutboxEvent{ID: uuid.New()}, enums.OutboxDLQReasonMaxAttempts, nil, time.Now())
	assert.Nil(t, entry.ErrorMessage)
}

func TestOutboxEventPublished(t *testing.T) {
	now := time.Now()
	assert.False(t, OutboxEvent{}.Published())
	assert.True(t, OutboxEvent{PublishedAt: &now}.Published())
}
