package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	"github.com/angelmondragon/procurement-backend/pkg/outbox"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/registry"
)

func TestProcessBatchContinuesAfterTransientFailure(t *testing.T) {
	first := orderEvent(t, "OC-2025-0001", 0)
	second := orderEvent(t, "OC-2025-0002", 0)
	h := newHarness(t, routeTo("orders"), Options{BatchSize: 10}, first, second)
	h.pub.errs = []error{errors.New("transient")}

	report, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, batchReport{published: 1, retried: 1}, report)
	assert.Equal(t, first.ID, h.store.failed[0])
	assert.Equal(t, second.ID, h.store.published[0])
	assert.Equal(t, 1, h.metrics.retried["order_created"])
	assert.Equal(t, 1, h.metrics.published["order_created"])
	assert.Empty(t, h.dlq.entries)
}

func TestProcessBatchMessageCarriesEnvelopeAndRouting(t *testing.T) {
	event := orderEvent(t, "OC-2025-0007", 0)
	event.EventType = enums.EventOrderStatusChanged
	h := newHarness(t, routeTo("orders"), Options{}, event)

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, h.pub.messages, 1)

	env, err := outbox.DecodeEnvelope(event.Payload)
	require.NoError(t, err)

	msg := h.pub.messages[0]
	assert.Equal(t, []byte(event.Payload), msg.Data)
	assert.Equal(t, "OC-2025-0007", msg.OrderingKey)
	assert.Equal(t, map[string]string{
		"event_id":       env.EventID,
		"event_type":     "order_status_changed",
		"aggregate_type": "purchase_order",
		"aggregate_id":   "OC-2025-0007",
		"created_at":     "2025-04-01T15:00:00Z",
	}, msg.Attributes)
}

func TestProcessBatchDeadLetters(t *testing.T) {
	cases := []struct {
		name     string
		resolver eventResolver
		attempts int
		pubErr   error
		reason   enums.OutboxDLQErrorReason
	}{
		{
			name: "resolve failure",
			resolver: resolverFunc(func(models.OutboxEvent) (*registry.ResolvedEvent, error) {
				return nil, registry.NewNonRetryableError(errors.New("payload missing"))
			}),
			reason: enums.OutboxDLQReasonNonRetryable,
		},
		{
			name:     "no publisher for topic",
			resolver: routeTo(""),
			reason:   enums.OutboxDLQReasonUnroutable,
		},
		{
			name:     "publisher rejects permanently",
			resolver: routeTo("orders"),
			pubErr:   registry.NewNonRetryableError(errors.New("message too large")),
			reason:   enums.OutboxDLQReasonNonRetryable,
		},
		{
			name:     "attempts exhausted",
			resolver: routeTo("orders"),
			attempts: 2,
			pubErr:   errors.New("deadline exceeded"),
			reason:   enums.OutboxDLQReasonMaxAttempts,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event := orderEvent(t, "OC-2025-0003", tc.attempts)
			h := newHarness(t, tc.resolver, Options{MaxAttempts: 3}, event)
			if tc.pubErr != nil {
				h.pub.errs = []error{tc.pubErr}
			}

			report, err := h.svc.processBatch(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, report.deadLettered)

			require.Len(t, h.dlq.entries, 1)
			entry := h.dlq.entries[0]
			assert.Equal(t, event.ID, entry.EventID)
			assert.Equal(t, tc.reason, entry.ErrorReason)
			assert.Equal(t, []byte(event.Payload), []byte(entry.Payload))
			assert.Equal(t, h.svc.now(), entry.FailedAt)
			require.NotNil(t, entry.ErrorMessage)

			assert.Equal(t, 3, h.store.terminal[event.ID])
			assert.Empty(t, h.store.published)
			assert.Empty(t, h.store.failed)
			assert.Equal(t, 1, h.metrics.deadLettered[tc.reason.String()])
		})
	}
}

func TestProcessBatchBelowMaxAttemptsRetries(t *testing.T) {
	event := orderEvent(t, "OC-2025-0004", 1)
	h := newHarness(t, routeTo("orders"), Options{MaxAttempts: 3}, event)
	h.pub.errs = []error{errors.New("unavailable")}

	report, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.retried)
	assert.Empty(t, h.dlq.entries)
}

func TestProcessBatchSkipsPublishedRows(t *testing.T) {
	event := orderEvent(t, "OC-2025-0005", 0)
	publishedAt := event.CreatedAt
	event.PublishedAt = &publishedAt
	h := newHarness(t, routeTo("orders"), Options{}, event)

	report, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.total())
	assert.Empty(t, h.pub.messages)
}

func TestProcessBatchAbortsOnBookkeepingFailure(t *testing.T) {
	h := newHarness(t, routeTo("orders"), Options{}, orderEvent(t, "OC-2025-0006", 0))
	h.store.markErr = errors.New("connection reset")

	_, err := h.svc.processBatch(context.Background())
	assert.ErrorContains(t, err, "mark published")
}

func TestProcessBatchFetchError(t *testing.T) {
	h := newHarness(t, routeTo("orders"), Options{})
	h.store.fetchErr = errors.New("locked")

	_, err := h.svc.processBatch(context.Background())
	assert.ErrorContains(t, err, "fetch outbox batch")
}

func TestBatchReportFields(t *testing.T) {
	var r batchReport
	r.add(outcomePublished)
	r.add(outcomePublished)
	r.add(outcomeDeadLettered)
	assert.Equal(t, 3, r.total())
	assert.Equal(t, map[string]any{"published": 2, "retried": 0, "dead_lettered": 1}, r.fields())
}
