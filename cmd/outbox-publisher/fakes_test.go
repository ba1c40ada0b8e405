package main

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
	"github.com/angelmondragon/procurement-backend/pkg/outbox"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/registry"
)

type harness struct {
	svc     *Service
	store   *fakeStore
	dlq     *fakeDeadLetters
	pub     *fakePublisher
	metrics *fakeMetrics
	topics  *fakeTopics
	db      *fakeTx
}

func newHarness(t *testing.T, resolve eventResolver, opts Options, events ...models.OutboxEvent) *harness {
	t.Helper()
	h := &harness{
		store:   &fakeStore{events: events},
		dlq:     &fakeDeadLetters{},
		pub:     &fakePublisher{},
		metrics: &fakeMetrics{},
		topics:  &fakeTopics{},
		db:      &fakeTx{},
	}
	svc, err := NewService(ServiceParams{
		Logger:      logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:          h.db,
		Topics:      h.topics,
		Store:       h.store,
		Registry:    resolve,
		DeadLetters: h.dlq,
		Metrics:     h.metrics,
		Publishers: func(topic string) publisher {
			if topic == "" {
				return nil
			}
			return h.pub
		},
		Options: opts,
	})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC) }
	h.svc = svc
	return h
}

func orderEvent(t *testing.T, orderID string, attempts int) models.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Date(2025, 4, 1, 15, 0, 0, 0, time.UTC),
		Data:       json.RawMessage(`{"orderId":"` + orderID + `"}`),
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregatePurchaseOrder,
		AggregateID:   orderID,
		Payload:       payload,
		AttemptCount:  attempts,
		CreatedAt:     time.Date(2025, 4, 1, 15, 0, 0, 0, time.UTC),
	}
}

type fakeTx struct {
	pingErr error
	txErr   error
}

func (f *fakeTx) Ping(context.Context) error { return f.pingErr }

func (f *fakeTx) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	if f.txErr != nil {
		return f.txErr
	}
	return fn(nil)
}

type fakeTopics struct {
	pingErr error
}

func (f *fakeTopics) Ping(context.Context) error { return f.pingErr }

func (f *fakeTopics) Publisher(string) *gcppubsub.Publisher { return nil }

type fakeStore struct {
	events    []models.OutboxEvent
	fetchErr  error
	markErr   error
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  map[uuid.UUID]int
}

func (f *fakeStore) FetchUnpublishedForPublish(_ *gorm.DB, limit, _ int) ([]models.OutboxEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	events := f.events
	if len(events) > limit {
		events = events[:limit]
	}
	f.events = f.events[len(events):]
	return events, nil
}

func (f *fakeStore) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakeStore) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeStore) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, attempts int) error {
	if f.terminal == nil {
		f.terminal = map[uuid.UUID]int{}
	}
	f.terminal[id] = attempts
	return nil
}

type fakeDeadLetters struct {
	entries []models.OutboxDLQ
}

func (f *fakeDeadLetters) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}

// resolverFunc lets a test decide the topic or failure per event.
type resolverFunc func(models.OutboxEvent) (*registry.ResolvedEvent, error)

func (fn resolverFunc) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	return fn(event)
}

func routeTo(topic string) resolverFunc {
	return func(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
		env, err := outbox.DecodeEnvelope(event.Payload)
		if err != nil {
			return nil, registry.NewNonRetryableError(err)
		}
		return &registry.ResolvedEvent{
			Descriptor: registry.EventDescriptor{
				EventType:     event.EventType,
				AggregateType: event.AggregateType,
				Topic:         topic,
			},
			Envelope: env,
		}, nil
	}
}

type fakePublisher struct {
	mu       sync.Mutex
	errs     []error
	messages []*gcppubsub.Message
}

func (f *fakePublisher) sent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	return fakeResult{err: err}
}

type fakeResult struct {
	err error
}

func (r fakeResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id", nil
}

type fakeMetrics struct {
	mu           sync.Mutex
	published    map[string]int
	retried      map[string]int
	deadLettered map[string]int
}

func (m *fakeMetrics) bump(target *map[string]int, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if *target == nil {
		*target = map[string]int{}
	}
	(*target)[key]++
}

func (m *fakeMetrics) IncPublished(eventType string) { m.bump(&m.published, eventType) }
func (m *fakeMetrics) IncRetried(eventType string)   { m.bump(&m.retried, eventType) }
func (m *fakeMetrics) IncDeadLettered(reason string) { m.bump(&m.deadLettered, reason) }
