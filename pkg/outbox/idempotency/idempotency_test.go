package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	values  map[string]any
	ttls    map[string]time.Duration
	failure error
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]any{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(context.Context, string) (string, error) { return "", nil }

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.failure != nil {
		return false, f.failure
	}
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "proc:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func newTestManager(t *testing.T, store *fakeStore, ttl time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(store, ttl)
	require.NoError(t, err)
	m.now = func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) }
	return m
}

func TestCheckAndMarkProcessed(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := newTestManager(t, store, 24*time.Hour)
	eventID := uuid.NewString()
	key := "proc:idempotency:evt:processed:analytics:" + eventID

	already, err := m.CheckAndMarkProcessed(ctx, "analytics", eventID)
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, "2025-06-01T08:00:00Z", store.values[key])
	assert.Equal(t, 24*time.Hour, store.ttls[key])

	already, err = m.CheckAndMarkProcessed(ctx, "analytics", eventID)
	require.NoError(t, err)
	assert.True(t, already)

	already, err = m.CheckAndMarkProcessed(ctx, "billing-report", eventID)
	require.NoError(t, err)
	assert.False(t, already, "consumers are tracked independently")
}

func TestCheckAndMarkProcessedStoreError(t *testing.T) {
	store := newFakeStore()
	store.failure = errors.New("connection reset")
	m := newTestManager(t, store, time.Hour)

	_, err := m.CheckAndMarkProcessed(context.Background(), "analytics", "evt-1")
	assert.ErrorIs(t, err, store.failure)
}

func TestCheckAndMarkProcessedRequiresIdentifiers(t *testing.T) {
	m := newTestManager(t, newFakeStore(), time.Hour)
	_, err := m.CheckAndMarkProcessed(context.Background(), "", "evt-1")
	assert.ErrorIs(t, err, ErrConsumerRequired)
	_, err = m.CheckAndMarkProcessed(context.Background(), "analytics", " ")
	assert.ErrorIs(t, err, ErrEventIDRequired)
	assert.ErrorIs(t, m.Delete(context.Background(), " ", "evt-1"), ErrConsumerRequired)
}

func TestDeleteAllowsReprocessing(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := newTestManager(t, store, time.Hour)
	eventID := uuid.NewString()

	_, err := m.CheckAndMarkProcessed(ctx, "analytics", eventID)
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, "analytics", eventID))
	assert.Equal(t, []string{"proc:idempotency:evt:processed:analytics:" + eventID}, store.deleted)

	already, err := m.CheckAndMarkProcessed(ctx, "analytics", eventID)
	require.NoError(t, err)
	assert.False(t, already)
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewManager(newFakeStore(), -time.Second)
	assert.Error(t, err)
}
