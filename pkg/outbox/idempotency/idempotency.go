// Package idempotency remembers which outbox events a consumer has already
// handled, so Pub/Sub redeliveries are applied once.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/procurement-backend/pkg/redis"
)

var (
	ErrConsumerRequired = errors.New("consumer name is required")
	ErrEventIDRequired  = errors.New("event id is required")
)

// Manager marks event ids per consumer with SETNX. Markers live under
// proc:idempotency:evt:processed:<consumer>:<event_id> and expire after ttl;
// a zero ttl keeps them forever.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case ttl < 0:
		return nil, fmt.Errorf("ttl must be non-negative, got %s", ttl)
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}, nil
}

// CheckAndMarkProcessed claims eventID for consumer. It reports true when the
// event was claimed earlier. The marker holds the claim time.
func (m *Manager) CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error) {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	claimed, err := m.store.SetNX(ctx, key, m.now().UTC().Format(time.RFC3339), m.ttl)
	if err != nil {
		return false, fmt.Errorf("mark %s processed: %w", eventID, err)
	}
	return !claimed, nil
}

// Delete releases a claim so a failed delivery is processed on redelivery.
func (m *Manager) Delete(ctx context.Context, consumer, eventID string) error {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(consumer, eventID string) (string, error) {
	consumer, eventID = strings.TrimSpace(consumer), strings.TrimSpace(eventID)
	if consumer == "" {
		return "", ErrConsumerRequired
	}
	if eventID == "" {
		return "", ErrEventIDRequired
	}
	return m.store.IdempotencyKey("evt:processed:"+consumer, eventID), nil
}
