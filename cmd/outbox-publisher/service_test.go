package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/procurement-backend/pkg/config"
)

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.ErrorContains(t, err, "logger")

	h := newHarness(t, routeTo("orders"), Options{})
	params := ServiceParams{
		Logger:   h.svc.logg,
		DB:       h.db,
		Topics:   h.topics,
		Store:    h.store,
		Registry: routeTo("orders"),
	}
	_, err = NewService(params)
	assert.ErrorContains(t, err, "dlq store")

	params.DeadLetters = h.dlq
	svc, err := NewService(params)
	require.NoError(t, err)
	assert.NotNil(t, svc.publisherFor)
	assert.Nil(t, svc.publisherFor("orders"), "nil gcp publisher must not become a typed nil")
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, Options{BatchSize: 50, PollInterval: 500 * time.Millisecond, MaxAttempts: 10}, opts)

	opts = OptionsFromConfig(config.OutboxConfig{BatchSize: 5, PollIntervalMS: 250, MaxAttempts: 3}).withDefaults()
	assert.Equal(t, Options{BatchSize: 5, PollInterval: 250 * time.Millisecond, MaxAttempts: 3}, opts)
}

func TestRunFailsFastOnDependencyPing(t *testing.T) {
	h := newHarness(t, routeTo("orders"), Options{})
	h.topics.pingErr = errors.New("topic gone")

	err := h.svc.Run(context.Background())
	assert.ErrorContains(t, err, "pubsub ping failed")
}

func TestRunDrainsUntilCancelled(t *testing.T) {
	h := newHarness(t, routeTo("orders"), Options{BatchSize: 1, PollInterval: time.Millisecond},
		orderEvent(t, "OC-2025-0010", 0),
		orderEvent(t, "OC-2025-0011", 0),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- h.svc.Run(ctx) }()

	require.Eventually(t, func() bool {
		return h.pub.sent() == 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, sleepCtx(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}
