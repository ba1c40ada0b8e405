package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDoublesAndCaps(t *testing.T) {
	b := &backoff{base: 500 * time.Millisecond, max: 3 * time.Second}

	assert.Equal(t, time.Second, b.next())
	assert.Equal(t, 2*time.Second, b.next())
	assert.Equal(t, 3*time.Second, b.next())
	assert.Equal(t, 3*time.Second, b.next())

	b.reset()
	assert.Equal(t, time.Second, b.next())
}

func TestBackoffJitterStaysInWindow(t *testing.T) {
	b := newBackoff(100*time.Millisecond, time.Second)
	for range 50 {
		got := b.jitter(100 * time.Millisecond)
		assert.GreaterOrEqual(t, got, 100*time.Millisecond)
		assert.Less(t, got, 100*time.Millisecond+jitterWindow)
	}
	assert.Zero(t, b.jitter(0))
}
