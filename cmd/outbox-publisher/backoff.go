package main

import (
	"math/rand"
	"sync"
	"time"
)

const jitterWindow = 250 * time.Millisecond

// backoff doubles from base up to max. The first failure waits 2*base.
type backoff struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
	window  time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

func newBackoff(base, max time.Duration) *backoff {
	return &backoff{
		base:   base,
		max:    max,
		window: jitterWindow,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *backoff) next() time.Duration {
	if b.current < b.base {
		b.current = b.base
	}
	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return b.jitter(b.current)
}

func (b *backoff) reset() {
	b.current = 0
}

// jitter adds up to window of random delay so replicas do not poll in step.
func (b *backoff) jitter(d time.Duration) time.Duration {
	if d <= 0 || b.window <= 0 || b.rnd == nil {
		return d
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return d + time.Duration(b.rnd.Int63n(int64(b.window)))
}
