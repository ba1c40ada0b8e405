package cron

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Lock guards one scheduler cycle across cron-worker replicas.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DeleteIfEquals(ctx context.Context, key, expected string) (bool, error)
}

// RedisLock is a SETNX lock whose value is an owner token, so a replica never
// deletes a lock that expired and was taken by someone else.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration
	token func() string
	owner string
}

// NewRedisLock builds a lock on key held for at most ttl.
func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}
	return &RedisLock{store: store, key: key, ttl: ttl, token: ownerToken}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	if l.owner != "" {
		return false, nil
	}
	token := l.token()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if ok {
		l.owner = token
	}
	return ok, nil
}

// Release deletes the lock only while this replica still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	owner := l.owner
	l.owner = ""
	if _, err := l.store.DeleteIfEquals(ctx, l.key, owner); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}

func ownerToken() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "cron-worker"
	}
	return host + ":" + uuid.NewString()
}
