package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurement-backend/pkg/config"
	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultMaxAttempts    = 10
	defaultPublishTimeout = 15 * time.Second
	maxBackoff            = 10 * time.Second
)

type txRunner interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type topicSource interface {
	Ping(context.Context) error
	Publisher(topic string) *gcppubsub.Publisher
}

type eventStore interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type deadLetterStore interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type eventResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type deliveryMetrics interface {
	IncPublished(eventType string)
	IncRetried(eventType string)
	IncDeadLettered(reason string)
}

// Options tune the publish loop. Zero values take the defaults.
type Options struct {
	BatchSize    int
	PollInterval time.Duration
	MaxAttempts  int
}

func OptionsFromConfig(cfg config.OutboxConfig) Options {
	return Options{
		BatchSize:    cfg.BatchSize,
		PollInterval: time.Duration(cfg.PollIntervalMS) * time.Millisecond,
		MaxAttempts:  cfg.MaxAttempts,
	}
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	return o
}

type ServiceParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Topics      topicSource
	Store       eventStore
	Registry    eventResolver
	DeadLetters deadLetterStore
	Metrics     deliveryMetrics
	// Publishers maps a topic to its publisher. Defaults to Topics.
	Publishers func(topic string) publisher
	Options    Options
}

// Service drains outbox_events into Pub/Sub, one locked batch per
// transaction.
type Service struct {
	logg         *logger.Logger
	db           txRunner
	topics       topicSource
	store        eventStore
	registry     eventResolver
	deadLetters  deadLetterStore
	metrics      deliveryMetrics
	publisherFor func(topic string) publisher
	opts         Options
	now          func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.Topics == nil:
		return nil, errors.New("pubsub client is required")
	case params.Store == nil:
		return nil, errors.New("outbox store is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.DeadLetters == nil:
		return nil, errors.New("dlq store is required")
	}

	svc := &Service{
		logg:         params.Logger,
		db:           params.DB,
		topics:       params.Topics,
		store:        params.Store,
		registry:     params.Registry,
		deadLetters:  params.DeadLetters,
		metrics:      params.Metrics,
		publisherFor: params.Publishers,
		opts:         params.Options.withDefaults(),
		now:          time.Now,
	}
	if svc.publisherFor == nil {
		svc.publisherFor = func(topic string) publisher {
			return newGCPPublisher(params.Topics.Publisher(topic))
		}
	}
	return svc, nil
}

// Run polls until ctx ends. Full batches are followed immediately by the
// next one; failed batches back off exponentially.
func (s *Service) Run(ctx context.Context) error {
	deps := []struct {
		name string
		ping func(context.Context) error
	}{
		{"database", s.db.Ping},
		{"pubsub", s.topics.Ping},
	}
	for _, dep := range deps {
		if err := dep.ping(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", dep.name), err)
			return fmt.Errorf("%s ping failed: %w", dep.name, err)
		}
	}

	retry := newBackoff(s.opts.PollInterval, maxBackoff)
	for {
		if err := ctx.Err(); err != nil {
			s.logg.Info(ctx, "outbox publisher context canceled")
			return err
		}

		report, err := s.processBatch(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox publisher batch error", err)
			wait = retry.next()
		case report.total() == 0:
			retry.reset()
			wait = retry.jitter(s.opts.PollInterval)
		default:
			retry.reset()
			s.logg.Debug(s.logg.WithFields(ctx, report.fields()), "outbox batch processed")
			continue
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
