package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/registry"
)

var errNoPublisher = errors.New("publisher not configured for topic")

type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetried
	outcomeDeadLettered
)

type batchReport struct {
	published    int
	retried      int
	deadLettered int
}

func (r *batchReport) add(o outcome) {
	switch o {
	case outcomePublished:
		r.published++
	case outcomeRetried:
		r.retried++
	case outcomeDeadLettered:
		r.deadLettered++
	}
}

func (r batchReport) total() int {
	return r.published + r.retried + r.deadLettered
}

func (r batchReport) fields() map[string]any {
	return map[string]any{
		"published":     r.published,
		"retried":       r.retried,
		"dead_lettered": r.deadLettered,
	}
}

// processBatch locks up to BatchSize rows and settles each one inside the
// same transaction. Only bookkeeping failures abort the batch.
func (s *Service) processBatch(ctx context.Context) (batchReport, error) {
	var report batchReport
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.store.FetchUnpublishedForPublish(tx, s.opts.BatchSize, s.opts.MaxAttempts)
		if err != nil {
			return fmt.Errorf("fetch outbox batch: %w", err)
		}
		for _, event := range events {
			if event.Published() {
				continue
			}
			result, err := s.deliver(ctx, tx, event)
			if err != nil {
				return err
			}
			report.add(result)
		}
		return nil
	})
	return report, err
}

func (s *Service) deliver(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) (outcome, error) {
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, err, s.eventFields(event, nil))
	}

	fields := s.eventFields(event, resolved)
	pubErr := s.publish(ctx, event, resolved)
	if pubErr == nil {
		if err := s.store.MarkPublishedTx(tx, event.ID); err != nil {
			return 0, fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
		if s.metrics != nil {
			s.metrics.IncPublished(string(event.EventType))
		}
		return outcomePublished, nil
	}

	fields["attempt_count"] = event.AttemptCount + 1
	if reason, terminal := s.classify(event, pubErr); terminal {
		if reason == enums.OutboxDLQReasonMaxAttempts {
			pubErr = fmt.Errorf("max publish attempts reached: %w", pubErr)
		}
		return s.deadLetter(ctx, tx, event, reason, pubErr, fields)
	}

	s.logg.Warn(s.logg.WithField(s.logg.WithFields(ctx, fields), "error", pubErr.Error()), "outbox publish failed")
	if err := s.store.MarkFailedTx(tx, event.ID, pubErr); err != nil {
		return 0, fmt.Errorf("mark failure %s: %w", event.ID, err)
	}
	if s.metrics != nil {
		s.metrics.IncRetried(string(event.EventType))
	}
	return outcomeRetried, nil
}

// classify decides whether a publish error ends the event's delivery.
func (s *Service) classify(event models.OutboxEvent, err error) (enums.OutboxDLQErrorReason, bool) {
	var nonRetryable registry.NonRetryableError
	switch {
	case errors.Is(err, errNoPublisher):
		return enums.OutboxDLQReasonUnroutable, true
	case errors.As(err, &nonRetryable):
		return enums.OutboxDLQReasonNonRetryable, true
	case event.AttemptCount+1 >= s.opts.MaxAttempts:
		return enums.OutboxDLQReasonMaxAttempts, true
	}
	return "", false
}

func (s *Service) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, fields map[string]any) (outcome, error) {
	fields["error_reason"] = reason
	s.logg.Warn(s.logg.WithField(s.logg.WithFields(ctx, fields), "error", cause.Error()), "outbox event will not be retried")

	if err := s.deadLetters.InsertTx(tx, models.NewOutboxDLQ(event, reason, cause, s.now())); err != nil {
		return 0, fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := s.store.MarkTerminalTx(tx, event.ID, cause, s.opts.MaxAttempts); err != nil {
		return 0, fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	if s.metrics != nil {
		s.metrics.IncDeadLettered(reason.String())
	}
	return outcomeDeadLettered, nil
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := s.publisherFor(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("%w: %s", errNoPublisher, topic))
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, newMessage(event, resolved.Envelope.EventID))
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	_, err := result.Get(publishCtx)
	return err
}

// newMessage forwards the stored envelope untouched. Events of one order
// share an ordering key so subscribers see them in commit order.
func newMessage(event models.OutboxEvent, eventID string) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data:        event.Payload,
		OrderingKey: event.AggregateID,
		Attributes: map[string]string{
			"event_id":       eventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID,
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}

func (s *Service) eventFields(event models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	if resolved == nil {
		return fields
	}
	fields["topic"] = resolved.Descriptor.Topic
	if resolved.Envelope.EventID != "" {
		fields["event_id"] = resolved.Envelope.EventID
		fields["occurred_at"] = resolved.Envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	return fields
}
