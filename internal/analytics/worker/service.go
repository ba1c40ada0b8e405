package worker

import (
	"context"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/procurement-backend/internal/analytics/router"
	"github.com/angelmondragon/procurement-backend/internal/analytics/types"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
	"github.com/angelmondragon/procurement-backend/pkg/metrics"
)

const consumerName = "analytics"

// Handler records one decoded event.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope) error
}

type HandlerFunc func(ctx context.Context, envelope types.Envelope) error

func (fn HandlerFunc) Handle(ctx context.Context, envelope types.Envelope) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, envelope)
}

// receiver is satisfied by *gcppubsub.Subscriber.
type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

type dedupe interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
	Delete(ctx context.Context, consumer, eventID string) error
}

type messageMetrics interface {
	IncMessage(outcome string)
}

// Service consumes order events and hands each new one to Handler exactly
// once per event id. A failed handler releases the id and nacks the message
// so redelivery can retry it.
type Service struct {
	source  receiver
	handler Handler
	seen    dedupe
	logg    *logger.Logger
	metrics messageMetrics
}

func NewService(source receiver, handler Handler, seen dedupe, logg *logger.Logger, m messageMetrics) (*Service, error) {
	switch {
	case source == nil:
		return nil, errors.New("analytics subscription is required")
	case handler == nil:
		return nil, errors.New("analytics handler is required")
	case seen == nil:
		return nil, errors.New("idempotency manager is required")
	case logg == nil:
		return nil, errors.New("logger is required")
	}
	if m == nil {
		m = (*metrics.AnalyticsMetrics)(nil)
	}
	return &Service{source: source, handler: handler, seen: seen, logg: logg, metrics: m}, nil
}

// Run receives until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	return s.source.Receive(ctx, func(msgCtx context.Context, msg *gcppubsub.Message) {
		if s.settle(msgCtx, msg) == metrics.MessageRetry {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// settle processes msg and returns its outcome label. Only MessageRetry
// leads to a nack.
func (s *Service) settle(ctx context.Context, msg *gcppubsub.Message) string {
	outcome := s.process(ctx, msg)
	s.metrics.IncMessage(outcome)
	return outcome
}

func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) string {
	if msg != nil {
		ctx = s.logg.WithField(ctx, "message_id", msg.ID)
	}
	envelope, err := Decode(msg)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dropping malformed analytics message")
		return metrics.MessageMalformed
	}
	ctx = s.logg.WithFields(ctx, envelope.LogFields())

	duplicate, err := s.seen.CheckAndMarkProcessed(ctx, consumerName, envelope.EventID)
	switch {
	case err != nil:
		s.logg.Error(ctx, "idempotency check failed", err)
		return metrics.MessageRetry
	case duplicate:
		s.logg.Info(ctx, "event already processed")
		return metrics.MessageDuplicate
	}

	err = s.handler.Handle(ctx, envelope)
	switch {
	case err == nil:
		s.logg.Info(ctx, "analytics event handled")
		return metrics.MessageHandled
	case errors.Is(err, router.ErrUnsupportedEventType):
		s.logg.Info(ctx, "event type not recorded in analytics")
		return metrics.MessageSkipped
	}
	s.logg.Error(ctx, "analytics handler failed", err)
	if err := s.seen.Delete(ctx, consumerName, envelope.EventID); err != nil {
		s.logg.Error(ctx, "failed to release idempotency key", err)
	}
	return metrics.MessageRetry
}
