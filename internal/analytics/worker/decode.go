package worker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"go.uber.org/multierr"

	"github.com/angelmondragon/procurement-backend/internal/analytics/types"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	"github.com/angelmondragon/procurement-backend/pkg/outbox"
)

// ErrMalformedMessage marks messages that can never be processed. They are
// acked so Pub/Sub stops redelivering them.
var ErrMalformedMessage = errors.New("malformed analytics message")

// Decode builds an Envelope from msg. The body's event id wins over the
// event_id attribute, and the created_at attribute backs up a missing
// occurredAt.
func Decode(msg *gcppubsub.Message) (types.Envelope, error) {
	if msg == nil {
		return types.Envelope{}, fmt.Errorf("%w: nil message", ErrMalformedMessage)
	}
	stored, err := outbox.DecodeEnvelope(msg.Data)
	if err != nil {
		return types.Envelope{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	attr := func(key string) string { return strings.TrimSpace(msg.Attributes[key]) }

	var errs error
	eventType, err := enums.ParseOutboxEventType(attr("event_type"))
	errs = multierr.Append(errs, prefixed("event_type", err))
	aggregateType, err := enums.ParseOutboxAggregateType(attr("aggregate_type"))
	errs = multierr.Append(errs, prefixed("aggregate_type", err))

	aggregateID := attr("aggregate_id")
	if aggregateID == "" {
		errs = multierr.Append(errs, errors.New("aggregate_id missing"))
	}
	eventID := cmpOr(strings.TrimSpace(stored.EventID), attr("event_id"))
	if eventID == "" {
		errs = multierr.Append(errs, errors.New("event_id missing"))
	}
	if errs != nil {
		return types.Envelope{}, fmt.Errorf("%w: %v", ErrMalformedMessage, errs)
	}

	occurredAt := stored.OccurredAt
	if occurredAt.IsZero() {
		if parsed, err := time.Parse(time.RFC3339Nano, attr("created_at")); err == nil {
			occurredAt = parsed
		}
	}
	return types.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Version:       stored.Version,
		OccurredAt:    occurredAt.UTC(),
		Payload:       stored.Data,
	}, nil
}

func prefixed(field string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", field, err)
}

func cmpOr(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
