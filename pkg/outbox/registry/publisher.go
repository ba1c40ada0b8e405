package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/procurement-backend/pkg/config"
	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	"github.com/angelmondragon/procurement-backend/pkg/outbox"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/payloads"
)

// EventDescriptor is the publishing contract for one event type.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string

	newPayload func() any
}

// ResolvedEvent is an outbox row whose envelope and payload passed validation.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// NonRetryableError marks a failure that no amount of retrying will fix.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func permanent(format string, args ...any) error {
	return NonRetryableError{Err: fmt.Errorf(format, args...)}
}

// EventRegistry resolves outbox rows into publishable events.
type EventRegistry struct {
	routes map[enums.OutboxEventType]EventDescriptor
}

func route[T any](eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, topic string) EventDescriptor {
	return EventDescriptor{
		EventType:     eventType,
		AggregateType: aggregate,
		Topic:         topic,
		newPayload:    func() any { return new(T) },
	}
}

// NewEventRegistry routes every purchase order and supplier event to the orders topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	topic := strings.TrimSpace(cfg.OrdersTopic)
	if topic == "" {
		return nil, fmt.Errorf("orders topic is required")
	}

	order := enums.AggregatePurchaseOrder
	routes := []EventDescriptor{
		route[payloads.OrderCreatedEvent](enums.EventOrderCreated, order, topic),
		route[payloads.OrderUpdatedEvent](enums.EventOrderUpdated, order, topic),
		route[payloads.OrderStatusChangedEvent](enums.EventOrderStatusChanged, order, topic),
		route[payloads.OrderDeletedEvent](enums.EventOrderDeleted, order, topic),
		route[payloads.OrderApprovalOverdueEvent](enums.EventOrderApprovalOverdue, order, topic),
		route[payloads.SuppliersImportedEvent](enums.EventSuppliersImported, enums.AggregateSupplier, topic),
	}

	reg := &EventRegistry{routes: make(map[enums.OutboxEventType]EventDescriptor, len(routes))}
	for _, desc := range routes {
		reg.routes[desc.EventType] = desc
	}
	return reg, nil
}

func (r *EventRegistry) Descriptor(eventType enums.OutboxEventType) (EventDescriptor, bool) {
	desc, ok := r.routes[eventType]
	return desc, ok
}

// Resolve checks the row against its route and decodes the typed payload.
// Every failure is a NonRetryableError.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.routes[event.EventType]
	switch {
	case !ok:
		return nil, permanent("unsupported event type %s", event.EventType)
	case desc.AggregateType != event.AggregateType:
		return nil, permanent("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType)
	case strings.TrimSpace(event.AggregateID) == "":
		return nil, permanent("missing aggregate_id")
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if errors.Is(err, outbox.ErrEmptyEnvelopeData) {
		return nil, permanent("payload missing for %s", event.EventType)
	}
	if err != nil {
		return nil, NewNonRetryableError(err)
	}

	payload := desc.newPayload()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, permanent("decode %s payload: %w", event.EventType, err)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
