// Package router turns decoded order events into order_events warehouse rows.
package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/procurement-backend/internal/analytics/types"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/registry"
)

const payloadVersion = 1

// ErrUnsupportedEventType marks events the warehouse does not record.
var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer receives rows built by the router.
type Writer interface {
	InsertOrderEvent(ctx context.Context, row types.OrderEventRow) error
}

type rowBuilder func(envelope types.Envelope, payload any) (types.OrderEventRow, error)

// Router decodes each envelope with the versioned decoder registry and writes one row.
type Router struct {
	decoders *registry.DecoderRegistry
	builders map[enums.OutboxEventType]rowBuilder
	writer   Writer
	logg     *logger.Logger
}

func NewRouter(writer Writer, logg *logger.Logger) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	r := &Router{
		decoders: registry.NewDecoderRegistry(),
		builders: map[enums.OutboxEventType]rowBuilder{},
		writer:   writer,
		logg:     logg,
	}
	register(r, enums.EventOrderCreated, orderCreatedRow)
	register(r, enums.EventOrderUpdated, orderUpdatedRow)
	register(r, enums.EventOrderStatusChanged, statusChangedRow)
	register(r, enums.EventOrderDeleted, orderDeletedRow)
	register(r, enums.EventOrderApprovalOverdue, approvalOverdueRow)
	return r, nil
}

// register binds a typed payload decoder and row builder for eventType.
func register[T any](r *Router, eventType enums.OutboxEventType, build func(types.Envelope, *T) types.OrderEventRow) {
	registry.RegisterJSON[T](r.decoders, eventType, payloadVersion)
	r.builders[eventType] = func(envelope types.Envelope, payload any) (types.OrderEventRow, error) {
		typed, ok := payload.(*T)
		if !ok {
			return types.OrderEventRow{}, fmt.Errorf("invalid payload for %s", eventType)
		}
		return build(envelope, typed), nil
	}
}

// Handle writes the warehouse row for envelope. Events without a builder
// return ErrUnsupportedEventType.
func (r *Router) Handle(ctx context.Context, envelope types.Envelope) error {
	build, ok := r.builders[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	if len(envelope.Payload) == 0 {
		return fmt.Errorf("empty payload for %s", envelope.EventType)
	}
	version := envelope.Version
	if version == 0 {
		version = payloadVersion
	}
	payload, err := r.decoders.Decode(envelope.EventType, version, envelope.Payload)
	if err != nil {
		return fmt.Errorf("decode %s payload: %w", envelope.EventType, err)
	}

	row, err := build(envelope, payload)
	if err != nil {
		return err
	}
	row.Payload, err = encodePayload(envelope.Payload)
	if err != nil {
		return err
	}

	logCtx := r.logg.WithOrderID(ctx, row.OrderID)
	if err := r.writer.InsertOrderEvent(logCtx, row); err != nil {
		r.logg.Error(logCtx, "failed to insert order event row", err)
		return err
	}
	r.logg.Debug(logCtx, "order event row inserted")
	return nil
}

func baseRow(envelope types.Envelope, orderID string) types.OrderEventRow {
	if orderID == "" {
		orderID = envelope.AggregateID
	}
	return types.OrderEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: envelope.OccurredAt.UTC(),
		OrderID:    orderID,
	}
}

func orderCreatedRow(envelope types.Envelope, event *payloads.OrderCreatedEvent) types.OrderEventRow {
	row := baseRow(envelope, event.OrderID)
	row.SupplierRUC = stringPtr(event.SupplierRUC)
	row.Category = stringPtr(event.Category)
	row.Currency = stringPtr(string(event.Currency))
	row.Status = stringPtr(string(event.Status))
	row.Actor = stringPtr(event.Buyer)
	row.TotalCents = cents(event.Total)
	row.ItemCount = int64Ptr(event.ItemCount)
	return row
}

func orderUpdatedRow(envelope types.Envelope, event *payloads.OrderUpdatedEvent) types.OrderEventRow {
	row := baseRow(envelope, event.OrderID)
	row.SupplierRUC = stringPtr(event.SupplierRUC)
	row.Action = stringPtr(string(enums.HistoryActionEdited))
	row.TotalCents = cents(event.Total)
	row.ItemCount = int64Ptr(event.ItemCount)
	return row
}

func statusChangedRow(envelope types.Envelope, event *payloads.OrderStatusChangedEvent) types.OrderEventRow {
	row := baseRow(envelope, event.OrderID)
	row.Status = stringPtr(string(event.To))
	row.FromStatus = stringPtr(string(event.From))
	row.ToStatus = stringPtr(string(event.To))
	row.Action = stringPtr(string(event.Action))
	row.Actor = stringPtr(event.Actor)
	row.TotalCents = cents(event.Total)
	return row
}

func orderDeletedRow(envelope types.Envelope, event *payloads.OrderDeletedEvent) types.OrderEventRow {
	row := baseRow(envelope, event.OrderID)
	row.Status = stringPtr(string(event.Status))
	row.TotalCents = cents(event.Total)
	return row
}

func approvalOverdueRow(envelope types.Envelope, event *payloads.OrderApprovalOverdueEvent) types.OrderEventRow {
	row := baseRow(envelope, event.OrderID)
	row.SupplierRUC = stringPtr(event.SupplierRUC)
	row.Status = stringPtr(string(enums.PurchaseOrderStatusPendingApproval))
	row.Actor = stringPtr(event.Buyer)
	row.TotalCents = cents(event.Total)
	row.DaysPending = int64Ptr(event.DaysPending)
	return row
}
