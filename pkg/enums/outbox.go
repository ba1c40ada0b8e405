package enums

import "slices"

// OutboxAggregateType is the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregatePurchaseOrder OutboxAggregateType = "purchase_order"
	AggregateSupplier      OutboxAggregateType = "supplier"
)

var aggregateTypes = []OutboxAggregateType{AggregatePurchaseOrder, AggregateSupplier}

func (a OutboxAggregateType) IsValid() bool { return slices.Contains(aggregateTypes, a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return lookup(aggregateTypes, value, "aggregate type")
}

// OutboxEventType is the event_type column of outbox_events and the
// event_type attribute on published messages.
type OutboxEventType string

const (
	EventOrderCreated         OutboxEventType = "order_created"
	EventOrderUpdated         OutboxEventType = "order_updated"
	EventOrderStatusChanged   OutboxEventType = "order_status_changed"
	EventOrderDeleted         OutboxEventType = "order_deleted"
	EventOrderApprovalOverdue OutboxEventType = "order_approval_overdue"
	EventSuppliersImported    OutboxEventType = "suppliers_imported"
)

var eventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderUpdated,
	EventOrderStatusChanged,
	EventOrderDeleted,
	EventOrderApprovalOverdue,
	EventSuppliersImported,
}

func (e OutboxEventType) IsValid() bool { return slices.Contains(eventTypes, e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return lookup(eventTypes, value, "event type")
}
