package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurement-backend/pkg/enums"
)

// OrderCreatedEvent is emitted once a purchase order and its lines are stored.
type OrderCreatedEvent struct {
	OrderID     string                    `json:"order_id"`
	SupplierID  uuid.UUID                 `json:"supplier_id"`
	SupplierRUC string                    `json:"supplier_ruc"`
	Category    string                    `json:"category"`
	Currency    enums.Currency            `json:"currency"`
	Status      enums.PurchaseOrderStatus `json:"status"`
	Total       decimal.Decimal           `json:"total"`
	ItemCount   int                       `json:"item_count"`
	IssueDate   string                    `json:"issue_date"`
	Buyer       string                    `json:"buyer,omitempty"`
}

// ItemChanges summarizes a line-item replacement keyed by SKU.
type ItemChanges struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Changed []string `json:"changed,omitempty"`
}

// OrderUpdatedEvent is emitted when a draft order is edited.
type OrderUpdatedEvent struct {
	OrderID     string          `json:"order_id"`
	SupplierRUC string          `json:"supplier_ruc"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"item_count"`
	Changes     ItemChanges     `json:"changes"`
}

// OrderStatusChangedEvent is emitted for every persisted status transition.
type OrderStatusChangedEvent struct {
	OrderID   string                    `json:"order_id"`
	From      enums.PurchaseOrderStatus `json:"from"`
	To        enums.PurchaseOrderStatus `json:"to"`
	Action    enums.HistoryAction       `json:"action"`
	Actor     string                    `json:"actor"`
	Comment   string                    `json:"comment"`
	Total     decimal.Decimal           `json:"total"`
	ChangedAt time.Time                 `json:"changed_at"`
}

// OrderDeletedEvent is emitted when a purchase order is hard deleted.
type OrderDeletedEvent struct {
	OrderID   string                    `json:"order_id"`
	Status    enums.PurchaseOrderStatus `json:"status"`
	Total     decimal.Decimal           `json:"total"`
	DeletedAt time.Time                 `json:"deleted_at"`
}

// OrderApprovalOverdueEvent flags a pending order that waited too long for approval.
type OrderApprovalOverdueEvent struct {
	OrderID     string          `json:"order_id"`
	SupplierRUC string          `json:"supplier_ruc"`
	Buyer       string          `json:"buyer,omitempty"`
	IssueDate   string          `json:"issue_date"`
	DaysPending int             `json:"days_pending"`
	Total       decimal.Decimal `json:"total"`
}

// SuppliersImportedEvent reports the outcome of a supplier CSV import.
type SuppliersImportedEvent struct {
	BatchID    string    `json:"batch_id"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Skipped    int       `json:"skipped"`
	ImportedAt time.Time `json:"imported_at"`
}
