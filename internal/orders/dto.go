package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurement-backend/pkg/enums"
	"github.com/angelmondragon/procurement-backend/pkg/pagination"
)

const dateLayout = "2006-01-02"

// LineItemInput is one submitted order line. Zero subtotal or total are
// derived from quantity, unit price, discount and tax.
type LineItemInput struct {
	SKU           string
	Description   string
	UnitOfMeasure string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	Discount      decimal.Decimal
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
}

// OrderInput carries the header fields shared by create and update.
type OrderInput struct {
	SupplierRUC           string
	Category              string
	Currency              enums.Currency
	PaymentTerms          *string
	DeliveryTerms         *string
	Warehouse             *string
	DeliveryAddress       *string
	Buyer                 *string
	Notes                 *string
	IssueDate             *time.Time
	EstimatedDeliveryDate *time.Time
	Subtotal              decimal.Decimal
	Tax                   decimal.Decimal
	Total                 decimal.Decimal
	Items                 []LineItemInput
	Actor                 string
}

// CreateResult is returned by Create.
type CreateResult struct {
	ID     string                    `json:"id"`
	Status enums.PurchaseOrderStatus `json:"status"`
}

// TransitionInput requests a status change.
type TransitionInput struct {
	OrderID string
	Status  string
	Actor   *string
	Comment *string
}

// TransitionResult is returned once a transition is committed.
type TransitionResult struct {
	ID     string                    `json:"id"`
	Status enums.PurchaseOrderStatus `json:"status"`
	Action enums.HistoryAction       `json:"action"`
}

// AttachmentInput registers attachment metadata.
type AttachmentInput struct {
	OrderID   string
	FileName  string
	FileType  string
	SizeBytes int64
}

// ListFilters narrows the order list.
type ListFilters struct {
	Status      *enums.PurchaseOrderStatus
	SupplierRUC string
	Category    string
	From        *time.Time
	To          *time.Time
	Query       string
	Pagination  pagination.Params
}

// OrderSummary is one row of the order list.
type OrderSummary struct {
	ID                    string                    `json:"id"`
	SupplierName          string                    `json:"supplierName"`
	SupplierRUC           string                    `json:"supplierRuc"`
	Category              string                    `json:"category"`
	Currency              enums.Currency            `json:"currency"`
	Buyer                 string                    `json:"buyer,omitempty"`
	Status                enums.PurchaseOrderStatus `json:"status"`
	Total                 string                    `json:"total"`
	IssueDate             string                    `json:"issueDate"`
	EstimatedDeliveryDate *string                   `json:"estimatedDeliveryDate,omitempty"`
}

// ListResult is a page of orders.
type ListResult struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

// LineItemDTO is a persisted order line.
type LineItemDTO struct {
	LineNumber    int    `json:"lineNumber"`
	SKU           string `json:"sku"`
	Description   string `json:"description"`
	UnitOfMeasure string `json:"unitOfMeasure"`
	Quantity      string `json:"quantity"`
	UnitPrice     string `json:"unitPrice"`
	Discount      string `json:"discount"`
	Subtotal      string `json:"subtotal"`
	Tax           string `json:"tax"`
	Total         string `json:"total"`
}

// HistoryDTO is one approval history entry.
type HistoryDTO struct {
	Action     enums.HistoryAction        `json:"action"`
	Actor      string                     `json:"actor"`
	Comment    string                     `json:"comment"`
	FromStatus *enums.PurchaseOrderStatus `json:"fromStatus,omitempty"`
	ToStatus   *enums.PurchaseOrderStatus `json:"toStatus,omitempty"`
	Date       string                     `json:"date"`
}

// TimelineEntry is one row of the derived, display-oriented timeline.
type TimelineEntry struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Actor       string `json:"actor,omitempty"`
	Date        string `json:"date"`
	Kind        string `json:"kind"`
}

// AttachmentDTO is attachment metadata with a human readable size.
type AttachmentDTO struct {
	ID         string `json:"id"`
	FileName   string `json:"fileName"`
	FileType   string `json:"fileType"`
	Size       string `json:"size"`
	UploadedAt string `json:"uploadedAt"`
}

// OrderDetail is the full representation returned by Detail.
type OrderDetail struct {
	OrderSummary
	SupplierID      string          `json:"supplierId"`
	PaymentTerms    *string         `json:"paymentTerms,omitempty"`
	DeliveryTerms   *string         `json:"deliveryTerms,omitempty"`
	Warehouse       *string         `json:"warehouse,omitempty"`
	DeliveryAddress *string         `json:"deliveryAddress,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	Subtotal        string          `json:"subtotal"`
	Tax             string          `json:"tax"`
	AllowedNext     []string        `json:"allowedTransitions"`
	Items           []LineItemDTO   `json:"items"`
	History         []HistoryDTO    `json:"history"`
	Timeline        []TimelineEntry `json:"timeline"`
	Attachments     []AttachmentDTO `json:"attachments"`
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	value := formatDate(*t)
	return &value
}

func formatMoney(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
