package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurement-backend/pkg/enums"
)

// PurchaseOrder is the aggregate root of the procurement lifecycle.
type PurchaseOrder struct {
	ID                    string                    `gorm:"column:id;type:varchar(32);primaryKey"`
	SupplierID            uuid.UUID                 `gorm:"column:supplier_id;type:uuid;not null"`
	Category              string                    `gorm:"column:category;not null"`
	Currency              enums.Currency            `gorm:"column:currency;type:varchar(3);not null"`
	PaymentTerms          *string                   `gorm:"column:payment_terms"`
	DeliveryTerms         *string                   `gorm:"column:delivery_terms"`
	Warehouse             *string                   `gorm:"column:warehouse"`
	DeliveryAddress       *string                   `gorm:"column:delivery_address"`
	Buyer                 *string                   `gorm:"column:buyer"`
	Notes                 *string                   `gorm:"column:notes"`
	Subtotal              decimal.Decimal           `gorm:"column:subtotal;type:numeric(14,2);not null"`
	Tax                   decimal.Decimal           `gorm:"column:tax;type:numeric(14,2);not null"`
	Total                 decimal.Decimal           `gorm:"column:total;type:numeric(14,2);not null"`
	Status                enums.PurchaseOrderStatus `gorm:"column:status;type:varchar(32);not null"`
	IssueDate             time.Time                 `gorm:"column:issue_date;type:date;not null"`
	EstimatedDeliveryDate *time.Time                `gorm:"column:estimated_delivery_date;type:date"`
	ApprovedAt            *time.Time                `gorm:"column:approved_at"`
	ReceivedAt            *time.Time                `gorm:"column:received_at"`
	ClosedAt              *time.Time                `gorm:"column:closed_at"`
	CreatedAt             time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                 `gorm:"column:updated_at;autoUpdateTime"`

	Supplier    Supplier                  `gorm:"foreignKey:SupplierID;references:ID"`
	Items       []PurchaseOrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History     []PurchaseOrderHistory    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Attachments []PurchaseOrderAttachment `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}
