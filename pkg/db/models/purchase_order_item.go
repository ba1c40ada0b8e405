package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderItem is one line of a purchase order. Lines are replaced
// wholesale when a draft order is edited.
type PurchaseOrderItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       string          `gorm:"column:order_id;type:varchar(32);not null;index"`
	LineNumber    int             `gorm:"column:line_number;not null"`
	SKU           string          `gorm:"column:sku;not null"`
	Description   string          `gorm:"column:description;not null"`
	UnitOfMeasure string          `gorm:"column:unit_of_measure;not null"`
	Quantity      decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(14,4);not null"`
	Discount      decimal.Decimal `gorm:"column:discount;type:numeric(14,2);not null;default:0"`
	Subtotal      decimal.Decimal `gorm:"column:subtotal;type:numeric(14,2);not null"`
	Tax           decimal.Decimal `gorm:"column:tax;type:numeric(14,2);not null"`
	Total         decimal.Decimal `gorm:"column:total;type:numeric(14,2);not null"`
}
