package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/procurement-backend/pkg/enums"
)

// PurchaseOrderHistory is an append-only approval/timeline record.
type PurchaseOrderHistory struct {
	ID         uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    string                     `gorm:"column:order_id;type:varchar(32);not null;index"`
	Action     enums.HistoryAction        `gorm:"column:action;type:varchar(32);not null"`
	Actor      string                     `gorm:"column:actor;not null"`
	Comment    string                     `gorm:"column:comment;not null"`
	FromStatus *enums.PurchaseOrderStatus `gorm:"column:from_status;type:varchar(32)"`
	ToStatus   *enums.PurchaseOrderStatus `gorm:"column:to_status;type:varchar(32)"`
	CreatedAt  time.Time                  `gorm:"column:created_at;not null"`
}

func (PurchaseOrderHistory) TableName() string {
	return "purchase_order_history"
}
