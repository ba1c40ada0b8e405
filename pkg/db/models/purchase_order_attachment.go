package models

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseOrderAttachment records metadata for a file attached to an order.
type PurchaseOrderAttachment struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    string    `gorm:"column:order_id;type:varchar(32);not null;index"`
	FileName   string    `gorm:"column:file_name;not null"`
	FileType   string    `gorm:"column:file_type;not null"`
	SizeBytes  int64     `gorm:"column:size_bytes;not null"`
	UploadedAt time.Time `gorm:"column:uploaded_at;not null"`
}
