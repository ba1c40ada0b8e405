package models

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is a vendor the organization issues purchase orders to,
// identified by its RUC tax id.
type Supplier struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RUC          string    `gorm:"column:ruc;type:varchar(11);not null;uniqueIndex"`
	BusinessName string    `gorm:"column:business_name;not null"`
	TradeName    *string   `gorm:"column:trade_name"`
	Email        *string   `gorm:"column:email"`
	Phone        *string   `gorm:"column:phone"`
	Address      *string   `gorm:"column:address"`
	Category     *string   `gorm:"column:category"`
	PaymentTerms *string   `gorm:"column:payment_terms"`
	Active       bool      `gorm:"column:active;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
