package models

// PurchaseOrderSequence holds the last allocated order number for a year.
type PurchaseOrderSequence struct {
	Year       int `gorm:"column:year;primaryKey;autoIncrement:false"`
	LastNumber int `gorm:"column:last_number;not null"`
}
