// Package dbtest opens throwaway in-memory SQLite databases carrying the
// procurement schema for repository and service tests.
package dbtest

import (
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
)

var schema = []string{
	`CREATE TABLE suppliers (
		id TEXT PRIMARY KEY,
		ruc TEXT NOT NULL,
		business_name TEXT NOT NULL,
		trade_name TEXT,
		email TEXT,
		phone TEXT,
		address TEXT,
		category TEXT,
		payment_terms TEXT,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT suppliers_ruc_key UNIQUE (ruc)
	)`,
	`CREATE TABLE purchase_orders (
		id TEXT PRIMARY KEY,
		supplier_id TEXT NOT NULL REFERENCES suppliers(id) ON DELETE RESTRICT,
		category TEXT NOT NULL,
		currency TEXT NOT NULL,
		payment_terms TEXT,
		delivery_terms TEXT,
		warehouse TEXT,
		delivery_address TEXT,
		buyer TEXT,
		notes TEXT,
		subtotal NUMERIC NOT NULL,
		tax NUMERIC NOT NULL,
		total NUMERIC NOT NULL,
		status TEXT NOT NULL,
		issue_date DATETIME NOT NULL,
		estimated_delivery_date DATETIME,
		approved_at DATETIME,
		received_at DATETIME,
		closed_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE purchase_order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
		line_number INTEGER NOT NULL,
		sku TEXT NOT NULL,
		description TEXT NOT NULL,
		unit_of_measure TEXT NOT NULL,
		quantity NUMERIC NOT NULL,
		unit_price NUMERIC NOT NULL,
		discount NUMERIC NOT NULL DEFAULT 0,
		subtotal NUMERIC NOT NULL,
		tax NUMERIC NOT NULL,
		total NUMERIC NOT NULL
	)`,
	`CREATE TABLE purchase_order_history (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
		action TEXT NOT NULL,
		actor TEXT NOT NULL,
		comment TEXT NOT NULL,
		from_status TEXT,
		to_status TEXT,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE purchase_order_attachments (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
		file_name TEXT NOT NULL,
		file_type TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		uploaded_at DATETIME NOT NULL
	)`,
	`CREATE TABLE purchase_order_sequences (
		year INTEGER PRIMARY KEY,
		last_number INTEGER NOT NULL
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE TABLE outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL UNIQUE,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		error_reason TEXT NOT NULL,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME,
		created_at DATETIME
	)`,
}

// Open returns an isolated in-memory database with the schema applied.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

// SeedSupplier inserts an active supplier.
func SeedSupplier(t *testing.T, conn *gorm.DB, ruc, name string) models.Supplier {
	t.Helper()
	supplier := models.Supplier{
		ID:           uuid.New(),
		RUC:          ruc,
		BusinessName: name,
		Active:       true,
	}
	require.NoError(t, conn.Create(&supplier).Error)
	return supplier
}

// OrderSeed describes a purchase order row inserted directly, bypassing the lifecycle service.
type OrderSeed struct {
	ID                    string
	Supplier              models.Supplier
	Category              string
	Status                enums.PurchaseOrderStatus
	Total                 string
	IssueDate             time.Time
	EstimatedDeliveryDate *time.Time
	CreatedAt             time.Time
	ApprovedAt            *time.Time
	ReceivedAt            *time.Time
}

// SeedOrder inserts a purchase order header with no lines.
func SeedOrder(t *testing.T, conn *gorm.DB, seed OrderSeed) models.PurchaseOrder {
	t.Helper()
	total := decimal.RequireFromString(seed.Total)
	category := seed.Category
	if category == "" {
		category = "General"
	}
	created := seed.CreatedAt
	if created.IsZero() {
		created = seed.IssueDate
	}
	order := models.PurchaseOrder{
		ID:                    seed.ID,
		SupplierID:            seed.Supplier.ID,
		Category:              category,
		Currency:              enums.CurrencyPEN,
		Subtotal:              total,
		Tax:                   decimal.Zero,
		Total:                 total,
		Status:                seed.Status,
		IssueDate:             seed.IssueDate,
		EstimatedDeliveryDate: seed.EstimatedDeliveryDate,
		ApprovedAt:            seed.ApprovedAt,
		ReceivedAt:            seed.ReceivedAt,
		CreatedAt:             created,
		UpdatedAt:             created,
	}
	require.NoError(t, conn.Omit("Supplier", "Items", "History", "Attachments").Create(&order).Error)
	return order
}
