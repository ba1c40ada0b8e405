package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	"github.com/angelmondragon/procurement-backend/pkg/outbox"
	"github.com/angelmondragon/procurement-backend/pkg/pagination"
)

// Repository exposes purchase order persistence helpers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindSupplierByRUC(ctx context.Context, ruc string) (*models.Supplier, error)
	NextSequence(ctx context.Context, year int) (int, error)

	CreateOrder(ctx context.Context, order *models.PurchaseOrder) error
	CreateItems(ctx context.Context, items []models.PurchaseOrderItem) error
	ReplaceItems(ctx context.Context, orderID string, items []models.PurchaseOrderItem) error
	ListItems(ctx context.Context, orderID string) ([]models.PurchaseOrderItem, error)
	AppendHistory(ctx context.Context, entry *models.PurchaseOrderHistory) error
	CreateAttachment(ctx context.Context, attachment *models.PurchaseOrderAttachment) error

	FindOrder(ctx context.Context, id string) (*models.PurchaseOrder, error)
	FindOrderForUpdate(ctx context.Context, id string) (*models.PurchaseOrder, error)
	FindOrderDetail(ctx context.Context, id string) (*models.PurchaseOrder, error)
	UpdateOrder(ctx context.Context, id string, updates map[string]any) error
	DeleteOrder(ctx context.Context, id string) error

	ListOrders(ctx context.Context, filters ListFilters, limit int, cursor *pagination.Cursor) ([]OrderRow, error)
	ListPendingApproval(ctx context.Context, issuedBefore time.Time, limit int) ([]OrderRow, error)
}

// OrderRow is a purchase order header joined with its supplier.
type OrderRow struct {
	ID                    string                    `gorm:"column:id"`
	Category              string                    `gorm:"column:category"`
	Currency              enums.Currency            `gorm:"column:currency"`
	Buyer                 *string                   `gorm:"column:buyer"`
	Status                enums.PurchaseOrderStatus `gorm:"column:status"`
	Total                 decimal.Decimal           `gorm:"column:total"`
	IssueDate             time.Time                 `gorm:"column:issue_date"`
	EstimatedDeliveryDate *time.Time                `gorm:"column:estimated_delivery_date"`
	CreatedAt             time.Time                 `gorm:"column:created_at"`
	SupplierRUC           string                    `gorm:"column:supplier_ruc"`
	SupplierName          string                    `gorm:"column:supplier_name"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type lifecycleMetrics interface {
	OrderCreated(category string)
	StatusChanged(from, to string)
	TransitionRejected(from, to string)
}
