package orders

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/procurement-backend/pkg/db"
	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	"github.com/angelmondragon/procurement-backend/pkg/pagination"
)

const orderRowColumns = `po.id, po.category, po.currency, po.buyer, po.status, po.total,
	po.issue_date, po.estimated_delivery_date, po.created_at,
	s.ruc AS supplier_ruc, s.business_name AS supplier_name`

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindSupplierByRUC(ctx context.Context, ruc string) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).Where("ruc = ?", ruc).First(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// NextSequence allocates the next order number for year. The counter row
// stays locked until the surrounding transaction ends.
func (r *repository) NextSequence(ctx context.Context, year int) (int, error) {
	var next int
	err := r.db.WithContext(ctx).
		Raw(nextSequenceSQL(r.db), year, yearPrefix(year)+"%").
		Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.PurchaseOrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) ReplaceItems(ctx context.Context, orderID string, items []models.PurchaseOrderItem) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.PurchaseOrderItem{}).Error; err != nil {
		return err
	}
	return r.CreateItems(ctx, items)
}

func (r *repository) ListItems(ctx context.Context, orderID string) ([]models.PurchaseOrderItem, error) {
	var items []models.PurchaseOrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("line_number ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.PurchaseOrderHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) CreateAttachment(ctx context.Context, attachment *models.PurchaseOrderAttachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *repository) FindOrder(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindOrderForUpdate loads the header and, on Postgres, row-locks it until
// the transaction ends.
func (r *repository) FindOrderForUpdate(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	q := r.db.WithContext(ctx)
	if db.Dialect(q) == db.DriverPostgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order models.PurchaseOrder
	if err := q.Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderDetail(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("line_number ASC")
		}).
		Preload("History", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC")
		}).
		Preload("Attachments", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("uploaded_at ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrder(ctx context.Context, id string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteOrder(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PurchaseOrder{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListOrders(ctx context.Context, filters ListFilters, limit int, cursor *pagination.Cursor) ([]OrderRow, error) {
	q := r.joinedOrders(ctx)

	if filters.Status != nil {
		q = q.Where("po.status = ?", *filters.Status)
	}
	if ruc := strings.TrimSpace(filters.SupplierRUC); ruc != "" {
		q = q.Where("s.ruc = ?", ruc)
	}
	if category := strings.TrimSpace(filters.Category); category != "" {
		q = q.Where("LOWER(po.category) = ?", strings.ToLower(category))
	}
	if filters.From != nil {
		q = q.Where("po.issue_date >= ?", filters.From.UTC())
	}
	if filters.To != nil {
		q = q.Where("po.issue_date <= ?", filters.To.UTC())
	}
	if term := strings.ToLower(strings.TrimSpace(filters.Query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("(LOWER(po.id) LIKE ? OR LOWER(s.business_name) LIKE ?)", like, like)
	}
	q = pagination.Keyset(q, "po.created_at", "po.id", cursor)

	var rows []OrderRow
	if err := q.Order("po.created_at DESC").Order("po.id DESC").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListPendingApproval(ctx context.Context, issuedBefore time.Time, limit int) ([]OrderRow, error) {
	q := r.joinedOrders(ctx).
		Where("po.status = ?", enums.PurchaseOrderStatusPendingApproval).
		Where("po.issue_date < ?", issuedBefore.UTC()).
		Order("po.issue_date ASC").
		Order("po.id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []OrderRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) joinedOrders(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("purchase_orders AS po").
		Select(orderRowColumns).
		Joins("JOIN suppliers s ON s.id = po.supplier_id")
}
