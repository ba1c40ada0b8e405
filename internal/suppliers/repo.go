package suppliers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a supplier repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByRUC(ctx context.Context, ruc string) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).Where("ruc = ?", ruc).First(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]models.Supplier, error) {
	q := r.db.WithContext(ctx).Model(&models.Supplier{})
	if filters.Active != nil {
		q = q.Where("active = ?", *filters.Active)
	}
	if category := strings.TrimSpace(filters.Category); category != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(category))
	}
	if term := strings.ToLower(strings.TrimSpace(filters.Query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("(ruc LIKE ? OR LOWER(business_name) LIKE ? OR LOWER(trade_name) LIKE ?)", like, like, like)
	}

	var out []models.Supplier
	err := q.Order("business_name ASC").
		Limit(pagination.NormalizeLimit(filters.Limit)).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Create(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Supplier{}).
		Where("id = ?", id).
		Updates(updates).Error
}
