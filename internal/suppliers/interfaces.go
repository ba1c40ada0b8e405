package suppliers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/outbox"
)

//go:generate mockgen -source=interfaces.go -destination=repository_mock.go -package=suppliers

// Repository persists suppliers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByRUC(ctx context.Context, ruc string) (*models.Supplier, error)
	List(ctx context.Context, filters ListFilters) ([]models.Supplier, error)
	Create(ctx context.Context, supplier *models.Supplier) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}
