package suppliers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurement-backend/pkg/db"
	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/procurement-backend/pkg/errors"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
	"github.com/angelmondragon/procurement-backend/pkg/outbox"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/payloads"
)

//go:generate mockgen -destination=service_mock.go -package=suppliers . Service

var rucPattern = regexp.MustCompile(`^\d{11}$`)

// Service exposes supplier lookups, registration and bulk import.
type Service interface {
	FindByRUC(ctx context.Context, ruc string) (*SupplierDTO, error)
	List(ctx context.Context, filters ListFilters) ([]SupplierDTO, error)
	Create(ctx context.Context, input CreateInput) (*SupplierDTO, error)
	Import(ctx context.Context, r io.Reader, actor string) (*ImportResult, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires the supplier service.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("suppliers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox, logg: logg, now: time.Now}, nil
}

// ValidRUC reports whether ruc has the 11 digit SUNAT format.
func ValidRUC(ruc string) bool {
	return rucPattern.MatchString(ruc)
}

func (s *service) FindByRUC(ctx context.Context, ruc string) (*SupplierDTO, error) {
	ruc = strings.TrimSpace(ruc)
	if !ValidRUC(ruc) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ruc must have 11 digits")
	}
	supplier, err := s.repo.FindByRUC(ctx, ruc)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("supplier %s not found", ruc))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load supplier")
	}
	dto := ToDTO(*supplier)
	return &dto, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]SupplierDTO, error) {
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list suppliers")
	}
	out := make([]SupplierDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToDTO(row))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*SupplierDTO, error) {
	supplier, err := newSupplier(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByRUC(ctx, supplier.RUC)
	switch {
	case err == nil && existing != nil:
		return nil, duplicateRUC(supplier.RUC)
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load supplier")
	}

	if err := s.repo.Create(ctx, supplier); err != nil {
		if isDuplicateRUC(err) {
			return nil, duplicateRUC(supplier.RUC)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create supplier")
	}
	dto := ToDTO(*supplier)
	return &dto, nil
}

func (s *service) Import(ctx context.Context, r io.Reader, actor string) (*ImportResult, error) {
	rows, charset, err := parseSupplierCSV(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Charset: charset, Errors: []string{}}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, row := range rows {
			if row.err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: %s", row.line, row.err))
				continue
			}
			created, err := upsertSupplier(ctx, repo, row.input)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("import line %d", row.line))
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}

		if result.Created+result.Updated == 0 {
			return nil
		}
		batchID := uuid.NewString()
		now := s.now().UTC()
		name := strings.TrimSpace(actor)
		if name == "" {
			name = "system"
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSuppliersImported,
			AggregateType: enums.AggregateSupplier,
			AggregateID:   batchID,
			Actor:         &outbox.ActorRef{Name: name, Source: "import"},
			OccurredAt:    now,
			Data: payloads.SuppliersImportedEvent{
				BatchID:    batchID,
				Created:    result.Created,
				Updated:    result.Updated,
				Skipped:    result.Skipped,
				ImportedAt: now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"charset": charset,
			"created": result.Created,
			"updated": result.Updated,
			"skipped": result.Skipped,
		})
		s.logg.Info(logCtx, "supplier import finished")
	}
	return result, nil
}

func upsertSupplier(ctx context.Context, repo Repository, input CreateInput) (bool, error) {
	existing, err := repo.FindByRUC(ctx, input.RUC)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if existing == nil {
		supplier, err := newSupplier(input)
		if err != nil {
			return false, err
		}
		return true, repo.Create(ctx, supplier)
	}

	updates := map[string]any{"business_name": strings.TrimSpace(input.BusinessName)}
	optional := map[string]*string{
		"trade_name":    input.TradeName,
		"email":         input.Email,
		"phone":         input.Phone,
		"address":       input.Address,
		"category":      input.Category,
		"payment_terms": input.PaymentTerms,
	}
	for column, value := range optional {
		if v := trimPtr(value); v != nil {
			updates[column] = *v
		}
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	return false, repo.Update(ctx, existing.ID, updates)
}

func newSupplier(input CreateInput) (*models.Supplier, error) {
	ruc := strings.TrimSpace(input.RUC)
	if !ValidRUC(ruc) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ruc must have 11 digits").
			WithDetails(map[string]any{"ruc": input.RUC})
	}
	name := strings.TrimSpace(input.BusinessName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name is required")
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}
	return &models.Supplier{
		ID:           uuid.New(),
		RUC:          ruc,
		BusinessName: name,
		TradeName:    trimPtr(input.TradeName),
		Email:        trimPtr(input.Email),
		Phone:        trimPtr(input.Phone),
		Address:      trimPtr(input.Address),
		Category:     trimPtr(input.Category),
		PaymentTerms: trimPtr(input.PaymentTerms),
		Active:       active,
	}, nil
}

func isDuplicateRUC(err error) bool {
	return db.IsUniqueViolation(err, "suppliers_ruc_key") || db.IsUniqueViolation(err, "suppliers.ruc")
}

func duplicateRUC(ruc string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("supplier %s already exists", ruc)).
		WithDetails(map[string]any{"ruc": ruc})
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
