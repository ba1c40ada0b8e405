package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/procurement-backend/pkg/errors"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
	"github.com/angelmondragon/procurement-backend/pkg/outbox"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/procurement-backend/pkg/pagination"
)

const systemActor = "system"

// Service defines the purchase order lifecycle.
type Service interface {
	Create(ctx context.Context, input OrderInput) (*CreateResult, error)
	Update(ctx context.Context, id string, input OrderInput) error
	TransitionStatus(ctx context.Context, input TransitionInput) (*TransitionResult, error)
	Delete(ctx context.Context, id string, actor string) error
	AddAttachment(ctx context.Context, input AttachmentInput) (*AttachmentDTO, error)
	List(ctx context.Context, filters ListFilters) (*ListResult, error)
	Detail(ctx context.Context, id string) (*OrderDetail, error)
}

// Options tunes numbering and validation.
type Options struct {
	// Location decides which calendar year an order is numbered under.
	Location     *time.Location
	StrictTotals bool
	Metrics      lifecycleMetrics
	Now          func() time.Time
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	logg    *logger.Logger
	metrics lifecycleMetrics
	loc     *time.Location
	strict  bool
	now     func() time.Time
}

// NewService builds the order lifecycle service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, logg *logger.Logger, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	s := &service{
		repo:    repo,
		tx:      tx,
		outbox:  outbox,
		logg:    logg,
		metrics: opts.Metrics,
		loc:     opts.Location,
		strict:  opts.StrictTotals,
		now:     opts.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *service) Create(ctx context.Context, input OrderInput) (*CreateResult, error) {
	ruc := strings.TrimSpace(input.SupplierRUC)
	if ruc == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier ruc is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item is required")
	}
	currency, err := normalizeCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	var result *CreateResult
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		result, err = s.create(ctx, ruc, currency, input)
		if err == nil {
			break
		}
		if !isOrderIDCollision(err) {
			return nil, err
		}
		if attempt == maxIDAttempts {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "could not allocate a unique order id")
		}
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt), "order id collision, retrying")
		}
	}

	if s.metrics != nil {
		s.metrics.OrderCreated(input.Category)
	}
	return result, nil
}

func (s *service) create(ctx context.Context, ruc string, currency enums.Currency, input OrderInput) (*CreateResult, error) {
	now := s.now()
	var result *CreateResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		supplier, err := s.resolveSupplier(ctx, repo, ruc)
		if err != nil {
			return err
		}

		year := now.In(s.loc).Year()
		seq, err := repo.NextSequence(ctx, year)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocate order id")
		}
		orderID := FormatOrderID(year, seq)

		items, totals, err := s.prepareItems(ctx, orderID, input)
		if err != nil {
			return err
		}

		issueDate := dateOnly(now.In(s.loc))
		if input.IssueDate != nil {
			issueDate = dateOnly(*input.IssueDate)
		}

		order := &models.PurchaseOrder{
			ID:                    orderID,
			SupplierID:            supplier.ID,
			Category:              strings.TrimSpace(input.Category),
			Currency:              currency,
			PaymentTerms:          trimPtr(input.PaymentTerms),
			DeliveryTerms:         trimPtr(input.DeliveryTerms),
			Warehouse:             trimPtr(input.Warehouse),
			DeliveryAddress:       trimPtr(input.DeliveryAddress),
			Buyer:                 trimPtr(input.Buyer),
			Notes:                 trimPtr(input.Notes),
			Subtotal:              totals.Subtotal,
			Tax:                   totals.Tax,
			Total:                 totals.Total,
			Status:                enums.PurchaseOrderStatusPendingApproval,
			IssueDate:             issueDate,
			EstimatedDeliveryDate: dateOnlyPtr(input.EstimatedDeliveryDate),
			CreatedAt:             now.UTC(),
			UpdatedAt:             now.UTC(),
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			if isOrderIDCollision(err) {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert order")
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert order items")
		}

		status := order.Status
		actor := resolveActor(input.Actor, order.Buyer)
		if err := repo.AppendHistory(ctx, &models.PurchaseOrderHistory{
			ID:        uuid.New(),
			OrderID:   orderID,
			Action:    enums.HistoryActionCreated,
			Actor:     actor,
			Comment:   fmt.Sprintf("Order created for %s", supplier.BusinessName),
			ToStatus:  &status,
			CreatedAt: now.UTC(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append order history")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   orderID,
			Actor:         &outbox.ActorRef{Name: actor, Source: "api"},
			OccurredAt:    now.UTC(),
			Data: payloads.OrderCreatedEvent{
				OrderID:     orderID,
				SupplierID:  supplier.ID,
				SupplierRUC: supplier.RUC,
				Category:    order.Category,
				Currency:    order.Currency,
				Status:      order.Status,
				Total:       order.Total,
				ItemCount:   len(items),
				IssueDate:   formatDate(order.IssueDate),
				Buyer:       derefString(order.Buyer),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order created event")
		}

		result = &CreateResult{ID: orderID, Status: order.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, id string, input OrderInput) error {
	id = strings.TrimSpace(id)
	ruc := strings.TrimSpace(input.SupplierRUC)
	if ruc == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier ruc is required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one line item is required")
	}
	currency, err := normalizeCurrency(input.Currency)
	if err != nil {
		return err
	}

	now := s.now()
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "load order")
		}
		if !order.Status.IsEditable() {
			return pkgerrors.New(pkgerrors.CodeNotEditable, fmt.Sprintf("order %s is %s and can no longer be edited", order.ID, order.Status)).
				WithDetails(map[string]any{"status": order.Status})
		}

		supplier, err := s.resolveSupplier(ctx, repo, ruc)
		if err != nil {
			return err
		}

		items, totals, err := s.prepareItems(ctx, order.ID, input)
		if err != nil {
			return err
		}
		previous, err := repo.ListItems(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order items")
		}
		changes := diffItems(previous, items)

		issueDate := order.IssueDate
		if input.IssueDate != nil {
			issueDate = dateOnly(*input.IssueDate)
		}
		updates := map[string]any{
			"supplier_id":             supplier.ID,
			"category":                strings.TrimSpace(input.Category),
			"currency":                currency,
			"payment_terms":           trimPtr(input.PaymentTerms),
			"delivery_terms":          trimPtr(input.DeliveryTerms),
			"warehouse":               trimPtr(input.Warehouse),
			"delivery_address":        trimPtr(input.DeliveryAddress),
			"buyer":                   trimPtr(input.Buyer),
			"notes":                   trimPtr(input.Notes),
			"subtotal":                totals.Subtotal,
			"tax":                     totals.Tax,
			"total":                   totals.Total,
			"issue_date":              issueDate,
			"estimated_delivery_date": dateOnlyPtr(input.EstimatedDeliveryDate),
			"updated_at":              now.UTC(),
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order")
		}
		if err := repo.ReplaceItems(ctx, order.ID, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace order items")
		}

		actor := resolveActor(input.Actor, trimPtr(input.Buyer))
		if err := repo.AppendHistory(ctx, &models.PurchaseOrderHistory{
			ID:        uuid.New(),
			OrderID:   order.ID,
			Action:    enums.HistoryActionEdited,
			Actor:     actor,
			Comment:   summarizeChanges(changes),
			CreatedAt: now.UTC(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append order history")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderUpdated,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{Name: actor, Source: "api"},
			OccurredAt:    now.UTC(),
			Data: payloads.OrderUpdatedEvent{
				OrderID:     order.ID,
				SupplierRUC: supplier.RUC,
				Total:       totals.Total,
				ItemCount:   len(items),
				Changes:     changes,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order updated event")
		}
		return nil
	})
}

func (s *service) TransitionStatus(ctx context.Context, input TransitionInput) (*TransitionResult, error) {
	id := strings.TrimSpace(input.OrderID)
	target, err := enums.ParsePurchaseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status").
			WithDetails(map[string]any{"status": input.Status, "allowed": enums.PurchaseOrderStatuses()})
	}
	action := enums.HistoryActionForStatus(input.Status)
	if action == enums.HistoryActionUpdated {
		action = enums.HistoryActionForStatus(string(target))
	}

	now := s.now()
	var (
		result *TransitionResult
		from   enums.PurchaseOrderStatus
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "load order")
		}
		from = order.Status
		if !from.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", from, target)).
				WithDetails(map[string]any{
					"from":    from,
					"to":      target,
					"allowed": from.AllowedTransitions(),
				})
		}

		updates := map[string]any{
			"status":     target,
			"updated_at": now.UTC(),
		}
		switch target {
		case enums.PurchaseOrderStatusApproved:
			updates["approved_at"] = now.UTC()
		case enums.PurchaseOrderStatusFullyReceived:
			updates["received_at"] = now.UTC()
		case enums.PurchaseOrderStatusClosed, enums.PurchaseOrderStatusVoided:
			updates["closed_at"] = now.UTC()
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}

		actor := resolveActor(derefString(input.Actor), order.Buyer)
		comment := strings.TrimSpace(derefString(input.Comment))
		if comment == "" {
			comment = fmt.Sprintf("Status changed from %s to %s", from, target)
		}
		fromStatus, toStatus := from, target
		if err := repo.AppendHistory(ctx, &models.PurchaseOrderHistory{
			ID:         uuid.New(),
			OrderID:    order.ID,
			Action:     action,
			Actor:      actor,
			Comment:    comment,
			FromStatus: &fromStatus,
			ToStatus:   &toStatus,
			CreatedAt:  now.UTC(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append order history")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{Name: actor, Source: "api"},
			OccurredAt:    now.UTC(),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:   order.ID,
				From:      from,
				To:        target,
				Action:    action,
				Actor:     actor,
				Comment:   comment,
				Total:     order.Total,
				ChangedAt: now.UTC(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit status changed event")
		}

		result = &TransitionResult{ID: order.ID, Status: target, Action: action}
		return nil
	})
	if err != nil {
		if s.metrics != nil && pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			s.metrics.TransitionRejected(string(from), string(target))
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.StatusChanged(string(from), string(target))
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, result.ID), map[string]any{
			"from": from,
			"to":   target,
		})
		s.logg.Info(logCtx, "order status changed")
	}
	return result, nil
}

func (s *service) Delete(ctx context.Context, id string, actor string) error {
	id = strings.TrimSpace(id)
	now := s.now()
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "load order")
		}
		if err := repo.DeleteOrder(ctx, order.ID); err != nil {
			return notFoundOr(err, "delete order")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderDeleted,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{Name: resolveActor(actor, order.Buyer), Source: "api"},
			OccurredAt:    now.UTC(),
			Data: payloads.OrderDeletedEvent{
				OrderID:   order.ID,
				Status:    order.Status,
				Total:     order.Total,
				DeletedAt: now.UTC(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order deleted event")
		}
		return nil
	})
}

func (s *service) AddAttachment(ctx context.Context, input AttachmentInput) (*AttachmentDTO, error) {
	name := strings.TrimSpace(input.FileName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
	}
	if input.SizeBytes < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size must not be negative")
	}

	order, err := s.repo.FindOrder(ctx, strings.TrimSpace(input.OrderID))
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}

	fileType := strings.TrimSpace(input.FileType)
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	attachment := &models.PurchaseOrderAttachment{
		ID:         uuid.New(),
		OrderID:    order.ID,
		FileName:   name,
		FileType:   fileType,
		SizeBytes:  input.SizeBytes,
		UploadedAt: s.now().UTC(),
	}
	if err := s.repo.CreateAttachment(ctx, attachment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert attachment")
	}
	dto := toAttachmentDTO(*attachment)
	return &dto, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(filters.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(filters.Pagination.Limit)

	rows, err := s.repo.ListOrders(ctx, filters, pagination.LimitWithBuffer(limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	rows, next := pagination.Trim(rows, limit, func(row OrderRow) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	result := &ListResult{Orders: make([]OrderSummary, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		result.Orders = append(result.Orders, toSummary(row))
	}
	return result, nil
}

func (s *service) Detail(ctx context.Context, id string) (*OrderDetail, error) {
	order, err := s.repo.FindOrderDetail(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}
	return toDetail(order), nil
}

func (s *service) resolveSupplier(ctx context.Context, repo Repository, ruc string) (*models.Supplier, error) {
	supplier, err := repo.FindSupplierByRUC(ctx, ruc)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("supplier %s not found", ruc))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load supplier")
	}
	if !supplier.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("supplier %s is inactive", ruc))
	}
	return supplier, nil
}

// prepareItems builds order lines and settles the header totals. A header
// sent without any totals takes the line sums.
func (s *service) prepareItems(ctx context.Context, orderID string, input OrderInput) ([]models.PurchaseOrderItem, Totals, error) {
	items, lines, err := buildItems(orderID, input.Items)
	if err != nil {
		return nil, Totals{}, err
	}
	header := Totals{Subtotal: input.Subtotal.Round(2), Tax: input.Tax.Round(2), Total: input.Total.Round(2)}
	if header.isZero() {
		return items, lines, nil
	}
	mismatches := reconcileTotals(header, lines)
	if len(mismatches) == 0 {
		return items, header, nil
	}
	if s.strict {
		return nil, Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "order totals do not match line items").
			WithDetails(map[string]any{"mismatches": mismatches})
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"supplier_ruc": input.SupplierRUC,
			"mismatches":   len(mismatches),
		})
		s.logg.Warn(logCtx, "order totals do not match line items")
	}
	return items, header, nil
}

func normalizeCurrency(value enums.Currency) (enums.Currency, error) {
	if strings.TrimSpace(string(value)) == "" {
		return enums.CurrencyPEN, nil
	}
	currency, err := enums.ParseCurrency(string(value))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}
	return currency, nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}

func resolveActor(actor string, buyer *string) string {
	if trimmed := strings.TrimSpace(actor); trimmed != "" {
		return trimmed
	}
	if b := strings.TrimSpace(derefString(buyer)); b != "" {
		return b
	}
	return systemActor
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dateOnlyPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := dateOnly(*t)
	return &d
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

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
