package orders

import (
	"time"

	"github.com/angelmondragon/procurement-backend/pkg/db/models"
)

func toSummary(row OrderRow) OrderSummary {
	return OrderSummary{
		ID:                    row.ID,
		SupplierName:          row.SupplierName,
		SupplierRUC:           row.SupplierRUC,
		Category:              row.Category,
		Currency:              row.Currency,
		Buyer:                 derefString(row.Buyer),
		Status:                row.Status,
		Total:                 formatMoney(row.Total),
		IssueDate:             formatDate(row.IssueDate),
		EstimatedDeliveryDate: formatDatePtr(row.EstimatedDeliveryDate),
	}
}

func toDetail(order *models.PurchaseOrder) *OrderDetail {
	detail := &OrderDetail{
		OrderSummary: OrderSummary{
			ID:                    order.ID,
			SupplierName:          order.Supplier.BusinessName,
			SupplierRUC:           order.Supplier.RUC,
			Category:              order.Category,
			Currency:              order.Currency,
			Buyer:                 derefString(order.Buyer),
			Status:                order.Status,
			Total:                 formatMoney(order.Total),
			IssueDate:             formatDate(order.IssueDate),
			EstimatedDeliveryDate: formatDatePtr(order.EstimatedDeliveryDate),
		},
		SupplierID:      order.SupplierID.String(),
		PaymentTerms:    order.PaymentTerms,
		DeliveryTerms:   order.DeliveryTerms,
		Warehouse:       order.Warehouse,
		DeliveryAddress: order.DeliveryAddress,
		Notes:           order.Notes,
		Subtotal:        formatMoney(order.Subtotal),
		Tax:             formatMoney(order.Tax),
		AllowedNext:     []string{},
		Items:           make([]LineItemDTO, 0, len(order.Items)),
		History:         make([]HistoryDTO, 0, len(order.History)),
		Attachments:     make([]AttachmentDTO, 0, len(order.Attachments)),
		Timeline:        buildTimeline(order),
	}
	for _, next := range order.Status.AllowedTransitions() {
		detail.AllowedNext = append(detail.AllowedNext, next.String())
	}
	for _, item := range order.Items {
		detail.Items = append(detail.Items, LineItemDTO{
			LineNumber:    item.LineNumber,
			SKU:           item.SKU,
			Description:   item.Description,
			UnitOfMeasure: item.UnitOfMeasure,
			Quantity:      item.Quantity.String(),
			UnitPrice:     item.UnitPrice.String(),
			Discount:      formatMoney(item.Discount),
			Subtotal:      formatMoney(item.Subtotal),
			Tax:           formatMoney(item.Tax),
			Total:         formatMoney(item.Total),
		})
	}
	for _, h := range order.History {
		detail.History = append(detail.History, HistoryDTO{
			Action:     h.Action,
			Actor:      h.Actor,
			Comment:    h.Comment,
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			Date:       h.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	for _, a := range order.Attachments {
		detail.Attachments = append(detail.Attachments, toAttachmentDTO(a))
	}
	return detail
}

func toAttachmentDTO(a models.PurchaseOrderAttachment) AttachmentDTO {
	return AttachmentDTO{
		ID:         a.ID.String(),
		FileName:   a.FileName,
		FileType:   a.FileType,
		Size:       formatSizeMB(a.SizeBytes),
		UploadedAt: a.UploadedAt.UTC().Format(time.RFC3339),
	}
}
