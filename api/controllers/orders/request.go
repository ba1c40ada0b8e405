package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	internalorders "github.com/angelmondragon/procurement-backend/internal/orders"
	"github.com/angelmondragon/procurement-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/procurement-backend/pkg/errors"
)

const dateLayout = "2006-01-02"

type lineItemRequest struct {
	SKU           string          `json:"sku" validate:"required,max=64"`
	Description   string          `json:"description" validate:"required,max=500"`
	UnitOfMeasure string          `json:"unitOfMeasure" validate:"omitempty,max=16"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Discount      decimal.Decimal `json:"discount"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
}

type orderRequest struct {
	SupplierRUC           string            `json:"supplierRuc" validate:"required,max=20"`
	Category              string            `json:"category" validate:"omitempty,max=120"`
	Currency              string            `json:"currency" validate:"omitempty,len=3"`
	PaymentTerms          *string           `json:"paymentTerms" validate:"omitempty,max=120"`
	DeliveryTerms         *string           `json:"deliveryTerms" validate:"omitempty,max=120"`
	Warehouse             *string           `json:"warehouse" validate:"omitempty,max=120"`
	DeliveryAddress       *string           `json:"deliveryAddress" validate:"omitempty,max=500"`
	Buyer                 *string           `json:"buyer" validate:"omitempty,max=120"`
	Notes                 *string           `json:"notes" validate:"omitempty,max=2000"`
	IssueDate             *string           `json:"issueDate"`
	EstimatedDeliveryDate *string           `json:"estimatedDeliveryDate"`
	Subtotal              decimal.Decimal   `json:"subtotal"`
	Tax                   decimal.Decimal   `json:"tax"`
	Total                 decimal.Decimal   `json:"total"`
	Items                 []lineItemRequest `json:"items" validate:"required,min=1,dive"`
}

type statusRequest struct {
	Status  string  `json:"status" validate:"required"`
	Actor   *string `json:"actor" validate:"omitempty,max=120"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

type attachmentRequest struct {
	FileName  string `json:"fileName" validate:"required,max=255"`
	FileType  string `json:"fileType" validate:"omitempty,max=120"`
	SizeBytes int64  `json:"sizeBytes" validate:"gte=0"`
}

func (req orderRequest) toInput(actor string) (internalorders.OrderInput, error) {
	issueDate, err := parseDate("issueDate", req.IssueDate)
	if err != nil {
		return internalorders.OrderInput{}, err
	}
	estimated, err := parseDate("estimatedDeliveryDate", req.EstimatedDeliveryDate)
	if err != nil {
		return internalorders.OrderInput{}, err
	}

	items := make([]internalorders.LineItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, internalorders.LineItemInput{
			SKU:           item.SKU,
			Description:   item.Description,
			UnitOfMeasure: item.UnitOfMeasure,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			Discount:      item.Discount,
			Subtotal:      item.Subtotal,
			Tax:           item.Tax,
			Total:         item.Total,
		})
	}

	return internalorders.OrderInput{
		SupplierRUC:           req.SupplierRUC,
		Category:              req.Category,
		Currency:              enums.Currency(strings.ToUpper(strings.TrimSpace(req.Currency))),
		PaymentTerms:          req.PaymentTerms,
		DeliveryTerms:         req.DeliveryTerms,
		Warehouse:             req.Warehouse,
		DeliveryAddress:       req.DeliveryAddress,
		Buyer:                 req.Buyer,
		Notes:                 req.Notes,
		IssueDate:             issueDate,
		EstimatedDeliveryDate: estimated,
		Subtotal:              req.Subtotal,
		Tax:                   req.Tax,
		Total:                 req.Total,
		Items:                 items,
		Actor:                 actor,
	}, nil
}

func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value, err := time.ParseInLocation(dateLayout, strings.TrimSpace(*raw), time.UTC)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dates must use YYYY-MM-DD").
			WithDetails(map[string]any{"field": field, "value": *raw})
	}
	return &value, nil
}
