package orders

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/procurement-backend/pkg/errors"
)

var totalsTolerance = decimal.New(1, -2)

// Totals holds the three monetary header fields.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// TotalsMismatch describes one header field that disagrees with its lines.
type TotalsMismatch struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

func (t Totals) isZero() bool {
	return t.Subtotal.IsZero() && t.Tax.IsZero() && t.Total.IsZero()
}

// buildItems validates submitted lines and derives missing line amounts.
func buildItems(orderID string, inputs []LineItemInput) ([]models.PurchaseOrderItem, Totals, error) {
	if len(inputs) == 0 {
		return nil, Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item is required")
	}

	items := make([]models.PurchaseOrderItem, 0, len(inputs))
	var sum Totals
	for i, in := range inputs {
		line := i + 1
		sku := strings.TrimSpace(in.SKU)
		if sku == "" {
			return nil, Totals{}, lineError(line, "sku is required")
		}
		if !in.Quantity.IsPositive() {
			return nil, Totals{}, lineError(line, "quantity must be greater than zero")
		}
		if in.UnitPrice.IsNegative() || in.Discount.IsNegative() || in.Tax.IsNegative() {
			return nil, Totals{}, lineError(line, "amounts cannot be negative")
		}

		subtotal := in.Subtotal
		if subtotal.IsZero() {
			subtotal = in.Quantity.Mul(in.UnitPrice).Sub(in.Discount)
		}
		subtotal = subtotal.Round(2)
		tax := in.Tax.Round(2)
		total := in.Total
		if total.IsZero() {
			total = subtotal.Add(tax)
		}
		total = total.Round(2)

		unit := strings.TrimSpace(in.UnitOfMeasure)
		if unit == "" {
			unit = "UND"
		}

		items = append(items, models.PurchaseOrderItem{
			ID:            uuid.New(),
			OrderID:       orderID,
			LineNumber:    line,
			SKU:           sku,
			Description:   strings.TrimSpace(in.Description),
			UnitOfMeasure: unit,
			Quantity:      in.Quantity,
			UnitPrice:     in.UnitPrice,
			Discount:      in.Discount,
			Subtotal:      subtotal,
			Tax:           tax,
			Total:         total,
		})
		sum.Subtotal = sum.Subtotal.Add(subtotal)
		sum.Tax = sum.Tax.Add(tax)
		sum.Total = sum.Total.Add(total)
	}
	return items, sum, nil
}

// reconcileTotals compares the caller supplied header against the line sums.
func reconcileTotals(header, lines Totals) []TotalsMismatch {
	var out []TotalsMismatch
	check := func(field string, actual, expected decimal.Decimal) {
		if actual.Sub(expected).Abs().GreaterThan(totalsTolerance) {
			out = append(out, TotalsMismatch{
				Field:    field,
				Expected: formatMoney(expected),
				Actual:   formatMoney(actual),
			})
		}
	}
	check("subtotal", header.Subtotal, lines.Subtotal)
	check("tax", header.Tax, lines.Tax)
	check("total", header.Total, lines.Total)
	return out
}

func lineError(line int, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: %s", line, msg)).
		WithDetails(map[string]any{"line": line})
}
