package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/payloads"
)

func item(sku, qty, price string) models.PurchaseOrderItem {
	total := dec(qty).Mul(dec(price))
	return models.PurchaseOrderItem{SKU: sku, Quantity: dec(qty), UnitPrice: dec(price), Subtotal: total, Total: total}
}

func TestDiffItems(t *testing.T) {
	before := []models.PurchaseOrderItem{item("A", "1", "10"), item("B", "2", "5"), item("C", "1", "1")}
	after := []models.PurchaseOrderItem{item("A", "1", "10"), item("B", "3", "5"), item("D", "1", "7")}

	changes := diffItems(before, after)

	assert.Equal(t, []string{"D"}, changes.Added)
	assert.Equal(t, []string{"C"}, changes.Removed)
	assert.Equal(t, []string{"B"}, changes.Changed)
	assert.Equal(t, "Order edited; added D; removed C; changed B", summarizeChanges(changes))
}

func TestSummarizeChangesWithoutDiff(t *testing.T) {
	assert.Equal(t, "Order edited; line items unchanged", summarizeChanges(payloads.ItemChanges{}))
}
