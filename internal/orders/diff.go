package orders

import (
	"fmt"
	"sort"
	"strings"

	"github.com/angelmondragon/procurement-backend/pkg/db/models"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/payloads"
)

// diffItems compares line sets by SKU. A SKU counts as changed when its
// quantity, price, discount or total differ.
func diffItems(before, after []models.PurchaseOrderItem) payloads.ItemChanges {
	prev := make(map[string]models.PurchaseOrderItem, len(before))
	for _, item := range before {
		prev[item.SKU] = item
	}
	next := make(map[string]models.PurchaseOrderItem, len(after))
	for _, item := range after {
		next[item.SKU] = item
	}

	var changes payloads.ItemChanges
	for sku, item := range next {
		old, ok := prev[sku]
		if !ok {
			changes.Added = append(changes.Added, sku)
			continue
		}
		if !old.Quantity.Equal(item.Quantity) ||
			!old.UnitPrice.Equal(item.UnitPrice) ||
			!old.Discount.Equal(item.Discount) ||
			!old.Total.Equal(item.Total) {
			changes.Changed = append(changes.Changed, sku)
		}
	}
	for sku := range prev {
		if _, ok := next[sku]; !ok {
			changes.Removed = append(changes.Removed, sku)
		}
	}
	sort.Strings(changes.Added)
	sort.Strings(changes.Removed)
	sort.Strings(changes.Changed)
	return changes
}

func summarizeChanges(changes payloads.ItemChanges) string {
	parts := []string{}
	if len(changes.Added) > 0 {
		parts = append(parts, fmt.Sprintf("added %s", strings.Join(changes.Added, ", ")))
	}
	if len(changes.Removed) > 0 {
		parts = append(parts, fmt.Sprintf("removed %s", strings.Join(changes.Removed, ", ")))
	}
	if len(changes.Changed) > 0 {
		parts = append(parts, fmt.Sprintf("changed %s", strings.Join(changes.Changed, ", ")))
	}
	if len(parts) == 0 {
		return "Order edited; line items unchanged"
	}
	return "Order edited; " + strings.Join(parts, "; ")
}
