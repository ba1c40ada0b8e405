package enums

import (
	"fmt"
	"slices"
)

// PurchaseOrderStatus tracks the lifecycle of a purchase order.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft             PurchaseOrderStatus = "Draft"
	PurchaseOrderStatusPendingApproval   PurchaseOrderStatus = "PendingApproval"
	PurchaseOrderStatusApproved          PurchaseOrderStatus = "Approved"
	PurchaseOrderStatusSent              PurchaseOrderStatus = "Sent"
	PurchaseOrderStatusPartiallyReceived PurchaseOrderStatus = "PartiallyReceived"
	PurchaseOrderStatusFullyReceived     PurchaseOrderStatus = "FullyReceived"
	PurchaseOrderStatusClosed            PurchaseOrderStatus = "Closed"
	PurchaseOrderStatusVoided            PurchaseOrderStatus = "Voided"
)

var validPurchaseOrderStatuses = []PurchaseOrderStatus{
	PurchaseOrderStatusDraft,
	PurchaseOrderStatusPendingApproval,
	PurchaseOrderStatusApproved,
	PurchaseOrderStatusSent,
	PurchaseOrderStatusPartiallyReceived,
	PurchaseOrderStatusFullyReceived,
	PurchaseOrderStatusClosed,
	PurchaseOrderStatusVoided,
}

var purchaseOrderStatusAliases = map[string]PurchaseOrderStatus{
	"borrador":              PurchaseOrderStatusDraft,
	"pending":               PurchaseOrderStatusPendingApproval,
	"pendiente":             PurchaseOrderStatusPendingApproval,
	"pendienteaprobacion":   PurchaseOrderStatusPendingApproval,
	"pendientedeaprobacion": PurchaseOrderStatusPendingApproval,
	"aprobada":              PurchaseOrderStatusApproved,
	"aprobado":              PurchaseOrderStatusApproved,
	"enviada":               PurchaseOrderStatusSent,
	"enviado":               PurchaseOrderStatusSent,
	"recibidaparcial":       PurchaseOrderStatusPartiallyReceived,
	"parcialmenterecibida":  PurchaseOrderStatusPartiallyReceived,
	"recibidaparcialmente":  PurchaseOrderStatusPartiallyReceived,
	"received":              PurchaseOrderStatusFullyReceived,
	"recibida":              PurchaseOrderStatusFullyReceived,
	"recibidatotal":         PurchaseOrderStatusFullyReceived,
	"recibidacompleta":      PurchaseOrderStatusFullyReceived,
	"cerrada":               PurchaseOrderStatusClosed,
	"cerrado":               PurchaseOrderStatusClosed,
	"anulada":               PurchaseOrderStatusVoided,
	"anulado":               PurchaseOrderStatusVoided,
}

// purchaseOrderTransitions enumerates the allowed edges of the order state machine.
var purchaseOrderTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PurchaseOrderStatusDraft: {
		PurchaseOrderStatusPendingApproval,
		PurchaseOrderStatusVoided,
	},
	PurchaseOrderStatusPendingApproval: {
		PurchaseOrderStatusApproved,
		PurchaseOrderStatusDraft,
		PurchaseOrderStatusVoided,
	},
	PurchaseOrderStatusApproved: {
		PurchaseOrderStatusSent,
		PurchaseOrderStatusVoided,
	},
	PurchaseOrderStatusSent: {
		PurchaseOrderStatusPartiallyReceived,
		PurchaseOrderStatusFullyReceived,
		PurchaseOrderStatusVoided,
	},
	PurchaseOrderStatusPartiallyReceived: {
		PurchaseOrderStatusPartiallyReceived,
		PurchaseOrderStatusFullyReceived,
		PurchaseOrderStatusClosed,
	},
	PurchaseOrderStatusFullyReceived: {
		PurchaseOrderStatusClosed,
	},
}

// PurchaseOrderStatuses returns every status in lifecycle order.
func PurchaseOrderStatuses() []PurchaseOrderStatus {
	out := make([]PurchaseOrderStatus, len(validPurchaseOrderStatuses))
	copy(out, validPurchaseOrderStatuses)
	return out
}

// String implements fmt.Stringer.
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PurchaseOrderStatus.
func (s PurchaseOrderStatus) IsValid() bool {
	return slices.Contains(validPurchaseOrderStatuses, s)
}

// IsTerminal reports whether no further transitions are allowed.
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s.IsValid() && len(purchaseOrderTransitions[s]) == 0
}

// IsEditable reports whether header and line items may still be replaced.
func (s PurchaseOrderStatus) IsEditable() bool {
	return s == PurchaseOrderStatusDraft
}

// AllowedTransitions lists the statuses reachable from s.
func (s PurchaseOrderStatus) AllowedTransitions() []PurchaseOrderStatus {
	return append([]PurchaseOrderStatus{}, purchaseOrderTransitions[s]...)
}

// CanTransitionTo reports whether target is reachable from s in one step.
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	return slices.Contains(purchaseOrderTransitions[s], target)
}

// ParsePurchaseOrderStatus converts raw input into a PurchaseOrderStatus.
// Canonical names match case-insensitively; Spanish labels are accepted
// with or without accents.
func ParsePurchaseOrderStatus(value string) (PurchaseOrderStatus, error) {
	key := compactKey(value)
	if key == "" {
		return "", fmt.Errorf("invalid purchase order status %q", value)
	}
	for _, candidate := range validPurchaseOrderStatuses {
		if compactKey(string(candidate)) == key {
			return candidate, nil
		}
	}
	if status, ok := purchaseOrderStatusAliases[key]; ok {
		return status, nil
	}
	return "", fmt.Errorf("invalid purchase order status %q", value)
}
