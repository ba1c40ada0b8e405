package dashboard

import "github.com/angelmondragon/procurement-backend/pkg/enums"

// Metric names reported in KPIs.InsufficientData.
const (
	MetricAvgApprovalHours  = "avgApprovalHours"
	MetricOnTimeDeliveryPct = "onTimeDeliveryPct"
)

// StatusCount is the number of orders currently in a status.
type StatusCount struct {
	Status enums.PurchaseOrderStatus `json:"status"`
	Count  int64                     `json:"count"`
}

// KPIs summarises the order book. Nil averages mean there was nothing to average.
type KPIs struct {
	CountsByStatus    []StatusCount `json:"countsByStatus"`
	TotalOrders       int64         `json:"totalOrders"`
	MonthlySpend      string        `json:"monthlySpend"`
	AvgApprovalHours  *float64      `json:"avgApprovalHours"`
	OnTimeDeliveryPct *float64      `json:"onTimeDeliveryPct"`
	InsufficientData  []string      `json:"insufficientData"`
}

type CategorySpend struct {
	Category string `json:"category"`
	Total    string `json:"total"`
	Orders   int64  `json:"orders"`
}

type SupplierSpend struct {
	SupplierRUC  string `json:"supplierRuc"`
	SupplierName string `json:"supplierName"`
	Total        string `json:"total"`
	Orders       int64  `json:"orders"`
}

type MonthSpend struct {
	Month string `json:"month"`
	Total string `json:"total"`
}

// AgingBucket counts pending-approval orders by days since issue.
type AgingBucket struct {
	Label      string `json:"label"`
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

// Charts bundles the dashboard series.
type Charts struct {
	SpendByCategory []CategorySpend `json:"spendByCategory"`
	TopSuppliers    []SupplierSpend `json:"topSuppliers"`
	MonthlySpend    []MonthSpend    `json:"monthlySpend"`
	Aging           []AgingBucket   `json:"aging"`
}
