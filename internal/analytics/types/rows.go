package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// OrderEventRow mirrors the order_events BigQuery schema. Money is stored in cents.
type OrderEventRow struct {
	EventID     string             `bigquery:"event_id"`
	EventType   string             `bigquery:"event_type"`
	OccurredAt  time.Time          `bigquery:"occurred_at"`
	OrderID     string             `bigquery:"order_id"`
	SupplierRUC *string            `bigquery:"supplier_ruc"`
	Category    *string            `bigquery:"category"`
	Currency    *string            `bigquery:"currency"`
	Status      *string            `bigquery:"status"`
	FromStatus  *string            `bigquery:"from_status"`
	ToStatus    *string            `bigquery:"to_status"`
	Action      *string            `bigquery:"action"`
	Actor       *string            `bigquery:"actor"`
	TotalCents  *int64             `bigquery:"total_cents"`
	ItemCount   *int64             `bigquery:"item_count"`
	DaysPending *int64             `bigquery:"days_pending"`
	Payload     cbigquery.NullJSON `bigquery:"payload"`
	IngestedAt  time.Time          `bigquery:"ingested_at"`
}

// Save implements bigquery.ValueSaver. Nil pointers are written as NULL and
// the event id doubles as the streaming insert id.
func (r *OrderEventRow) Save() (map[string]cbigquery.Value, string, error) {
	row := map[string]cbigquery.Value{
		"event_id":     r.EventID,
		"event_type":   r.EventType,
		"occurred_at":  r.OccurredAt,
		"order_id":     r.OrderID,
		"supplier_ruc": nullable(r.SupplierRUC),
		"category":     nullable(r.Category),
		"currency":     nullable(r.Currency),
		"status":       nullable(r.Status),
		"from_status":  nullable(r.FromStatus),
		"to_status":    nullable(r.ToStatus),
		"action":       nullable(r.Action),
		"actor":        nullable(r.Actor),
		"total_cents":  nullable(r.TotalCents),
		"item_count":   nullable(r.ItemCount),
		"days_pending": nullable(r.DaysPending),
		"ingested_at":  r.IngestedAt,
	}
	if r.Payload.Valid {
		row["payload"] = r.Payload.JSONVal
	} else {
		row["payload"] = nil
	}
	return row, r.EventID, nil
}

func nullable[T any](v *T) cbigquery.Value {
	if v == nil {
		return nil
	}
	return *v
}
