// Package types holds the analytics pipeline's wire and warehouse shapes.
package types

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/procurement-backend/pkg/enums"
)

// Envelope is one outbox event as the analytics worker sees it: routing
// from the message attributes, identity and payload from the stored body.
type Envelope struct {
	EventID       string                    `json:"event_id"`
	EventType     enums.OutboxEventType     `json:"event_type"`
	AggregateType enums.OutboxAggregateType `json:"aggregate_type"`
	AggregateID   string                    `json:"aggregate_id"`
	Version       int                       `json:"version"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	Payload       json.RawMessage           `json:"payload"`
}

// LogFields identifies the event in log lines.
func (e Envelope) LogFields() map[string]any {
	return map[string]any{
		"event_id":       e.EventID,
		"event_type":     e.EventType,
		"aggregate_type": e.AggregateType,
		"aggregate_id":   e.AggregateID,
		"occurred_at":    e.OccurredAt.Format(time.RFC3339Nano),
	}
}
