package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyEnvelopeData = errors.New("envelope data is empty")

// ActorRef is the free-text name of whoever triggered the event. Buyers and
// approvers are not accounts, so there is no id.
type ActorRef struct {
	Name   string `json:"name"`
	Source string `json:"source,omitempty"`
}

// PayloadEnvelope wraps every outbox payload. Subscribers read it straight
// from the Pub/Sub message body.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

func newEnvelope(version int, occurredAt time.Time, actor *ActorRef, data any) (PayloadEnvelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return PayloadEnvelope{}, fmt.Errorf("marshal event data: %w", err)
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	if version <= 0 {
		version = defaultPayloadVersion
	}
	return PayloadEnvelope{
		Version:    version,
		EventID:    uuid.NewString(),
		OccurredAt: occurredAt.UTC(),
		Actor:      actor,
		Data:       raw,
	}, nil
}

// HasData reports whether Data carries something other than null.
func (e PayloadEnvelope) HasData() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// DecodeEnvelope parses a stored payload. An envelope without data is
// rejected with ErrEmptyEnvelopeData.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var envelope PayloadEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if !envelope.HasData() {
		return envelope, ErrEmptyEnvelopeData
	}
	return envelope, nil
}
