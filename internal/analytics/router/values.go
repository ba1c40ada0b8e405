package router

import (
	"encoding/json"
	"fmt"
	"strings"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurement-backend/internal/analytics/writer"
)

var centsFactor = decimal.NewFromInt(100)

func stringPtr(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func int64Ptr(v int) *int64 {
	out := int64(v)
	return &out
}

func cents(amount decimal.Decimal) *int64 {
	out := amount.Mul(centsFactor).Round(0).IntPart()
	return &out
}

func encodePayload(raw json.RawMessage) (cbigquery.NullJSON, error) {
	payload, err := writer.EncodeJSON(raw)
	if err != nil {
		return cbigquery.NullJSON{}, fmt.Errorf("encode payload json: %w", err)
	}
	return payload, nil
}
