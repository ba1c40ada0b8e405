package types

import (
	"testing"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderEventRowSave(t *testing.T) {
	status := "Approved"
	total := int64(11800)
	occurred := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	row := &OrderEventRow{
		EventID:    "evt-1",
		EventType:  "order_approved",
		OccurredAt: occurred,
		OrderID:    "OC-2025-0001",
		Status:     &status,
		TotalCents: &total,
		Payload:    cbigquery.NullJSON{Valid: true, JSONVal: `{"a":1}`},
	}

	values, insertID, err := row.Save()
	require.NoError(t, err)
	assert.Equal(t, "evt-1", insertID)
	assert.Equal(t, "Approved", values["status"])
	assert.Equal(t, int64(11800), values["total_cents"])
	assert.Nil(t, values["category"])
	assert.Nil(t, values["days_pending"])
	assert.Equal(t, `{"a":1}`, values["payload"])
	assert.Equal(t, occurred, values["occurred_at"])

	var _ cbigquery.ValueSaver = row
}

func TestOrderEventRowSaveNullPayload(t *testing.T) {
	values, _, err := (&OrderEventRow{EventID: "evt-2"}).Save()
	require.NoError(t, err)
	v, ok := values["payload"]
	assert.True(t, ok)
	assert.Nil(t, v)
}
