package writer

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/angelmondragon/procurement-backend/internal/analytics/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

type fakeSink struct {
	responses []error
	batches   [][]any
}

func (f *fakeSink) Insert(_ context.Context, rows []any) error {
	f.batches = append(f.batches, rows)
	idx := len(f.batches) - 1
	if idx < len(f.responses) {
		return f.responses[idx]
	}
	return nil
}

func (f *fakeSink) TableName() string { return "procurement.order_events" }

func newTestWriter(t *testing.T, batchSize int) (*BigQueryWriter, *fakeSink, *[]time.Duration) {
	t.Helper()
	sink := &fakeSink{}
	w, err := New(sink, Config{BatchSize: batchSize, RetryPolicy: RetryPolicy{
		InitialBackoff: 10 * time.Millisecond,
		MaximumBackoff: 15 * time.Millisecond,
	}})
	require.NoError(t, err)

	var waits []time.Duration
	w.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return w, sink, &waits
}

func TestNewRequiresSink(t *testing.T) {
	_, err := New(nil, Config{})
	assert.ErrorIs(t, err, ErrSinkRequired)
}

func TestRetryPolicyDefaults(t *testing.T) {
	p := RetryPolicy{}.withDefaults()
	assert.Equal(t, defaultMaxAttempts, p.MaxAttempts)
	assert.Equal(t, defaultInitialBackoff, p.InitialBackoff)
	assert.Equal(t, defaultMaximumBackoff, p.MaximumBackoff)

	p = RetryPolicy{InitialBackoff: 5 * time.Second}.withDefaults()
	assert.Equal(t, 5*time.Second, p.MaximumBackoff)
}

func TestEncodeJSON(t *testing.T) {
	nj, err := EncodeJSON(map[string]any{"order_id": "OC-2025-0001"})
	require.NoError(t, err)
	assert.True(t, nj.Valid)
	assert.JSONEq(t, `{"order_id":"OC-2025-0001"}`, nj.JSONVal)

	nj, err = EncodeJSON(nil)
	require.NoError(t, err)
	assert.False(t, nj.Valid)

	nj, err = EncodeJSON(json.RawMessage(nil))
	require.NoError(t, err)
	assert.False(t, nj.Valid)

	raw := json.RawMessage(`{"order_id":"OC-2025-0002"}`)
	nj, err = EncodeJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, string(raw), nj.JSONVal)

	_, err = EncodeJSON(make(chan int))
	assert.Error(t, err)
}

func TestWriterRetriesTransientErrors(t *testing.T) {
	w, sink, waits := newTestWriter(t, 1)
	sink.responses = []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		&googleapi.Error{Code: http.StatusTooManyRequests},
		nil,
	}

	require.NoError(t, w.InsertOrderEvent(context.Background(), types.OrderEventRow{EventID: "1"}))
	assert.Len(t, sink.batches, 3)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 15 * time.Millisecond}, *waits)
	assert.Zero(t, w.Pending())
}

func TestWriterStopsOnPermanentError(t *testing.T) {
	w, sink, _ := newTestWriter(t, 1)
	sink.responses = []error{&googleapi.Error{Code: http.StatusBadRequest}}

	err := w.InsertOrderEvent(context.Background(), types.OrderEventRow{EventID: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "procurement.order_events")
	assert.Len(t, sink.batches, 1)
	assert.Equal(t, 1, w.Pending())
}

func TestWriterGivesUpAfterMaxAttempts(t *testing.T) {
	w, sink, _ := newTestWriter(t, 1)
	unavailable := &googleapi.Error{Code: http.StatusServiceUnavailable}
	sink.responses = []error{unavailable, unavailable, unavailable, unavailable}

	err := w.InsertOrderEvent(context.Background(), types.OrderEventRow{EventID: "1"})
	require.Error(t, err)
	assert.Len(t, sink.batches, defaultMaxAttempts)
}

func TestWriterBatchesAndFlushes(t *testing.T) {
	w, sink, _ := newTestWriter(t, 2)
	ctx := context.Background()

	require.NoError(t, w.InsertOrderEvent(ctx, types.OrderEventRow{EventID: "1"}))
	assert.Empty(t, sink.batches)
	require.NoError(t, w.InsertOrderEvent(ctx, types.OrderEventRow{EventID: "2"}))
	require.Len(t, sink.batches, 1)
	assert.Len(t, sink.batches[0], 2)

	require.NoError(t, w.InsertOrderEvent(ctx, types.OrderEventRow{EventID: "3"}))
	require.NoError(t, w.Flush(ctx))
	require.Len(t, sink.batches, 2)
	assert.Len(t, sink.batches[1], 1)

	require.NoError(t, w.Flush(ctx))
	assert.Len(t, sink.batches, 2)
}

func TestWriterStampsIngestedAt(t *testing.T) {
	w, sink, _ := newTestWriter(t, 1)
	fixed := time.Date(2025, 5, 1, 12, 0, 0, 0, time.FixedZone("PET", -5*3600))
	w.now = func() time.Time { return fixed }

	require.NoError(t, w.InsertOrderEvent(context.Background(), types.OrderEventRow{EventID: "1"}))
	row, ok := sink.batches[0][0].(*types.OrderEventRow)
	require.True(t, ok)
	assert.Equal(t, time.UTC, row.IngestedAt.Location())
	assert.True(t, row.IngestedAt.Equal(fixed))
}

func TestWriterHonoursCancelledContext(t *testing.T) {
	w, sink, _ := newTestWriter(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.InsertOrderEvent(ctx, types.OrderEventRow{EventID: "1"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.batches)
}
