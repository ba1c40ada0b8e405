// Package writer streams analytics rows into BigQuery.
package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/angelmondragon/procurement-backend/internal/analytics/types"
	pkgbigquery "github.com/angelmondragon/procurement-backend/pkg/bigquery"
)

const (
	defaultBatchSize      = 1
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

// ErrSinkRequired is returned by New when no table sink is supplied.
var ErrSinkRequired = errors.New("analytics table sink required")

// Sink is the BigQuery table rows are streamed into. *pkgbigquery.Client satisfies it.
type Sink interface {
	Insert(ctx context.Context, rows []any) error
	TableName() string
}

type Config struct {
	BatchSize   int
	RetryPolicy RetryPolicy
}

// RetryPolicy bounds retries of transient insert failures.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = defaultInitialBackoff
	}
	if p.MaximumBackoff < p.InitialBackoff {
		p.MaximumBackoff = max(defaultMaximumBackoff, p.InitialBackoff)
	}
	return p
}

// BigQueryWriter buffers order event rows and streams them in batches of BatchSize.
type BigQueryWriter struct {
	sink      Sink
	batchSize int
	retry     RetryPolicy
	now       func() time.Time
	wait      func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	pending []types.OrderEventRow
}

func New(sink Sink, cfg Config) (*BigQueryWriter, error) {
	if sink == nil {
		return nil, ErrSinkRequired
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &BigQueryWriter{
		sink:      sink,
		batchSize: batchSize,
		retry:     cfg.RetryPolicy.withDefaults(),
		now:       time.Now,
		wait:      sleep,
	}, nil
}

// InsertOrderEvent buffers row and flushes once the batch is full.
func (w *BigQueryWriter) InsertOrderEvent(ctx context.Context, row types.OrderEventRow) error {
	if row.IngestedAt.IsZero() {
		row.IngestedAt = w.now().UTC()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, row)
	if len(w.pending) < w.batchSize {
		return nil
	}
	return w.flushLocked(ctx)
}

// Flush writes buffered rows. Rows stay buffered when the insert fails.
func (w *BigQueryWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked(ctx)
}

// Pending reports the number of buffered rows.
func (w *BigQueryWriter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func (w *BigQueryWriter) flushLocked(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}
	rows := make([]any, 0, len(w.pending))
	for i := range w.pending {
		rows = append(rows, &w.pending[i])
	}
	if err := w.insert(ctx, rows); err != nil {
		return err
	}
	w.pending = w.pending[:0]
	return nil
}

func (w *BigQueryWriter) insert(ctx context.Context, rows []any) error {
	delay := w.retry.InitialBackoff
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := w.sink.Insert(ctx, rows)
		if err == nil {
			return nil
		}
		if attempt >= w.retry.MaxAttempts || !pkgbigquery.IsRetryable(err) {
			return fmt.Errorf("insert %d rows into %s after %d attempt(s): %w", len(rows), w.sink.TableName(), attempt, err)
		}
		if err := w.wait(ctx, delay); err != nil {
			return err
		}
		delay = min(delay*2, w.retry.MaximumBackoff)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// EncodeJSON renders payload for a BigQuery JSON column. Empty input is NULL.
func EncodeJSON(payload any) (cbigquery.NullJSON, error) {
	var raw []byte
	switch value := payload.(type) {
	case nil:
		return cbigquery.NullJSON{}, nil
	case cbigquery.NullJSON:
		return value, nil
	case json.RawMessage:
		raw = value
	case []byte:
		raw = value
	default:
		encoded, err := json.Marshal(payload)
		if err != nil {
			return cbigquery.NullJSON{}, fmt.Errorf("marshal json: %w", err)
		}
		raw = encoded
	}
	if len(raw) == 0 {
		return cbigquery.NullJSON{}, nil
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(raw)}, nil
}
