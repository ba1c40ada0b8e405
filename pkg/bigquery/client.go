package bigquery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/angelmondragon/procurement-backend/pkg/config"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
)

const metadataCheckTimeout = 10 * time.Second

var (
	ErrNotInitialized = errors.New("bigquery client not initialized")
	ErrMissing        = errors.New("bigquery resource does not exist")
)

// Client streams rows into the order events table of one dataset.
type Client struct {
	client *bigquery.Client
	table  *bigquery.Table
}

// NewClient connects and verifies that the dataset and the order events
// table exist. Tables are provisioned by terraform, never created here.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	dataset := strings.TrimSpace(cfg.Dataset)
	table := strings.TrimSpace(cfg.OrderEventsTable)
	switch {
	case project == "":
		return nil, errors.New("gcp project id is required")
	case dataset == "":
		return nil, errors.New("bigquery dataset is required")
	case table == "":
		return nil, errors.New("bigquery order events table is required")
	}

	raw, err := bigquery.NewClient(ctx, project, gcp.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	c := &Client{client: raw, table: raw.Dataset(dataset).Table(table)}
	if err := c.Ping(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"dataset": dataset, "table": table}), "bigquery client initialized")
	}
	return c, nil
}

// Ping reads dataset and table metadata.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.table == nil {
		return ErrNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, metadataCheckTimeout)
	defer cancel()

	dataset := c.client.Dataset(c.table.DatasetID)
	if _, err := dataset.Metadata(ctx); err != nil {
		return metadataError("dataset", c.table.DatasetID, err)
	}
	if _, err := c.table.Metadata(ctx); err != nil {
		return metadataError("table", c.table.FullyQualifiedName(), err)
	}
	return nil
}

func metadataError(kind, name string, err error) error {
	if IsNotFound(err) {
		return fmt.Errorf("%w: %s %s", ErrMissing, kind, name)
	}
	return fmt.Errorf("checking %s %s: %w", kind, name, err)
}

// TableName is "<dataset>.<table>", or "" on a nil client.
func (c *Client) TableName() string {
	if c == nil || c.table == nil {
		return ""
	}
	return c.table.DatasetID + "." + c.table.TableID
}

// Insert streams rows with a single insertAll call. Rows may be structs,
// struct pointers or ValueSavers.
func (c *Client) Insert(ctx context.Context, rows []any) error {
	if c == nil || c.table == nil {
		return ErrNotInitialized
	}
	if len(rows) == 0 {
		return nil
	}
	return c.table.Inserter().Put(ctx, rows)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
