package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/vivetti/salesdesk-backend/pkg/config"
	"github.com/vivetti/salesdesk-backend/pkg/logger"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const metadataCheckTimeout = 10 * time.Second

// jobLabels tag every query job so warehouse spend can be attributed.
var jobLabels = map[string]string{"service": "salesdesk", "component": "sales_reports"}

// Client is a read-only handle on the sales warehouse dataset.
type Client struct {
	client         *bigquery.Client
	dataset        *bigquery.Dataset
	projectID      string
	salesTable     string
	maxBytesBilled int64
}

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errDatasetRequired      = errors.New("bigquery dataset is required")
	errTableNameRequired    = errors.New("bigquery table name is required")
	errClientNotInitialized = errors.New("bigquery client not initialized")
)

// NewClient creates a BigQuery client and verifies the dataset and sales table exist.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	datasetID := strings.TrimSpace(cfg.Dataset)
	if datasetID == "" {
		return nil, errDatasetRequired
	}
	table := strings.TrimSpace(cfg.SalesTable)
	if table == "" {
		return nil, errTableNameRequired
	}

	bqClient, err := bigquery.NewClient(ctx, projectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}

	client := &Client{
		client:         bqClient,
		dataset:        bqClient.Dataset(datasetID),
		projectID:      projectID,
		salesTable:     table,
		maxBytesBilled: cfg.MaxBytesBilled,
	}
	if err := client.ensureDatasetAndTable(ctx); err != nil {
		_ = bqClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "table", client.SalesTableRef()), "bigquery client initialized")
	}
	return client, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	return opts
}

// TableRef renders a fully qualified, backtick-quoted table reference for standard SQL.
func TableRef(projectID, datasetID, table string) string {
	return fmt.Sprintf("`%s.%s.%s`", strings.TrimSpace(projectID), strings.TrimSpace(datasetID), strings.TrimSpace(table))
}

// SalesTableRef is the qualified reference of the sales history table.
func (c *Client) SalesTableRef() string {
	if c == nil || c.dataset == nil {
		return ""
	}
	return TableRef(c.projectID, c.dataset.DatasetID, c.salesTable)
}

func (c *Client) ensureDatasetAndTable(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, metadataCheckTimeout)
	defer cancel()

	if _, err := c.dataset.Metadata(ctx); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("dataset %q does not exist", c.dataset.DatasetID)
		}
		return fmt.Errorf("checking dataset %q: %w", c.dataset.DatasetID, err)
	}
	if _, err := c.dataset.Table(c.salesTable).Metadata(ctx); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("table %q does not exist", c.salesTable)
		}
		return fmt.Errorf("checking table %q: %w", c.salesTable, err)
	}
	return nil
}

// Ping verifies the dataset and table are still reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return errClientNotInitialized
	}
	return c.ensureDatasetAndTable(ctx)
}

// Query runs a parameterized standard SQL statement. Jobs are labelled and,
// when configured, capped by bytes billed so a runaway report fails instead of
// scanning the whole warehouse.
func (c *Client) Query(ctx context.Context, sql string, params []bigquery.QueryParameter) (*bigquery.RowIterator, error) {
	if c == nil || c.client == nil {
		return nil, errClientNotInitialized
	}
	q, err := c.buildQuery(sql, params)
	if err != nil {
		return nil, err
	}
	return q.Read(ctx)
}

func (c *Client) buildQuery(sql string, params []bigquery.QueryParameter) (*bigquery.Query, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, errors.New("sql query is required")
	}
	q := c.client.Query(sql)
	q.Parameters = params
	q.Labels = jobLabels
	if c.maxBytesBilled > 0 {
		q.MaxBytesBilled = c.maxBytesBilled
	}
	return q, nil
}

// Close releases the BigQuery client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.Code == http.StatusNotFound
	}
	return false
}
