package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
)

type warehouse interface {
	Query(ctx context.Context, sql string, params []bigquery.QueryParameter) (*bigquery.RowIterator, error)
	SalesTableRef() string
}

// bigQueryRow mirrors the warehouse columns. Amounts arrive as text so malformed values can be zeroed.
type bigQueryRow struct {
	Year        int64               `bigquery:"year"`
	Month       int64               `bigquery:"month"`
	AgentID     bigquery.NullString `bigquery:"agent_id"`
	AgentName   bigquery.NullString `bigquery:"agent_name"`
	Customer    bigquery.NullString `bigquery:"customer"`
	NetAmount   bigquery.NullString `bigquery:"net_amount"`
	Category    bigquery.NullString `bigquery:"category"`
	ArticleCode bigquery.NullString `bigquery:"article_code"`
}

// BigQuerySource reads the sales history from the warehouse copy of the table.
type BigQuerySource struct {
	client  warehouse
	maxRows int
}

// NewBigQuerySource builds a warehouse-backed sales source returning at most maxRows rows.
func NewBigQuerySource(client warehouse, maxRows int) (*BigQuerySource, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	return &BigQuerySource{client: client, maxRows: maxRows}, nil
}

func (s *BigQuerySource) Records(ctx context.Context, q Query) ([]Record, error) {
	sql, params := salesQuery(s.client.SalesTableRef(), q, s.maxRows)
	it, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query sales history: %w", err)
	}
	out := []Record{}
	for {
		var row bigQueryRow
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read sales history: %w", err)
		}
		out = append(out, recordFromBigQuery(row))
	}
	return out, nil
}

func salesQuery(table string, q Query, maxRows int) (string, []bigquery.QueryParameter) {
	sql := `SELECT year, month, agent_id, agent_name, customer,
  SAFE_CAST(net_amount AS STRING) AS net_amount, category, article_code
FROM ` + table + `
WHERE (@agent_id = '' OR agent_id = @agent_id)
  AND (@customer = '' OR customer = @customer)`
	if maxRows > 0 {
		sql += fmt.Sprintf("\nLIMIT %d", maxRows)
	}
	params := []bigquery.QueryParameter{
		{Name: "agent_id", Value: strings.TrimSpace(q.AgentID)},
		{Name: "customer", Value: strings.TrimSpace(q.Customer)},
	}
	return sql, params
}

func recordFromBigQuery(row bigQueryRow) Record {
	return Record{
		Year:        int(row.Year),
		Month:       int(row.Month),
		AgentID:     strings.TrimSpace(row.AgentID.StringVal),
		AgentName:   strings.TrimSpace(row.AgentName.StringVal),
		Customer:    strings.TrimSpace(row.Customer.StringVal),
		NetAmount:   parseAmount(row.NetAmount),
		Category:    strings.TrimSpace(row.Category.StringVal),
		ArticleCode: strings.TrimSpace(row.ArticleCode.StringVal),
	}
}

// parseAmount reads a textual amount; missing or malformed values count as zero.
func parseAmount(v bigquery.NullString) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(v.StringVal))
	if err != nil {
		return decimal.Zero
	}
	return amount
}
