package quotes

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vivetti/salesdesk-backend/internal/catalog"
	"github.com/vivetti/salesdesk-backend/pkg/auth"
	"github.com/vivetti/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
)

const numberLayout = "060102-1504"

// HeaderInput is the metadata supplied when a cart becomes a document.
type HeaderInput struct {
	Customer     *catalog.Customer
	Reference    string
	DeliveryDate *time.Time
	Notes        string
}

// Document is an assembled quote: header metadata, ordered lines and derived totals.
type Document struct {
	ID           uuid.UUID       `json:"id"`
	Number       string          `json:"number"`
	CustomerID   *int64          `json:"customer_id,omitempty"`
	CustomerName string          `json:"customer_name"`
	AgentID      string          `json:"agent_id"`
	Reference    string          `json:"reference,omitempty"`
	DeliveryDate *time.Time      `json:"delivery_date,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	Lines        []Line          `json:"lines"`
	GrossTotal   decimal.Decimal `json:"gross_total"`
	NetTotal     decimal.Decimal `json:"net_total"`
	CreatedBy    uuid.UUID       `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NumberFor derives the document number from its creation time.
func NumberFor(t time.Time) string {
	return "PREV-" + t.UTC().Format(numberLayout)
}

// Assemble validates the header and lines and builds a new document stamped at now.
func Assemble(header HeaderInput, lines []Line, op auth.Operator, now time.Time) (*Document, error) {
	if header.Customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer is required")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote must contain at least one line")
	}
	for i, line := range lines {
		if err := line.validate(); err != nil {
			if typed := pkgerrors.As(err); typed != nil {
				return nil, pkgerrors.New(typed.Code(), typed.Message()).
					WithDetails(map[string]any{"line": i, "reason": typed.Details()})
			}
			return nil, err
		}
	}

	agentID := strings.TrimSpace(op.AgentID)
	if agentID == "" {
		agentID = strings.TrimSpace(header.Customer.AgentID)
	}
	customerID := header.Customer.ID
	doc := &Document{
		ID:           uuid.New(),
		Number:       NumberFor(now),
		CustomerID:   &customerID,
		CustomerName: header.Customer.Name,
		AgentID:      agentID,
		Reference:    strings.TrimSpace(header.Reference),
		DeliveryDate: header.DeliveryDate,
		Notes:        strings.TrimSpace(header.Notes),
		CreatedBy:    op.UserID,
		CreatedAt:    now.UTC(),
	}
	doc.SetLines(lines)
	return doc, nil
}

// SetLines replaces the lines and recomputes both totals.
func (d *Document) SetLines(lines []Line) {
	d.Lines = append([]Line{}, lines...)
	d.GrossTotal, d.NetTotal = Totals(d.Lines)
}

// Incomplete reports a header persisted without any line.
func (d *Document) Incomplete() bool {
	return len(d.Lines) == 0
}

// Records converts the document into its persisted header and line rows.
func (d *Document) Records() (models.QuoteHeader, []models.QuoteLine) {
	header := models.QuoteHeader{
		ID:           d.ID,
		Number:       d.Number,
		AgentID:      d.AgentID,
		CustomerID:   d.CustomerID,
		CustomerName: d.CustomerName,
		Reference:    d.Reference,
		DeliveryDate: d.DeliveryDate,
		Notes:        d.Notes,
		GrossTotal:   d.GrossTotal,
		NetTotal:     d.NetTotal,
		CreatedBy:    d.CreatedBy,
		CreatedAt:    d.CreatedAt,
	}
	return header, lineRecords(d.ID, d.Lines)
}

func lineRecords(documentID uuid.UUID, lines []Line) []models.QuoteLine {
	rows := make([]models.QuoteLine, 0, len(lines))
	for i, line := range lines {
		rows = append(rows, models.QuoteLine{
			ID:             uuid.New(),
			QuoteID:        documentID,
			Position:       i,
			Code:           line.Code,
			Description:    line.Description,
			Quantity:       line.Quantity,
			GrossUnitPrice: line.GrossUnitPrice,
			Discount1:      line.Discounts[0],
			Discount2:      line.Discounts[1],
			Discount3:      line.Discounts[2],
			FreeOfCharge:   line.FreeOfCharge,
			NetUnitPrice:   line.NetUnitPrice,
			NetOverride:    line.NetOverride,
			Note:           line.Note,
		})
	}
	return rows
}

func documentFromRecords(stored StoredQuote) *Document {
	h := stored.Header
	doc := &Document{
		ID:           h.ID,
		Number:       h.Number,
		CustomerID:   h.CustomerID,
		CustomerName: h.CustomerName,
		AgentID:      h.AgentID,
		Reference:    h.Reference,
		DeliveryDate: h.DeliveryDate,
		Notes:        h.Notes,
		GrossTotal:   h.GrossTotal,
		NetTotal:     h.NetTotal,
		CreatedBy:    h.CreatedBy,
		CreatedAt:    h.CreatedAt,
		Lines:        make([]Line, 0, len(stored.Lines)),
	}
	for _, row := range stored.Lines {
		doc.Lines = append(doc.Lines, Line{
			Code:           row.Code,
			Description:    row.Description,
			Quantity:       row.Quantity,
			GrossUnitPrice: row.GrossUnitPrice,
			Discounts:      Discounts{row.Discount1, row.Discount2, row.Discount3},
			FreeOfCharge:   row.FreeOfCharge,
			NetUnitPrice:   row.NetUnitPrice,
			NetOverride:    row.NetOverride,
			Note:           row.Note,
		})
	}
	return doc
}
