package quotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vivetti/salesdesk-backend/internal/repo"
	"github.com/vivetti/salesdesk-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Write stages reported when a multi-step repository write stops halfway.
const (
	StageHeaderOnly    = "header_only"
	StageTotalsUpdated = "totals_updated"
	StageLinesDeleted  = "lines_deleted"
)

// PartialWriteError reports a write that left the document in an intermediate state.
// The underlying store gives no atomicity across header and lines.
type PartialWriteError struct {
	DocumentID uuid.UUID
	Stage      string
	Err        error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("quote %s left at stage %s: %v", e.DocumentID, e.Stage, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// StoredQuote is a persisted header with its lines in print order.
type StoredQuote struct {
	Header models.QuoteHeader
	Lines  []models.QuoteLine
}

// Repository persists quote headers and their lines as two linked row sets.
type Repository struct {
	repo.Base
}

// NewRepository constructs a quote repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts the header and then the lines. When the line insert fails the
// header stays behind and a PartialWriteError carrying the document id is returned.
func (r *Repository) Create(ctx context.Context, header *models.QuoteHeader, lines []models.QuoteLine) (uuid.UUID, error) {
	if header.ID == uuid.Nil {
		header.ID = uuid.New()
	}
	if err := r.DB(ctx).Create(header).Error; err != nil {
		return uuid.Nil, err
	}
	if len(lines) == 0 {
		return header.ID, nil
	}
	for i := range lines {
		lines[i].QuoteID = header.ID
	}
	if err := r.DB(ctx).Create(&lines).Error; err != nil {
		return header.ID, &PartialWriteError{DocumentID: header.ID, Stage: StageHeaderOnly, Err: err}
	}
	return header.ID, nil
}

// ReadByAgent lists quotes newest first. A nil agentID reads every agent.
// customerFilter is a case-insensitive substring matched against the customer name.
func (r *Repository) ReadByAgent(ctx context.Context, agentID *string, customerFilter string) ([]StoredQuote, error) {
	q := r.DB(ctx).Model(&models.QuoteHeader{})
	if agentID != nil {
		q = q.Where("agent_id = ?", *agentID)
	}
	var headers []models.QuoteHeader
	if err := q.Order("created_at DESC").Find(&headers).Error; err != nil {
		return nil, err
	}

	filter := strings.ToLower(strings.TrimSpace(customerFilter))
	if filter != "" {
		kept := headers[:0]
		for _, h := range headers {
			if strings.Contains(strings.ToLower(h.CustomerName), filter) {
				kept = append(kept, h)
			}
		}
		headers = kept
	}
	if len(headers) == 0 {
		return []StoredQuote{}, nil
	}

	ids := make([]uuid.UUID, 0, len(headers))
	for _, h := range headers {
		ids = append(ids, h.ID)
	}
	var lines []models.QuoteLine
	if err := r.DB(ctx).Where("quote_id IN ?", ids).Order("position ASC").Find(&lines).Error; err != nil {
		return nil, err
	}
	byQuote := make(map[uuid.UUID][]models.QuoteLine, len(headers))
	for _, line := range lines {
		byQuote[line.QuoteID] = append(byQuote[line.QuoteID], line)
	}

	out := make([]StoredQuote, 0, len(headers))
	for _, h := range headers {
		out = append(out, StoredQuote{Header: h, Lines: byQuote[h.ID]})
	}
	return out, nil
}

// FindByID loads one quote with its lines.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*StoredQuote, error) {
	var header models.QuoteHeader
	if err := r.DB(ctx).Where("id = ?", id).First(&header).Error; err != nil {
		return nil, err
	}
	var lines []models.QuoteLine
	if err := r.DB(ctx).Where("quote_id = ?", id).Order("position ASC").Find(&lines).Error; err != nil {
		return nil, err
	}
	return &StoredQuote{Header: header, Lines: lines}, nil
}

// ReplaceLines overwrites the header totals, deletes every line and inserts the new set.
// The steps are not atomic: a reader between delete and insert sees a quote with no lines.
func (r *Repository) ReplaceLines(ctx context.Context, id uuid.UUID, gross, net decimal.Decimal, lines []models.QuoteLine) error {
	res := r.DB(ctx).Model(&models.QuoteHeader{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"gross_total": gross,
			"net_total":   net,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	if err := r.DB(ctx).Where("quote_id = ?", id).Delete(&models.QuoteLine{}).Error; err != nil {
		return &PartialWriteError{DocumentID: id, Stage: StageTotalsUpdated, Err: err}
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].QuoteID = id
	}
	if err := r.DB(ctx).Create(&lines).Error; err != nil {
		return &PartialWriteError{DocumentID: id, Stage: StageLinesDeleted, Err: err}
	}
	return nil
}
