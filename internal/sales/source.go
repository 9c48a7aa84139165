package sales

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vivetti/salesdesk-backend/internal/repo"
	"github.com/vivetti/salesdesk-backend/pkg/db/models"
	"github.com/vivetti/salesdesk-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Record is one invoiced line of the sales history.
type Record struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	AgentID     string          `json:"agent_id"`
	AgentName   string          `json:"agent_name"`
	Customer    string          `json:"customer"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	Category    string          `json:"category"`
	ArticleCode string          `json:"article_code"`
}

// Query narrows what a source reads. Empty fields do not filter.
type Query struct {
	AgentID  string
	Customer string
}

// Source reads sales history rows.
type Source interface {
	Records(ctx context.Context, q Query) ([]Record, error)
}

// GormSource reads the sales_history table page by page.
type GormSource struct {
	repo.Base
	window pagination.Window
}

// NewGormSource builds a relational sales source walking pages of window.PageSize rows.
func NewGormSource(db *gorm.DB, window pagination.Window) *GormSource {
	return &GormSource{Base: repo.NewBase(db), window: window.Normalize()}
}

func (s *GormSource) Records(ctx context.Context, q Query) ([]Record, error) {
	var out []Record
	_, err := pagination.Walk(ctx, s.window, func(ctx context.Context, offset, limit int) (int, error) {
		var page []models.SalesRecord
		stmt := s.DB(ctx).Model(&models.SalesRecord{})
		if agentID := strings.TrimSpace(q.AgentID); agentID != "" {
			stmt = stmt.Where("agent_id = ?", agentID)
		}
		if customer := strings.TrimSpace(q.Customer); customer != "" {
			stmt = stmt.Where("customer = ?", customer)
		}
		if err := repo.Paged(stmt.Order("id ASC"), offset, limit).Find(&page).Error; err != nil {
			return 0, err
		}
		for _, row := range page {
			out = append(out, recordFromModel(row))
		}
		return len(page), nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Record{}
	}
	return out, nil
}

func recordFromModel(m models.SalesRecord) Record {
	return Record{
		Year:        m.Year,
		Month:       m.Month,
		AgentID:     strings.TrimSpace(m.AgentID),
		AgentName:   strings.TrimSpace(m.AgentName),
		Customer:    strings.TrimSpace(m.Customer),
		NetAmount:   m.NetAmount,
		Category:    strings.TrimSpace(m.Category),
		ArticleCode: strings.TrimSpace(m.ArticleCode),
	}
}
