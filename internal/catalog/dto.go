package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vivetti/salesdesk-backend/pkg/db/models"
)

// Article is a catalog entry as seen by quote authoring.
type Article struct {
	Code        string             `json:"code"`
	Description string             `json:"description"`
	GrossPrice  decimal.Decimal    `json:"gross_price"`
	Discounts   [3]decimal.Decimal `json:"discounts"`
}

// Customer is a directory entry a quote can be addressed to.
type Customer struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	AgentID string `json:"agent_id"`
}

// Label renders the customer the way pickers show it.
func (c Customer) Label() string {
	if c.City == "" {
		return c.Name
	}
	return c.Name + " (" + c.City + ")"
}

// Imported price lists carry stray whitespace around codes and descriptions.
func articleFromModel(m models.Article) Article {
	return Article{
		Code:        strings.TrimSpace(m.Code),
		Description: strings.TrimSpace(m.Description),
		GrossPrice:  m.GrossPrice,
		Discounts:   [3]decimal.Decimal{m.Discount1, m.Discount2, m.Discount3},
	}
}

func customerFromModel(m models.Customer) Customer {
	return Customer{
		ID:      m.ID,
		Name:    strings.TrimSpace(m.Name),
		City:    strings.TrimSpace(m.City),
		AgentID: strings.TrimSpace(m.AgentID),
	}
}
