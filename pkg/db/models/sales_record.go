package models

import "github.com/shopspring/decimal"

// SalesRecord is one invoiced line of the sales history.
type SalesRecord struct {
	ID          int64           `gorm:"column:id;primaryKey"`
	Year        int             `gorm:"column:year;not null;index:idx_sales_history_period"`
	Month       int             `gorm:"column:month;not null;index:idx_sales_history_period"`
	AgentID     string          `gorm:"column:agent_id;type:text;not null;index"`
	AgentName   string          `gorm:"column:agent_name;type:text;not null"`
	Customer    string          `gorm:"column:customer;type:text;not null"`
	NetAmount   decimal.Decimal `gorm:"column:net_amount;type:numeric(14,4);not null;default:0"`
	Category    string          `gorm:"column:category;type:text"`
	ArticleCode string          `gorm:"column:article_code;type:text"`
}

func (SalesRecord) TableName() string { return "sales_history" }
