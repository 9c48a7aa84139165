package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteHeader is the persisted header of a quote document.
// NetTotal and GrossTotal are derived from the lines and overwritten whenever they change.
type QuoteHeader struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Number       string          `gorm:"column:number;type:text;not null;index"`
	AgentID      string          `gorm:"column:agent_id;type:text;not null;index"`
	CustomerID   *int64          `gorm:"column:customer_id"`
	CustomerName string          `gorm:"column:customer_name;type:text"`
	Reference    string          `gorm:"column:reference;type:text"`
	DeliveryDate *time.Time      `gorm:"column:delivery_date;type:date"`
	Notes        string          `gorm:"column:notes;type:text"`
	GrossTotal   decimal.Decimal `gorm:"column:gross_total;type:numeric;not null;default:0"`
	NetTotal     decimal.Decimal `gorm:"column:net_total;type:numeric;not null;default:0"`
	CreatedBy    uuid.UUID       `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (QuoteHeader) TableName() string { return "quote_headers" }

// QuoteLine is a persisted line snapshot belonging to a QuoteHeader.
// Net prices and totals are unscaled so they round-trip exactly; rounding happens only when rendering.
type QuoteLine struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	QuoteID        uuid.UUID       `gorm:"column:quote_id;type:uuid;not null;index"`
	Position       int             `gorm:"column:position;not null"`
	Code           string          `gorm:"column:code;type:text;not null"`
	Description    string          `gorm:"column:description;type:text;not null"`
	Quantity       int             `gorm:"column:quantity;not null"`
	GrossUnitPrice decimal.Decimal `gorm:"column:gross_unit_price;type:numeric(12,4);not null"`
	Discount1      decimal.Decimal `gorm:"column:discount1;type:numeric(5,2);not null;default:0"`
	Discount2      decimal.Decimal `gorm:"column:discount2;type:numeric(5,2);not null;default:0"`
	Discount3      decimal.Decimal `gorm:"column:discount3;type:numeric(5,2);not null;default:0"`
	FreeOfCharge   bool            `gorm:"column:free_of_charge;not null;default:false"`
	NetUnitPrice   decimal.Decimal `gorm:"column:net_unit_price;type:numeric;not null"`
	NetOverride    bool            `gorm:"column:net_override;not null;default:false"`
	Note           string          `gorm:"column:note;type:text"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (QuoteLine) TableName() string { return "quote_lines" }
