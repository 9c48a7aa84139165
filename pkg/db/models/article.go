package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Article is a catalog entry imported from the price list.
type Article struct {
	Code        string          `gorm:"column:code;type:text;primaryKey"`
	Description string          `gorm:"column:description;type:text;not null"`
	GrossPrice  decimal.Decimal `gorm:"column:gross_price;type:numeric(12,4);not null"`
	Discount1   decimal.Decimal `gorm:"column:discount1;type:numeric(5,2);not null;default:0"`
	Discount2   decimal.Decimal `gorm:"column:discount2;type:numeric(5,2);not null;default:0"`
	Discount3   decimal.Decimal `gorm:"column:discount3;type:numeric(5,2);not null;default:0"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Article) TableName() string { return "articles" }
