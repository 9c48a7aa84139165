package quotes

import (
	"strings"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
)

const (
	// FreeOfChargeLabel marks free-of-charge lines wherever a discount summary is shown.
	FreeOfChargeLabel = "OMAGGIO"
	noDiscountLabel   = "-"
)

// discountScale is the number of decimals a persisted discount column holds.
const discountScale = 2

var hundred = decimal.NewFromInt(100)

// Discounts holds the three sequential percentage discounts of a line.
type Discounts [3]decimal.Decimal

// Validate rejects percentages outside [0,100] or with more than two decimals.
func (d Discounts) Validate() error {
	for i, pct := range d {
		details := map[string]any{"discount": i + 1, "value": pct.String()}
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount must be between 0 and 100").WithDetails(details)
		}
		if !pct.Equal(pct.Truncate(discountScale)) {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount allows at most two decimals").WithDetails(details)
		}
	}
	return nil
}

// IsZero reports whether no discount applies.
func (d Discounts) IsZero() bool {
	return d[0].IsZero() && d[1].IsZero() && d[2].IsZero()
}

// Apply reduces gross by each discount in turn. The result is exact; rounding is left to rendering.
func (d Discounts) Apply(gross decimal.Decimal) decimal.Decimal {
	factor := hundred.Sub(d[0]).Mul(hundred.Sub(d[1])).Mul(hundred.Sub(d[2]))
	return gross.Mul(factor).Shift(-6)
}

// Summary joins the non-zero discounts with "+", e.g. "10+5".
func (d Discounts) Summary() string {
	parts := make([]string, 0, len(d))
	for _, pct := range d {
		if pct.IsZero() {
			continue
		}
		parts = append(parts, pct.String())
	}
	if len(parts) == 0 {
		return noDiscountLabel
	}
	return strings.Join(parts, "+")
}

// Line is a quote line. Code, description and gross price are snapshots taken when the line was added.
type Line struct {
	Code           string          `json:"code"`
	Description    string          `json:"description"`
	Quantity       int             `json:"quantity"`
	GrossUnitPrice decimal.Decimal `json:"gross_unit_price"`
	Discounts      Discounts       `json:"discounts"`
	FreeOfCharge   bool            `json:"free_of_charge"`
	NetUnitPrice   decimal.Decimal `json:"net_unit_price"`
	NetOverride    bool            `json:"net_override"`
	Note           string          `json:"note,omitempty"`
}

// EffectiveNetUnit is the unit price that counts towards totals.
func (l Line) EffectiveNetUnit() decimal.Decimal {
	if l.FreeOfCharge {
		return decimal.Zero
	}
	return l.NetUnitPrice
}

// GrossTotal ignores discounts and the free-of-charge flag.
func (l Line) GrossTotal() decimal.Decimal {
	return l.GrossUnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// NetTotal is zero for free-of-charge lines.
func (l Line) NetTotal() decimal.Decimal {
	return l.EffectiveNetUnit().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// DiscountLabel is the text printed in the discount column.
func (l Line) DiscountLabel() string {
	if l.FreeOfCharge {
		return FreeOfChargeLabel
	}
	return l.Discounts.Summary()
}

func (l Line) validate() error {
	if l.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": l.Quantity})
	}
	if l.GrossUnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "gross unit price must be non-negative")
	}
	if l.NetUnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "net unit price must be non-negative")
	}
	return l.Discounts.Validate()
}

// Totals sums gross and net over lines. An empty slice totals (0, 0).
func Totals(lines []Line) (gross, net decimal.Decimal) {
	gross, net = decimal.Zero, decimal.Zero
	for _, line := range lines {
		gross = gross.Add(line.GrossTotal())
		net = net.Add(line.NetTotal())
	}
	return gross, net
}
