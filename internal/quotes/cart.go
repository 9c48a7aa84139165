package quotes

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vivetti/salesdesk-backend/internal/catalog"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
)

// AddInput describes a line being added from a catalog article.
// A nil Discounts falls back to the article defaults. NetUnitPrice, when set, wins over discounts.
type AddInput struct {
	Quantity     int
	Discounts    *Discounts
	NetUnitPrice *decimal.Decimal
	FreeOfCharge bool
	Note         string
}

// LineUpdate carries the fields to change on an existing line. Nil fields are left untouched.
type LineUpdate struct {
	Quantity     *int
	Discounts    *Discounts
	NetUnitPrice *decimal.Decimal
	FreeOfCharge *bool
	Note         *string
}

// Cart is the ordered, mutable line buffer of one authoring session.
// Insertion order is display order; the same article may appear on several lines.
type Cart struct {
	lines []Line
}

// NewCart starts a cart from an existing line set, e.g. a persisted quote being edited.
func NewCart(lines []Line) *Cart {
	return &Cart{lines: append([]Line(nil), lines...)}
}

// Add appends a line built from article and returns it.
func (c *Cart) Add(article catalog.Article, in AddInput) (Line, error) {
	line := Line{
		Code:           strings.TrimSpace(article.Code),
		Description:    strings.TrimSpace(article.Description),
		Quantity:       in.Quantity,
		GrossUnitPrice: article.GrossPrice,
		Discounts:      Discounts(article.Discounts),
		FreeOfCharge:   in.FreeOfCharge,
		Note:           strings.TrimSpace(in.Note),
	}
	switch {
	case in.NetUnitPrice != nil:
		line.Discounts = Discounts{}
		line.NetUnitPrice = *in.NetUnitPrice
		line.NetOverride = true
	case in.Discounts != nil:
		line.Discounts = *in.Discounts
		line.NetUnitPrice = line.Discounts.Apply(line.GrossUnitPrice)
	default:
		line.NetUnitPrice = line.Discounts.Apply(line.GrossUnitPrice)
	}
	if err := line.validate(); err != nil {
		return Line{}, err
	}
	c.lines = append(c.lines, line)
	return line, nil
}

// Update changes the line at index. Setting discounts clears a net override; setting a net price zeroes the discounts.
func (c *Cart) Update(index int, u LineUpdate) (Line, error) {
	if err := c.checkIndex(index); err != nil {
		return Line{}, err
	}
	if u.Discounts != nil && u.NetUnitPrice != nil {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "discounts and net unit price are mutually exclusive")
	}

	line := c.lines[index]
	if u.Quantity != nil {
		line.Quantity = *u.Quantity
	}
	if u.FreeOfCharge != nil {
		line.FreeOfCharge = *u.FreeOfCharge
	}
	if u.Note != nil {
		line.Note = strings.TrimSpace(*u.Note)
	}
	if u.Discounts != nil {
		line.Discounts = *u.Discounts
		line.NetOverride = false
		line.NetUnitPrice = line.Discounts.Apply(line.GrossUnitPrice)
	}
	if u.NetUnitPrice != nil {
		line.Discounts = Discounts{}
		line.NetOverride = true
		line.NetUnitPrice = *u.NetUnitPrice
	}
	if err := line.validate(); err != nil {
		return Line{}, err
	}
	c.lines[index] = line
	return line, nil
}

// Remove deletes the line at index; later lines shift down by one.
func (c *Cart) Remove(index int) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return nil
}

// Line returns the line at index.
func (c *Cart) Line(index int) (Line, error) {
	if err := c.checkIndex(index); err != nil {
		return Line{}, err
	}
	return c.lines[index], nil
}

// Lines returns a copy of the current lines.
func (c *Cart) Lines() []Line {
	return append([]Line{}, c.lines...)
}

// Len reports the number of lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Totals re-sums every line on each call.
func (c *Cart) Totals() (gross, net decimal.Decimal) {
	return Totals(c.lines)
}

func (c *Cart) checkIndex(index int) error {
	if index < 0 || index >= len(c.lines) {
		return pkgerrors.New(pkgerrors.CodeIndexRange, "line index out of range").
			WithDetails(map[string]any{"index": index, "line_count": len(c.lines)})
	}
	return nil
}
