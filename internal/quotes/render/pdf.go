package render

import (
	"bytes"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/vivetti/salesdesk-backend/internal/quotes"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
)

const (
	fontFamily      = "Arial"
	pageMargin      = 10.0
	bottomMargin    = 15.0
	lineHeight      = 5.0
	minRowHeight    = 8.0
	noteRowHeight   = 5.0
	headerRowHeight = 8.0
	dateLayout      = "02/01/2006"
	deliveryPending = "Da definire"
)

type column struct {
	title string
	width float64
	align string
}

var columns = []column{
	{"CODICE", 25, "C"},
	{"DESCRIZIONE", 65, "L"},
	{"Q.TA", 10, "C"},
	{"LISTINO U.", 20, "R"},
	{"SCONTI", 18, "C"},
	{"NETTO U.", 22, "R"},
	{"TOTALE", 30, "R"},
}

const descriptionColumn = 1

// PDF renders quote documents on A4 pages with a fixed layout.
type PDF struct {
	logoPath string
}

// NewPDF builds a renderer. An empty logoPath prints no logo; a configured but missing one fails rendering.
func NewPDF(logoPath string) *PDF {
	return &PDF{logoPath: strings.TrimSpace(logoPath)}
}

// Render produces the PDF bytes of doc.
func (r *PDF) Render(doc *quotes.Document) ([]byte, error) {
	pdf, err := r.build(doc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRender, err, "write pdf")
	}
	return buf.Bytes(), nil
}

type layout struct {
	pdf   *gofpdf.Fpdf
	tr    func(string) string
	limit float64
}

func (r *PDF) build(doc *quotes.Document) (*gofpdf.Fpdf, error) {
	if doc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeRender, "no document to render")
	}
	if r.logoPath != "" {
		if _, err := os.Stat(r.logoPath); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeRender, err, "logo unavailable").
				WithDetails(map[string]any{"asset": r.logoPath})
		}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	_, pageHeight := pdf.GetPageSize()
	l := &layout{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		limit: pageHeight - bottomMargin,
	}

	pdf.AddPage()
	if r.logoPath != "" {
		pdf.ImageOptions(r.logoPath, 10, 8, 45, 0, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
	}
	l.title(doc)
	l.tableHeader()
	for _, line := range doc.Lines {
		l.row(line)
	}
	l.totals(doc)
	l.notes(doc.Notes)

	if pdf.Err() {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRender, pdf.Error(), "compose pdf")
	}
	return pdf, nil
}

func (l *layout) title(doc *quotes.Document) {
	pdf := l.pdf
	pdf.SetFont(fontFamily, "B", 15)
	pdf.SetY(12)
	pdf.CellFormat(0, 10, l.tr("OFFERTA / ORDINE: "+doc.Number), "", 1, "R", false, 0, "")
	pdf.Ln(18)

	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, 6, l.tr("SPETT.LE CLIENTE: "+doc.CustomerName), "", 1, "L", false, 0, "")
	pdf.CellFormat(100, 6, l.tr("RIFERIMENTO: "+orDash(doc.Reference)), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, "DATA: "+formatDate(doc.CreatedAt), "", 1, "R", false, 0, "")
	delivery := deliveryPending
	if doc.DeliveryDate != nil {
		delivery = formatDate(*doc.DeliveryDate)
	}
	pdf.CellFormat(0, 6, "CONSEGNA PREVISTA: "+delivery, "", 1, "L", false, 0, "")
	pdf.Ln(8)
}

func (l *layout) tableHeader() {
	pdf := l.pdf
	pdf.SetFont(fontFamily, "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for i, col := range columns {
		ln := 0
		if i == len(columns)-1 {
			ln = 1
		}
		pdf.CellFormat(col.width, headerRowHeight, col.title, "1", ln, col.align, true, 0, "")
	}
	pdf.SetFont(fontFamily, "", 8)
}

// rowHeight is the height of the line row, grown to fit the wrapped description.
func (l *layout) rowHeight(description string) float64 {
	wrapped := l.pdf.SplitLines([]byte(l.tr(description)), columns[descriptionColumn].width)
	h := float64(len(wrapped)) * lineHeight
	if h < minRowHeight {
		return minRowHeight
	}
	return h
}

// row prints one line and its note. The pair moves to a new page as a unit.
func (l *layout) row(line quotes.Line) {
	pdf := l.pdf
	pdf.SetFont(fontFamily, "", 8)
	h := l.rowHeight(line.Description)
	group := h
	if line.Note != "" {
		group += noteRowHeight
	}
	if pdf.GetY()+group > l.limit {
		pdf.AddPage()
		l.tableHeader()
	}

	x, y := pdf.GetX(), pdf.GetY()
	cells := []string{
		line.Code,
		"",
		strconv.Itoa(line.Quantity),
		FormatMoney(line.GrossUnitPrice),
		line.DiscountLabel(),
		FormatMoney(line.EffectiveNetUnit()),
		FormatMoney(line.NetTotal()),
	}
	offset := x
	for i, col := range columns {
		pdf.SetXY(offset, y)
		if i == descriptionColumn {
			pdf.Rect(offset, y, col.width, h, "D")
			pdf.MultiCell(col.width, lineHeight, l.tr(line.Description), "", col.align, false)
		} else {
			pdf.CellFormat(col.width, h, l.tr(cells[i]), "1", 0, col.align, false, 0, "")
		}
		offset += col.width
	}
	pdf.SetXY(x, y+h)

	if line.Note != "" {
		pdf.SetFont(fontFamily, "I", 7)
		pdf.CellFormat(tableWidth(), noteRowHeight, l.tr("   Nota: "+line.Note), "LRB", 1, "L", false, 0, "")
		pdf.SetFont(fontFamily, "", 8)
	}
}

func (l *layout) totals(doc *quotes.Document) {
	pdf := l.pdf
	gross, net := quotes.Totals(doc.Lines)
	if pdf.GetY()+5+8+10 > l.limit {
		pdf.AddPage()
	}
	pdf.Ln(5)
	pdf.SetFont(fontFamily, "B", 10)
	pdf.CellFormat(160, 8, "TOTALE LORDO LISTINO", "", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "EUR "+FormatMoney(gross), "", 1, "R", false, 0, "")
	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(160, 10, "TOTALE NETTO (IVA ESCLUSA)", "", 0, "R", false, 0, "")
	pdf.CellFormat(30, 10, "EUR "+FormatMoney(net), "", 1, "R", false, 0, "")
}

func (l *layout) notes(notes string) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return
	}
	l.pdf.Ln(4)
	l.pdf.SetFont(fontFamily, "I", 9)
	l.pdf.MultiCell(0, lineHeight, l.tr("NOTE: "+notes), "", "L", false)
}

func tableWidth() float64 {
	var w float64
	for _, col := range columns {
		w += col.width
	}
	return w
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}
