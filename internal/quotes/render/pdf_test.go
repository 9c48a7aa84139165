package render

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/vivetti/salesdesk-backend/internal/quotes"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
)

func sampleDocument(lines int, withNotes bool) *quotes.Document {
	doc := &quotes.Document{
		ID:           uuid.New(),
		Number:       "PREV-260314-0926",
		CustomerName: "Società Edile Rossi",
		Reference:    "Cantiere via Roma",
		Notes:        "Prezzi validi 30 giorni. Trasporto escluso.",
		CreatedAt:    time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC),
	}
	out := make([]quotes.Line, 0, lines)
	for i := 0; i < lines; i++ {
		line := quotes.Line{
			Code:           fmt.Sprintf("ART-%03d", i),
			Description:    "Pannello isolante in lana di roccia ad alta densità per pareti ventilate, spessore 100mm",
			Quantity:       i + 1,
			GrossUnitPrice: decimal.NewFromInt(100),
			Discounts:      quotes.Discounts{decimal.NewFromInt(10)},
			NetUnitPrice:   decimal.NewFromInt(90),
			FreeOfCharge:   i%5 == 4,
		}
		if withNotes {
			line.Note = "Consegna su bancale"
		}
		out = append(out, line)
	}
	doc.SetLines(out)
	return doc
}

func TestRenderProducesPDF(t *testing.T) {
	out, err := NewPDF("").Render(sampleDocument(2, true))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("expected pdf header, got %q", out[:8])
	}
}

func TestRenderEmptyDocumentStillRenders(t *testing.T) {
	doc := sampleDocument(0, false)
	doc.Reference = ""
	if _, err := NewPDF("").Render(doc); err != nil {
		t.Fatalf("render: %v", err)
	}
}

func TestRenderOverflowsOntoNewPages(t *testing.T) {
	pdf, err := NewPDF("").build(sampleDocument(60, true))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if pdf.PageNo() < 2 {
		t.Fatalf("expected multiple pages, got %d", pdf.PageNo())
	}

	single, err := NewPDF("").build(sampleDocument(3, false))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if single.PageNo() != 1 {
		t.Fatalf("expected one page, got %d", single.PageNo())
	}
}

func newPageLayout() *layout {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	_, pageHeight := pdf.GetPageSize()
	pdf.AddPage()
	return &layout{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), limit: pageHeight - bottomMargin}
}

func TestRowKeepsNoteOnSamePage(t *testing.T) {
	line := quotes.Line{
		Code:           "ART-001",
		Description:    "Vite",
		Quantity:       1,
		GrossUnitPrice: decimal.NewFromInt(10),
		NetUnitPrice:   decimal.NewFromInt(10),
		Note:           "Consegna su bancale",
	}
	// The row alone fits above the limit; row plus note does not.
	startY := func(l *layout) float64 { return l.limit - minRowHeight - 2 }

	l := newPageLayout()
	l.pdf.SetY(startY(l))
	l.row(line)
	if got := l.pdf.PageNo(); got != 2 {
		t.Fatalf("expected row and note moved to page 2, got page %d", got)
	}
	want := pageMargin + headerRowHeight + minRowHeight + noteRowHeight
	if got := l.pdf.GetY(); got != want {
		t.Fatalf("expected row and note drawn under the repeated header ending at %v, got %v", want, got)
	}

	plain := line
	plain.Note = ""
	l = newPageLayout()
	l.pdf.SetY(startY(l))
	l.row(plain)
	if got := l.pdf.PageNo(); got != 1 {
		t.Fatalf("expected row without note to stay on page 1, got page %d", got)
	}
	if got, want := l.pdf.GetY(), startY(l)+minRowHeight; got != want {
		t.Fatalf("expected row drawn at the cursor ending at %v, got %v", want, got)
	}
	if l.pdf.Err() {
		t.Fatalf("pdf error: %v", l.pdf.Error())
	}
}

func TestRowHeightGrowsWithDescription(t *testing.T) {
	pdf, err := NewPDF("").build(sampleDocument(1, false))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	l := &layout{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFont(fontFamily, "", 8)

	if got := l.rowHeight("Vite"); got != minRowHeight {
		t.Fatalf("expected minimum row height, got %v", got)
	}
	long := strings.Repeat("descrizione molto lunga ", 12)
	if got := l.rowHeight(long); got <= minRowHeight {
		t.Fatalf("expected taller row for long description, got %v", got)
	}
}

func TestRenderFailsWhenLogoMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "logo.png")
	_, err := NewPDF(missing).Render(sampleDocument(1, false))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeRender {
		t.Fatalf("expected render failure, got %v", err)
	}
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":           "0.00",
		"5":           "5.00",
		"999.999":     "1,000.00",
		"1234.5":      "1,234.50",
		"180":         "180.00",
		"1234567.891": "1,234,567.89",
		"-98765.4":    "-98,765.40",
		"123456":      "123,456.00",
	}
	for in, want := range cases {
		if got := FormatMoney(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatMoney(%s) = %q, want %q", in, got, want)
		}
	}
}
