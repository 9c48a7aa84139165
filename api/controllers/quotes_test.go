package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vivetti/salesdesk-backend/internal/quotes"
	"github.com/vivetti/salesdesk-backend/pkg/auth"
	"github.com/vivetti/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
)

type stubQuoteService struct {
	draftID     uuid.UUID
	articleCode string
	addInput    quotes.AddInput
	lineIndex   int
	update      quotes.LineUpdate
	header      *quotes.HeaderRequest
	filter      quotes.ListFilter
	rendered    *quotes.RenderedDocument
	saved       *quotes.Document
	err         error
}

func (s *stubQuoteService) view(id uuid.UUID) *quotes.DraftView {
	return &quotes.DraftView{ID: id, Kind: enums.DraftKindNew, Lines: []quotes.LineView{}}
}

func (s *stubQuoteService) OpenDraft(ctx context.Context, op auth.Operator) (*quotes.DraftView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.view(uuid.New()), nil
}

func (s *stubQuoteService) GetDraft(ctx context.Context, op auth.Operator, draftID uuid.UUID) (*quotes.DraftView, error) {
	s.draftID = draftID
	if s.err != nil {
		return nil, s.err
	}
	return s.view(draftID), nil
}

func (s *stubQuoteService) AddLine(ctx context.Context, op auth.Operator, draftID uuid.UUID, articleCode string, in quotes.AddInput) (*quotes.DraftView, error) {
	s.draftID, s.articleCode, s.addInput = draftID, articleCode, in
	if s.err != nil {
		return nil, s.err
	}
	return s.view(draftID), nil
}

func (s *stubQuoteService) UpdateLine(ctx context.Context, op auth.Operator, draftID uuid.UUID, index int, update quotes.LineUpdate) (*quotes.DraftView, error) {
	s.draftID, s.lineIndex, s.update = draftID, index, update
	if s.err != nil {
		return nil, s.err
	}
	return s.view(draftID), nil
}

func (s *stubQuoteService) RemoveLine(ctx context.Context, op auth.Operator, draftID uuid.UUID, index int) (*quotes.DraftView, error) {
	s.draftID, s.lineIndex = draftID, index
	if s.err != nil {
		return nil, s.err
	}
	return s.view(draftID), nil
}

func (s *stubQuoteService) DiscardDraft(ctx context.Context, op auth.Operator, draftID uuid.UUID) error {
	s.draftID = draftID
	return s.err
}

func (s *stubQuoteService) PreviewDraft(ctx context.Context, op auth.Operator, draftID uuid.UUID, header *quotes.HeaderRequest) (*quotes.RenderedDocument, error) {
	s.draftID, s.header = draftID, header
	if s.err != nil {
		return nil, s.err
	}
	return s.rendered, nil
}

func (s *stubQuoteService) SaveDraft(ctx context.Context, op auth.Operator, draftID uuid.UUID, header *quotes.HeaderRequest) (*quotes.Document, error) {
	s.draftID, s.header = draftID, header
	if s.err != nil {
		return nil, s.err
	}
	return s.saved, nil
}

func (s *stubQuoteService) ListQuotes(ctx context.Context, op auth.Operator, filter quotes.ListFilter) ([]quotes.QuoteSummary, error) {
	s.filter = filter
	return []quotes.QuoteSummary{}, s.err
}

func (s *stubQuoteService) EditQuote(ctx context.Context, op auth.Operator, documentID uuid.UUID) (*quotes.DraftView, error) {
	if s.err != nil {
		return nil, s.err
	}
	view := s.view(uuid.New())
	view.Kind = enums.DraftKindEdit
	view.DocumentID = &documentID
	return view, nil
}

func (s *stubQuoteService) RenderQuote(ctx context.Context, op auth.Operator, documentID uuid.UUID) (*quotes.RenderedDocument, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rendered, nil
}

func TestQuoteOpenDraftCreates(t *testing.T) {
	op := agentOperator()
	req := newRequest(http.MethodPost, "/api/v1/quotes/drafts", nil, &op, nil)
	rec := httptest.NewRecorder()

	QuoteOpenDraft(&stubQuoteService{}, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
}

func TestQuoteAddLineDecodesBody(t *testing.T) {
	svc := &stubQuoteService{}
	op := agentOperator()
	draftID := uuid.New()
	body := `{"article_code":" TR-01 ","quantity":3,"discounts":["10","5","0"],"note":" urgente "}`
	req := newRequest(http.MethodPost, "/api/v1/quotes/drafts/"+draftID.String()+"/lines", strings.NewReader(body), &op,
		map[string]string{"draftId": draftID.String()})
	rec := httptest.NewRecorder()

	QuoteAddLine(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.draftID != draftID || svc.articleCode != "TR-01" {
		t.Fatalf("unexpected draft %s article %q", svc.draftID, svc.articleCode)
	}
	if svc.addInput.Quantity != 3 || svc.addInput.Note != "urgente" {
		t.Fatalf("unexpected input %+v", svc.addInput)
	}
	if svc.addInput.Discounts == nil || !svc.addInput.Discounts[0].Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected discounts decoded, got %+v", svc.addInput.Discounts)
	}
	if svc.addInput.NetUnitPrice != nil {
		t.Fatal("expected no net override")
	}
}

func TestQuoteAddLineRequiresArticle(t *testing.T) {
	op := agentOperator()
	draftID := uuid.New()
	req := newRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":1}`), &op, map[string]string{"draftId": draftID.String()})
	rec := httptest.NewRecorder()

	QuoteAddLine(&stubQuoteService{}, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestQuoteGetDraftRejectsBadID(t *testing.T) {
	op := agentOperator()
	req := newRequest(http.MethodGet, "/", nil, &op, map[string]string{"draftId": "nope"})
	rec := httptest.NewRecorder()

	QuoteGetDraft(&stubQuoteService{}, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestQuoteUpdateLineParsesIndex(t *testing.T) {
	svc := &stubQuoteService{}
	op := agentOperator()
	draftID := uuid.New()
	req := newRequest(http.MethodPatch, "/", strings.NewReader(`{"quantity":4,"net_unit_price":"9.50"}`), &op,
		map[string]string{"draftId": draftID.String(), "index": "2"})
	rec := httptest.NewRecorder()

	QuoteUpdateLine(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lineIndex != 2 || svc.update.Quantity == nil || *svc.update.Quantity != 4 {
		t.Fatalf("unexpected update index=%d %+v", svc.lineIndex, svc.update)
	}
	if svc.update.NetUnitPrice == nil || !svc.update.NetUnitPrice.Equal(decimal.RequireFromString("9.5")) {
		t.Fatalf("expected net price 9.5, got %v", svc.update.NetUnitPrice)
	}
}

func TestQuoteRemoveLineIndexOutOfRange(t *testing.T) {
	svc := &stubQuoteService{err: pkgerrors.New(pkgerrors.CodeIndexRange, "line index out of range")}
	op := agentOperator()
	req := newRequest(http.MethodDelete, "/", nil, &op, map[string]string{"draftId": uuid.NewString(), "index": "9"})
	rec := httptest.NewRecorder()

	QuoteRemoveLine(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != string(pkgerrors.CodeIndexRange) {
		t.Fatalf("expected %s got %s", pkgerrors.CodeIndexRange, code)
	}
}

func TestQuoteRemoveLineRejectsNonNumericIndex(t *testing.T) {
	op := agentOperator()
	req := newRequest(http.MethodDelete, "/", nil, &op, map[string]string{"draftId": uuid.NewString(), "index": "x"})
	rec := httptest.NewRecorder()

	QuoteRemoveLine(&stubQuoteService{}, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestQuotePreviewStreamsPDF(t *testing.T) {
	svc := &stubQuoteService{rendered: &quotes.RenderedDocument{
		FileName:    "PREV-260102-0930.pdf",
		ContentType: quotes.PDFContentType,
		Content:     []byte("%PDF-1.3"),
	}}
	op := agentOperator()
	body := `{"customer_id":7,"delivery_date":"2026-02-01","reference":"ordine 12"}`
	req := newRequest(http.MethodPost, "/", strings.NewReader(body), &op, map[string]string{"draftId": uuid.NewString()})
	rec := httptest.NewRecorder()

	QuotePreviewDraft(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != quotes.PDFContentType {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "PREV-260102-0930.pdf") {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
	if rec.Body.String() != "%PDF-1.3" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if svc.header == nil || svc.header.CustomerID != 7 || svc.header.DeliveryDate == nil {
		t.Fatalf("unexpected header %+v", svc.header)
	}
	if svc.header.DeliveryDate.Format("2006-01-02") != "2026-02-01" {
		t.Fatalf("unexpected delivery date %v", svc.header.DeliveryDate)
	}
}

func TestQuoteSaveDraftRejectsBadDeliveryDate(t *testing.T) {
	svc := &stubQuoteService{}
	op := agentOperator()
	req := newRequest(http.MethodPost, "/", strings.NewReader(`{"customer_id":7,"delivery_date":"01/02/2026"}`), &op,
		map[string]string{"draftId": uuid.NewString()})
	rec := httptest.NewRecorder()

	QuoteSaveDraft(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.draftID != uuid.Nil {
		t.Fatal("service should not be called")
	}
}

func TestQuoteSaveDraftWithoutBody(t *testing.T) {
	docID := uuid.New()
	svc := &stubQuoteService{saved: &quotes.Document{ID: docID, Number: "PREV-260102-0930"}}
	op := agentOperator()
	req := newRequest(http.MethodPost, "/", nil, &op, map[string]string{"draftId": uuid.NewString()})
	rec := httptest.NewRecorder()

	QuoteSaveDraft(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.header != nil {
		t.Fatalf("expected nil header for empty body, got %+v", svc.header)
	}
	var got quotes.Document
	decodeData(t, rec, &got)
	if got.ID != docID {
		t.Fatalf("expected document %s got %s", docID, got.ID)
	}
}

func TestQuoteSaveDraftPersistenceFailure(t *testing.T) {
	svc := &stubQuoteService{err: pkgerrors.New(pkgerrors.CodePersistence, "create quote").
		WithDetails(map[string]any{"document_id": uuid.NewString(), "state": "header_only"})}
	op := agentOperator()
	req := newRequest(http.MethodPost, "/", strings.NewReader(`{"customer_id":7}`), &op, map[string]string{"draftId": uuid.NewString()})
	rec := httptest.NewRecorder()

	QuoteSaveDraft(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if code := decodeErrorCode(t, rec); code != string(pkgerrors.CodePersistence) {
		t.Fatalf("expected %s got %s", pkgerrors.CodePersistence, code)
	}
}

func TestQuoteListPassesFilter(t *testing.T) {
	svc := &stubQuoteService{}
	op := adminOperator()
	req := newRequest(http.MethodGet, "/api/v1/quotes?customer=edil&agent_id=AG02", nil, &op, nil)
	rec := httptest.NewRecorder()

	QuoteList(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.filter.Customer != "edil" || svc.filter.AgentID != "AG02" {
		t.Fatalf("unexpected filter %+v", svc.filter)
	}
}

func TestQuoteDownloadNotFound(t *testing.T) {
	svc := &stubQuoteService{err: pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")}
	op := agentOperator()
	req := newRequest(http.MethodGet, "/", nil, &op, map[string]string{"documentId": uuid.NewString()})
	rec := httptest.NewRecorder()

	QuoteDownload(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestQuoteEditOpensEditDraft(t *testing.T) {
	op := agentOperator()
	docID := uuid.New()
	req := newRequest(http.MethodPost, "/", nil, &op, map[string]string{"documentId": docID.String()})
	rec := httptest.NewRecorder()

	QuoteEdit(&stubQuoteService{}, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	var got quotes.DraftView
	decodeData(t, rec, &got)
	if got.Kind != enums.DraftKindEdit || got.DocumentID == nil || *got.DocumentID != docID {
		t.Fatalf("unexpected draft %+v", got)
	}
}
