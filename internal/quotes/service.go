package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vivetti/salesdesk-backend/internal/catalog"
	"github.com/vivetti/salesdesk-backend/internal/repo"
	"github.com/vivetti/salesdesk-backend/pkg/auth"
	"github.com/vivetti/salesdesk-backend/pkg/db/models"
	"github.com/vivetti/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
	"github.com/vivetti/salesdesk-backend/pkg/logger"
	"github.com/vivetti/salesdesk-backend/pkg/metrics"
	"go.uber.org/multierr"
)

// PDFContentType is the MIME type of rendered documents.
const PDFContentType = "application/pdf"

const (
	renderSourcePreview = "preview"
	renderSourceArchive = "archive"
	previewArticleCount = 2
	previewArticleChars = 20
)

// Renderer turns an assembled document into printable bytes.
type Renderer interface {
	Render(doc *Document) ([]byte, error)
}

type articleLookup interface {
	GetArticle(ctx context.Context, code string) (*catalog.Article, error)
}

type customerLookup interface {
	GetCustomer(ctx context.Context, op auth.Operator, id int64) (*catalog.Customer, error)
}

type quoteRepository interface {
	Create(ctx context.Context, header *models.QuoteHeader, lines []models.QuoteLine) (uuid.UUID, error)
	ReadByAgent(ctx context.Context, agentID *string, customerFilter string) ([]StoredQuote, error)
	FindByID(ctx context.Context, id uuid.UUID) (*StoredQuote, error)
	ReplaceLines(ctx context.Context, id uuid.UUID, gross, net decimal.Decimal, lines []models.QuoteLine) error
}

type draftRepository interface {
	Save(ctx context.Context, draft *Draft) error
	Load(ctx context.Context, id uuid.UUID) (*Draft, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// HeaderRequest is the header metadata supplied by the operator on preview or save.
type HeaderRequest struct {
	CustomerID   int64
	Reference    string
	DeliveryDate *time.Time
	Notes        string
}

// ListFilter narrows the quote archive. AgentID is honoured for admins only.
type ListFilter struct {
	Customer string
	AgentID  string
}

// LineView is a draft line with its derived figures.
type LineView struct {
	Index int `json:"index"`
	Line
	DiscountSummary string          `json:"discount_summary"`
	LineGrossTotal  decimal.Decimal `json:"line_gross_total"`
	LineNetTotal    decimal.Decimal `json:"line_net_total"`
}

// DraftView is the state of a draft returned after every cart operation.
type DraftView struct {
	ID             uuid.UUID        `json:"id"`
	Kind           enums.DraftKind  `json:"kind"`
	DocumentID     *uuid.UUID       `json:"document_id,omitempty"`
	Lines          []LineView       `json:"lines"`
	GrossTotal     decimal.Decimal  `json:"gross_total"`
	NetTotal       decimal.Decimal  `json:"net_total"`
	Savings        decimal.Decimal  `json:"savings"`
	SavingsPercent *decimal.Decimal `json:"savings_percent,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// QuoteSummary is one archive entry.
type QuoteSummary struct {
	*Document
	Incomplete      bool   `json:"incomplete"`
	ArticlesPreview string `json:"articles_preview"`
}

// RenderedDocument is a printable document ready to be streamed.
type RenderedDocument struct {
	FileName    string
	ContentType string
	Content     []byte
}

// Service drives the quote authoring flow and the quote archive.
type Service interface {
	OpenDraft(ctx context.Context, op auth.Operator) (*DraftView, error)
	GetDraft(ctx context.Context, op auth.Operator, draftID uuid.UUID) (*DraftView, error)
	AddLine(ctx context.Context, op auth.Operator, draftID uuid.UUID, articleCode string, in AddInput) (*DraftView, error)
	UpdateLine(ctx context.Context, op auth.Operator, draftID uuid.UUID, index int, update LineUpdate) (*DraftView, error)
	RemoveLine(ctx context.Context, op auth.Operator, draftID uuid.UUID, index int) (*DraftView, error)
	DiscardDraft(ctx context.Context, op auth.Operator, draftID uuid.UUID) error
	PreviewDraft(ctx context.Context, op auth.Operator, draftID uuid.UUID, header *HeaderRequest) (*RenderedDocument, error)
	SaveDraft(ctx context.Context, op auth.Operator, draftID uuid.UUID, header *HeaderRequest) (*Document, error)
	ListQuotes(ctx context.Context, op auth.Operator, filter ListFilter) ([]QuoteSummary, error)
	EditQuote(ctx context.Context, op auth.Operator, documentID uuid.UUID) (*DraftView, error)
	RenderQuote(ctx context.Context, op auth.Operator, documentID uuid.UUID) (*RenderedDocument, error)
}

// ServiceParams wires the quote service.
type ServiceParams struct {
	Articles  articleLookup
	Customers customerLookup
	Repo      quoteRepository
	Drafts    draftRepository
	Renderer  Renderer
	Metrics   *metrics.QuoteMetrics
	Logger    *logger.Logger
	Clock     func() time.Time
}

type service struct {
	articles  articleLookup
	customers customerLookup
	repo      quoteRepository
	drafts    draftRepository
	renderer  Renderer
	metrics   *metrics.QuoteMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the quote service.
func NewService(params ServiceParams) (Service, error) {
	if params.Articles == nil {
		return nil, fmt.Errorf("article lookup required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer lookup required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("quote repository required")
	}
	if params.Drafts == nil {
		return nil, fmt.Errorf("draft store required")
	}
	if params.Renderer == nil {
		return nil, fmt.Errorf("document renderer required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		articles:  params.Articles,
		customers: params.Customers,
		repo:      params.Repo,
		drafts:    params.Drafts,
		renderer:  params.Renderer,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       clock,
	}, nil
}

func (s *service) OpenDraft(ctx context.Context, op auth.Operator) (*DraftView, error) {
	draft := &Draft{
		ID:        uuid.New(),
		Kind:      enums.DraftKindNew,
		OwnerID:   op.UserID,
		AgentID:   strings.TrimSpace(op.AgentID),
		Lines:     []Line{},
		CreatedAt: s.now().UTC(),
	}
	if err := s.saveDraft(ctx, draft); err != nil {
		return nil, err
	}
	return newDraftView(draft), nil
}

func (s *service) GetDraft(ctx context.Context, op auth.Operator, draftID uuid.UUID) (*DraftView, error) {
	draft, err := s.loadDraft(ctx, op, draftID)
	if err != nil {
		return nil, err
	}
	return newDraftView(draft), nil
}

func (s *service) AddLine(ctx context.Context, op auth.Operator, draftID uuid.UUID, articleCode string, in AddInput) (*DraftView, error) {
	draft, err := s.loadDraft(ctx, op, draftID)
	if err != nil {
		return nil, err
	}
	article, err := s.articles.GetArticle(ctx, articleCode)
	if err != nil {
		return nil, err
	}
	cart := draft.Cart()
	if _, err := cart.Add(*article, in); err != nil {
		return nil, err
	}
	return s.commitCart(ctx, draft, cart)
}

func (s *service) UpdateLine(ctx context.Context, op auth.Operator, draftID uuid.UUID, index int, update LineUpdate) (*DraftView, error) {
	draft, err := s.loadDraft(ctx, op, draftID)
	if err != nil {
		return nil, err
	}
	cart := draft.Cart()
	if _, err := cart.Update(index, update); err != nil {
		return nil, err
	}
	return s.commitCart(ctx, draft, cart)
}

func (s *service) RemoveLine(ctx context.Context, op auth.Operator, draftID uuid.UUID, index int) (*DraftView, error) {
	draft, err := s.loadDraft(ctx, op, draftID)
	if err != nil {
		return nil, err
	}
	cart := draft.Cart()
	if err := cart.Remove(index); err != nil {
		return nil, err
	}
	return s.commitCart(ctx, draft, cart)
}

func (s *service) DiscardDraft(ctx context.Context, op auth.Operator, draftID uuid.UUID) error {
	if _, err := s.loadDraft(ctx, op, draftID); err != nil {
		return err
	}
	if err := s.drafts.Delete(ctx, draftID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "discard draft")
	}
	return nil
}

// PreviewDraft renders the draft without persisting it. Edit drafts reuse the stored header.
func (s *service) PreviewDraft(ctx context.Context, op auth.Operator, draftID uuid.UUID, header *HeaderRequest) (*RenderedDocument, error) {
	draft, err := s.loadDraft(ctx, op, draftID)
	if err != nil {
		return nil, err
	}

	var doc *Document
	if draft.Kind == enums.DraftKindEdit {
		doc, err = s.editedDocument(ctx, op, draft)
		if err != nil {
			return nil, err
		}
	} else {
		doc, err = s.assemble(ctx, op, draft, header)
		if err != nil {
			return nil, err
		}
	}

	content, err := s.render(ctx, renderSourcePreview, doc)
	if err != nil {
		return nil, err
	}
	return &RenderedDocument{FileName: doc.Number + ".pdf", ContentType: PDFContentType, Content: content}, nil
}

// SaveDraft persists the draft and drops it. On failure the draft is kept so the save can be retried.
func (s *service) SaveDraft(ctx context.Context, op auth.Operator, draftID uuid.UUID, header *HeaderRequest) (*Document, error) {
	draft, err := s.loadDraft(ctx, op, draftID)
	if err != nil {
		return nil, err
	}

	var doc *Document
	if draft.Kind == enums.DraftKindEdit {
		doc, err = s.replaceLines(ctx, op, draft)
	} else {
		doc, err = s.create(ctx, op, draft, header)
	}
	if err != nil {
		return nil, err
	}

	if err := s.drafts.Delete(ctx, draft.ID); err != nil {
		s.warn(ctx, draft.ID, "quote saved but draft could not be dropped")
	}
	return doc, nil
}

func (s *service) create(ctx context.Context, op auth.Operator, draft *Draft, header *HeaderRequest) (*Document, error) {
	doc, err := s.assemble(ctx, op, draft, header)
	if err != nil {
		return nil, err
	}
	headerRow, lineRows := doc.Records()
	if _, err := s.repo.Create(ctx, &headerRow, lineRows); err != nil {
		s.metrics.IncPersistFailure(metrics.OpCreate)
		return nil, persistenceError(err, "create quote")
	}
	s.metrics.IncPersisted(metrics.OpCreate)
	return doc, nil
}

func (s *service) replaceLines(ctx context.Context, op auth.Operator, draft *Draft) (*Document, error) {
	doc, err := s.editedDocument(ctx, op, draft)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceLines(ctx, doc.ID, doc.GrossTotal, doc.NetTotal, lineRecords(doc.ID, doc.Lines)); err != nil {
		s.metrics.IncPersistFailure(metrics.OpReplace)
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, persistenceError(err, "replace quote lines")
	}
	s.metrics.IncPersisted(metrics.OpReplace)
	return doc, nil
}

// editedDocument loads the document an edit draft targets, with the draft lines applied.
func (s *service) editedDocument(ctx context.Context, op auth.Operator, draft *Draft) (*Document, error) {
	if draft.DocumentID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "edit draft has no document")
	}
	doc, err := s.loadDocument(ctx, op, *draft.DocumentID)
	if err != nil {
		return nil, err
	}
	if len(draft.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote must contain at least one line")
	}
	var invalid error
	for i, line := range draft.Lines {
		if err := line.validate(); err != nil {
			invalid = multierr.Append(invalid, fmt.Errorf("line %d: %w", i, err))
		}
	}
	if invalid != nil {
		reasons := make([]string, 0)
		for _, err := range multierr.Errors(invalid) {
			reasons = append(reasons, err.Error())
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, invalid, "invalid lines").
			WithDetails(map[string]any{"lines": reasons})
	}
	doc.SetLines(draft.Lines)
	return doc, nil
}

func (s *service) ListQuotes(ctx context.Context, op auth.Operator, filter ListFilter) ([]QuoteSummary, error) {
	scope := op.AgentScope()
	if scope == nil {
		if agentID := strings.TrimSpace(filter.AgentID); agentID != "" {
			scope = &agentID
		}
	}
	stored, err := s.repo.ReadByAgent(ctx, scope, filter.Customer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotes")
	}
	out := make([]QuoteSummary, 0, len(stored))
	for _, q := range stored {
		doc := documentFromRecords(q)
		out = append(out, QuoteSummary{
			Document:        doc,
			Incomplete:      doc.Incomplete(),
			ArticlesPreview: articlesPreview(doc.Lines),
		})
	}
	return out, nil
}

// EditQuote opens an edit draft loaded with the persisted lines.
func (s *service) EditQuote(ctx context.Context, op auth.Operator, documentID uuid.UUID) (*DraftView, error) {
	doc, err := s.loadDocument(ctx, op, documentID)
	if err != nil {
		return nil, err
	}
	id := doc.ID
	draft := &Draft{
		ID:         uuid.New(),
		Kind:       enums.DraftKindEdit,
		DocumentID: &id,
		OwnerID:    op.UserID,
		AgentID:    doc.AgentID,
		Lines:      doc.Lines,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.saveDraft(ctx, draft); err != nil {
		return nil, err
	}
	return newDraftView(draft), nil
}

func (s *service) RenderQuote(ctx context.Context, op auth.Operator, documentID uuid.UUID) (*RenderedDocument, error) {
	doc, err := s.loadDocument(ctx, op, documentID)
	if err != nil {
		return nil, err
	}
	content, err := s.render(ctx, renderSourceArchive, doc)
	if err != nil {
		return nil, err
	}
	return &RenderedDocument{
		FileName:    "Preventivo_" + doc.Number + ".pdf",
		ContentType: PDFContentType,
		Content:     content,
	}, nil
}

func (s *service) assemble(ctx context.Context, op auth.Operator, draft *Draft, header *HeaderRequest) (*Document, error) {
	if header == nil || header.CustomerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer is required")
	}
	if len(draft.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote must contain at least one line")
	}
	customer, err := s.customers.GetCustomer(ctx, op, header.CustomerID)
	if err != nil {
		return nil, err
	}
	return Assemble(HeaderInput{
		Customer:     customer,
		Reference:    header.Reference,
		DeliveryDate: header.DeliveryDate,
		Notes:        header.Notes,
	}, draft.Lines, op, s.now())
}

func (s *service) render(ctx context.Context, source string, doc *Document) ([]byte, error) {
	started := time.Now()
	content, err := s.renderer.Render(doc)
	if err != nil {
		s.metrics.IncRenderFailure(source)
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "quote_number", doc.Number), "quote render failed", err)
		}
		if pkgerrors.Is(err, pkgerrors.CodeRender) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeRender, err, "render quote")
	}
	s.metrics.ObserveRender(source, time.Since(started))
	return content, nil
}

func (s *service) loadDraft(ctx context.Context, op auth.Operator, id uuid.UUID) (*Draft, error) {
	draft, err := s.drafts.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrDraftNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft")
	}
	if draft.OwnerID != op.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
	}
	return draft, nil
}

func (s *service) saveDraft(ctx context.Context, draft *Draft) error {
	if err := s.drafts.Save(ctx, draft); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store draft")
	}
	return nil
}

func (s *service) commitCart(ctx context.Context, draft *Draft, cart *Cart) (*DraftView, error) {
	draft.Lines = cart.Lines()
	if err := s.saveDraft(ctx, draft); err != nil {
		return nil, err
	}
	return newDraftView(draft), nil
}

func (s *service) loadDocument(ctx context.Context, op auth.Operator, id uuid.UUID) (*Document, error) {
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	if !op.CanAccessAgent(stored.Header.AgentID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
	}
	return documentFromRecords(*stored), nil
}

func (s *service) warn(ctx context.Context, draftID uuid.UUID, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithDraftID(ctx, draftID.String()), msg)
}

func persistenceError(err error, message string) error {
	var partial *PartialWriteError
	if errors.As(err, &partial) {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, message).WithDetails(map[string]any{
			"document_id": partial.DocumentID.String(),
			"state":       partial.Stage,
		})
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistence, err, message)
}

func newDraftView(draft *Draft) *DraftView {
	view := &DraftView{
		ID:         draft.ID,
		Kind:       draft.Kind,
		DocumentID: draft.DocumentID,
		Lines:      make([]LineView, 0, len(draft.Lines)),
		CreatedAt:  draft.CreatedAt,
	}
	for i, line := range draft.Lines {
		view.Lines = append(view.Lines, LineView{
			Index:           i,
			Line:            line,
			DiscountSummary: line.DiscountLabel(),
			LineGrossTotal:  line.GrossTotal(),
			LineNetTotal:    line.NetTotal(),
		})
	}
	view.GrossTotal, view.NetTotal = Totals(draft.Lines)
	view.Savings = view.GrossTotal.Sub(view.NetTotal)
	if view.GrossTotal.IsPositive() {
		pct := view.Savings.Div(view.GrossTotal).Mul(hundred).Round(2)
		view.SavingsPercent = &pct
	}
	return view
}

func articlesPreview(lines []Line) string {
	names := make([]string, 0, previewArticleCount)
	for i := 0; i < len(lines) && i < previewArticleCount; i++ {
		names = append(names, truncateRunes(lines[i].Description, previewArticleChars))
	}
	preview := strings.Join(names, ", ")
	if len(lines) > previewArticleCount {
		preview += "..."
	}
	return preview
}

func truncateRunes(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return string([]rune(value)[:limit])
}
