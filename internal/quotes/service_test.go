package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vivetti/salesdesk-backend/internal/catalog"
	"github.com/vivetti/salesdesk-backend/pkg/auth"
	"github.com/vivetti/salesdesk-backend/pkg/db/models"
	"github.com/vivetti/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
	"gorm.io/gorm"
)

type stubArticles map[string]catalog.Article

func (s stubArticles) GetArticle(ctx context.Context, code string) (*catalog.Article, error) {
	a, ok := s[code]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
	}
	return &a, nil
}

type stubCustomers map[int64]catalog.Customer

func (s stubCustomers) GetCustomer(ctx context.Context, op auth.Operator, id int64) (*catalog.Customer, error) {
	c, ok := s[id]
	if !ok || !op.CanAccessAgent(c.AgentID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return &c, nil
}

type fakeRepo struct {
	quotes     map[uuid.UUID]*StoredQuote
	order      []uuid.UUID
	createErr  error
	replaceErr error
	replaced   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{quotes: map[uuid.UUID]*StoredQuote{}}
}

func (f *fakeRepo) Create(ctx context.Context, header *models.QuoteHeader, lines []models.QuoteLine) (uuid.UUID, error) {
	if f.createErr != nil {
		return header.ID, f.createErr
	}
	f.quotes[header.ID] = &StoredQuote{Header: *header, Lines: lines}
	f.order = append([]uuid.UUID{header.ID}, f.order...)
	return header.ID, nil
}

func (f *fakeRepo) ReadByAgent(ctx context.Context, agentID *string, customerFilter string) ([]StoredQuote, error) {
	var out []StoredQuote
	for _, id := range f.order {
		q := f.quotes[id]
		if agentID != nil && q.Header.AgentID != *agentID {
			continue
		}
		out = append(out, *q)
	}
	return out, nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*StoredQuote, error) {
	q, ok := f.quotes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *q
	return &cp, nil
}

func (f *fakeRepo) ReplaceLines(ctx context.Context, id uuid.UUID, gross, net decimal.Decimal, lines []models.QuoteLine) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	q, ok := f.quotes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.replaced++
	q.Header.GrossTotal = gross
	q.Header.NetTotal = net
	q.Lines = lines
	return nil
}

type fakeRenderer struct {
	err  error
	docs []*Document
}

func (f *fakeRenderer) Render(doc *Document) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.docs = append(f.docs, doc)
	return []byte("%PDF-1.3"), nil
}

type serviceFixture struct {
	svc      Service
	repo     *fakeRepo
	drafts   *DraftStore
	renderer *fakeRenderer
	agent    auth.Operator
	admin    auth.Operator
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	drafts, err := NewDraftStore(newMemoryBackend(), time.Hour)
	require.NoError(t, err)
	f := &serviceFixture{
		repo:     newFakeRepo(),
		drafts:   drafts,
		renderer: &fakeRenderer{},
		agent:    auth.Operator{UserID: uuid.New(), Role: enums.OperatorRoleAgent, AgentID: "AG01"},
		admin:    auth.Operator{UserID: uuid.New(), Role: enums.OperatorRoleAdmin},
	}
	svc, err := NewService(ServiceParams{
		Articles: stubArticles{
			"A": article("A", "100", "10"),
			"B": article("B", "50"),
			"C": article("C", "12.5"),
		},
		Customers: stubCustomers{
			1: {ID: 1, Name: "Rossi Costruzioni", AgentID: "AG01"},
			2: {ID: 2, Name: "Bianchi Srl", AgentID: "AG02"},
		},
		Repo:     f.repo,
		Drafts:   drafts,
		Renderer: f.renderer,
		Clock:    func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *serviceFixture) scenarioDraft(t *testing.T) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	view, err := f.svc.OpenDraft(ctx, f.agent)
	require.NoError(t, err)
	_, err = f.svc.AddLine(ctx, f.agent, view.ID, "A", AddInput{Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddLine(ctx, f.agent, view.ID, "B", AddInput{Quantity: 1, FreeOfCharge: true})
	require.NoError(t, err)
	return view.ID
}

func TestServiceDraftLifecycle(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	draftID := f.scenarioDraft(t)

	view, err := f.svc.GetDraft(ctx, f.agent, draftID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, "10", view.Lines[0].DiscountSummary)
	assert.Equal(t, FreeOfChargeLabel, view.Lines[1].DiscountSummary)
	assert.True(t, view.GrossTotal.Equal(dec("250")))
	assert.True(t, view.NetTotal.Equal(dec("180")))
	assert.True(t, view.Savings.Equal(dec("70")))
	require.NotNil(t, view.SavingsPercent)
	assert.True(t, view.SavingsPercent.Equal(dec("28")))

	view, err = f.svc.UpdateLine(ctx, f.agent, draftID, 1, LineUpdate{FreeOfCharge: ptr(false)})
	require.NoError(t, err)
	assert.True(t, view.NetTotal.Equal(dec("230")))

	view, err = f.svc.RemoveLine(ctx, f.agent, draftID, 0)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "B", view.Lines[0].Code)
	assert.Equal(t, 0, view.Lines[0].Index)

	_, err = f.svc.RemoveLine(ctx, f.agent, draftID, 5)
	requireCode(t, err, pkgerrors.CodeIndexRange)

	require.NoError(t, f.svc.DiscardDraft(ctx, f.agent, draftID))
	_, err = f.svc.GetDraft(ctx, f.agent, draftID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestServiceEmptyDraftHasNoSavingsPercent(t *testing.T) {
	f := newServiceFixture(t)
	view, err := f.svc.OpenDraft(context.Background(), f.agent)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.GrossTotal.IsZero())
	assert.Nil(t, view.SavingsPercent)
}

func TestServiceDraftBelongsToOwner(t *testing.T) {
	f := newServiceFixture(t)
	draftID := f.scenarioDraft(t)

	_, err := f.svc.GetDraft(context.Background(), f.admin, draftID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestServiceAddLineFailuresKeepDraft(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	draftID := f.scenarioDraft(t)

	_, err := f.svc.AddLine(ctx, f.agent, draftID, "missing", AddInput{Quantity: 1})
	requireCode(t, err, pkgerrors.CodeNotFound)
	_, err = f.svc.AddLine(ctx, f.agent, draftID, "C", AddInput{Quantity: -3})
	requireCode(t, err, pkgerrors.CodeValidation)

	view, err := f.svc.GetDraft(ctx, f.agent, draftID)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 2)
}

func TestServiceSaveDraftCreatesQuote(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	draftID := f.scenarioDraft(t)

	_, err := f.svc.SaveDraft(ctx, f.agent, draftID, nil)
	requireCode(t, err, pkgerrors.CodeValidation)
	_, err = f.svc.SaveDraft(ctx, f.agent, draftID, &HeaderRequest{CustomerID: 2})
	requireCode(t, err, pkgerrors.CodeNotFound)

	doc, err := f.svc.SaveDraft(ctx, f.agent, draftID, &HeaderRequest{CustomerID: 1, Reference: "Cantiere"})
	require.NoError(t, err)
	assert.Equal(t, "PREV-260314-0926", doc.Number)
	assert.Equal(t, "Rossi Costruzioni", doc.CustomerName)
	assert.True(t, doc.NetTotal.Equal(dec("180")))

	stored, ok := f.repo.quotes[doc.ID]
	require.True(t, ok)
	assert.Len(t, stored.Lines, 2)

	_, err = f.svc.GetDraft(ctx, f.agent, draftID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestServiceSaveDraftFailureKeepsDraft(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	draftID := f.scenarioDraft(t)
	docID := uuid.New()
	f.repo.createErr = &PartialWriteError{DocumentID: docID, Stage: StageHeaderOnly, Err: errors.New("insert lines: timeout")}

	_, err := f.svc.SaveDraft(ctx, f.agent, draftID, &HeaderRequest{CustomerID: 1})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodePersistence, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, docID.String(), details["document_id"])
	assert.Equal(t, StageHeaderOnly, details["state"])

	view, err := f.svc.GetDraft(ctx, f.agent, draftID)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 2)
}

func TestServiceEditQuoteReplacesLines(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	doc, err := f.svc.SaveDraft(ctx, f.agent, f.scenarioDraft(t), &HeaderRequest{CustomerID: 1})
	require.NoError(t, err)

	edit, err := f.svc.EditQuote(ctx, f.agent, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DraftKindEdit, edit.Kind)
	require.Len(t, edit.Lines, 2)

	_, err = f.svc.UpdateLine(ctx, f.agent, edit.ID, 0, LineUpdate{NetUnitPrice: ptr(dec("80"))})
	require.NoError(t, err)
	_, err = f.svc.AddLine(ctx, f.agent, edit.ID, "C", AddInput{Quantity: 4})
	require.NoError(t, err)

	saved, err := f.svc.SaveDraft(ctx, f.agent, edit.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, saved.ID)
	assert.Equal(t, doc.Number, saved.Number)
	assert.True(t, saved.NetTotal.Equal(dec("210")))
	assert.Equal(t, 1, f.repo.replaced)

	stored := f.repo.quotes[doc.ID]
	require.Len(t, stored.Lines, 3)
	assert.True(t, stored.Lines[0].NetOverride)
	assert.True(t, stored.Header.GrossTotal.Equal(dec("300")))
}

func TestServiceEditQuoteScopedToAgent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	doc, err := f.svc.SaveDraft(ctx, f.agent, f.scenarioDraft(t), &HeaderRequest{CustomerID: 1})
	require.NoError(t, err)

	other := auth.Operator{UserID: uuid.New(), Role: enums.OperatorRoleAgent, AgentID: "AG02"}
	_, err = f.svc.EditQuote(ctx, other, doc.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
	_, err = f.svc.RenderQuote(ctx, other, doc.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.EditQuote(ctx, f.admin, doc.ID)
	require.NoError(t, err)
}

func TestServiceListQuotesPreviewAndIncomplete(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	draftID := f.scenarioDraft(t)
	_, err := f.svc.AddLine(ctx, f.agent, draftID, "C", AddInput{Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.SaveDraft(ctx, f.agent, draftID, &HeaderRequest{CustomerID: 1})
	require.NoError(t, err)

	orphan := models.QuoteHeader{ID: uuid.New(), Number: "PREV-260101-0800", AgentID: "AG01", CustomerName: "Rossi"}
	f.repo.quotes[orphan.ID] = &StoredQuote{Header: orphan}
	f.repo.order = append(f.repo.order, orphan.ID)

	list, err := f.svc.ListQuotes(ctx, f.agent, ListFilter{AgentID: "AG02"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].Incomplete)
	assert.Equal(t, "Articolo A, Articolo B...", list[0].ArticlesPreview)
	assert.True(t, list[1].Incomplete)
	assert.Equal(t, "", list[1].ArticlesPreview)

	adminView, err := f.svc.ListQuotes(ctx, f.admin, ListFilter{AgentID: "AG02"})
	require.NoError(t, err)
	assert.Empty(t, adminView)
}

func TestArticlesPreviewTruncates(t *testing.T) {
	lines := []Line{{Description: "Tubo multistrato isolato 16x2"}, {Description: "Raccordo"}}
	assert.Equal(t, "Tubo multistrato iso, Raccordo", articlesPreview(lines))
}

func TestServiceRenderQuoteAndPreview(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	draftID := f.scenarioDraft(t)

	preview, err := f.svc.PreviewDraft(ctx, f.agent, draftID, &HeaderRequest{CustomerID: 1})
	require.NoError(t, err)
	assert.Equal(t, "PREV-260314-0926.pdf", preview.FileName)
	assert.Equal(t, PDFContentType, preview.ContentType)
	assert.Empty(t, f.repo.quotes, "preview does not persist")

	doc, err := f.svc.SaveDraft(ctx, f.agent, draftID, &HeaderRequest{CustomerID: 1})
	require.NoError(t, err)
	rendered, err := f.svc.RenderQuote(ctx, f.agent, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Preventivo_PREV-260314-0926.pdf", rendered.FileName)
	assert.NotEmpty(t, rendered.Content)
	require.Len(t, f.renderer.docs, 2)
	assert.Len(t, f.renderer.docs[1].Lines, 2)
}

func TestServiceRenderFailureLeavesDataUntouched(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	doc, err := f.svc.SaveDraft(ctx, f.agent, f.scenarioDraft(t), &HeaderRequest{CustomerID: 1})
	require.NoError(t, err)

	f.renderer.err = errors.New("logo missing")
	_, err = f.svc.RenderQuote(ctx, f.agent, doc.ID)
	requireCode(t, err, pkgerrors.CodeRender)

	_, ok := f.repo.quotes[doc.ID]
	assert.True(t, ok)
}
