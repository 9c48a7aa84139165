package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vivetti/salesdesk-backend/api/responses"
	"github.com/vivetti/salesdesk-backend/api/validators"
	"github.com/vivetti/salesdesk-backend/internal/quotes"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
	"github.com/vivetti/salesdesk-backend/pkg/logger"
)

const deliveryDateLayout = "2006-01-02"

type addLineRequest struct {
	ArticleCode  string            `json:"article_code" validate:"required,max=64"`
	Quantity     int               `json:"quantity"`
	Discounts    *quotes.Discounts `json:"discounts,omitempty"`
	NetUnitPrice *decimal.Decimal  `json:"net_unit_price,omitempty"`
	FreeOfCharge bool              `json:"free_of_charge"`
	Note         string            `json:"note" validate:"max=500"`
}

func (r addLineRequest) toInput() quotes.AddInput {
	return quotes.AddInput{
		Quantity:     r.Quantity,
		Discounts:    r.Discounts,
		NetUnitPrice: r.NetUnitPrice,
		FreeOfCharge: r.FreeOfCharge,
		Note:         strings.TrimSpace(r.Note),
	}
}

type updateLineRequest struct {
	Quantity     *int              `json:"quantity,omitempty"`
	Discounts    *quotes.Discounts `json:"discounts,omitempty"`
	NetUnitPrice *decimal.Decimal  `json:"net_unit_price,omitempty"`
	FreeOfCharge *bool             `json:"free_of_charge,omitempty"`
	Note         *string           `json:"note,omitempty" validate:"omitempty,max=500"`
}

func (r updateLineRequest) toUpdate() quotes.LineUpdate {
	update := quotes.LineUpdate{
		Quantity:     r.Quantity,
		Discounts:    r.Discounts,
		NetUnitPrice: r.NetUnitPrice,
		FreeOfCharge: r.FreeOfCharge,
	}
	if r.Note != nil {
		note := strings.TrimSpace(*r.Note)
		update.Note = &note
	}
	return update
}

type headerRequest struct {
	CustomerID   int64   `json:"customer_id"`
	Reference    string  `json:"reference" validate:"max=80"`
	DeliveryDate *string `json:"delivery_date,omitempty"`
	Notes        string  `json:"notes" validate:"max=2000"`
}

func (r headerRequest) toHeader() (*quotes.HeaderRequest, error) {
	header := &quotes.HeaderRequest{
		CustomerID: r.CustomerID,
		Reference:  strings.TrimSpace(r.Reference),
		Notes:      strings.TrimSpace(r.Notes),
	}
	if r.DeliveryDate != nil && strings.TrimSpace(*r.DeliveryDate) != "" {
		parsed, err := time.Parse(deliveryDateLayout, strings.TrimSpace(*r.DeliveryDate))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "delivery_date must be YYYY-MM-DD")
		}
		header.DeliveryDate = &parsed
	}
	return header, nil
}

// decodeHeader returns nil when the request carries no body.
func decodeHeader(r *http.Request) (*quotes.HeaderRequest, error) {
	var body headerRequest
	present, err := validators.DecodeOptionalJSONBody(r, &body)
	if err != nil || !present {
		return nil, err
	}
	return body.toHeader()
}

// QuoteOpenDraft starts a new, empty quote draft.
func QuoteOpenDraft(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}
		op, err := operatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.OpenDraft(r.Context(), op)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func QuoteGetDraft(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}
		op, err := operatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		draftID, err := uuidParam(r, "draftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetDraft(r.Context(), op, draftID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// QuoteAddLine appends a catalog article to the draft.
func QuoteAddLine(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}
		op, err := operatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		draftID, err := uuidParam(r, "draftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addLineRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AddLine(r.Context(), op, draftID, strings.TrimSpace(body.ArticleCode), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func QuoteUpdateLine(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}
		op, err := operatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		draftID, err := uuidParam(r, "draftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		index, err := lineIndexParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateLineRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateLine(r.Context(), op, draftID, index, body.toUpdate())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func QuoteRemoveLine(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}
		op, err := operatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		draftID, err := uuidParam(r, "draftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		index, err := lineIndexParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.RemoveLine(r.Context(), op, draftID, index)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func QuoteDiscardDraft(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}
		op, err := operatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		draftID, err := uuidParam(r, "draftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DiscardDraft(r.Context(), op, draftID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "discarded"})
	}
}

// QuotePreviewDraft renders the draft as a PDF without saving it.
func QuotePreviewDraft(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}
		op, err := operatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		draftID, err := uuidParam(r, "draftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		header, err := decodeHeader(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rendered, err := svc.PreviewDraft(r.Context(), op, draftID, header)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteFile(w, rendered.FileName, rendered.ContentType, rendered.Content)
	}
}

// QuoteSaveDraft persists the draft: a new document, or the line replacement of an edit.
func QuoteSaveDraft(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}
		op, err := operatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		draftID, err := uuidParam(r, "draftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		header, err := decodeHeader(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithDraftID(ctx, draftID.String())
		}
		doc, err := svc.SaveDraft(ctx, op, draftID, header)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithFields(ctx, map[string]any{
				"document_id":  doc.ID.String(),
				"quote_number": doc.Number,
			}), "quote.saved")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, doc)
	}
}
