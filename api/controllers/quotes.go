package controllers

import (
	"net/http"

	"github.com/vivetti/salesdesk-backend/api/responses"
	"github.com/vivetti/salesdesk-backend/api/validators"
	"github.com/vivetti/salesdesk-backend/internal/quotes"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
	"github.com/vivetti/salesdesk-backend/pkg/logger"
)

// QuoteList returns the archive visible to the operator.
func QuoteList(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
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

		filter := quotes.ListFilter{
			Customer: validators.QueryString(r, "customer", maxSearchQueryLength),
			AgentID:  validators.QueryString(r, "agent_id", 64),
		}
		list, err := svc.ListQuotes(r.Context(), op, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// QuoteDownload streams the archived quote as a PDF.
func QuoteDownload(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
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
		documentID, err := uuidParam(r, "documentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rendered, err := svc.RenderQuote(r.Context(), op, documentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteFile(w, rendered.FileName, rendered.ContentType, rendered.Content)
	}
}

// QuoteEdit opens an edit draft over an archived quote.
func QuoteEdit(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
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
		documentID, err := uuidParam(r, "documentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.EditQuote(r.Context(), op, documentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}
