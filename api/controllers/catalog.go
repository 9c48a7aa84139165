package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vivetti/salesdesk-backend/api/responses"
	"github.com/vivetti/salesdesk-backend/api/validators"
	"github.com/vivetti/salesdesk-backend/internal/catalog"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
	"github.com/vivetti/salesdesk-backend/pkg/logger"
)

const maxSearchQueryLength = 120

// CatalogSearchArticles matches articles by code or description.
func CatalogSearchArticles(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		articles, err := svc.SearchArticles(r.Context(), validators.QueryString(r, "q", maxSearchQueryLength), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, articles)
	}
}

func CatalogGetArticle(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		article, err := svc.GetArticle(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, article)
	}
}

// CatalogListCustomers lists the customers visible to the operator.
func CatalogListCustomers(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		op, err := operatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customers, err := svc.ListCustomers(r.Context(), op, validators.QueryString(r, "q", maxSearchQueryLength))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customers)
	}
}
