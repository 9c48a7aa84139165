package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vivetti/salesdesk-backend/api/middleware"
	"github.com/vivetti/salesdesk-backend/pkg/auth"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
)

func operatorFromRequest(r *http.Request) (auth.Operator, error) {
	op, ok := middleware.OperatorFromContext(r.Context())
	if !ok {
		return auth.Operator{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return op, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func lineIndexParam(r *http.Request) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "index"))
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "line index must be numeric").
			WithDetails(map[string]any{"index": raw})
	}
	return index, nil
}
