package middleware

import (
	"net/http"

	"github.com/vivetti/salesdesk-backend/api/responses"
	"github.com/vivetti/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
	"github.com/vivetti/salesdesk-backend/pkg/logger"
)

// RequireRole admits operators holding any of the listed roles. It must run after Auth.
func RequireRole(logg *logger.Logger, roles ...enums.OperatorRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			op, ok := OperatorFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator context missing"))
				return
			}
			for _, role := range roles {
				if op.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			err := pkgerrors.New(pkgerrors.CodeForbidden, "operator role not allowed").
				WithDetails(map[string]any{"role": op.Role})
			responses.WriteError(r.Context(), logg, w, err)
		})
	}
}
