package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/vivetti/salesdesk-backend/pkg/auth"
)

type contextKey struct{ name string }

var operatorKey = contextKey{"operator"}

// WithOperator attaches the authenticated operator to ctx.
func WithOperator(ctx context.Context, op auth.Operator) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, operatorKey, op)
}

// OperatorFromContext returns the operator set by Auth; ok is false outside it.
func OperatorFromContext(ctx context.Context) (auth.Operator, bool) {
	if ctx == nil {
		return auth.Operator{}, false
	}
	op, ok := ctx.Value(operatorKey).(auth.Operator)
	if !ok || op.UserID == uuid.Nil || !op.Role.IsValid() {
		return auth.Operator{}, false
	}
	return op, true
}

// UserIDFromContext is empty for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	if op, ok := OperatorFromContext(ctx); ok {
		return op.UserID.String()
	}
	return ""
}
