package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vivetti/salesdesk-backend/api/middleware"
	"github.com/vivetti/salesdesk-backend/pkg/auth"
	"github.com/vivetti/salesdesk-backend/pkg/enums"
	"github.com/vivetti/salesdesk-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func agentOperator() auth.Operator {
	return auth.Operator{UserID: uuid.New(), Role: enums.OperatorRoleAgent, AgentID: "AG01"}
}

func adminOperator() auth.Operator {
	return auth.Operator{UserID: uuid.New(), Role: enums.OperatorRoleAdmin}
}

// newRequest binds the operator and chi URL params onto a test request.
func newRequest(method, target string, body io.Reader, op *auth.Operator, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := req.Context()
	if op != nil {
		ctx = middleware.WithOperator(ctx, *op)
	}
	routeCtx := chi.NewRouteContext()
	for key, value := range params {
		routeCtx.URLParams.Add(key, value)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	return req.WithContext(ctx)
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return payload.Error.Code
}
