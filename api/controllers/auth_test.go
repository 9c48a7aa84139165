package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vivetti/salesdesk-backend/internal/auth"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
)

type stubAuthService struct {
	login       auth.LoginRequest
	accessToken string
	refresh     string
	err         error
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.login = req
	if s.err != nil {
		return nil, s.err
	}
	return &auth.LoginResponse{TokenPair: auth.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"}}, nil
}

func (s *stubAuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*auth.TokenPair, error) {
	s.accessToken, s.refresh = accessToken, refreshToken
	if s.err != nil {
		return nil, s.err
	}
	return &auth.TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
}

func (s *stubAuthService) Logout(ctx context.Context, accessToken string) error {
	s.accessToken = accessToken
	return s.err
}

func TestAuthLoginReturnsTokens(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"mrossi","password":"correct-horse"}`))
	rec := httptest.NewRecorder()

	AuthLogin(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("X-SD-Token") != "access-1" {
		t.Fatalf("expected token header")
	}
	if svc.login.Username != "mrossi" {
		t.Fatalf("unexpected username %q", svc.login.Username)
	}
	var got auth.LoginResponse
	decodeData(t, rec, &got)
	if got.RefreshToken != "refresh-1" {
		t.Fatalf("unexpected refresh token %q", got.RefreshToken)
	}
}

func TestAuthLoginRejectsBadCredentials(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"mrossi","password":"nope"}`))
	rec := httptest.NewRecorder()

	AuthLogin(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthLoginValidatesBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"mrossi"}`))
	rec := httptest.NewRecorder()

	AuthLogin(&stubAuthService{}, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAuthRefreshUsesBearerToken(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"refresh-1"}`))
	req.Header.Set("Authorization", "Bearer access-1")
	rec := httptest.NewRecorder()

	AuthRefresh(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.accessToken != "access-1" || svc.refresh != "refresh-1" {
		t.Fatalf("unexpected tokens %q %q", svc.accessToken, svc.refresh)
	}
	if rec.Header().Get("X-SD-Token") != "access-2" {
		t.Fatalf("expected rotated token header")
	}
}

func TestAuthRefreshRequiresBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"refresh-1"}`))
	rec := httptest.NewRecorder()

	AuthRefresh(&stubAuthService{}, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthLogout(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer access-1")
	rec := httptest.NewRecorder()

	AuthLogout(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.accessToken != "access-1" {
		t.Fatalf("unexpected token %q", svc.accessToken)
	}
}
