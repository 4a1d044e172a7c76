package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	authsvc "github.com/jdelacruz/tradepost-backend/internal/auth"
	"github.com/jdelacruz/tradepost-backend/internal/users"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
)

type stubAuthService struct {
	login   *authsvc.LoginResponse
	refresh *authsvc.RefreshResponse
	err     error
}

func (s stubAuthService) Login(ctx context.Context, req authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	return s.login, s.err
}

func (s stubAuthService) Refresh(ctx context.Context, req authsvc.RefreshRequest) (*authsvc.RefreshResponse, error) {
	return s.refresh, s.err
}

func (s stubAuthService) Logout(ctx context.Context, accessID string) error {
	return s.err
}

type stubRegisterService struct {
	user *users.UserDTO
	err  error
}

func (s stubRegisterService) RegisterBuyer(ctx context.Context, req authsvc.RegisterBuyerRequest) (*users.UserDTO, error) {
	return s.user, s.err
}

func (s stubRegisterService) RegisterSeller(ctx context.Context, req authsvc.RegisterSellerRequest) (*users.UserDTO, error) {
	return s.user, s.err
}

func TestAuthLoginSuccess(t *testing.T) {
	login := &authsvc.LoginResponse{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		User:         &users.UserDTO{ID: uuid.New(), Email: "buyer@example.com"},
	}
	handler := AuthLogin(stubAuthService{login: login}, testLogger())

	body, _ := json.Marshal(map[string]string{
		"email":    "buyer@example.com",
		"password": "sup3rsecret",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data authsvc.LoginResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "access-token" {
		t.Fatalf("unexpected access token: %q", envelope.Data.AccessToken)
	}
}

func TestAuthLoginRejectsMalformedEmail(t *testing.T) {
	handler := AuthLogin(stubAuthService{}, testLogger())

	body, _ := json.Marshal(map[string]string{
		"email":    "not-an-email",
		"password": "sup3rsecret",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	handler := AuthLogin(stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}, testLogger())

	body, _ := json.Marshal(map[string]string{
		"email":    "buyer@example.com",
		"password": "wrong",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthRegisterBuyerReturnsSession(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Email: "buyer@example.com"}
	login := &authsvc.LoginResponse{AccessToken: "access-token", RefreshToken: "refresh-token", User: user}
	handler := AuthRegisterBuyer(stubRegisterService{user: user}, stubAuthService{login: login}, testLogger())

	body, _ := json.Marshal(map[string]string{
		"first_name": "Maria",
		"last_name":  "Santos",
		"email":      "buyer@example.com",
		"password":   "sup3rsecret",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}

	var envelope struct {
		Data authsvc.LoginResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.User == nil || envelope.Data.User.Email != user.Email {
		t.Fatalf("unexpected user in response: %+v", envelope.Data.User)
	}
}

func TestAuthRegisterBuyerDuplicateEmail(t *testing.T) {
	handler := AuthRegisterBuyer(
		stubRegisterService{err: pkgerrors.New(pkgerrors.CodeConflict, "email already registered")},
		stubAuthService{},
		testLogger(),
	)

	body, _ := json.Marshal(map[string]string{
		"first_name": "Maria",
		"last_name":  "Santos",
		"email":      "buyer@example.com",
		"password":   "sup3rsecret",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}
