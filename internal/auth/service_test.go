package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/jdelacruz/tradepost-backend/pkg/auth"
	"github.com/jdelacruz/tradepost-backend/pkg/config"
	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/security"
)

func TestServiceLoginBuyer(t *testing.T) {
	password := "buyer-secret"
	hashed := mustHashPassword(t, password)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "buyer@example.com",
		PasswordHash: hashed,
		FirstName:    "Bea",
		LastName:     "Cruz",
		Role:         enums.UserRoleBuyer,
		IsActive:     true,
	}
	cfg := testJWTConfig()

	svc, _, err := buildTestService(user, nil, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.UserRoleBuyer {
		t.Fatalf("expected buyer role claim, got %s", claims.Role)
	}
	if claims.SellerID != nil {
		t.Fatalf("expected no seller claim for buyer")
	}
	if resp.Seller != nil {
		t.Fatalf("expected no seller payload for buyer")
	}
	if resp.RefreshToken == "" {
		t.Fatalf("expected refresh token to be set")
	}
	if user.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestServiceLoginSellerIncludesStorefront(t *testing.T) {
	password := "seller-secret"
	hashed := mustHashPassword(t, password)
	seller := &models.Seller{
		ID:       uuid.New(),
		Name:     "Moss & Fern",
		Slug:     "moss-fern",
		IsActive: true,
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        "seller@example.com",
		PasswordHash: hashed,
		FirstName:    "Sela",
		LastName:     "Ramos",
		Role:         enums.UserRoleSeller,
		IsActive:     true,
		SellerID:     &seller.ID,
	}
	cfg := testJWTConfig()

	svc, _, err := buildTestService(user, seller, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.SellerID == nil || *claims.SellerID != seller.ID {
		t.Fatalf("expected seller claim %s, got %v", seller.ID, claims.SellerID)
	}
	if resp.Seller == nil || resp.Seller.Slug != "moss-fern" {
		t.Fatalf("expected seller payload in response, got %+v", resp.Seller)
	}
}

func TestServiceLoginWrongPassword(t *testing.T) {
	hashed := mustHashPassword(t, "right-password")
	user := &models.User{
		ID:           uuid.New(),
		Email:        "buyer@example.com",
		PasswordHash: hashed,
		Role:         enums.UserRoleBuyer,
		IsActive:     true,
	}

	svc, _, err := buildTestService(user, nil, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "wrong-password",
	})
	if err == nil {
		t.Fatalf("expected unauthorized for wrong password")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceLoginInactiveUser(t *testing.T) {
	password := "inactive-secret"
	hashed := mustHashPassword(t, password)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "inactive@example.com",
		PasswordHash: hashed,
		Role:         enums.UserRoleBuyer,
		IsActive:     false,
	}

	svc, _, err := buildTestService(user, nil, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for inactive user, got %v", err)
	}
}

func TestServiceRefreshRotatesSession(t *testing.T) {
	password := "rotate-secret"
	hashed := mustHashPassword(t, password)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "rotate@example.com",
		PasswordHash: hashed,
		Role:         enums.UserRoleBuyer,
		IsActive:     true,
	}
	cfg := testJWTConfig()

	svc, sessionMgr, err := buildTestService(user, nil, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	login, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	sessionMgr.rotatedAccessID = "rotated-access-id"
	sessionMgr.rotatedRefresh = "rotated-refresh"

	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp.RefreshToken != "rotated-refresh" {
		t.Fatalf("expected rotated refresh token, got %q", resp.RefreshToken)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated access token: %v", err)
	}
	if claims.ID != "rotated-access-id" {
		t.Fatalf("expected new jti from rotation, got %q", claims.ID)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected claims to retain user id")
	}
}

func TestServiceRefreshRejectsForgedToken(t *testing.T) {
	svc, _, err := buildTestService(&models.User{ID: uuid.New()}, nil, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  "not-a-jwt",
		RefreshToken: "whatever",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for forged token, got %v", err)
	}
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "tradepost",
		ExpirationMinutes: 30,
	}
}

func buildTestService(user *models.User, seller *models.Seller, jwtCfg config.JWTConfig) (Service, *stubSessionManager, error) {
	userRepo := stubUserRepo{user: user}
	sellerRepo := stubSellerRepo{seller: seller}
	sessionMgr := &stubSessionManager{refreshToken: "refresh-token"}
	svc, err := NewService(ServiceParams{
		UserRepo:       userRepo,
		SellerRepo:     sellerRepo,
		SessionManager: sessionMgr,
		JWTConfig:      jwtCfg,
	})
	return svc, sessionMgr, err
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user *models.User
	err  error
}

func (s stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func (s stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.user != nil && s.user.ID == id {
		s.user.LastLoginAt = &at
	}
	return nil
}

type stubSellerRepo struct {
	seller *models.Seller
	err    error
}

func (s stubSellerRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.seller, nil
}

type stubSessionManager struct {
	refreshToken    string
	rotatedAccessID string
	rotatedRefresh  string
	revoked         []string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	return s.refreshToken, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return s.rotatedAccessID, s.rotatedRefresh, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}
