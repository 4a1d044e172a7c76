package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/internal/sellers"
	"github.com/jdelacruz/tradepost-backend/internal/users"
	"github.com/jdelacruz/tradepost-backend/pkg/config"
	pkgmodels "github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/types"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubUserRepository struct {
	data      map[string]*pkgmodels.User
	created   *pkgmodels.User
	attached  *uuid.UUID
	createErr error
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{data: map[string]*pkgmodels.User{}}
}

func (s *stubUserRepository) FindByEmail(ctx context.Context, email string) (*pkgmodels.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepository) Create(ctx context.Context, dto users.CreateUserDTO) (*pkgmodels.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	s.data[dto.Email] = user
	s.created = user
	return user, nil
}

func (s *stubUserRepository) AttachSeller(ctx context.Context, id, sellerID uuid.UUID) error {
	s.attached = &sellerID
	return nil
}

type stubSellerRepository struct {
	created *pkgmodels.Seller
	slugs   map[string]bool
}

func (s *stubSellerRepository) Create(ctx context.Context, dto sellers.CreateSellerDTO) (*pkgmodels.Seller, error) {
	seller := dto.ToModel()
	seller.ID = uuid.New()
	s.created = seller
	return seller, nil
}

func (s *stubSellerRepository) FindBySlug(ctx context.Context, slug string) (*pkgmodels.Seller, error) {
	if s.slugs[slug] {
		return &pkgmodels.Seller{Slug: slug}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type registerTestSetup struct {
	service    RegisterService
	userRepo   *stubUserRepository
	sellerRepo *stubSellerRepository
}

func newRegisterTestSetup(t *testing.T) *registerTestSetup {
	t.Helper()
	userRepo := newStubUserRepository()
	sellerRepo := &stubSellerRepository{slugs: map[string]bool{}}
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return userRepo
		},
		SellerRepoFactory: func(tx *gorm.DB) registerSellerRepository {
			return sellerRepo
		},
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return &registerTestSetup{
		service:    svc,
		userRepo:   userRepo,
		sellerRepo: sellerRepo,
	}
}

func sampleSellerRequest(email, shop string) RegisterSellerRequest {
	return RegisterSellerRequest{
		FirstName: "Jamie",
		LastName:  "Rivera",
		Email:     email,
		Password:  "Secret123!",
		ShopName:  shop,
		Address: types.Address{
			FullName:   "Jamie Rivera",
			Phone:      "+63-917-555-0101",
			Line1:      "123 Main St",
			City:       "Quezon City",
			State:      "NCR",
			PostalCode: "1100",
			Country:    "PH",
		},
	}
}

func TestRegisterBuyerCreatesUser(t *testing.T) {
	setup := newRegisterTestSetup(t)

	dto, err := setup.service.RegisterBuyer(context.Background(), RegisterBuyerRequest{
		FirstName: "Bea",
		LastName:  "Cruz",
		Email:     "Bea@Example.com",
		Password:  "Secret123!",
	})
	if err != nil {
		t.Fatalf("register buyer: %v", err)
	}

	if setup.userRepo.created == nil {
		t.Fatalf("expected user to be created")
	}
	if dto.Email != "bea@example.com" {
		t.Fatalf("expected normalized email, got %q", dto.Email)
	}
	if dto.Role != enums.UserRoleBuyer {
		t.Fatalf("expected buyer role, got %s", dto.Role)
	}
	if setup.userRepo.created.PasswordHash == "Secret123!" {
		t.Fatalf("password must be hashed before storage")
	}
}

func TestRegisterBuyerDuplicateEmail(t *testing.T) {
	setup := newRegisterTestSetup(t)
	setup.userRepo.data["taken@example.com"] = &pkgmodels.User{ID: uuid.New(), Email: "taken@example.com"}

	_, err := setup.service.RegisterBuyer(context.Background(), RegisterBuyerRequest{
		FirstName: "Dup",
		LastName:  "User",
		Email:     "taken@example.com",
		Password:  "Secret123!",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for duplicate email, got %v", err)
	}
}

func TestRegisterSellerCreatesStorefront(t *testing.T) {
	setup := newRegisterTestSetup(t)
	req := sampleSellerRequest("shop@example.com", "Moss & Fern")

	dto, err := setup.service.RegisterSeller(context.Background(), req)
	if err != nil {
		t.Fatalf("register seller: %v", err)
	}

	if setup.sellerRepo.created == nil {
		t.Fatalf("expected seller to be created")
	}
	if setup.sellerRepo.created.Slug != "moss-fern" {
		t.Fatalf("expected slug moss-fern, got %q", setup.sellerRepo.created.Slug)
	}
	if setup.userRepo.attached == nil || *setup.userRepo.attached != setup.sellerRepo.created.ID {
		t.Fatalf("expected user linked to created seller")
	}
	if dto.Role != enums.UserRoleSeller {
		t.Fatalf("expected seller role, got %s", dto.Role)
	}
	if dto.SellerID == nil || *dto.SellerID != setup.sellerRepo.created.ID {
		t.Fatalf("expected seller id on returned user")
	}
}

func TestRegisterSellerSlugCollisionGetsSuffix(t *testing.T) {
	setup := newRegisterTestSetup(t)
	setup.sellerRepo.slugs["moss-fern"] = true

	_, err := setup.service.RegisterSeller(context.Background(), sampleSellerRequest("other@example.com", "Moss & Fern"))
	if err != nil {
		t.Fatalf("register seller: %v", err)
	}
	created := setup.sellerRepo.created
	if created == nil || created.Slug == "moss-fern" {
		t.Fatalf("expected suffixed slug on collision, got %+v", created)
	}
	if len(created.Slug) <= len("moss-fern") {
		t.Fatalf("expected suffixed slug to be longer, got %q", created.Slug)
	}
}

func TestRegisterSellerMissingAddress(t *testing.T) {
	setup := newRegisterTestSetup(t)
	req := sampleSellerRequest("no-address@example.com", "No Address Co")
	req.Address.City = ""

	_, err := setup.service.RegisterSeller(context.Background(), req)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing address city, got %v", err)
	}
}
