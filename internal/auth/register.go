package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/internal/sellers"
	"github.com/jdelacruz/tradepost-backend/internal/users"
	"github.com/jdelacruz/tradepost-backend/pkg/config"
	"github.com/jdelacruz/tradepost-backend/pkg/db"
	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/security"
	"github.com/jdelacruz/tradepost-backend/pkg/types"
)

// RegisterBuyerRequest contains the payload for buyer signup.
type RegisterBuyerRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	Phone     *string `json:"phone,omitempty"`
}

// RegisterSellerRequest contains the payload for onboarding a new storefront.
type RegisterSellerRequest struct {
	FirstName   string        `json:"first_name" validate:"required"`
	LastName    string        `json:"last_name" validate:"required"`
	Email       string        `json:"email" validate:"required,email"`
	Password    string        `json:"password" validate:"required,min=8"`
	Phone       *string       `json:"phone,omitempty"`
	ShopName    string        `json:"shop_name" validate:"required"`
	Description *string       `json:"description,omitempty"`
	Address     types.Address `json:"address" validate:"required"`
}

// RegisterService handles buyer and seller onboarding transactions.
type RegisterService interface {
	RegisterBuyer(ctx context.Context, req RegisterBuyerRequest) (*users.UserDTO, error)
	RegisterSeller(ctx context.Context, req RegisterSellerRequest) (*users.UserDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	AttachSeller(ctx context.Context, id, sellerID uuid.UUID) error
}

type registerSellerRepository interface {
	Create(ctx context.Context, dto sellers.CreateSellerDTO) (*models.Seller, error)
	FindBySlug(ctx context.Context, slug string) (*models.Seller, error)
}

// RegisterServiceParams packages the dependencies for the registration flows.
// Repo factories default to the concrete GORM repositories when nil.
type RegisterServiceParams struct {
	TxRunner          txRunner
	UserRepoFactory   func(tx *gorm.DB) registerUserRepository
	SellerRepoFactory func(tx *gorm.DB) registerSellerRepository
	PasswordConfig    config.PasswordConfig
}

type registerService struct {
	tx          txRunner
	userRepos   func(tx *gorm.DB) registerUserRepository
	sellerRepos func(tx *gorm.DB) registerSellerRepository
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.UserRepoFactory == nil {
		params.UserRepoFactory = func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		}
	}
	if params.SellerRepoFactory == nil {
		params.SellerRepoFactory = func(tx *gorm.DB) registerSellerRepository {
			return sellers.NewRepository(tx)
		}
	}
	return &registerService{
		tx:          params.TxRunner,
		userRepos:   params.UserRepoFactory,
		sellerRepos: params.SellerRepoFactory,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) RegisterBuyer(ctx context.Context, req RegisterBuyerRequest) (*users.UserDTO, error) {
	email, passwordHash, err := s.prepareCredentials(req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	var created *users.UserDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepos(tx)
		if err := ensureEmailAvailable(ctx, userRepo, email); err != nil {
			return err
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
			Role:         enums.UserRoleBuyer,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *registerService) RegisterSeller(ctx context.Context, req RegisterSellerRequest) (*users.UserDTO, error) {
	email, passwordHash, err := s.prepareCredentials(req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	shopName := strings.TrimSpace(req.ShopName)
	if shopName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop_name is required")
	}
	if missing := req.Address.FirstMissingField(); missing != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("address %s is required", missing))
	}

	var created *users.UserDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepos(tx)
		sellerRepo := s.sellerRepos(tx)

		if err := ensureEmailAvailable(ctx, userRepo, email); err != nil {
			return err
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
			Role:         enums.UserRoleSeller,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		address := req.Address
		seller, err := sellerRepo.Create(ctx, sellers.CreateSellerDTO{
			Name:        shopName,
			Slug:        uniqueSlug(ctx, sellerRepo, shopName, user.ID.String()),
			Description: req.Description,
			Address:     &address,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "shop name already taken")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create seller")
		}

		if err := userRepo.AttachSeller(ctx, user.ID, seller.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "associate seller with user")
		}

		user.SellerID = &seller.ID
		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *registerService) prepareCredentials(email, password string) (string, string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	passwordHash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return normalized, passwordHash, nil
}

func ensureEmailAvailable(ctx context.Context, repo registerUserRepository, email string) error {
	if _, err := repo.FindByEmail(ctx, email); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}
	return nil
}

var slugStripper = regexp.MustCompile(`[^a-z0-9]+`)

// uniqueSlug derives a URL-safe slug from the shop name, suffixing a fragment
// of the owner's ID when the plain form is already taken.
func uniqueSlug(ctx context.Context, repo registerSellerRepository, name, ownerID string) string {
	base := strings.Trim(slugStripper.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if base == "" {
		base = "shop"
	}
	if _, err := repo.FindBySlug(ctx, base); errors.Is(err, gorm.ErrRecordNotFound) {
		return base
	}
	suffix := strings.ReplaceAll(ownerID, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return base + "-" + suffix
}
