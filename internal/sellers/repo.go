package sellers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
)

// Repository exposes seller persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a sellers repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new seller and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateSellerDTO) (*models.Seller, error) {
	seller := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(seller).Error; err != nil {
		return nil, err
	}
	return seller, nil
}

// FindByID loads a seller by UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).First(&seller, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

// FindBySlug loads a seller by its unique slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&seller).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

// Update saves the full seller row.
func (r *Repository) Update(ctx context.Context, seller *models.Seller) (*models.Seller, error) {
	if err := r.db.WithContext(ctx).Save(seller).Error; err != nil {
		return nil, err
	}
	return seller, nil
}

// UpdateRating overwrites the denormalized rating columns.
func (r *Repository) UpdateRating(ctx context.Context, id uuid.UUID, avg float64, count int) error {
	return r.db.WithContext(ctx).
		Model(&models.Seller{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"rating_avg":   avg,
			"rating_count": count,
		}).Error
}
