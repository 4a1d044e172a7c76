package sellers

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/types"
)

// SellerDTO is the transport shape for a storefront.
type SellerDTO struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description *string        `json:"description,omitempty"`
	LogoMediaID *uuid.UUID     `json:"logo_media_id,omitempty"`
	Address     *types.Address `json:"address,omitempty"`
	IsActive    bool           `json:"is_active"`
	RatingAvg   float64        `json:"rating_avg"`
	RatingCount int            `json:"rating_count"`
	CreatedAt   time.Time      `json:"created_at"`
}

// CreateSellerDTO holds the data required to persist a new storefront.
type CreateSellerDTO struct {
	Name        string
	Slug        string
	Description *string
	Address     *types.Address
}

func FromModel(s *models.Seller) *SellerDTO {
	if s == nil {
		return nil
	}
	return &SellerDTO{
		ID:          s.ID,
		Name:        s.Name,
		Slug:        s.Slug,
		Description: s.Description,
		LogoMediaID: s.LogoMediaID,
		Address:     s.Address,
		IsActive:    s.IsActive,
		RatingAvg:   s.RatingAvg,
		RatingCount: s.RatingCount,
		CreatedAt:   s.CreatedAt,
	}
}

func (c CreateSellerDTO) ToModel() *models.Seller {
	return &models.Seller{
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Address:     c.Address,
		IsActive:    true,
	}
}
