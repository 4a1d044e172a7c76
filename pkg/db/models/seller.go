package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/types"
)

// Seller represents a storefront owned by one or more seller users.
type Seller struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string         `gorm:"column:name;not null"`
	Slug        string         `gorm:"column:slug;not null;uniqueIndex"`
	Description *string        `gorm:"column:description"`
	LogoMediaID *uuid.UUID     `gorm:"column:logo_media_id;type:uuid"`
	Address     *types.Address `gorm:"column:address;type:jsonb;serializer:json"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	RatingAvg   float64        `gorm:"column:rating_avg;type:numeric(3,2);not null;default:0"`
	RatingCount int            `gorm:"column:rating_count;not null;default:0"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
