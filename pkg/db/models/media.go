package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/enums"
)

// Media tracks an object uploaded to GCS via a signed URL.
type Media struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID     uuid.UUID         `gorm:"column:owner_id;type:uuid;not null;index"`
	Kind        enums.MediaKind   `gorm:"column:kind;type:media_kind;not null"`
	Status      enums.MediaStatus `gorm:"column:status;type:media_status;not null;default:'pending'"`
	ObjectKey   string            `gorm:"column:object_key;not null;uniqueIndex"`
	ContentType string            `gorm:"column:content_type;not null"`
	SizeBytes   int64             `gorm:"column:size_bytes;not null;default:0"`
	UploadedAt  *time.Time        `gorm:"column:uploaded_at"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
