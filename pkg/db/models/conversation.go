package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a buyer/seller message thread. One thread exists per
// buyer-seller pair.
type Conversation struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID       uuid.UUID  `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:idx_buyer_seller_convo"`
	SellerID      uuid.UUID  `gorm:"column:seller_id;type:uuid;not null;uniqueIndex:idx_buyer_seller_convo"`
	LastMessageAt *time.Time `gorm:"column:last_message_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Message is a single entry in a conversation.
type Message struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ConversationID uuid.UUID  `gorm:"column:conversation_id;type:uuid;not null;index"`
	SenderID       uuid.UUID  `gorm:"column:sender_id;type:uuid;not null"`
	Body           string     `gorm:"column:body;not null"`
	AttachmentID   *uuid.UUID `gorm:"column:attachment_id;type:uuid"`
	ReadAt         *time.Time `gorm:"column:read_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
