package messages

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
)

// ConversationSummary is one thread in a user's inbox.
type ConversationSummary struct {
	ID               uuid.UUID  `json:"id"`
	BuyerID          uuid.UUID  `json:"buyer_id"`
	SellerID         uuid.UUID  `json:"seller_id"`
	CounterpartyName string     `json:"counterparty_name"`
	LastMessageAt    *time.Time `json:"last_message_at,omitempty"`
	UnreadCount      int64      `json:"unread_count"`
	CreatedAt        time.Time  `json:"created_at"`
}

// MessageDTO is one message rendered for the API.
type MessageDTO struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	SenderID       uuid.UUID  `json:"sender_id"`
	Body           string     `json:"body"`
	AttachmentID   *uuid.UUID `json:"attachment_id,omitempty"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MessageList pages a conversation's messages newest first.
type MessageList struct {
	Messages   []MessageDTO `json:"messages"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func (r conversationRecord) toSummary() ConversationSummary {
	return ConversationSummary{
		ID:               r.ID,
		BuyerID:          r.BuyerID,
		SellerID:         r.SellerID,
		CounterpartyName: r.CounterpartyName,
		LastMessageAt:    r.LastMessageAt,
		UnreadCount:      r.UnreadCount,
		CreatedAt:        r.CreatedAt,
	}
}

// NewMessageDTO converts a persisted message row.
func NewMessageDTO(message *models.Message) MessageDTO {
	return MessageDTO{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Body:           message.Body,
		AttachmentID:   message.AttachmentID,
		ReadAt:         message.ReadAt,
		CreatedAt:      message.CreatedAt,
	}
}
