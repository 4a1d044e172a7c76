package messages

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/pagination"
)

// Repository exposes persistence for conversations and messages.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindConversationByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	FindConversationByPair(ctx context.Context, buyerID, sellerID uuid.UUID) (*models.Conversation, error)
	CreateConversation(ctx context.Context, conversation *models.Conversation) error
	TouchConversation(ctx context.Context, id uuid.UUID, at time.Time) error
	ListConversationsForBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]conversationRecord, error)
	ListConversationsForSeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]conversationRecord, error)
	CreateMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Message, *pagination.Cursor, error)
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID, now time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a messaging repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// conversationRecord is a thread row joined with its counterparty label and
// the viewer's unread count.
type conversationRecord struct {
	ID               uuid.UUID  `gorm:"column:id"`
	BuyerID          uuid.UUID  `gorm:"column:buyer_id"`
	SellerID         uuid.UUID  `gorm:"column:seller_id"`
	CounterpartyName string     `gorm:"column:counterparty_name"`
	LastMessageAt    *time.Time `gorm:"column:last_message_at"`
	UnreadCount      int64      `gorm:"column:unread_count"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindConversationByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *repositoryImpl) FindConversationByPair(ctx context.Context, buyerID, sellerID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND seller_id = ?", buyerID, sellerID).
		First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *repositoryImpl) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	return r.db.WithContext(ctx).Create(conversation).Error
}

func (r *repositoryImpl) TouchConversation(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		UpdateColumn("last_message_at", at).Error
}

const unreadCountSelect = `(
	SELECT COUNT(*) FROM messages m
	WHERE m.conversation_id = c.id AND m.read_at IS NULL AND m.sender_id <> ?
) AS unread_count`

func (r *repositoryImpl) ListConversationsForBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]conversationRecord, error) {
	var records []conversationRecord
	err := r.db.WithContext(ctx).
		Table("conversations AS c").
		Select("c.id, c.buyer_id, c.seller_id, c.last_message_at, c.created_at, s.name AS counterparty_name, "+unreadCountSelect, buyerID).
		Joins("JOIN sellers s ON s.id = c.seller_id").
		Where("c.buyer_id = ?", buyerID).
		Order("c.last_message_at DESC NULLS LAST, c.created_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repositoryImpl) ListConversationsForSeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]conversationRecord, error) {
	var records []conversationRecord
	err := r.db.WithContext(ctx).
		Table("conversations AS c").
		Select("c.id, c.buyer_id, c.seller_id, c.last_message_at, c.created_at, u.first_name || ' ' || u.last_name AS counterparty_name, "+unreadCountSelect, sellerID).
		Joins("JOIN users u ON u.id = c.buyer_id").
		Where("c.seller_id = ?", sellerID).
		Order("c.last_message_at DESC NULLS LAST, c.created_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repositoryImpl) CreateMessage(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *repositoryImpl) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Message, *pagination.Cursor, error) {
	bufferedLimit := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)

	query := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ?", conversationID)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Message
	if err := query.Order("created_at DESC, id DESC").Limit(bufferedLimit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		return rows[:normalized], &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

// MarkRead stamps every message the reader has not yet seen. The sender's own
// messages are excluded.
func (r *repositoryImpl) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, readerID).
		UpdateColumn("read_at", now)
	return result.RowsAffected, result.Error
}
