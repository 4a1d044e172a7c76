package messages

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox/payloads"
	"github.com/jdelacruz/tradepost-backend/pkg/pagination"
)

const (
	maxBodyLength = 4000
	previewLength = 80
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// sellerOwnerResolver maps a storefront to the user account behind it, so a
// buyer's message can be routed to a real recipient.
type sellerOwnerResolver interface {
	FindOwnerUserID(ctx context.Context, sellerID uuid.UUID) (uuid.UUID, error)
}

// Viewer identifies the authenticated actor on messaging calls.
type Viewer struct {
	UserID   uuid.UUID
	SellerID *uuid.UUID
	Role     enums.UserRole
}

// SendMessageInput posts one message. Buyers may open a new thread by
// providing SellerID; sellers reply to existing conversations only.
type SendMessageInput struct {
	Sender         Viewer
	ConversationID *uuid.UUID
	SellerID       *uuid.UUID
	Body           string
	AttachmentID   *uuid.UUID
}

// Service owns buyer/seller chat threads.
type Service interface {
	SendMessage(ctx context.Context, input SendMessageInput) (*MessageDTO, error)
	ListConversations(ctx context.Context, viewer Viewer, limit int) ([]ConversationSummary, error)
	ListMessages(ctx context.Context, viewer Viewer, conversationID uuid.UUID, params pagination.Params) (*MessageList, error)
	MarkConversationRead(ctx context.Context, viewer Viewer, conversationID uuid.UUID) (int64, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	events eventEmitter
	owners sellerOwnerResolver
}

// ServiceParams collects the messaging dependencies.
type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Events eventEmitter
	Owners sellerOwnerResolver
}

// NewService wires the messaging service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "messages repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event emitter required")
	}
	if params.Owners == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "seller owner resolver required")
	}
	return &service{
		repo:   params.Repo,
		tx:     params.Tx,
		events: params.Events,
		owners: params.Owners,
	}, nil
}

func (s *service) SendMessage(ctx context.Context, input SendMessageInput) (*MessageDTO, error) {
	if input.Sender.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sender id required")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" && input.AttachmentID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body or attachment required")
	}
	if len(body) > maxBodyLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body too long")
	}

	var saved *models.Message
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		conversation, err := s.resolveConversation(ctx, repo, input)
		if err != nil {
			return err
		}
		if err := s.authorize(input.Sender, conversation); err != nil {
			return err
		}

		now := time.Now().UTC()
		message := &models.Message{
			ID:             uuid.New(),
			ConversationID: conversation.ID,
			SenderID:       input.Sender.UserID,
			Body:           body,
			AttachmentID:   input.AttachmentID,
		}
		if err := repo.CreateMessage(ctx, message); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create message")
		}
		if err := repo.TouchConversation(ctx, conversation.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch conversation")
		}

		recipientID, err := s.recipientFor(ctx, input.Sender, conversation)
		if err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventMessageSent,
			AggregateType: enums.AggregateMessage,
			AggregateID:   message.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.Sender.UserID, SellerID: input.Sender.SellerID, Role: input.Sender.Role.String()},
			Data: payloads.MessageSentEvent{
				ConversationID: conversation.ID,
				MessageID:      message.ID,
				SenderID:       input.Sender.UserID,
				RecipientID:    recipientID,
				Preview:        preview(body),
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit message event")
		}

		saved = message
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := NewMessageDTO(saved)
	return &dto, nil
}

// resolveConversation loads the target thread, creating one when a buyer
// opens a new thread with a seller.
func (s *service) resolveConversation(ctx context.Context, repo Repository, input SendMessageInput) (*models.Conversation, error) {
	if input.ConversationID != nil {
		conversation, err := repo.FindConversationByID(ctx, *input.ConversationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find conversation")
		}
		return conversation, nil
	}

	if input.Sender.Role != enums.UserRoleBuyer {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversation id required")
	}
	if input.SellerID == nil || *input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required to start a conversation")
	}

	conversation, err := repo.FindConversationByPair(ctx, input.Sender.UserID, *input.SellerID)
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find conversation")
	}

	conversation = &models.Conversation{
		ID:       uuid.New(),
		BuyerID:  input.Sender.UserID,
		SellerID: *input.SellerID,
	}
	if err := repo.CreateConversation(ctx, conversation); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create conversation")
	}
	return conversation, nil
}

func (s *service) authorize(viewer Viewer, conversation *models.Conversation) error {
	switch {
	case viewer.Role == enums.UserRoleAdmin:
		return nil
	case viewer.UserID == conversation.BuyerID:
		return nil
	case viewer.SellerID != nil && *viewer.SellerID == conversation.SellerID:
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not a participant in this conversation")
}

func (s *service) recipientFor(ctx context.Context, sender Viewer, conversation *models.Conversation) (uuid.UUID, error) {
	if sender.UserID == conversation.BuyerID {
		ownerID, err := s.owners.FindOwnerUserID(ctx, conversation.SellerID)
		if err != nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve seller owner")
		}
		return ownerID, nil
	}
	return conversation.BuyerID, nil
}

func (s *service) ListConversations(ctx context.Context, viewer Viewer, limit int) ([]ConversationSummary, error) {
	var (
		records []conversationRecord
		err     error
	)
	switch {
	case viewer.SellerID != nil && *viewer.SellerID != uuid.Nil:
		records, err = s.repo.ListConversationsForSeller(ctx, *viewer.SellerID, limit)
	case viewer.UserID != uuid.Nil:
		records, err = s.repo.ListConversationsForBuyer(ctx, viewer.UserID, limit)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "viewer identity required")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list conversations")
	}

	summaries := make([]ConversationSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, record.toSummary())
	}
	return summaries, nil
}

func (s *service) ListMessages(ctx context.Context, viewer Viewer, conversationID uuid.UUID, params pagination.Params) (*MessageList, error) {
	conversation, err := s.loadConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(viewer, conversation); err != nil {
		return nil, err
	}

	var cursor *pagination.Cursor
	if params.Cursor != "" {
		cursor, err = pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
	}

	rows, next, err := s.repo.ListMessages(ctx, conversationID, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list messages")
	}

	out := &MessageList{Messages: make([]MessageDTO, 0, len(rows))}
	for i := range rows {
		out.Messages = append(out.Messages, NewMessageDTO(&rows[i]))
	}
	if next != nil {
		out.NextCursor = pagination.EncodeCursor(*next)
	}
	return out, nil
}

func (s *service) MarkConversationRead(ctx context.Context, viewer Viewer, conversationID uuid.UUID) (int64, error) {
	conversation, err := s.loadConversation(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if err := s.authorize(viewer, conversation); err != nil {
		return 0, err
	}
	count, err := s.repo.MarkRead(ctx, conversationID, viewer.UserID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark conversation read")
	}
	return count, nil
}

func (s *service) loadConversation(ctx context.Context, conversationID uuid.UUID) (*models.Conversation, error) {
	if conversationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversation id required")
	}
	conversation, err := s.repo.FindConversationByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find conversation")
	}
	return conversation, nil
}

func preview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewLength {
		return body
	}
	return string(runes[:previewLength])
}
