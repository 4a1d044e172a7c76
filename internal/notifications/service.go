package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/logger"
	"github.com/jdelacruz/tradepost-backend/pkg/pagination"
	"github.com/jdelacruz/tradepost-backend/pkg/types"
)

// realtimePublisher pushes change events to a user's live channel.
type realtimePublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
	UserChannel(userID string) string
}

// Service defines notification delivery, list and read operations.
type Service interface {
	Deliver(ctx context.Context, input DeliverInput) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	ListPreferences(ctx context.Context, userID uuid.UUID) ([]PreferenceDTO, error)
	SetPreference(ctx context.Context, userID uuid.UUID, key string, enabled bool) error
}

type service struct {
	repo     Repository
	realtime realtimePublisher
	logg     *logger.Logger
}

// DeliverInput describes one notification to create for one user.
type DeliverInput struct {
	UserID uuid.UUID
	Type   enums.NotificationType
	Title  string
	Body   string
	Data   types.JSONMap
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// PreferenceDTO is one preference toggle in the settings surface.
type PreferenceDTO struct {
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
}

// preferenceKeys is the fixed set of toggles exposed to users.
var preferenceKeys = []string{"orders", "order_updates", "inventory", "messages", "reviews", "system"}

// NewService wires notification dependencies. The realtime publisher is
// optional; without it notifications are store-only.
func NewService(repo Repository, realtime realtimePublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, realtime: realtime, logg: logg}, nil
}

// Deliver creates the notification unless the user disabled its preference
// group, then pushes a realtime hint. The realtime push is best effort; a
// dead socket must not fail the consumer.
func (s *service) Deliver(ctx context.Context, input DeliverInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}
	if input.Title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}

	enabled, err := s.repo.IsPreferenceEnabled(ctx, input.UserID, input.Type.PreferenceKey())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check notification preference")
	}
	if !enabled {
		return nil
	}

	notification := &models.Notification{
		ID:     uuid.New(),
		UserID: input.UserID,
		Type:   input.Type,
		Title:  input.Title,
		Body:   input.Body,
		Data:   input.Data,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}

	if s.realtime != nil {
		channel := s.realtime.UserChannel(input.UserID.String())
		payload, err := json.Marshal(map[string]any{
			"kind":            "notification",
			"notification_id": notification.ID.String(),
			"type":            notification.Type,
			"title":           notification.Title,
		})
		if err == nil {
			err = s.realtime.Publish(ctx, channel, payload)
		}
		if err != nil && s.logg != nil {
			s.logg.Warn(ctx, "realtime notification push failed")
		}
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listNotificationsParams{
		UserID:     params.UserID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

// ListPreferences returns the full toggle set with stored overrides applied.
func (s *service) ListPreferences(ctx context.Context, userID uuid.UUID) ([]PreferenceDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	stored, err := s.repo.ListPreferences(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list preferences")
	}
	overrides := make(map[string]bool, len(stored))
	for _, pref := range stored {
		overrides[pref.Key] = pref.Enabled
	}

	out := make([]PreferenceDTO, 0, len(preferenceKeys))
	for _, key := range preferenceKeys {
		enabled := true
		if value, ok := overrides[key]; ok {
			enabled = value
		}
		out = append(out, PreferenceDTO{Key: key, Enabled: enabled})
	}
	return out, nil
}

func (s *service) SetPreference(ctx context.Context, userID uuid.UUID, key string, enabled bool) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !validPreferenceKey(key) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown preference key")
	}
	if err := s.repo.UpsertPreference(ctx, userID, key, enabled); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save preference")
	}
	return nil
}

func validPreferenceKey(key string) bool {
	for _, candidate := range preferenceKeys {
		if candidate == key {
			return true
		}
	}
	return false
}
