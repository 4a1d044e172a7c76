package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	paginationpkg "github.com/jdelacruz/tradepost-backend/pkg/pagination"
)

type fakeRepository struct {
	created       []*models.Notification
	prefs         map[string]bool
	prefErr       error
	listFn        func(ctx context.Context, params listNotificationsParams) ([]models.Notification, *paginationpkg.Cursor, error)
	markReadFn    func(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (markResult, error)
	markAllReadFn func(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	upserts       map[string]bool
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, notification *models.Notification) error {
	f.created = append(f.created, notification)
	return nil
}

func (f *fakeRepository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *paginationpkg.Cursor, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, nil, nil
}

func (f *fakeRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return int64(len(f.created)), nil
}

func (f *fakeRepository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (markResult, error) {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, userID, notificationID, now)
	}
	return markResult{}, nil
}

func (f *fakeRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	if f.markAllReadFn != nil {
		return f.markAllReadFn(ctx, userID, now)
	}
	return 0, nil
}

func (f *fakeRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) ListPreferences(ctx context.Context, userID uuid.UUID) ([]models.NotificationPreference, error) {
	out := make([]models.NotificationPreference, 0, len(f.prefs))
	for key, enabled := range f.prefs {
		out = append(out, models.NotificationPreference{UserID: userID, Key: key, Enabled: enabled})
	}
	return out, nil
}

func (f *fakeRepository) IsPreferenceEnabled(ctx context.Context, userID uuid.UUID, key string) (bool, error) {
	if f.prefErr != nil {
		return false, f.prefErr
	}
	if enabled, ok := f.prefs[key]; ok {
		return enabled, nil
	}
	return true, nil
}

func (f *fakeRepository) UpsertPreference(ctx context.Context, userID uuid.UUID, key string, enabled bool) error {
	if f.upserts == nil {
		f.upserts = map[string]bool{}
	}
	f.upserts[key] = enabled
	return nil
}

type fakeRealtime struct {
	channels []string
	err      error
}

func (f *fakeRealtime) Publish(ctx context.Context, channel string, payload any) error {
	f.channels = append(f.channels, channel)
	return f.err
}

func (f *fakeRealtime) UserChannel(userID string) string {
	return "user:" + userID
}

func newServiceWithRepo(repo Repository) Service {
	svc, _ := NewService(repo, nil, nil)
	return svc
}

func TestService_DeliverCreatesAndPushes(t *testing.T) {
	repo := &fakeRepository{}
	realtime := &fakeRealtime{}
	svc, err := NewService(repo, realtime, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	userID := uuid.New()
	err = svc.Deliver(context.Background(), DeliverInput{
		UserID: userID,
		Type:   enums.NotificationTypeNewOrder,
		Title:  "New order received",
		Body:   "Order #100001 was placed for 2 item(s).",
	})
	if err != nil {
		t.Fatalf("unexpected deliver error: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 created notification, got %d", len(repo.created))
	}
	if repo.created[0].UserID != userID {
		t.Fatalf("unexpected recipient %s", repo.created[0].UserID)
	}
	if len(realtime.channels) != 1 || realtime.channels[0] != "user:"+userID.String() {
		t.Fatalf("unexpected realtime channels %v", realtime.channels)
	}
}

func TestService_DeliverRespectsDisabledPreference(t *testing.T) {
	repo := &fakeRepository{prefs: map[string]bool{"orders": false}}
	realtime := &fakeRealtime{}
	svc, _ := NewService(repo, realtime, nil)

	err := svc.Deliver(context.Background(), DeliverInput{
		UserID: uuid.New(),
		Type:   enums.NotificationTypeNewOrder,
		Title:  "New order received",
	})
	if err != nil {
		t.Fatalf("unexpected deliver error: %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatal("expected delivery to be suppressed")
	}
	if len(realtime.channels) != 0 {
		t.Fatal("expected no realtime push for suppressed delivery")
	}
}

func TestService_DeliverSurvivesRealtimeFailure(t *testing.T) {
	repo := &fakeRepository{}
	realtime := &fakeRealtime{err: errors.New("connection reset")}
	svc, _ := NewService(repo, realtime, nil)

	err := svc.Deliver(context.Background(), DeliverInput{
		UserID: uuid.New(),
		Type:   enums.NotificationTypeNewMessage,
		Title:  "New message",
	})
	if err != nil {
		t.Fatalf("expected best-effort push, got %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected notification persisted, got %d", len(repo.created))
	}
}

func TestService_DeliverValidation(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{})

	err := svc.Deliver(context.Background(), DeliverInput{
		Type:  enums.NotificationTypeNewOrder,
		Title: "New order received",
	})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %s", code)
	}

	err = svc.Deliver(context.Background(), DeliverInput{
		UserID: uuid.New(),
		Type:   enums.NotificationType("carrier_pigeon"),
		Title:  "hello",
	})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad type, got %s", code)
	}
}

func TestService_ListNotifications(t *testing.T) {
	first := models.Notification{ID: uuid.New(), CreatedAt: time.Now().Add(-time.Hour)}
	second := models.Notification{ID: uuid.New(), CreatedAt: time.Now()}

	repo := &fakeRepository{
		listFn: func(ctx context.Context, params listNotificationsParams) ([]models.Notification, *paginationpkg.Cursor, error) {
			if params.Limit != 1 {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			return []models.Notification{first}, &paginationpkg.Cursor{CreatedAt: second.CreatedAt, ID: second.ID}, nil
		},
	}

	svc := newServiceWithRepo(repo)
	result, err := svc.List(context.Background(), ListParams{UserID: uuid.New(), Limit: 1})
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(result.Items))
	}
	if result.Cursor == "" {
		t.Fatal("expected cursor for next page")
	}
	decoded, err := paginationpkg.ParseCursor(result.Cursor)
	if err != nil {
		t.Fatalf("invalid cursor %q: %v", result.Cursor, err)
	}
	if decoded.ID != second.ID {
		t.Fatalf("expected cursor id %s got %s", second.ID, decoded.ID)
	}
}

func TestService_ListNotificationsInvalidCursor(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{})
	_, err := svc.List(context.Background(), ListParams{UserID: uuid.New(), Cursor: "bad"})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %s", code)
	}
}

func TestService_MarkReadNotFound(t *testing.T) {
	repo := &fakeRepository{
		markReadFn: func(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (markResult, error) {
			return markResult{Found: false}, nil
		},
	}
	svc := newServiceWithRepo(repo)
	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", code)
	}
}

func TestService_ListPreferencesMergesOverrides(t *testing.T) {
	repo := &fakeRepository{prefs: map[string]bool{"messages": false}}
	svc := newServiceWithRepo(repo)

	prefs, err := svc.ListPreferences(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected preferences error: %v", err)
	}
	if len(prefs) != len(preferenceKeys) {
		t.Fatalf("expected %d preferences, got %d", len(preferenceKeys), len(prefs))
	}
	byKey := make(map[string]bool, len(prefs))
	for _, pref := range prefs {
		byKey[pref.Key] = pref.Enabled
	}
	if byKey["messages"] {
		t.Fatal("expected stored override to disable messages")
	}
	if !byKey["orders"] {
		t.Fatal("expected unset keys to default enabled")
	}
}

func TestService_SetPreferenceRejectsUnknownKey(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{})
	err := svc.SetPreference(context.Background(), uuid.New(), "carrier_pigeons", false)
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %s", code)
	}
}
