package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/api/middleware"
	notifysvc "github.com/jdelacruz/tradepost-backend/internal/notifications"
)

type stubNotifyService struct {
	list   *notifysvc.ListResult
	unread int64
	prefs  []notifysvc.PreferenceDTO
	err    error

	setKey     string
	setEnabled bool
}

func (s *stubNotifyService) Deliver(ctx context.Context, input notifysvc.DeliverInput) error {
	return s.err
}

func (s *stubNotifyService) List(ctx context.Context, params notifysvc.ListParams) (*notifysvc.ListResult, error) {
	return s.list, s.err
}

func (s *stubNotifyService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.unread, s.err
}

func (s *stubNotifyService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.err
}

func (s *stubNotifyService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.unread, s.err
}

func (s *stubNotifyService) ListPreferences(ctx context.Context, userID uuid.UUID) ([]notifysvc.PreferenceDTO, error) {
	return s.prefs, s.err
}

func (s *stubNotifyService) SetPreference(ctx context.Context, userID uuid.UUID, key string, enabled bool) error {
	s.setKey = key
	s.setEnabled = enabled
	return s.err
}

func TestNotificationsUnreadCount(t *testing.T) {
	handler := NotificationsUnreadCount(&stubNotifyService{unread: 7}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/unread-count", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.New().String()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["unread"] != 7 {
		t.Fatalf("unexpected unread count: %d", envelope.Data["unread"])
	}
}

func TestNotificationMarkReadRejectsBadID(t *testing.T) {
	handler := NotificationMarkRead(&stubNotifyService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/garbage/read", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("notificationId", "garbage")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	ctx = middleware.WithUserID(ctx, uuid.New().String())
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestNotificationPreferenceSetRequiresEnabled(t *testing.T) {
	handler := NotificationPreferenceSet(&stubNotifyService{}, testLogger())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/notifications/preferences/orders", bytes.NewReader([]byte(`{}`)))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("key", "orders")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	ctx = middleware.WithUserID(ctx, uuid.New().String())
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestNotificationPreferenceSetPersistsToggle(t *testing.T) {
	stub := &stubNotifyService{}
	handler := NotificationPreferenceSet(stub, testLogger())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/notifications/preferences/messages", bytes.NewReader([]byte(`{"enabled":false}`)))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("key", "messages")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	ctx = middleware.WithUserID(ctx, uuid.New().String())
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if stub.setKey != "messages" {
		t.Fatalf("unexpected preference key: %q", stub.setKey)
	}
	if stub.setEnabled {
		t.Fatal("expected preference to be disabled")
	}
}
