package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	"github.com/jdelacruz/tradepost-backend/pkg/pagination"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	notifications := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  body TEXT NOT NULL,
  data TEXT,
  read_at DATETIME,
  created_at DATETIME
);`
	preferences := `
CREATE TABLE IF NOT EXISTS notification_preferences (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  key TEXT NOT NULL,
  enabled INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, key)
);`
	require.NoError(t, conn.Exec(notifications).Error)
	require.NoError(t, conn.Exec(preferences).Error)
	return conn
}

func seedNotification(t *testing.T, conn *gorm.DB, userID uuid.UUID, createdAt time.Time, read bool) models.Notification {
	t.Helper()

	notification := models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      enums.NotificationTypeOrderStatus,
		Title:     "Order update",
		Body:      fmt.Sprintf("created at %s", createdAt.Format(time.RFC3339)),
		CreatedAt: createdAt,
	}
	if read {
		readAt := createdAt.Add(time.Minute)
		notification.ReadAt = &readAt
	}
	require.NoError(t, conn.Create(&notification).Error)
	return notification
}

func TestRepositoryListPagesNewestFirst(t *testing.T) {
	conn := setupNotificationsTestDB(t)
	ctx := context.Background()
	repo := NewRepository(conn)

	userID := uuid.New()
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedNotification(t, conn, userID, base.Add(time.Duration(i)*time.Minute), false)
	}
	seedNotification(t, conn, uuid.New(), base, false)

	page, cursor, err := repo.List(ctx, listNotificationsParams{UserID: userID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.NotNil(t, cursor)
	assert.True(t, page[0].CreatedAt.After(page[2].CreatedAt))

	rest, next, err := repo.List(ctx, listNotificationsParams{UserID: userID, Limit: 3, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Nil(t, next)
	for _, n := range rest {
		assert.Equal(t, userID, n.UserID)
	}
}

func TestRepositoryMarkReadIsScopedToOwner(t *testing.T) {
	conn := setupNotificationsTestDB(t)
	ctx := context.Background()
	repo := NewRepository(conn)

	owner := uuid.New()
	other := uuid.New()
	notification := seedNotification(t, conn, owner, time.Now().UTC(), false)

	mark, err := repo.MarkRead(ctx, other, notification.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, mark.Found)
	assert.False(t, mark.Updated)

	mark, err = repo.MarkRead(ctx, owner, notification.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.True(t, mark.Updated)

	// Second mark is a no-op but still finds the row.
	mark, err = repo.MarkRead(ctx, owner, notification.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.False(t, mark.Updated)

	unread, err := repo.CountUnread(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestRepositoryDeleteOlderThanKeepsUnread(t *testing.T) {
	conn := setupNotificationsTestDB(t)
	ctx := context.Background()
	repo := NewRepository(conn)

	userID := uuid.New()
	old := time.Now().UTC().Add(-100 * 24 * time.Hour)
	seedNotification(t, conn, userID, old, true)
	oldUnread := seedNotification(t, conn, userID, old, false)
	recent := seedNotification(t, conn, userID, time.Now().UTC(), true)

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().UTC().Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	page, _, err := repo.List(ctx, listNotificationsParams{UserID: userID, Limit: pagination.MaxLimit})
	require.NoError(t, err)
	require.Len(t, page, 2)
	ids := map[uuid.UUID]bool{page[0].ID: true, page[1].ID: true}
	assert.True(t, ids[oldUnread.ID], "unread notifications survive retention")
	assert.True(t, ids[recent.ID], "recent notifications survive retention")
}

func TestRepositoryPreferenceDefaultsAndUpsert(t *testing.T) {
	conn := setupNotificationsTestDB(t)
	ctx := context.Background()
	repo := NewRepository(conn)

	userID := uuid.New()

	enabled, err := repo.IsPreferenceEnabled(ctx, userID, "orders")
	require.NoError(t, err)
	assert.True(t, enabled, "missing preference row means enabled")

	require.NoError(t, repo.UpsertPreference(ctx, userID, "orders", false))
	enabled, err = repo.IsPreferenceEnabled(ctx, userID, "orders")
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, repo.UpsertPreference(ctx, userID, "orders", true))
	enabled, err = repo.IsPreferenceEnabled(ctx, userID, "orders")
	require.NoError(t, err)
	assert.True(t, enabled)

	prefs, err := repo.ListPreferences(ctx, userID)
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	assert.Equal(t, "orders", prefs[0].Key)
}
