package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubNotificationPruner struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (s *stubNotificationPruner) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.deleted, s.err
}

type stubOutboxPruner struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (s *stubOutboxPruner) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.deleted, s.err
}

func TestRetentionJobAppliesIndependentWindows(t *testing.T) {
	notifications := &stubNotificationPruner{deleted: 10}
	outboxRepo := &stubOutboxPruner{deleted: 4}
	job, err := NewRetentionJob(RetentionJobParams{
		Logger:                    testLogger(),
		Notifications:             notifications,
		Outbox:                    outboxRepo,
		NotificationRetentionDays: 90,
		OutboxRetentionDays:       30,
	})
	if err != nil {
		t.Fatalf("NewRetentionJob: %v", err)
	}

	fixed := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	job.(*retentionJob).now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := fixed.Add(-90 * 24 * time.Hour); !notifications.cutoff.Equal(want) {
		t.Fatalf("expected notification cutoff %s, got %s", want, notifications.cutoff)
	}
	if want := fixed.Add(-30 * 24 * time.Hour); !outboxRepo.cutoff.Equal(want) {
		t.Fatalf("expected outbox cutoff %s, got %s", want, outboxRepo.cutoff)
	}
}

func TestRetentionJobRunsBothSweepsDespiteFailure(t *testing.T) {
	notifications := &stubNotificationPruner{err: errors.New("notifications table locked")}
	outboxRepo := &stubOutboxPruner{deleted: 1}
	job, err := NewRetentionJob(RetentionJobParams{
		Logger:        testLogger(),
		Notifications: notifications,
		Outbox:        outboxRepo,
	})
	if err != nil {
		t.Fatalf("NewRetentionJob: %v", err)
	}
	job.(*retentionJob).now = time.Now

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected the notification failure to surface")
	}
	if outboxRepo.cutoff.IsZero() {
		t.Fatal("expected outbox sweep to run despite notification failure")
	}
}

func TestRetentionJobDefaultsWindows(t *testing.T) {
	job, err := NewRetentionJob(RetentionJobParams{
		Logger:        testLogger(),
		Notifications: &stubNotificationPruner{},
		Outbox:        &stubOutboxPruner{},
	})
	if err != nil {
		t.Fatalf("NewRetentionJob: %v", err)
	}
	impl := job.(*retentionJob)
	if impl.notificationDays != defaultNotificationRetentionDays {
		t.Fatalf("unexpected notification retention %d", impl.notificationDays)
	}
	if impl.outboxDays != defaultOutboxRetentionDays {
		t.Fatalf("unexpected outbox retention %d", impl.outboxDays)
	}
}
