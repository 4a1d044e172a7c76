package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/jdelacruz/tradepost-backend/pkg/logger"
)

type stubExpirer struct {
	cutoff  time.Time
	expired int
	err     error
}

func (s *stubExpirer) ExpireStalePendingCardOrders(ctx context.Context, cutoff time.Time) (int, error) {
	s.cutoff = cutoff
	return s.expired, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestOrderExpiryJobUsesConfiguredTTL(t *testing.T) {
	expirer := &stubExpirer{expired: 2}
	job, err := NewOrderExpiryJob(OrderExpiryJobParams{
		Logger: testLogger(),
		Orders: expirer,
		TTL:    6 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewOrderExpiryJob: %v", err)
	}

	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	job.(*orderExpiryJob).now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := fixed.Add(-6 * time.Hour)
	if !expirer.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, expirer.cutoff)
	}
}

func TestOrderExpiryJobSurfacesSweepError(t *testing.T) {
	expirer := &stubExpirer{err: errors.New("db down")}
	job, err := NewOrderExpiryJob(OrderExpiryJobParams{
		Logger: testLogger(),
		Orders: expirer,
	})
	if err != nil {
		t.Fatalf("NewOrderExpiryJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected sweep error to surface")
	}
}

func TestOrderExpiryJobRequiresDependencies(t *testing.T) {
	if _, err := NewOrderExpiryJob(OrderExpiryJobParams{Logger: testLogger()}); err == nil {
		t.Fatal("expected missing orders service to be rejected")
	}
	if _, err := NewOrderExpiryJob(OrderExpiryJobParams{Orders: &stubExpirer{}}); err == nil {
		t.Fatal("expected missing logger to be rejected")
	}
}
