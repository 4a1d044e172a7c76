package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
)

type fakeBroker struct {
	sets map[string]time.Duration
	vals map[string]string
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{sets: map[string]time.Duration{}, vals: map[string]string{}}
}

func (f *fakeBroker) Subscribe(ctx context.Context, channels ...string) (*goredis.PubSub, error) {
	return nil, nil
}

func (f *fakeBroker) UserChannel(userID string) string {
	return "events:user:" + userID
}

func (f *fakeBroker) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.sets[key] = ttl
	f.vals[key] = "1"
	return nil
}

func (f *fakeBroker) Get(ctx context.Context, key string) (string, error) {
	if value, ok := f.vals[key]; ok {
		return value, nil
	}
	return "", goredis.Nil
}

func (f *fakeBroker) PresenceKey(conversationID, userID string) string {
	return "presence:" + conversationID + ":" + userID
}

func TestMarkTypingSetsShortLivedKey(t *testing.T) {
	broker := newFakeBroker()
	svc, err := NewService(broker, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	conversationID := uuid.New()
	userID := uuid.New()
	if err := svc.MarkTyping(context.Background(), conversationID, userID); err != nil {
		t.Fatalf("unexpected typing error: %v", err)
	}

	key := broker.PresenceKey(conversationID.String(), userID.String())
	ttl, ok := broker.sets[key]
	if !ok {
		t.Fatalf("expected presence key %q to be set", key)
	}
	if ttl <= 0 || ttl > 30*time.Second {
		t.Fatalf("expected short presence ttl, got %s", ttl)
	}

	typing, err := svc.PeerTyping(context.Background(), conversationID, userID)
	if err != nil {
		t.Fatalf("unexpected presence error: %v", err)
	}
	if !typing {
		t.Fatal("expected peer to show as typing")
	}
}

func TestPeerTypingAbsentKeyMeansIdle(t *testing.T) {
	svc, _ := NewService(newFakeBroker(), nil)
	typing, err := svc.PeerTyping(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected presence error: %v", err)
	}
	if typing {
		t.Fatal("expected idle peer")
	}
}

func TestTypingValidation(t *testing.T) {
	svc, _ := NewService(newFakeBroker(), nil)

	err := svc.MarkTyping(context.Background(), uuid.Nil, uuid.New())
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %s", code)
	}
	_, err = svc.Stream(context.Background(), uuid.Nil)
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %s", code)
	}
}
