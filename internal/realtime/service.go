package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/logger"
)

// typingTTL bounds how long a typing signal stays visible without refresh.
const typingTTL = 6 * time.Second

// broker is the redis surface the realtime hub depends on.
type broker interface {
	Subscribe(ctx context.Context, channels ...string) (*goredis.PubSub, error)
	UserChannel(userID string) string
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	PresenceKey(conversationID, userID string) string
}

// Event is one realtime payload pushed to a connected client.
type Event struct {
	Data []byte
}

// Service fans live events out to users and tracks typing presence.
type Service interface {
	Stream(ctx context.Context, userID uuid.UUID) (*Stream, error)
	MarkTyping(ctx context.Context, conversationID, userID uuid.UUID) error
	PeerTyping(ctx context.Context, conversationID, peerID uuid.UUID) (bool, error)
}

type service struct {
	broker broker
	logg   *logger.Logger
}

// NewService wires the realtime hub against the redis broker.
func NewService(b broker, logg *logger.Logger) (Service, error) {
	if b == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "realtime broker required")
	}
	return &service{broker: b, logg: logg}, nil
}

// Stream opens a per-user subscription. Callers must Close the stream when
// the client disconnects.
func (s *service) Stream(ctx context.Context, userID uuid.UUID) (*Stream, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	channel := s.broker.UserChannel(userID.String())
	sub, err := s.broker.Subscribe(ctx, channel)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe user channel")
	}
	return newStream(ctx, sub), nil
}

func (s *service) MarkTyping(ctx context.Context, conversationID, userID uuid.UUID) error {
	if conversationID == uuid.Nil || userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "conversation id and user id required")
	}
	key := s.broker.PresenceKey(conversationID.String(), userID.String())
	if err := s.broker.Set(ctx, key, "1", typingTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark typing")
	}
	return nil
}

func (s *service) PeerTyping(ctx context.Context, conversationID, peerID uuid.UUID) (bool, error) {
	if conversationID == uuid.Nil || peerID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "conversation id and peer id required")
	}
	key := s.broker.PresenceKey(conversationID.String(), peerID.String())
	_, err := s.broker.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check typing presence")
	}
	return true, nil
}

// Stream delivers redis pub/sub payloads until closed.
type Stream struct {
	sub    *goredis.PubSub
	events chan Event
}

func newStream(ctx context.Context, sub *goredis.PubSub) *Stream {
	s := &Stream{sub: sub, events: make(chan Event, 16)}
	go s.pump(ctx)
	return s
}

func (s *Stream) pump(ctx context.Context) {
	defer close(s.events)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.sub.Channel():
			if !ok {
				return
			}
			select {
			case s.events <- Event{Data: []byte(msg.Payload)}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Events yields payloads for the connected user. The channel closes when the
// stream shuts down.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Close tears down the underlying subscription.
func (s *Stream) Close() error {
	return s.sub.Close()
}
