package broker

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/harborchat/harbor/internal/chat/domain"
	"github.com/harborchat/harbor/pkg/slogx"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "chat:room:"

// Redis is a Broker backed by Redis pub/sub, letting multiple nodes share
// rooms. Messages are JSON-encoded on the wire.
type Redis struct {
	client *redis.Client

	mu     sync.Mutex
	subs   map[*redisSub]struct{}
	closed bool
}

func NewRedis(addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Redis{
		client: client,
		subs:   make(map[*redisSub]struct{}),
	}, nil
}

func (r *Redis) Publish(ctx context.Context, room string, msg domain.Message) error {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channelPrefix+room, payload).Err()
}

func (r *Redis) Subscribe(ctx context.Context, room string) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	pubsub := r.client.Subscribe(ctx, channelPrefix+room)

	// Wait for the subscription to be confirmed so nothing published after
	// Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &redisSub{
		broker: r,
		pubsub: pubsub,
		ch:     make(chan domain.Message, subscriberBuffer),
	}
	r.subs[sub] = struct{}{}

	go sub.pump(ctx)
	return sub, nil
}

func (r *Redis) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	subs := make([]*redisSub, 0, len(r.subs))
	for sub := range r.subs {
		subs = append(subs, sub)
	}
	r.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	return r.client.Close()
}

type redisSub struct {
	broker *Redis
	pubsub *redis.PubSub
	ch     chan domain.Message
	once   sync.Once
}

func (s *redisSub) Messages() <-chan domain.Message { return s.ch }

func (s *redisSub) Close() error {
	var err error
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs, s)
		s.broker.mu.Unlock()

		// Closing the PubSub closes its Channel(), which ends pump.
		err = s.pubsub.Close()
	})
	return err
}

// pump decodes wire messages onto the subscription channel until the
// underlying PubSub is closed.
func (s *redisSub) pump(ctx context.Context) {
	defer close(s.ch)

	for raw := range s.pubsub.Channel() {
		var msg domain.Message
		if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
			slogx.FromContext(ctx).Warn("broker: dropping undecodable message",
				"channel", raw.Channel,
				"error", err,
			)
			continue
		}

		select {
		case s.ch <- msg:
		default:
			// subscriber too slow, drop
		}
	}
}
