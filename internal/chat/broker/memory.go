package broker

import (
	"context"
	"sync"

	"github.com/harborchat/harbor/internal/chat/domain"
)

const subscriberBuffer = 32

// Memory is an in-process Broker. Messages published to a room are fanned
// out to every open subscription for that room. A slow subscriber that
// fills its buffer drops messages rather than blocking the publisher.
type Memory struct {
	mu     sync.RWMutex
	rooms  map[string]map[*memorySub]struct{}
	closed bool
}

func NewMemory() *Memory {
	return &Memory{rooms: make(map[string]map[*memorySub]struct{})}
}

func (m *Memory) Publish(ctx context.Context, room string, msg domain.Message) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}

	for sub := range m.rooms[room] {
		select {
		case sub.ch <- msg:
		default:
			// subscriber too slow, drop
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, room string) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	sub := &memorySub{
		broker: m,
		room:   room,
		ch:     make(chan domain.Message, subscriberBuffer),
	}
	if m.rooms[room] == nil {
		m.rooms[room] = make(map[*memorySub]struct{})
	}
	m.rooms[room][sub] = struct{}{}
	return sub, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	for room, subs := range m.rooms {
		for sub := range subs {
			close(sub.ch)
		}
		delete(m.rooms, room)
	}
	return nil
}

type memorySub struct {
	broker *Memory
	room   string
	ch     chan domain.Message
	once   sync.Once
}

func (s *memorySub) Messages() <-chan domain.Message { return s.ch }

func (s *memorySub) Close() error {
	s.once.Do(func() {
		s.broker.mu.Lock()
		defer s.broker.mu.Unlock()

		if s.broker.closed {
			return // broker already closed our channel
		}
		if subs, ok := s.broker.rooms[s.room]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(s.broker.rooms, s.room)
			}
		}
		close(s.ch)
	})
	return nil
}
