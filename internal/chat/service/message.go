package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/harborchat/harbor/internal/chat/broker"
	"github.com/harborchat/harbor/internal/chat/domain"
	"github.com/harborchat/harbor/pkg/idx"
)

const maxMessageLength = 4096

var (
	ErrEmptyMessage   = errors.New("empty_message")
	ErrMessageTooLong = errors.New("message_too_long")
	ErrInvalidRoom    = errors.New("invalid_room")
)

// MessageService validates and publishes chat messages through the broker.
type MessageService struct {
	Broker broker.Broker

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

// Send stamps the message with an ID and timestamp and publishes it to the
// room. All current subscribers receive it; there is no history.
func (s *MessageService) Send(ctx context.Context, room, authorID, authorName, body string) (domain.Message, error) {
	room = strings.TrimSpace(room)
	if room == "" {
		return domain.Message{}, ErrInvalidRoom
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return domain.Message{}, ErrEmptyMessage
	}
	if len(body) > maxMessageLength {
		return domain.Message{}, ErrMessageTooLong
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	msg := domain.Message{
		ID:         idx.NewAt(now).String(),
		Room:       room,
		AuthorID:   authorID,
		AuthorName: authorName,
		Body:       body,
		SentAt:     now.UTC(),
	}

	if err := s.Broker.Publish(ctx, room, msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// Listen subscribes the caller to a room's live feed.
func (s *MessageService) Listen(ctx context.Context, room string) (broker.Subscription, error) {
	room = strings.TrimSpace(room)
	if room == "" {
		return nil, ErrInvalidRoom
	}
	return s.Broker.Subscribe(ctx, room)
}
