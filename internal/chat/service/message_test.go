package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/harborchat/harbor/internal/chat/broker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	b := broker.NewMemory()
	defer b.Close()
	svc := &MessageService{Broker: b}
	ctx := context.Background()

	sub, err := svc.Listen(ctx, "lobby")
	require.NoError(t, err)
	defer sub.Close()

	sent, err := svc.Send(ctx, "lobby", "u1", "Alice", "  hello world  ")
	require.NoError(t, err)
	assert.NotEmpty(t, sent.ID)
	assert.Equal(t, "hello world", sent.Body)
	assert.Equal(t, "u1", sent.AuthorID)
	assert.Equal(t, "Alice", sent.AuthorName)
	assert.False(t, sent.SentAt.IsZero())

	select {
	case got := <-sub.Messages():
		assert.Equal(t, sent, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestSendMessageValidation(t *testing.T) {
	b := broker.NewMemory()
	defer b.Close()
	svc := &MessageService{Broker: b}
	ctx := context.Background()

	_, err := svc.Send(ctx, "lobby", "u1", "Alice", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = svc.Send(ctx, "", "u1", "Alice", "hi")
	assert.ErrorIs(t, err, ErrInvalidRoom)

	_, err = svc.Send(ctx, "lobby", "u1", "Alice", strings.Repeat("x", maxMessageLength+1))
	assert.ErrorIs(t, err, ErrMessageTooLong)

	_, err = svc.Listen(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidRoom)
}
