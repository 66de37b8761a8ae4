// Package broker provides room-scoped message fan-out. The process-local
// implementation serves single-node deployments and tests; the Redis
// implementation lets multiple nodes share rooms.
package broker

import (
	"context"
	"errors"

	"github.com/harborchat/harbor/internal/chat/domain"
)

// ErrClosed is returned by operations on a broker that has been shut down.
var ErrClosed = errors.New("broker: closed")

// Broker publishes chat messages to rooms and hands out subscriptions.
// Delivery is at-most-once to live subscribers; there is no replay.
type Broker interface {
	// Publish sends msg to every current subscriber of the room.
	Publish(ctx context.Context, room string, msg domain.Message) error

	// Subscribe returns a subscription streaming messages for the room.
	// The caller must Close the subscription when done.
	Subscribe(ctx context.Context, room string) (Subscription, error)

	// Close shuts the broker down and closes all open subscriptions.
	Close() error
}

// Subscription is a live feed of messages for a single room.
type Subscription interface {
	// Messages is closed when the subscription (or broker) is closed.
	Messages() <-chan domain.Message

	Close() error
}
