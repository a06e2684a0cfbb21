package messaging

import (
	"context"
	"errors"
)

// Queue carries snapshots and approval events between the orchestrator and
// its consumers.
type Queue[T any] interface {
	Publish(ctx context.Context, t *T) error

	// Consume blocks until a message is available or ctx is done.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is one delivery attempt; exactly one of Ack or Nack settles it.
type Message[T any] interface {
	// ID is shared by every redelivery of the same payload.
	ID() string

	T() *T

	Ack() error

	// Nack requests redelivery; implementations may dead-letter the payload
	// once their retry limit is reached.
	Nack(err error) error
}

// Handle consumes one message and passes its payload to fn, acknowledging it
// when fn succeeds and requesting redelivery otherwise.
func Handle[T any](ctx context.Context, queue Queue[T], fn func(*T) error) error {
	msg, err := queue.Consume(ctx)
	if err != nil || msg == nil {
		return err
	}
	if err = fn(msg.T()); err != nil {
		return errors.Join(err, msg.Nack(err))
	}
	return msg.Ack()
}
