package event

import (
	"context"

	"github.com/viant/cogniflow/internal/clock"
	"github.com/viant/cogniflow/service/messaging"
)

type Publisher[T any] struct {
	queue messaging.Queue[Event[T]]
}

func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{
		queue: queue,
	}
}

func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = clock.Now()
	}
	return p.queue.Publish(ctx, event)
}

// Consume returns the next event, acknowledging its delivery.
func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	var ret *Event[T]
	err := messaging.Handle(ctx, p.queue, func(event *Event[T]) error {
		ret = event
		return nil
	})
	return ret, err
}

// QueueSink returns a bus handler forwarding events to publisher.
func QueueSink[T any](ctx context.Context, publisher *Publisher[T], onError func(error)) func(*Event[T]) {
	return func(event *Event[T]) {
		if err := publisher.Publish(ctx, event); err != nil && onError != nil {
			onError(err)
		}
	}
}
