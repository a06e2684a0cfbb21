package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/viant/cogniflow/internal/clock"
	"github.com/viant/cogniflow/internal/idgen"
	"github.com/viant/cogniflow/service/messaging"
)

// ErrProcessed is returned when a message is acknowledged twice.
var ErrProcessed = errors.New("message already processed")

// Config for memory queue implementation
type Config struct {
	MaxRetries  int
	RetryDelay  time.Duration
	DeadLetter  bool
	QueueBuffer int
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		DeadLetter:  true,
		QueueBuffer: 256,
	}
}

// Message is a payload delivered by Queue.
type Message[T any] struct {
	id        string
	payload   T
	queue     *Queue[T]
	attempt   int
	failure   error
	mu        sync.Mutex
	processed bool
	createdAt time.Time
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

// ID returns the message identifier shared by every delivery attempt.
func (m *Message[T]) ID() string {
	return m.id
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	return m.settle(nil, false)
}

// Nack schedules redelivery until MaxRetries is exceeded, then moves the
// message to the dead letter list when enabled.
func (m *Message[T]) Nack(err error) error {
	return m.settle(err, true)
}

func (m *Message[T]) settle(err error, failed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return ErrProcessed
	}
	m.processed = true
	if !failed {
		return nil
	}
	m.failure = err
	queue := m.queue
	if m.attempt < queue.config.MaxRetries {
		retry := &Message[T]{id: m.id, payload: m.payload, queue: queue, attempt: m.attempt + 1, createdAt: clock.Now()}
		time.AfterFunc(queue.config.RetryDelay, func() {
			queue.messages <- retry
		})
		return nil
	}
	if queue.config.DeadLetter {
		queue.dlqMu.Lock()
		queue.dlq = append(queue.dlq, m)
		queue.dlqMu.Unlock()
	}
	return nil
}

// Queue implements an in-memory messaging.Queue
type Queue[T any] struct {
	messages chan *Message[T]
	dlq      []*Message[T]
	config   Config
	dlqMu    sync.Mutex
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		config:   config,
	}
}

// Publish adds a copy of t to the queue, blocking while the buffer is full.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &Message[T]{id: idgen.New(), payload: *t, queue: q, createdAt: clock.Now()}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume retrieves a single item from the queue
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DeadLetters returns the payloads that exhausted their retries.
func (q *Queue[T]) DeadLetters() []T {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	ret := make([]T, 0, len(q.dlq))
	for _, msg := range q.dlq {
		ret = append(ret, msg.payload)
	}
	return ret
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
