package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/cogniflow/service/messaging"
)

type snapshot struct {
	Seq   int
	State string
}

func TestQueue_PublishConsume(t *testing.T) {
	queue := NewQueue[snapshot](DefaultConfig())
	ctx := context.Background()
	payload := snapshot{Seq: 1, State: "planning"}

	require.NoError(t, queue.Publish(ctx, &payload))
	payload.State = "mutated"
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, snapshot{Seq: 1, State: "planning"}, *message.T())

	assert.NoError(t, message.Ack())
	assert.ErrorIs(t, message.Ack(), ErrProcessed)
	assert.ErrorIs(t, message.Nack(nil), ErrProcessed)
}

func TestHandle(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 1
	config.RetryDelay = time.Millisecond
	queue := NewQueue[snapshot](config)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, queue.Publish(ctx, &snapshot{Seq: 3, State: "executing"}))
	failure := errors.New("render failed")
	err := messaging.Handle(ctx, queue, func(s *snapshot) error { return failure })
	assert.ErrorIs(t, err, failure)

	var received *snapshot
	err = messaging.Handle(ctx, queue, func(s *snapshot) error {
		received = s
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, received)
	assert.Equal(t, 3, received.Seq)
	assert.Empty(t, queue.DeadLetters())
}

func TestQueue_Retries(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 2
	config.RetryDelay = 5 * time.Millisecond
	queue := NewQueue[snapshot](config)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, queue.Publish(ctx, &snapshot{Seq: 7}))
	var ids []string
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		message, err := queue.Consume(ctx)
		require.NoError(t, err, fmt.Sprintf("attempt %d", attempt))
		ids = append(ids, message.ID())
		require.NoError(t, message.Nack(errors.New("handler failed")))
	}
	assert.Equal(t, ids[0], ids[len(ids)-1])

	require.Eventually(t, func() bool { return len(queue.DeadLetters()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 7, queue.DeadLetters()[0].Seq)
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_Concurrency(t *testing.T) {
	queue := NewQueue[snapshot](DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	producers, perProducer := 8, 25

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				assert.NoError(t, queue.Publish(ctx, &snapshot{Seq: p*perProducer + i}))
			}
		}(p)
	}

	seen := map[int]bool{}
	for len(seen) < producers*perProducer {
		message, err := queue.Consume(ctx)
		require.NoError(t, err)
		require.NoError(t, message.Ack())
		seen[message.T().Seq] = true
	}
	wg.Wait()
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_ContextCancellation(t *testing.T) {
	queue := NewQueue[snapshot](DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, queue.Publish(ctx, &snapshot{}), context.Canceled)

	timeout, cancelTimeout := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelTimeout()
	_, err := queue.Consume(timeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, queue.Publish(context.Background(), &snapshot{Seq: 1}))
	message, err := queue.Consume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, message.T().Seq)
}
