package event

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// Bus fans events out to subscribers. Publish never blocks: every subscriber
// owns an unbounded mailbox drained by its own goroutine, so each subscriber
// sees events in publish order and a slow one cannot stall the publisher.
type Bus[T any] struct {
	mu          sync.Mutex
	subscribers map[uint64]*Subscription[T]
	next        uint64
	closed      bool
	wg          conc.WaitGroup
	logger      zerolog.Logger
}

// NewBus creates a bus; handler panics are logged with logger.
func NewBus[T any](logger zerolog.Logger) *Bus[T] {
	return &Bus[T]{subscribers: map[uint64]*Subscription[T]{}, logger: logger}
}

// Subscribe registers handler. Events published after Subscribe returns are
// delivered to it in order.
func (b *Bus[T]) Subscribe(handler func(*Event[T])) *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	sub := &Subscription[T]{
		id:      b.next,
		bus:     b,
		handler: handler,
		done:    make(chan struct{}),
	}
	sub.cond = sync.NewCond(&sub.mu)
	if b.closed {
		sub.closed = true
		close(sub.done)
		return sub
	}
	b.subscribers[sub.id] = sub
	b.wg.Go(sub.run)
	return sub
}

// Publish enqueues event for every current subscriber.
func (b *Bus[T]) Publish(event *Event[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subscribers {
		sub.enqueue(event)
	}
}

// Len returns the number of active subscribers.
func (b *Bus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Close drains and stops every subscriber, then waits for their goroutines.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	b.closed = true
	subscribers := b.subscribers
	b.subscribers = map[uint64]*Subscription[T]{}
	b.mu.Unlock()
	for _, sub := range subscribers {
		sub.stop(true)
	}
	b.wg.Wait()
}

func (b *Bus[T]) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, id)
}

// Subscription is the handle returned by Subscribe.
type Subscription[T any] struct {
	id      uint64
	bus     *Bus[T]
	handler func(*Event[T])
	mu      sync.Mutex
	cond    *sync.Cond
	pending []*Event[T]
	closed  bool
	drain   bool
	done    chan struct{}
}

// Unsubscribe stops delivery immediately; pending events are dropped. It must
// not be called from the subscription's own handler.
func (s *Subscription[T]) Unsubscribe() {
	s.bus.remove(s.id)
	s.stop(false)
	<-s.done
}

// Close stops accepting events, delivers the pending ones and waits until
// the handler returned for the last time.
func (s *Subscription[T]) Close() {
	s.bus.remove(s.id)
	s.stop(true)
	<-s.done
}

// Done is closed once the subscription delivered its last event.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription[T]) enqueue(event *Event[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = append(s.pending, event)
	s.cond.Signal()
}

func (s *Subscription[T]) stop(drain bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.drain = drain
	if !drain {
		s.pending = nil
	}
	s.cond.Signal()
}

func (s *Subscription[T]) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.pending) == 0 || (s.closed && !s.drain) {
			s.mu.Unlock()
			return
		}
		event := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.mu.Unlock()
		s.deliver(event)
	}
}

func (s *Subscription[T]) deliver(event *Event[T]) {
	var catcher panics.Catcher
	catcher.Try(func() { s.handler(event) })
	if recovered := catcher.Recovered(); recovered != nil {
		s.bus.logger.Error().Err(recovered.AsError()).Uint64("subscriber", s.id).Msg("event handler panicked")
	}
}
