package execution

import (
	"context"
	"sync"
)

// Token is the cancellation context of one submission: a raised flag plus
// the abort handle of any in-flight backend call. A token is never cleared;
// every submission gets a fresh one.
type Token struct {
	mu     sync.RWMutex
	raised bool
	ctx    context.Context
	cancel context.CancelFunc
}

// NewToken creates a token whose context derives from parent.
func NewToken(parent context.Context) *Token {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Token{ctx: ctx, cancel: cancel}
}

// Raise sets the flag and aborts the token context. It returns false when the
// token was already raised.
func (t *Token) Raise() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.raised {
		return false
	}
	t.raised = true
	t.cancel()
	return true
}

// Raised reports whether cancellation was requested.
func (t *Token) Raised() bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.raised
}

// Context returns the context passed to backend calls.
func (t *Token) Context() context.Context {
	return WithToken(t.ctx, t)
}

// Release frees the context resources once the task is over.
func (t *Token) Release() {
	t.cancel()
}
