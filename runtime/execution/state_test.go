package execution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessState(t *testing.T) {
	testCases := []struct {
		state       ProcessState
		accepts     bool
		cancellable bool
	}{
		{state: StateIdle, accepts: true},
		{state: StateReceiving, cancellable: true},
		{state: StatePlanning, cancellable: true},
		{state: StateAwaitingExecution, cancellable: true},
		{state: StateExecuting, cancellable: true},
		{state: StateSynthesizing, cancellable: true},
		{state: StateDone, accepts: true},
		{state: StateCancelled, accepts: true},
		{state: StateError, accepts: true},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.accepts, testCase.state.AcceptsSubmission(), testCase.state)
		assert.Equal(t, testCase.cancellable, testCase.state.IsCancellable(), testCase.state)
	}
	assert.True(t, StatePlanning.CanTransition(StateAwaitingExecution))
	assert.False(t, StateDone.CanTransition(StateExecuting))
	assert.False(t, StateAwaitingExecution.CanTransition(StateError))
}

func TestToken(t *testing.T) {
	token := NewToken(context.Background())
	ctx := token.Context()
	assert.Same(t, token, TokenFrom(ctx))
	assert.False(t, token.Raised())
	assert.NoError(t, ctx.Err())

	assert.True(t, token.Raise())
	assert.False(t, token.Raise())
	assert.True(t, token.Raised())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	var missing *Token
	assert.False(t, missing.Raised())
	assert.Nil(t, TokenFrom(context.Background()))
}
