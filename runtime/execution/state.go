package execution

// ProcessState represents the state of the single-flight orchestrator
type ProcessState string

const (
	StateIdle              ProcessState = "idle"
	StateReceiving         ProcessState = "receiving"
	StatePlanning          ProcessState = "planning"
	StateAwaitingExecution ProcessState = "awaitingExecution"
	StateExecuting         ProcessState = "executing"
	StateSynthesizing      ProcessState = "synthesizing"
	StateDone              ProcessState = "done"
	StateCancelled         ProcessState = "cancelled"
	StateError             ProcessState = "error"
)

// AcceptsSubmission reports whether a new query can be submitted.
func (s ProcessState) AcceptsSubmission() bool {
	return s == StateIdle || s.IsTerminal()
}

// IsTerminal reports whether the last task finished.
func (s ProcessState) IsTerminal() bool {
	switch s {
	case StateDone, StateCancelled, StateError:
		return true
	}
	return false
}

// IsCancellable reports whether cancel has anything to stop.
func (s ProcessState) IsCancellable() bool {
	return s != StateIdle && !s.IsTerminal()
}

// IsBusy reports whether a task is in flight. AwaitingExecution is not busy:
// the task ended and the plan waits for the operator.
func (s ProcessState) IsBusy() bool {
	switch s {
	case StateReceiving, StatePlanning, StateExecuting, StateSynthesizing:
		return true
	}
	return false
}

var transitions = map[ProcessState][]ProcessState{
	StateIdle:              {StateReceiving},
	StateReceiving:         {StatePlanning, StateCancelled, StateError},
	StatePlanning:          {StateAwaitingExecution, StateCancelled, StateError},
	StateAwaitingExecution: {StateExecuting, StateCancelled},
	StateExecuting:         {StateSynthesizing, StateCancelled, StateError},
	StateSynthesizing:      {StateDone, StateCancelled, StateError},
	StateDone:              {StateReceiving},
	StateCancelled:         {StateReceiving},
	StateError:             {StateReceiving},
}

// CanTransition reports whether next is a legal successor of s.
func (s ProcessState) CanTransition(next ProcessState) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}
