package orchestrator

import (
	"github.com/viant/cogniflow/model/cognitive"
	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/progress"
	"github.com/viant/cogniflow/runtime/execution"
	"github.com/viant/cogniflow/service/event"
)

// Event types stamped on published snapshots.
const (
	EventState     = "state"
	EventSubmitted = "submitted"
	EventPlan      = "plan"
	EventPlanEdit  = "plan.edit"
	EventStep      = "step"
	EventChunk     = "chunk"
	EventDone      = "done"
	EventError     = "error"
	EventCancelled = "cancelled"
	EventArchived  = "archived"
	EventReset     = "reset"
)

// Snapshot is the full orchestrator state pushed to observers after every
// mutation.
type Snapshot struct {
	Seq      uint64                 `json:"seq"`
	State    execution.ProcessState `json:"state"`
	Turns    []*conversation.Turn   `json:"turns"`
	Context  *cognitive.Vector      `json:"context,omitempty"`
	Progress progress.Counters      `json:"progress"`
}

// Subscribe registers handler for every snapshot published from now on.
func (o *Orchestrator) Subscribe(handler func(*event.Event[*Snapshot])) *event.Subscription[*Snapshot] {
	return o.bus.Subscribe(handler)
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() *Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot()
}

func (o *Orchestrator) snapshot() *Snapshot {
	return &Snapshot{
		Seq:      o.seq,
		State:    o.state,
		Turns:    o.ledger.Clone().Turns,
		Context:  o.vector.Clone(),
		Progress: o.progress.Counters(),
	}
}

// publish must be called with o.mu held so sequence numbers follow mutation order.
func (o *Orchestrator) publish(eventType, turnID string) {
	o.seq++
	snapshot := o.snapshot()
	o.bus.Publish(event.NewEvent(&event.Context{
		SessionID: o.id,
		TurnID:    turnID,
		EventType: eventType,
		Seq:       o.seq,
	}, snapshot))
}
