package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/model/plan"
	"github.com/viant/cogniflow/runtime/orchestrator"
	"github.com/viant/cogniflow/service/event"
)

// renderer prints snapshot deltas: the plan once attached, each finished
// step, and answer chunks as they stream.
type renderer struct {
	out     io.Writer
	mu      sync.Mutex
	cond    *sync.Cond
	seq     uint64
	turnID  string
	printed int
	steps   map[int]plan.Status
	planned bool
}

func newRenderer(out io.Writer) *renderer {
	ret := &renderer{out: out, steps: map[int]plan.Status{}}
	ret.cond = sync.NewCond(&ret.mu)
	return ret
}

func (r *renderer) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func (r *renderer) render(e *event.Event[*orchestrator.Snapshot]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.cond.Broadcast()
	snapshot := e.Data
	if snapshot.Seq > r.seq {
		r.seq = snapshot.Seq
	}
	if len(snapshot.Turns) == 0 {
		return
	}
	model := snapshot.Turns[len(snapshot.Turns)-1]
	if model.Role != conversation.RoleModel {
		return
	}
	if model.ID != r.turnID {
		r.turnID, r.printed, r.planned = model.ID, 0, false
		r.steps = map[int]plan.Status{}
	}
	if model.Plan != nil && !r.planned {
		r.planned = true
		r.printf("Plan (%d steps):\n", model.Plan.Len())
		for _, step := range model.Plan.Steps {
			r.printf("  %d. [%s] %s\n", step.Ordinal, step.Tool, step.Description)
		}
	}
	if model.Plan != nil && model.Finalized {
		r.renderSteps(model.Plan)
	}
	switch e.Context.EventType {
	case orchestrator.EventChunk, orchestrator.EventDone, orchestrator.EventError, orchestrator.EventCancelled:
		if len(model.Text) > r.printed {
			r.printf("%s", model.Text[r.printed:])
			r.printed = len(model.Text)
		}
	}
	switch e.Context.EventType {
	case orchestrator.EventDone:
		r.printf("\n")
		for i, citation := range model.Citations {
			r.printf("[%d] %s %s\n", i+1, citation.Title, citation.URI)
		}
	case orchestrator.EventError, orchestrator.EventCancelled:
		r.printf("\n")
	}
}

func (r *renderer) renderSteps(p *plan.Plan) {
	for _, step := range p.Steps {
		if !step.Status.IsFinal() || r.steps[step.Ordinal] == step.Status {
			continue
		}
		r.steps[step.Ordinal] = step.Status
		if step.Tool == plan.ToolFinalSynthesis {
			continue
		}
		mark := "ok"
		detail := ""
		if step.Status == plan.StatusError {
			mark = "failed"
			if step.Result != nil {
				detail = ": " + step.Result.Error
			}
		}
		r.printf("  step %d %s%s\n", step.Ordinal, mark, detail)
	}
}

// waitFor blocks until the snapshot with seq was rendered or timeout elapsed.
func (r *renderer) waitFor(seq uint64, timeout time.Duration) {
	timer := time.AfterFunc(timeout, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.cond.Broadcast()
	})
	defer timer.Stop()
	deadline := time.Now().Add(timeout)
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.seq < seq && time.Now().Before(deadline) {
		r.cond.Wait()
	}
}
