package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/cogniflow/internal/clock"
	"github.com/viant/cogniflow/model/plan"
)

// Delta is an incremental counter change; fields may be negative.
type Delta struct {
	Total     int
	Completed int
	Failed    int
	Running   int
	Pending   int
}

// Progress aggregates step counters of a single plan. It is safe for
// concurrent use.
type Progress struct {
	PlanID    string    `json:"planId,omitempty"`
	StartedAt time.Time `json:"startedAt"`

	TotalSteps     int `json:"totalSteps"`
	CompletedSteps int `json:"completedSteps"`
	FailedSteps    int `json:"failedSteps"`
	RunningSteps   int `json:"runningSteps"`
	PendingSteps   int `json:"pendingSteps"`

	mu       sync.Mutex
	onChange func(Counters)
}

// Counters is the value copy of the tracker published in snapshots.
type Counters struct {
	PlanID    string `json:"planId,omitempty"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Running   int    `json:"running"`
	Pending   int    `json:"pending"`
}

// New creates a tracker for p with every step counted as pending or, for
// steps that already finished, as completed or failed.
func New(p *plan.Plan, onChange func(Counters)) *Progress {
	ret := &Progress{StartedAt: clock.Now(), onChange: onChange}
	if p == nil {
		return ret
	}
	ret.PlanID = p.ID
	ret.TotalSteps = p.Len()
	for _, step := range p.Steps {
		switch step.Status {
		case plan.StatusComplete:
			ret.CompletedSteps++
		case plan.StatusError:
			ret.FailedSteps++
		case plan.StatusExecuting:
			ret.RunningSteps++
		default:
			ret.PendingSteps++
		}
	}
	return ret
}

// Update applies d; the change callback runs outside the lock with a copy.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.TotalSteps += d.Total
	p.CompletedSteps += d.Completed
	p.FailedSteps += d.Failed
	p.RunningSteps += d.Running
	p.PendingSteps += d.Pending
	snapshot := p.counters()
	cb := p.onChange
	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Started moves one step from pending to running.
func (p *Progress) Started() {
	p.Update(Delta{Pending: -1, Running: 1})
}

// Finished moves one running step to completed or failed.
func (p *Progress) Finished(failed bool) {
	if failed {
		p.Update(Delta{Running: -1, Failed: 1})
		return
	}
	p.Update(Delta{Running: -1, Completed: 1})
}

// Counters returns the current counters.
func (p *Progress) Counters() Counters {
	if p == nil {
		return Counters{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters()
}

func (p *Progress) counters() Counters {
	return Counters{
		PlanID:    p.PlanID,
		Total:     p.TotalSteps,
		Completed: p.CompletedSteps,
		Failed:    p.FailedSteps,
		Running:   p.RunningSteps,
		Pending:   p.PendingSteps,
	}
}

// Done reports whether no step is pending or running.
func (c Counters) Done() bool {
	return c.Total > 0 && c.Pending == 0 && c.Running == 0
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker embeds tracker in ctx.
func WithTracker(ctx context.Context, tracker *Progress) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tracker)
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// UpdateCtx applies d to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
