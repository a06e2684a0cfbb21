package plan

import (
	"fmt"

	"github.com/viant/cogniflow/internal/idgen"
)

// Plan is an ordered list of steps. Ordinals are always 1..N in list order.
type Plan struct {
	ID        string      `json:"id"`
	Steps     []*Step     `json:"steps"`
	Finalized bool        `json:"finalized"`
	Revisions []*Revision `json:"revisions,omitempty"`
}

// New creates a plan from steps, renumbering them.
func New(steps ...*Step) *Plan {
	ret := &Plan{ID: idgen.Prefixed("plan"), Steps: steps}
	ret.Renumber()
	return ret
}

// Len returns the number of steps.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Steps)
}

// Renumber assigns ordinals 1..N in list order.
func (p *Plan) Renumber() {
	for i, step := range p.Steps {
		step.Ordinal = i + 1
	}
}

// Step returns the step with the supplied 1-based ordinal.
func (p *Plan) Step(ordinal int) (*Step, bool) {
	if p == nil || ordinal < 1 || ordinal > len(p.Steps) {
		return nil, false
	}
	return p.Steps[ordinal-1], true
}

// Replace swaps the step at index (0-based) for a step built from params.
// The parameters are validated and the description is regenerated.
func (p *Plan) Replace(index int, params Params) error {
	if err := p.checkIndex(index); err != nil {
		return err
	}
	if params == nil {
		return &ValidationError{Ordinal: index + 1, Field: "tool", Reason: "missing parameters"}
	}
	if err := params.Validate(); err != nil {
		if validationErr, ok := err.(*ValidationError); ok {
			validationErr.Ordinal = index + 1
		}
		return err
	}
	before := p.snapshot()
	step := NewStep(params)
	step.Ordinal = index + 1
	p.Steps[index] = step
	p.record("replace", before)
	return nil
}

// Move exchanges the steps at from and to (0-based) and renumbers.
func (p *Plan) Move(from, to int) error {
	if err := p.checkIndex(from); err != nil {
		return err
	}
	if err := p.checkIndex(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	before := p.snapshot()
	p.Steps[from], p.Steps[to] = p.Steps[to], p.Steps[from]
	p.Renumber()
	p.record("move", before)
	return nil
}

// Append adds the default step at the end.
func (p *Plan) Append() *Step {
	before := p.snapshot()
	step := DefaultStep()
	p.Steps = append(p.Steps, step)
	p.Renumber()
	p.record("add", before)
	return step
}

// Remove deletes the step at index (0-based). Removing the only remaining
// step is ignored and reported as false.
func (p *Plan) Remove(index int) (bool, error) {
	if err := p.checkIndex(index); err != nil {
		return false, err
	}
	if len(p.Steps) == 1 {
		return false, nil
	}
	before := p.snapshot()
	p.Steps = append(p.Steps[:index], p.Steps[index+1:]...)
	p.Renumber()
	p.record("delete", before)
	return true, nil
}

// Validate checks the structural invariants required before execution.
func (p *Plan) Validate() error {
	if p.Len() == 0 {
		return ErrEmptyPlan
	}
	for i, step := range p.Steps {
		if step == nil {
			return &ValidationError{Ordinal: i + 1, Field: "step", Reason: "missing step"}
		}
		if step.Ordinal != i+1 {
			return &ValidationError{Ordinal: i + 1, Field: "ordinal", Reason: fmt.Sprintf("expected ordinal %d, got %d", i+1, step.Ordinal)}
		}
		if err := step.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	ret := *p
	ret.Steps = make([]*Step, len(p.Steps))
	for i, step := range p.Steps {
		ret.Steps[i] = step.Clone()
	}
	ret.Revisions = append([]*Revision(nil), p.Revisions...)
	return &ret
}

// Tools returns the distinct tool kinds used by the plan in step order.
func (p *Plan) Tools() []ToolKind {
	var ret []ToolKind
	seen := map[ToolKind]bool{}
	for _, step := range p.Steps {
		if seen[step.Tool] {
			continue
		}
		seen[step.Tool] = true
		ret = append(ret, step.Tool)
	}
	return ret
}

func (p *Plan) checkIndex(index int) error {
	if index < 0 || index >= len(p.Steps) {
		return fmt.Errorf("%w: %d (steps: %d)", ErrIndexOutOfRange, index, len(p.Steps))
	}
	return nil
}

func (p *Plan) snapshot() string {
	return Render(p)
}

func (p *Plan) record(operation, before string) {
	if revision := NewRevision(operation, before, Render(p)); revision != nil {
		p.Revisions = append(p.Revisions, revision)
	}
}
