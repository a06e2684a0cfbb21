package orchestrator

import (
	"context"
	"fmt"

	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/model/plan"
	"github.com/viant/cogniflow/progress"
	"github.com/viant/cogniflow/runtime/execution"
)

// UpdatePlanStep replaces the step at index (0-based) with a step running
// params. The parameters are validated for their tool kind and the
// description is regenerated.
func (o *Orchestrator) UpdatePlanStep(turnID string, index int, params plan.Params) error {
	return o.edit(turnID, func(p *plan.Plan) error {
		return p.Replace(index, params)
	})
}

// ReorderPlan swaps the steps at from and to (0-based) and renumbers.
func (o *Orchestrator) ReorderPlan(turnID string, from, to int) error {
	return o.edit(turnID, func(p *plan.Plan) error {
		return p.Move(from, to)
	})
}

// AddPlanStep appends the default step.
func (o *Orchestrator) AddPlanStep(turnID string) error {
	return o.edit(turnID, func(p *plan.Plan) error {
		p.Append()
		return nil
	})
}

// DeletePlanStep removes the step at index (0-based); removing the only step
// is a no-op.
func (o *Orchestrator) DeletePlanStep(turnID string, index int) error {
	return o.edit(turnID, func(p *plan.Plan) error {
		_, err := p.Remove(index)
		return err
	})
}

// ExecutePlan commits the plan of turnID and starts the engine. It is a no-op
// when the plan is already finalized or no plan is attached; the returned
// Wait then follows the running task, if any.
func (o *Orchestrator) ExecutePlan(ctx context.Context, turnID string) (Wait, error) {
	o.mu.Lock()
	model, err := o.modelTurn(turnID)
	if err != nil {
		o.mu.Unlock()
		return nil, err
	}
	if model.Plan == nil || model.Finalized {
		t := o.task
		o.mu.Unlock()
		return o.waiter(t), nil
	}
	token := o.token
	if err := o.commitLocked(token, model, "operator"); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	t := o.start(token, turnID, func() {
		o.execute(token, turnID)
	})
	planID := model.Plan.ID
	o.mu.Unlock()

	o.decide(ctx, planID, true, "committed by operator")
	return o.waiter(t), nil
}

// commit finalizes the plan from the task goroutine.
func (o *Orchestrator) commit(token *execution.Token, turnID, by string) error {
	o.mu.Lock()
	model, err := o.modelTurn(turnID)
	if err == nil {
		if token.Raised() || token != o.token {
			err = ErrCancelled
		} else {
			err = o.commitLocked(token, model, by)
		}
	}
	var planID string
	if err == nil {
		planID = model.Plan.ID
	}
	o.mu.Unlock()
	if err != nil {
		return err
	}
	o.decide(context.Background(), planID, true, "committed by "+by)
	return nil
}

// commitLocked checks the plan invariants and the policy, then finalizes it
// and enters Executing; o.mu must be held.
func (o *Orchestrator) commitLocked(token *execution.Token, model *conversation.Turn, by string) error {
	if model.State != conversation.StateAwaiting || o.state != execution.StateAwaitingExecution || token != o.token {
		return fmt.Errorf("%w: turn %s is %s", ErrNotAwaiting, model.ID, model.State)
	}
	if err := model.Plan.Validate(); err != nil {
		return err
	}
	if err := o.policy.Check(model.Plan); err != nil {
		return err
	}
	model.Finalized = true
	model.Plan.Finalized = true
	model.State = conversation.StateExecuting
	o.progress = progress.New(model.Plan, nil)
	o.setState(execution.StateExecuting)
	o.logger.Debug().Str("turn", model.ID).Str("plan", model.Plan.ID).Str("by", by).Msg("plan committed")
	o.publish(EventState, model.ID)
	return nil
}

// edit applies fn to the unfinalized plan of turnID; o.mu is held throughout.
func (o *Orchestrator) edit(turnID string, fn func(p *plan.Plan) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	model, err := o.modelTurn(turnID)
	if err != nil {
		return err
	}
	switch {
	case model.Plan == nil:
		return fmt.Errorf("%w: turn %s", ErrNoPlan, model.ID)
	case model.Finalized:
		return fmt.Errorf("%w: turn %s", ErrPlanFinalized, model.ID)
	case model.State != conversation.StateAwaiting:
		return fmt.Errorf("%w: turn %s is %s", ErrNotAwaiting, model.ID, model.State)
	}
	if err := fn(model.Plan); err != nil {
		return err
	}
	o.publish(EventPlanEdit, model.ID)
	return nil
}

// modelTurn resolves turnID, a user or model turn ID, to its model turn.
func (o *Orchestrator) modelTurn(turnID string) (*conversation.Turn, error) {
	_, model, ok := o.ledger.Pair(turnID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTurnNotFound, turnID)
	}
	return model, nil
}
