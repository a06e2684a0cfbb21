package orchestrator

import (
	"context"
	"encoding/json"

	"github.com/viant/cogniflow/internal/clock"
	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/model/plan"
	"github.com/viant/cogniflow/runtime/execution"
	"github.com/viant/cogniflow/service/approval"
	"github.com/viant/cogniflow/service/backend"
	"github.com/viant/cogniflow/tracing"
)

const (
	stagePlanning     = "planning"
	stageExecuting    = "executing"
	stageSynthesizing = "synthesizing"
)

// plan runs on the task goroutine: one structured generation request whose
// result is discarded when the token was raised meanwhile.
func (o *Orchestrator) plan(token *execution.Token, turnID string, request *backend.PlanRequest) {
	ctx, span := tracing.StartSpan(token.Context(), "orchestrator.plan", tracing.KindClient)
	span.WithAttributes(map[string]string{"turn": turnID})
	steps, err := o.backend.Plan(ctx, request)
	var p *plan.Plan
	if err == nil {
		p, err = newPlan(steps)
	}
	if err == nil {
		err = o.policy.Check(p)
	}
	tracing.EndSpan(span, err)
	if token.Raised() {
		return
	}
	if err != nil {
		o.fail(token, turnID, stagePlanning, nil, err)
		return
	}

	attached := o.mutate(token, EventPlan, turnID, func(model *conversation.Turn) {
		model.Plan = p
		model.State = conversation.StateAwaiting
		o.setState(execution.StateAwaitingExecution)
		o.requestApproval(ctx, turnID, p)
	})
	if !attached {
		return
	}
	o.metrics.PlanAttached(p.Len())
	o.logger.Debug().Str("turn", turnID).Str("plan", p.ID).Int("steps", p.Len()).Msg("plan attached")

	if o.policy.AutoExecute() {
		if err := o.commit(token, turnID, "auto"); err != nil {
			o.logger.Warn().Err(err).Str("turn", turnID).Msg("auto execution skipped")
			return
		}
		o.execute(token, turnID)
	}
}

// newPlan builds a plan from backend steps, resetting them to pending.
func newPlan(steps []*plan.Step) (*plan.Plan, error) {
	for _, step := range steps {
		if step == nil {
			continue
		}
		step.Status = plan.StatusPending
		step.Result = nil
	}
	ret := plan.New(steps...)
	if err := ret.Validate(); err != nil {
		return nil, &backend.PlanParseError{Err: err}
	}
	return ret, nil
}

func (o *Orchestrator) requestApproval(ctx context.Context, turnID string, p *plan.Plan) {
	args, _ := json.Marshal(p.Steps)
	tools := make([]string, 0, len(p.Steps))
	for _, tool := range p.Tools() {
		tools = append(tools, string(tool))
	}
	request := &approval.Request{
		ID:        p.ID,
		TurnID:    turnID,
		Action:    approval.ActionExecutePlan,
		Tools:     tools,
		Args:      args,
		CreatedAt: clock.Now(),
		Meta:      map[string]interface{}{"mode": o.policy.Mode()},
	}
	if err := o.approvals.RequestApproval(ctx, request); err != nil {
		o.logger.Warn().Err(err).Str("plan", p.ID).Msg("failed to record plan review request")
	}
}
