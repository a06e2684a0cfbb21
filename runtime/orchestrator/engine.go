package orchestrator

import (
	"context"
	"strconv"
	"time"

	"github.com/viant/cogniflow/model/cognitive"
	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/model/plan"
	"github.com/viant/cogniflow/runtime/execution"
	"github.com/viant/cogniflow/service/backend"
	"github.com/viant/cogniflow/tracing"
)

// execute walks the committed plan in ordinal order. Failures raised by the
// generative backend abort the plan; failures raised locally by a tool
// become the step's error result and the loop continues.
func (o *Orchestrator) execute(token *execution.Token, turnID string) {
	ctx, span := tracing.StartSpan(token.Context(), "orchestrator.execute", tracing.KindInternal)
	span.WithAttributes(map[string]string{"turn": turnID})
	var failure error
	defer func() { tracing.EndSpan(span, failure) }()

	for index := 0; ; index++ {
		if o.stepHook != nil {
			o.stepHook(index)
		}
		if token.Raised() {
			return
		}
		var step *plan.Step
		var snapshot *plan.Plan
		var done bool
		started := o.mutate(token, EventStep, turnID, func(model *conversation.Turn) {
			if index >= model.Plan.Len() {
				done = true
				return
			}
			current := model.Plan.Steps[index]
			if advanceErr := current.Advance(plan.StatusExecuting); advanceErr != nil {
				o.logger.Error().Err(advanceErr).Str("turn", turnID).Msg("step could not start")
				return
			}
			model.CurrentStep = current.Ordinal
			o.progress.Started()
			step = current.Clone()
			snapshot = model.Plan.Clone()
		})
		if !started {
			return
		}
		if done {
			break
		}
		if step == nil || step.Tool == plan.ToolFinalSynthesis {
			// completed by the synthesizer
			continue
		}

		result, vector, err := o.dispatch(ctx, step, snapshot)
		if err != nil {
			failure = err
			o.fail(token, turnID, stageExecuting, step, err)
			return
		}
		o.mutate(token, EventStep, turnID, func(model *conversation.Turn) {
			if vector != nil {
				o.vector = vector.Clone().Clamp()
			}
			current := model.Plan.Steps[index]
			current.Result = result
			status := plan.StatusComplete
			if result.Error != "" {
				status = plan.StatusError
			}
			_ = current.Advance(status)
			o.progress.Finished(status == plan.StatusError)
		})
	}

	if !o.mutate(token, EventState, turnID, func(model *conversation.Turn) {
		model.CurrentStep = 0
		model.State = conversation.StateSynthesizing
		o.setState(execution.StateSynthesizing)
	}) {
		return
	}
	o.synthesize(ctx, token, turnID)
}

// dispatch runs one step through the dispatch table. A local failure is
// returned as an error result with a nil error; the vector is set by context
// modulation.
func (o *Orchestrator) dispatch(ctx context.Context, step *plan.Step, snapshot *plan.Plan) (*plan.Result, *cognitive.Vector, error) {
	ctx, span := tracing.StartSpan(ctx, "orchestrator.step", tracing.KindClient)
	span.WithAttributes(map[string]string{"tool": string(step.Tool), "description": step.Description}).
		WithInt("ordinal", step.Ordinal)
	started := time.Now()
	outcome, err := o.executor.Execute(ctx, step, snapshot)
	tracing.EndSpan(span, err)

	status := string(plan.StatusComplete)
	if err != nil {
		status = string(plan.StatusError)
	}
	o.metrics.Step(string(step.Tool), status, time.Since(started))

	if err != nil {
		if backend.IsBackendError(err) {
			return nil, nil, err
		}
		o.logger.Warn().Err(err).Str("stage", stageExecuting).Int("step", step.Ordinal).
			Str("description", step.Description).Msg("step failed locally, continuing")
		return &plan.Result{Error: err.Error()}, nil, nil
	}
	result := outcome.Result
	if result == nil {
		result = &plan.Result{}
	}
	return result, outcome.Context, nil
}

// resultContext renders completed step results in ordinal order.
func resultContext(p *plan.Plan) []string {
	var ret []string
	for _, step := range p.Steps {
		if step.Tool == plan.ToolFinalSynthesis || step.Result == nil {
			continue
		}
		ret = append(ret, "["+strconv.Itoa(step.Ordinal)+"] "+step.Description+": "+step.Result.Summary())
	}
	return ret
}
