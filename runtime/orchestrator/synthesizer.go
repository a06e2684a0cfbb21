package orchestrator

import (
	"context"
	"errors"
	"strings"

	"github.com/viant/cogniflow/model/cognitive"
	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/model/plan"
	"github.com/viant/cogniflow/runtime/execution"
	"github.com/viant/cogniflow/service/backend"
	"github.com/viant/cogniflow/tracing"
)

// EmptySynthesisPlaceholder replaces an answer stream that produced no text.
const EmptySynthesisPlaceholder = "The synthesis returned no text. Review the step results above or resubmit the query."

// synthesize streams the final answer into the model turn, one snapshot per
// chunk. A raised token stops accumulation and leaves the partial text.
func (o *Orchestrator) synthesize(ctx context.Context, token *execution.Token, turnID string) {
	request, ok := o.synthesisRequest(token, turnID)
	if !ok {
		return
	}
	ctx, span := tracing.StartSpan(ctx, "orchestrator.synthesize", tracing.KindClient)
	chunks := 0
	err := o.backend.Synthesize(ctx, request, func(chunk string) error {
		if !o.mutate(token, EventChunk, turnID, func(model *conversation.Turn) {
			model.Text += chunk
		}) {
			return ErrCancelled
		}
		chunks++
		o.metrics.Chunk()
		return nil
	})
	span.WithInt("chunks", chunks)
	if errors.Is(err, ErrCancelled) || token.Raised() {
		tracing.EndSpan(span, nil)
		return
	}
	tracing.EndSpan(span, err)
	if err != nil {
		o.fail(token, turnID, stageSynthesizing, nil, err)
		return
	}

	o.mutate(token, EventDone, turnID, func(model *conversation.Turn) {
		if strings.TrimSpace(model.Text) == "" {
			o.logger.Warn().Str("turn", turnID).Msg("synthesis returned no text")
			model.Text = EmptySynthesisPlaceholder
		}
		model.Citations = citations(model.Plan)
		if !o.vector.IsEmpty() {
			model.Context = o.vector.Clone()
		}
		for _, step := range model.Plan.Steps {
			if step.Tool == plan.ToolFinalSynthesis && step.Status == plan.StatusExecuting {
				step.Result = &plan.Result{Text: model.Text}
				_ = step.Advance(plan.StatusComplete)
				o.progress.Finished(false)
			}
		}
		model.State = conversation.StateDone
		o.setState(execution.StateDone)
	})
}

func (o *Orchestrator) synthesisRequest(token *execution.Token, turnID string) (*backend.SynthesisRequest, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if token.Raised() {
		return nil, false
	}
	user, model, ok := o.ledger.Pair(turnID)
	if !ok {
		return nil, false
	}
	prompt := synthesisPrompt(model.Query, o.ledger.History(turnID, o.historyTurns), resultContext(model.Plan), o.vector)
	return &backend.SynthesisRequest{Prompt: prompt, Attachment: user.Attachment}, true
}

func synthesisPrompt(query, history string, results []string, vector *cognitive.Vector) string {
	builder := strings.Builder{}
	if history != "" {
		builder.WriteString("Conversation so far:\n")
		builder.WriteString(history)
		builder.WriteString("\n\n")
	}
	builder.WriteString("Question: ")
	builder.WriteString(query)
	builder.WriteString("\n\nStep results:\n")
	if len(results) == 0 {
		builder.WriteString("(no step results)\n")
	}
	for _, result := range results {
		builder.WriteString(result)
		builder.WriteByte('\n')
	}
	if instruction := vector.Instruction(); instruction != "" {
		builder.WriteByte('\n')
		builder.WriteString(instruction)
	}
	return builder.String()
}

// citations returns the search citations of p deduplicated by URI, in step order.
func citations(p *plan.Plan) []plan.Citation {
	var ret []plan.Citation
	seen := map[string]bool{}
	for _, step := range p.Steps {
		if step.Tool != plan.ToolWebSearch || step.Result == nil {
			continue
		}
		for _, citation := range step.Result.Citations {
			if seen[citation.URI] {
				continue
			}
			seen[citation.URI] = true
			ret = append(ret, citation)
		}
	}
	return ret
}
