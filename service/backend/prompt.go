package backend

import (
	"fmt"
	"strings"
)

const planInstruction = `You are the planner of a cognitive task orchestrator.
Break the user request into a short, flat, sequential plan. Use only these tools:
- web_search: look up current facts; set "query".
- sandboxed_code: compute something with JavaScript; set "code" to a function body ending with a return statement.
- context_modulation: shift the tone of the final answer; set "concept".
- image_synthesis: create a synthetic image descriptor; set "concept".
- image_analysis: describe the image produced by an earlier image_synthesis step; set "source_step" to its ordinal.
- final_synthesis: write the final answer; no extra fields.
Number steps from 1 without gaps and finish with a final_synthesis step.
Respond with JSON only.`

const searchInstruction = `You are a web search tool. Answer the query with a concise factual summary
and list the sources you relied on as citations with a title and an absolute uri.
Respond with JSON only.`

const modulationInstruction = `You map a concept to a cognitive context vector used to adjust the tone of a
later answer. valence and temporality range from -1 to 1; arousal, dominance,
novelty and complexity range from 0 to 1. Respond with JSON only.`

const imageInstruction = `You assess a synthetic image rendered for a concept. Score fidelity,
coherence, novelty and aesthetics between 0 and 1. Respond with JSON only.`

const synthesisInstruction = `You write the final answer of a cognitive task orchestrator. Use the
step results as the factual basis of the answer.`

func planPrompt(request *PlanRequest) string {
	builder := strings.Builder{}
	if request.History != "" {
		builder.WriteString("Conversation so far:\n")
		builder.WriteString(request.History)
		builder.WriteString("\n\n")
	}
	if request.Attachment != nil {
		builder.WriteString("The user attached an image.\n")
	}
	builder.WriteString("Request: ")
	builder.WriteString(request.Query)
	return builder.String()
}

// SchemaInstruction appends schema to a system instruction for providers
// without native structured output.
func SchemaInstruction(system string, schema *Schema) string {
	if schema == nil {
		return system
	}
	return fmt.Sprintf("%s\nThe JSON must match this schema:\n%s", system, schema.Definition)
}
