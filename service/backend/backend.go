package backend

import (
	"context"
	"encoding/json"

	"github.com/viant/cogniflow/model/cognitive"
	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/model/plan"
)

// Backend is the external generative service used by the planner, the tools
// and the synthesizer.
type Backend interface {
	// Plan issues one structured generation request and returns pending steps.
	Plan(ctx context.Context, request *PlanRequest) ([]*plan.Step, error)
	// Search answers a free text query with text and citations.
	Search(ctx context.Context, query string) (*SearchResult, error)
	// Modulate maps a concept to a cognitive context vector.
	Modulate(ctx context.Context, concept string) (*cognitive.Vector, error)
	// DescribeImage scores a synthetic image of concept.
	DescribeImage(ctx context.Context, concept string) (*plan.ImageDescriptor, error)
	// Synthesize streams the answer to onChunk until the stream ends.
	Synthesize(ctx context.Context, request *SynthesisRequest, onChunk func(chunk string) error) error
}

// Model is a text generation provider.
type Model interface {
	Generate(ctx context.Context, request *Request) (string, error)
	Stream(ctx context.Context, request *Request, onChunk func(chunk string) error) error
}

// Request is a single provider call.
type Request struct {
	System     string
	Prompt     string
	Schema     *Schema
	Attachment *conversation.Attachment
}

// Schema constrains structured output.
type Schema struct {
	Name       string
	Definition json.RawMessage
}

// PlanRequest carries the planner input.
type PlanRequest struct {
	Query      string
	History    string
	Attachment *conversation.Attachment
}

// SynthesisRequest carries the composite synthesis prompt.
type SynthesisRequest struct {
	Prompt     string
	Attachment *conversation.Attachment
}

// SearchResult is the outcome of a web search.
type SearchResult struct {
	Text      string          `json:"text"`
	Citations []plan.Citation `json:"citations"`
}
