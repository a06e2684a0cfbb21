// Package fake provides a scripted backend for tests and offline runs.
package fake

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/viant/cogniflow/internal/idgen"
	"github.com/viant/cogniflow/model/cognitive"
	"github.com/viant/cogniflow/model/plan"
	"github.com/viant/cogniflow/service/backend"
)

// Backend is a deterministic backend.Backend. Each call uses the matching
// func field when set, otherwise a canned answer.
type Backend struct {
	PlanFunc          func(ctx context.Context, request *backend.PlanRequest) ([]*plan.Step, error)
	SearchFunc        func(ctx context.Context, query string) (*backend.SearchResult, error)
	ModulateFunc      func(ctx context.Context, concept string) (*cognitive.Vector, error)
	DescribeImageFunc func(ctx context.Context, concept string) (*plan.ImageDescriptor, error)
	SynthesizeFunc    func(ctx context.Context, request *backend.SynthesisRequest, onChunk func(chunk string) error) error

	mu        sync.Mutex
	steps     []plan.Params
	chunks    []string
	calls     []string
	synthesis []*backend.SynthesisRequest
}

// New creates a backend planning steps and streaming chunks.
func New(steps []plan.Params, chunks ...string) *Backend {
	return &Backend{steps: steps, chunks: chunks}
}

// Calls returns the recorded operations in call order.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// SynthesisRequests returns every synthesis request received.
func (b *Backend) SynthesisRequests() []*backend.SynthesisRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*backend.SynthesisRequest(nil), b.synthesis...)
}

func (b *Backend) record(call string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
}

func (b *Backend) Plan(ctx context.Context, request *backend.PlanRequest) ([]*plan.Step, error) {
	b.record("plan")
	if b.PlanFunc != nil {
		return b.PlanFunc(ctx, request)
	}
	if len(b.steps) == 0 {
		return []*plan.Step{plan.NewStep(plan.SynthesisParams{})}, nil
	}
	var steps []*plan.Step
	for i, params := range b.steps {
		step := plan.NewStep(params)
		step.Ordinal = i + 1
		steps = append(steps, step)
	}
	return steps, nil
}

func (b *Backend) Search(ctx context.Context, query string) (*backend.SearchResult, error) {
	b.record("search:" + query)
	if b.SearchFunc != nil {
		return b.SearchFunc(ctx, query)
	}
	return &backend.SearchResult{
		Text:      "results for " + query,
		Citations: []plan.Citation{{Title: query, URI: "https://search.example/" + idgen.New()}},
	}, nil
}

func (b *Backend) Modulate(ctx context.Context, concept string) (*cognitive.Vector, error) {
	b.record("modulate:" + concept)
	if b.ModulateFunc != nil {
		return b.ModulateFunc(ctx, concept)
	}
	return &cognitive.Vector{Valence: score(concept, 1)*2 - 1, Arousal: score(concept, 2), Dominance: score(concept, 3),
		Novelty: score(concept, 4), Complexity: score(concept, 5), Temporality: score(concept, 6)*2 - 1}, nil
}

func (b *Backend) DescribeImage(ctx context.Context, concept string) (*plan.ImageDescriptor, error) {
	b.record("image:" + concept)
	if b.DescribeImageFunc != nil {
		return b.DescribeImageFunc(ctx, concept)
	}
	return &plan.ImageDescriptor{
		ID:         idgen.Prefixed("img"),
		Concept:    concept,
		Fidelity:   score(concept, 1),
		Coherence:  score(concept, 2),
		Novelty:    score(concept, 3),
		Aesthetics: score(concept, 4),
	}, nil
}

func (b *Backend) Synthesize(ctx context.Context, request *backend.SynthesisRequest, onChunk func(chunk string) error) error {
	b.record("synthesize")
	b.mu.Lock()
	b.synthesis = append(b.synthesis, request)
	b.mu.Unlock()
	if b.SynthesizeFunc != nil {
		return b.SynthesizeFunc(ctx, request, onChunk)
	}
	for _, chunk := range b.chunks {
		if err := ctx.Err(); err != nil {
			return &backend.Error{Op: "synthesize", Err: err}
		}
		if err := onChunk(chunk); err != nil {
			return err
		}
	}
	return nil
}

// score derives a stable value in [0,1] from concept.
func score(concept string, salt int) float64 {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(fmt.Sprintf("%d:%s", salt, concept)))
	return float64(hash.Sum32()%1000) / 999
}
