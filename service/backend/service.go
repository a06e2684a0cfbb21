package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/cogniflow/internal/idgen"
	"github.com/viant/cogniflow/model/cognitive"
	"github.com/viant/cogniflow/model/plan"
)

// Service implements Backend on top of a text generation Model.
type Service struct {
	model Model
}

// New creates a backend service for model.
func New(model Model) *Service {
	return &Service{model: model}
}

// Plan asks the model for a plan and validates it against the plan schema.
func (s *Service) Plan(ctx context.Context, request *PlanRequest) ([]*plan.Step, error) {
	output, err := s.model.Generate(ctx, &Request{
		System:     planInstruction,
		Prompt:     planPrompt(request),
		Schema:     planSchema,
		Attachment: request.Attachment,
	})
	if err != nil {
		return nil, &Error{Op: "plan", Err: err}
	}
	steps, err := DecodePlan(output)
	if err != nil {
		return nil, &PlanParseError{Err: err}
	}
	return steps, nil
}

// DecodePlan validates planner output and converts it to pending steps
// ordered by position.
func DecodePlan(output string) ([]*plan.Step, error) {
	var decoded struct {
		Steps []*plan.Step `json:"steps"`
	}
	if err := planSchema.Decode(output, &decoded); err != nil {
		return nil, err
	}
	for i, step := range decoded.Steps {
		step.Ordinal = i + 1
		step.Status = plan.StatusPending
		step.Result = nil
		if err := step.Validate(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(step.Description) == "" {
			step.SetParams(step.Params)
		}
	}
	return decoded.Steps, nil
}

func (s *Service) Search(ctx context.Context, query string) (*SearchResult, error) {
	output, err := s.model.Generate(ctx, &Request{System: searchInstruction, Prompt: query, Schema: searchSchema})
	if err != nil {
		return nil, &Error{Op: "search", Err: err}
	}
	result := &SearchResult{}
	if err := searchSchema.Decode(output, result); err != nil {
		return nil, &Error{Op: "search", Err: err}
	}
	return result, nil
}

func (s *Service) Modulate(ctx context.Context, concept string) (*cognitive.Vector, error) {
	output, err := s.model.Generate(ctx, &Request{System: modulationInstruction, Prompt: "Concept: " + concept, Schema: vectorSchema})
	if err != nil {
		return nil, &Error{Op: "modulate", Err: err}
	}
	vector := &cognitive.Vector{}
	if err := vectorSchema.Decode(output, vector); err != nil {
		return nil, &Error{Op: "modulate", Err: err}
	}
	vector.Clamp()
	return vector, nil
}

func (s *Service) DescribeImage(ctx context.Context, concept string) (*plan.ImageDescriptor, error) {
	output, err := s.model.Generate(ctx, &Request{System: imageInstruction, Prompt: "Concept: " + concept, Schema: imageSchema})
	if err != nil {
		return nil, &Error{Op: "image", Err: err}
	}
	descriptor := &plan.ImageDescriptor{}
	if err := imageSchema.Decode(output, descriptor); err != nil {
		return nil, &Error{Op: "image", Err: err}
	}
	descriptor.ID = idgen.Prefixed("img")
	descriptor.Concept = concept
	return descriptor, nil
}

// Synthesize streams the answer. Errors returned by onChunk are passed
// through unwrapped so callers can tell them apart from provider failures.
func (s *Service) Synthesize(ctx context.Context, request *SynthesisRequest, onChunk func(chunk string) error) error {
	var callbackErr error
	err := s.model.Stream(ctx, &Request{System: synthesisInstruction, Prompt: request.Prompt, Attachment: request.Attachment}, func(chunk string) error {
		if err := onChunk(chunk); err != nil {
			callbackErr = err
			return err
		}
		return nil
	})
	if callbackErr != nil {
		return callbackErr
	}
	if err != nil {
		return &Error{Op: "synthesize", Err: fmt.Errorf("stream failed: %w", err)}
	}
	return nil
}
