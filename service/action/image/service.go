package image

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/viant/cogniflow/model/plan"
	"github.com/viant/cogniflow/service/backend"
)

const name = "image"

// ErrInvalidReference is returned when analysis does not point at a completed
// image synthesis step.
var ErrInvalidReference = errors.New("invalid reference")

// SynthesisInput represents image synthesis input
type SynthesisInput struct {
	Concept string `json:"concept"`
}

// SynthesisOutput carries the synthetic descriptor
type SynthesisOutput struct {
	Descriptor *plan.ImageDescriptor `json:"descriptor"`
}

// AnalysisInput references the step to analyze; Source is nil when the
// ordinal does not exist.
type AnalysisInput struct {
	SourceStep int        `json:"sourceStep"`
	Source     *plan.Step `json:"-"`
}

// AnalysisOutput carries the description
type AnalysisOutput struct {
	Text string `json:"text"`
}

// Service synthesizes and analyzes image descriptors.
type Service struct {
	backend backend.Backend
}

// New creates an image service
func New(backend backend.Backend) *Service {
	return &Service{backend: backend}
}

// Name returns the service name
func (s *Service) Name() string {
	return name
}

// Synthesize produces a descriptor with scores in [0,1].
func (s *Service) Synthesize(ctx context.Context, input *SynthesisInput, output *SynthesisOutput) error {
	descriptor, err := s.backend.DescribeImage(ctx, input.Concept)
	if err != nil {
		return err
	}
	if descriptor == nil {
		return &backend.Error{Op: "image", Err: backend.ErrEmptyResult}
	}
	descriptor.Fidelity = unit(descriptor.Fidelity)
	descriptor.Coherence = unit(descriptor.Coherence)
	descriptor.Novelty = unit(descriptor.Novelty)
	descriptor.Aesthetics = unit(descriptor.Aesthetics)
	output.Descriptor = descriptor
	return nil
}

// Analyze describes the descriptor produced by the referenced step. It runs
// locally without calling the backend.
func (s *Service) Analyze(ctx context.Context, input *AnalysisInput, output *AnalysisOutput) error {
	source := input.Source
	if source == nil || source.Tool != plan.ToolImageSynthesis || source.Result == nil || source.Result.Descriptor == nil {
		return fmt.Errorf("%w: step %d has no synthesized image", ErrInvalidReference, input.SourceStep)
	}
	output.Text = describe(source.Result.Descriptor)
	return nil
}

func describe(descriptor *plan.ImageDescriptor) string {
	overall := (descriptor.Fidelity + descriptor.Coherence + descriptor.Novelty + descriptor.Aesthetics) / 4
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("Image %s depicting %q. ", descriptor.ID, descriptor.Concept))
	builder.WriteString(fmt.Sprintf("Fidelity %.2f (%s), coherence %.2f (%s), novelty %.2f (%s), aesthetics %.2f (%s). ",
		descriptor.Fidelity, grade(descriptor.Fidelity),
		descriptor.Coherence, grade(descriptor.Coherence),
		descriptor.Novelty, grade(descriptor.Novelty),
		descriptor.Aesthetics, grade(descriptor.Aesthetics)))
	builder.WriteString(fmt.Sprintf("Overall quality %.2f (%s).", overall, grade(overall)))
	return builder.String()
}

func grade(value float64) string {
	switch {
	case value >= 0.75:
		return "strong"
	case value >= 0.4:
		return "fair"
	}
	return "weak"
}

func unit(value float64) float64 {
	if math.IsNaN(value) {
		return 0
	}
	return math.Max(0, math.Min(1, value))
}
