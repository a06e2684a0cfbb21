package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/cogniflow/model/cognitive"
	"github.com/viant/cogniflow/model/plan"
	"github.com/viant/cogniflow/service/action/image"
	"github.com/viant/cogniflow/service/action/modulate"
	"github.com/viant/cogniflow/service/action/sandbox"
	"github.com/viant/cogniflow/service/action/search"
)

// Listener is invoked once a step action completes, regardless of whether it
// returned an error.
type Listener func(step *plan.Step, outcome *Outcome, err error, elapsed time.Duration)

// LogListener returns a listener writing one log entry per executed step.
func LogListener(logger zerolog.Logger) Listener {
	return func(step *plan.Step, outcome *Outcome, err error, elapsed time.Duration) {
		event := logger.Debug()
		if err != nil {
			event = logger.Warn().Err(err)
		}
		event.Int("step", step.Ordinal).
			Str("tool", string(step.Tool)).
			Str("description", step.Description).
			Dur("elapsed", elapsed).
			Msg("step executed")
	}
}

// Outcome is the product of one dispatched step.
type Outcome struct {
	Result *plan.Result
	// Context is set by context modulation and replaces the session vector.
	Context *cognitive.Vector
}

// Option is used to customise the executor instance.
type Option func(*Service)

// WithListener sets the listener invoked after every executed step.
func WithListener(listener Listener) Option {
	return func(s *Service) {
		s.listener = listener
	}
}

// WithSearch sets the web search handler.
func WithSearch(service *search.Service) Option {
	return func(s *Service) { s.search = service }
}

// WithSandbox sets the sandboxed code handler.
func WithSandbox(service *sandbox.Service) Option {
	return func(s *Service) { s.sandbox = service }
}

// WithModulate sets the context modulation handler.
func WithModulate(service *modulate.Service) Option {
	return func(s *Service) { s.modulate = service }
}

// WithImage sets the image synthesis and analysis handler.
func WithImage(service *image.Service) Option {
	return func(s *Service) { s.image = service }
}

// Service dispatches steps to tool actions.
type Service struct {
	search   *search.Service
	sandbox  *sandbox.Service
	modulate *modulate.Service
	image    *image.Service
	listener Listener
}

// New creates an executor; it fails when a dispatchable tool kind has no handler.
func New(options ...Option) (*Service, error) {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	for _, kind := range plan.ToolKinds {
		if kind.IsDispatchable() && !ret.handles(kind) {
			return nil, fmt.Errorf("%w: %s", ErrMissingHandler, kind)
		}
	}
	return ret, nil
}

func (s *Service) handles(kind plan.ToolKind) bool {
	switch kind {
	case plan.ToolWebSearch:
		return s.search != nil
	case plan.ToolSandboxedCode:
		return s.sandbox != nil
	case plan.ToolContextModulation:
		return s.modulate != nil
	case plan.ToolImageSynthesis, plan.ToolImageAnalysis:
		return s.image != nil
	}
	return false
}

// Execute runs step. snapshot is the plan as executed so far and is used to
// resolve back references. Failures are wrapped in StepExecutionError.
func (s *Service) Execute(ctx context.Context, step *plan.Step, snapshot *plan.Plan) (*Outcome, error) {
	started := time.Now()
	outcome, err := s.dispatch(ctx, step, snapshot)
	if err != nil {
		err = &StepExecutionError{Ordinal: step.Ordinal, Tool: step.Tool, Description: step.Description, Err: err}
	}
	if s.listener != nil {
		s.listener(step, outcome, err, time.Since(started))
	}
	return outcome, err
}

func (s *Service) dispatch(ctx context.Context, step *plan.Step, snapshot *plan.Plan) (*Outcome, error) {
	switch params := step.Params.(type) {
	case plan.SearchParams:
		output := &search.Output{}
		if err := s.search.Execute(ctx, &search.Input{Query: params.Query}, output); err != nil {
			return nil, err
		}
		return &Outcome{Result: &plan.Result{Text: output.Text, Citations: output.Citations}}, nil
	case plan.CodeParams:
		output := &sandbox.Output{}
		if err := s.sandbox.Execute(ctx, &sandbox.Input{Code: params.Code}, output); err != nil {
			return nil, err
		}
		return &Outcome{Result: &plan.Result{Value: output.Value}}, nil
	case plan.ModulationParams:
		output := &modulate.Output{}
		if err := s.modulate.Execute(ctx, &modulate.Input{Concept: params.Concept}, output); err != nil {
			return nil, err
		}
		return &Outcome{Result: &plan.Result{}, Context: output.Vector}, nil
	case plan.ImageSynthesisParams:
		output := &image.SynthesisOutput{}
		if err := s.image.Synthesize(ctx, &image.SynthesisInput{Concept: params.Concept}, output); err != nil {
			return nil, err
		}
		return &Outcome{Result: &plan.Result{Descriptor: output.Descriptor}}, nil
	case plan.ImageAnalysisParams:
		input := &image.AnalysisInput{SourceStep: params.SourceStep}
		if params.SourceStep < step.Ordinal {
			input.Source, _ = snapshot.Step(params.SourceStep)
		}
		output := &image.AnalysisOutput{}
		if err := s.image.Analyze(ctx, input, output); err != nil {
			return nil, err
		}
		return &Outcome{Result: &plan.Result{Text: output.Text}}, nil
	case plan.SynthesisParams:
		return nil, fmt.Errorf("%w: %s", ErrNotDispatched, plan.ToolFinalSynthesis)
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingHandler, step.Tool)
}
