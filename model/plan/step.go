package plan

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle of a step: pending → executing → complete | error.
type Status string

const (
	StatusPending   Status = "pending"
	StatusExecuting Status = "executing"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
)

// IsFinal reports whether the status can no longer change.
func (s Status) IsFinal() bool {
	return s == StatusComplete || s == StatusError
}

// CanAdvance reports whether moving from s to next keeps the lifecycle monotonic.
func (s Status) CanAdvance(next Status) bool {
	switch s {
	case "", StatusPending:
		return next == StatusPending || next == StatusExecuting
	case StatusExecuting:
		return next == StatusComplete || next == StatusError
	}
	return false
}

// Step is a single planned action.
type Step struct {
	Ordinal     int
	Description string
	Tool        ToolKind
	Params      Params
	Status      Status
	Result      *Result
}

// NewStep creates a pending step with a generated description.
func NewStep(params Params) *Step {
	step := &Step{Status: StatusPending}
	step.SetParams(params)
	return step
}

// DefaultStep is the placeholder appended by the review gate. Its empty
// query has to be filled in before the plan can be committed.
func DefaultStep() *Step {
	step := NewStep(SearchParams{})
	step.Description = "New step"
	return step
}

// SetParams replaces the tool parameters and regenerates the description.
func (s *Step) SetParams(params Params) {
	s.Params = params
	if params == nil {
		return
	}
	s.Tool = params.Kind()
	s.Description = params.describe()
}

// Validate checks the tool kind and the tool specific fields.
func (s *Step) Validate() error {
	if !s.Tool.IsValid() {
		return &ValidationError{Ordinal: s.Ordinal, Field: "tool", Reason: fmt.Sprintf("unsupported tool kind %q", s.Tool)}
	}
	if s.Params == nil {
		return &ValidationError{Ordinal: s.Ordinal, Field: "tool", Reason: fmt.Sprintf("missing parameters for %s", s.Tool)}
	}
	if s.Params.Kind() != s.Tool {
		return &ValidationError{Ordinal: s.Ordinal, Field: "tool", Reason: fmt.Sprintf("parameters of %s do not match tool %s", s.Params.Kind(), s.Tool)}
	}
	if err := s.Params.Validate(); err != nil {
		if validationErr, ok := err.(*ValidationError); ok {
			validationErr.Ordinal = s.Ordinal
		}
		return err
	}
	return nil
}

// Advance moves the step to next, refusing transitions that would revert it.
func (s *Step) Advance(next Status) error {
	if !s.Status.CanAdvance(next) {
		return fmt.Errorf("%w: step %d %s -> %s", ErrIllegalTransition, s.Ordinal, s.Status, next)
	}
	s.Status = next
	return nil
}

// Clone returns a deep copy of the step. Params are values and safe to share.
func (s *Step) Clone() *Step {
	if s == nil {
		return nil
	}
	ret := *s
	ret.Result = s.Result.Clone()
	return &ret
}

type stepJSON struct {
	Ordinal     int      `json:"ordinal"`
	Description string   `json:"description"`
	Tool        ToolKind `json:"tool"`
	Query       string   `json:"query,omitempty"`
	Code        string   `json:"code,omitempty"`
	Concept     string   `json:"concept,omitempty"`
	SourceStep  int      `json:"source_step,omitempty"`
	Status      Status   `json:"status,omitempty"`
	Result      *Result  `json:"result,omitempty"`
}

// MarshalJSON flattens the tool parameters into the step object.
func (s Step) MarshalJSON() ([]byte, error) {
	out := stepJSON{
		Ordinal:     s.Ordinal,
		Description: s.Description,
		Tool:        s.Tool,
		Status:      s.Status,
		Result:      s.Result,
	}
	switch params := s.Params.(type) {
	case SearchParams:
		out.Query = params.Query
	case CodeParams:
		out.Code = params.Code
	case ModulationParams:
		out.Concept = params.Concept
	case ImageSynthesisParams:
		out.Concept = params.Concept
	case ImageAnalysisParams:
		out.SourceStep = params.SourceStep
	case SynthesisParams, nil:
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the tool parameters from the flat step object.
func (s *Step) UnmarshalJSON(data []byte) error {
	in := stepJSON{}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	params, err := NewParams(in.Tool)
	if err != nil {
		return err
	}
	switch params.(type) {
	case SearchParams:
		params = SearchParams{Query: in.Query}
	case CodeParams:
		params = CodeParams{Code: in.Code}
	case ModulationParams:
		params = ModulationParams{Concept: in.Concept}
	case ImageSynthesisParams:
		params = ImageSynthesisParams{Concept: in.Concept}
	case ImageAnalysisParams:
		params = ImageAnalysisParams{SourceStep: in.SourceStep}
	}
	*s = Step{
		Ordinal:     in.Ordinal,
		Description: in.Description,
		Tool:        in.Tool,
		Params:      params,
		Status:      in.Status,
		Result:      in.Result,
	}
	return nil
}
