package plan

import (
	"fmt"
	"strings"
)

// ToolKind names one capability from the closed tool set.
type ToolKind string

const (
	ToolWebSearch         ToolKind = "web_search"
	ToolSandboxedCode     ToolKind = "sandboxed_code"
	ToolContextModulation ToolKind = "context_modulation"
	ToolImageSynthesis    ToolKind = "image_synthesis"
	ToolImageAnalysis     ToolKind = "image_analysis"
	ToolFinalSynthesis    ToolKind = "final_synthesis"
)

// ToolKinds lists every tool kind in declaration order.
var ToolKinds = []ToolKind{
	ToolWebSearch,
	ToolSandboxedCode,
	ToolContextModulation,
	ToolImageSynthesis,
	ToolImageAnalysis,
	ToolFinalSynthesis,
}

// IsValid reports whether k belongs to the closed set.
func (k ToolKind) IsValid() bool {
	for _, candidate := range ToolKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// IsDispatchable reports whether steps of this kind run through the tool
// dispatch table. Final synthesis is performed by the synthesizer.
func (k ToolKind) IsDispatchable() bool {
	return k.IsValid() && k != ToolFinalSynthesis
}

// Params is the tool specific part of a step. The set of implementations is
// sealed; each one maps to exactly one ToolKind.
type Params interface {
	Kind() ToolKind
	Validate() error
	describe() string
	isParams()
}

// SearchParams parametrizes web search.
type SearchParams struct {
	Query string `json:"query"`
}

// CodeParams parametrizes sandboxed code execution.
type CodeParams struct {
	Code string `json:"code"`
}

// ModulationParams parametrizes cognitive context modulation.
type ModulationParams struct {
	Concept string `json:"concept"`
}

// ImageSynthesisParams parametrizes image synthesis.
type ImageSynthesisParams struct {
	Concept string `json:"concept"`
}

// ImageAnalysisParams references an earlier image synthesis step by ordinal.
type ImageAnalysisParams struct {
	SourceStep int `json:"source_step"`
}

// SynthesisParams marks the final synthesis step; it carries no fields.
type SynthesisParams struct{}

func (SearchParams) Kind() ToolKind         { return ToolWebSearch }
func (CodeParams) Kind() ToolKind           { return ToolSandboxedCode }
func (ModulationParams) Kind() ToolKind     { return ToolContextModulation }
func (ImageSynthesisParams) Kind() ToolKind { return ToolImageSynthesis }
func (ImageAnalysisParams) Kind() ToolKind  { return ToolImageAnalysis }
func (SynthesisParams) Kind() ToolKind      { return ToolFinalSynthesis }

func (SearchParams) isParams()         {}
func (CodeParams) isParams()           {}
func (ModulationParams) isParams()     {}
func (ImageSynthesisParams) isParams() {}
func (ImageAnalysisParams) isParams()  {}
func (SynthesisParams) isParams()      {}

func (p SearchParams) Validate() error {
	return requireText(ToolWebSearch, "query", p.Query)
}

func (p CodeParams) Validate() error {
	return requireText(ToolSandboxedCode, "code", p.Code)
}

func (p ModulationParams) Validate() error {
	return requireText(ToolContextModulation, "concept", p.Concept)
}

func (p ImageSynthesisParams) Validate() error {
	return requireText(ToolImageSynthesis, "concept", p.Concept)
}

func (p ImageAnalysisParams) Validate() error {
	if p.SourceStep < 1 {
		return &ValidationError{Field: "source_step", Reason: fmt.Sprintf("%s requires a positive step reference, got %d", ToolImageAnalysis, p.SourceStep)}
	}
	return nil
}

func (SynthesisParams) Validate() error { return nil }

func (p SearchParams) describe() string { return fmt.Sprintf("Search the web for %q", p.Query) }

// maxCodeDescription is the number of code characters kept in a description.
const maxCodeDescription = 48

func (p CodeParams) describe() string {
	line := strings.TrimSpace(p.Code)
	if idx := strings.IndexByte(line, '\n'); idx != -1 {
		line = strings.TrimSpace(line[:idx]) + " …"
	}
	if runes := []rune(line); len(runes) > maxCodeDescription {
		line = string(runes[:maxCodeDescription]) + "…"
	}
	return fmt.Sprintf("Run sandboxed code: %s", line)
}

func (p ModulationParams) describe() string {
	return fmt.Sprintf("Modulate the cognitive context toward %q", p.Concept)
}

func (p ImageSynthesisParams) describe() string {
	return fmt.Sprintf("Synthesize an image of %q", p.Concept)
}

func (p ImageAnalysisParams) describe() string {
	return fmt.Sprintf("Analyze the image produced by step %d", p.SourceStep)
}

func (SynthesisParams) describe() string { return "Synthesize the final answer" }

// NewParams returns zero params for the supplied tool kind.
func NewParams(kind ToolKind) (Params, error) {
	switch kind {
	case ToolWebSearch:
		return SearchParams{}, nil
	case ToolSandboxedCode:
		return CodeParams{}, nil
	case ToolContextModulation:
		return ModulationParams{}, nil
	case ToolImageSynthesis:
		return ImageSynthesisParams{}, nil
	case ToolImageAnalysis:
		return ImageAnalysisParams{}, nil
	case ToolFinalSynthesis:
		return SynthesisParams{}, nil
	}
	return nil, &ValidationError{Field: "tool", Reason: fmt.Sprintf("unsupported tool kind %q", kind)}
}

func requireText(kind ToolKind, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("%s requires a non-empty %s", kind, field)}
	}
	return nil
}
