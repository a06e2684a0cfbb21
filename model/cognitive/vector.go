package cognitive

import (
	"fmt"
	"strings"
)

// Dimension bounds. Valence and temporality are bipolar, the rest are
// intensities.
const (
	BipolarMin   = -1.0
	BipolarMax   = 1.0
	IntensityMin = 0.0
	IntensityMax = 1.0
)

// Vector is the transient six-dimensional mood of a session. It modulates the
// tone of the synthesized answer and never its factual content.
type Vector struct {
	Valence     float64 `json:"valence" yaml:"valence"`
	Arousal     float64 `json:"arousal" yaml:"arousal"`
	Dominance   float64 `json:"dominance" yaml:"dominance"`
	Novelty     float64 `json:"novelty" yaml:"novelty"`
	Complexity  float64 `json:"complexity" yaml:"complexity"`
	Temporality float64 `json:"temporality" yaml:"temporality"`
}

// Clamp forces every dimension into its bounds and returns the receiver.
func (v *Vector) Clamp() *Vector {
	if v == nil {
		return nil
	}
	v.Valence = clamp(v.Valence, BipolarMin, BipolarMax)
	v.Arousal = clamp(v.Arousal, IntensityMin, IntensityMax)
	v.Dominance = clamp(v.Dominance, IntensityMin, IntensityMax)
	v.Novelty = clamp(v.Novelty, IntensityMin, IntensityMax)
	v.Complexity = clamp(v.Complexity, IntensityMin, IntensityMax)
	v.Temporality = clamp(v.Temporality, BipolarMin, BipolarMax)
	return v
}

// Clone returns a copy, nil stays nil.
func (v *Vector) Clone() *Vector {
	if v == nil {
		return nil
	}
	ret := *v
	return &ret
}

// IsEmpty reports whether the session carries no mood.
func (v *Vector) IsEmpty() bool {
	return v == nil
}

// Instruction renders the vector as a synthesis instruction. It is scoped to
// tone and word choice only.
func (v *Vector) Instruction() string {
	if v.IsEmpty() {
		return ""
	}
	builder := strings.Builder{}
	builder.WriteString("Adopt the following affective context. It may influence tone, pacing and word choice only; ")
	builder.WriteString("it must not change facts, figures or conclusions.\n")
	fmt.Fprintf(&builder, "- valence: %.2f (%s)\n", v.Valence, bipolarLabel(v.Valence, "negative", "positive"))
	fmt.Fprintf(&builder, "- arousal: %.2f (%s)\n", v.Arousal, intensityLabel(v.Arousal))
	fmt.Fprintf(&builder, "- dominance: %.2f (%s)\n", v.Dominance, intensityLabel(v.Dominance))
	fmt.Fprintf(&builder, "- novelty: %.2f (%s)\n", v.Novelty, intensityLabel(v.Novelty))
	fmt.Fprintf(&builder, "- complexity: %.2f (%s)\n", v.Complexity, intensityLabel(v.Complexity))
	fmt.Fprintf(&builder, "- temporality: %.2f (%s)\n", v.Temporality, bipolarLabel(v.Temporality, "past-oriented", "future-oriented"))
	return builder.String()
}

func clamp(value, min, max float64) float64 {
	if value != value { // NaN
		return min
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func intensityLabel(value float64) string {
	switch {
	case value < 0.34:
		return "low"
	case value < 0.67:
		return "moderate"
	}
	return "high"
}

func bipolarLabel(value float64, negative, positive string) string {
	switch {
	case value <= -0.2:
		return negative
	case value >= 0.2:
		return positive
	}
	return "neutral"
}
