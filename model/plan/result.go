package plan

import "encoding/json"

// Citation is a source reference collected by web search.
type Citation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// ImageDescriptor is the synthetic outcome of image synthesis. It carries
// scores in [0,1] instead of image bytes.
type ImageDescriptor struct {
	ID         string  `json:"id"`
	Concept    string  `json:"concept"`
	Fidelity   float64 `json:"fidelity"`
	Coherence  float64 `json:"coherence"`
	Novelty    float64 `json:"novelty"`
	Aesthetics float64 `json:"aesthetics"`
}

// Result is the payload a step produced. Which fields are set depends on the
// tool kind; Error is set when the step failed but execution continued.
type Result struct {
	Text       string           `json:"text,omitempty"`
	Citations  []Citation       `json:"citations,omitempty"`
	Value      json.RawMessage  `json:"value,omitempty"`
	Descriptor *ImageDescriptor `json:"descriptor,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Summary renders the result for a synthesis prompt.
func (r *Result) Summary() string {
	if r == nil {
		return "(no result)"
	}
	switch {
	case r.Error != "":
		return "error: " + r.Error
	case r.Text != "":
		return r.Text
	case len(r.Value) > 0:
		return string(r.Value)
	case r.Descriptor != nil:
		data, _ := json.Marshal(r.Descriptor)
		return string(data)
	}
	return "(empty result)"
}

// Clone returns a deep copy of the result.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	ret := *r
	if len(r.Citations) > 0 {
		ret.Citations = append([]Citation(nil), r.Citations...)
	}
	if len(r.Value) > 0 {
		ret.Value = append(json.RawMessage(nil), r.Value...)
	}
	if r.Descriptor != nil {
		descriptor := *r.Descriptor
		ret.Descriptor = &descriptor
	}
	return &ret
}
