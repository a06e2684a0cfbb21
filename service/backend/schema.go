package backend

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

var planSchema = &Schema{Name: "plan", Definition: json.RawMessage(`{
  "type": "object",
  "required": ["steps"],
  "properties": {
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["ordinal", "description", "tool"],
        "properties": {
          "ordinal": {"type": "integer", "minimum": 1},
          "description": {"type": "string"},
          "tool": {"type": "string", "enum": ["web_search", "sandboxed_code", "context_modulation", "image_synthesis", "image_analysis", "final_synthesis"]},
          "query": {"type": "string"},
          "code": {"type": "string"},
          "concept": {"type": "string"},
          "source_step": {"type": "integer", "minimum": 1}
        },
        "anyOf": [
          {"properties": {"tool": {"enum": ["web_search"]}}, "required": ["query"]},
          {"properties": {"tool": {"enum": ["sandboxed_code"]}}, "required": ["code"]},
          {"properties": {"tool": {"enum": ["context_modulation", "image_synthesis"]}}, "required": ["concept"]},
          {"properties": {"tool": {"enum": ["image_analysis"]}}, "required": ["source_step"]},
          {"properties": {"tool": {"enum": ["final_synthesis"]}}}
        ]
      }
    }
  }
}`)}

var searchSchema = &Schema{Name: "search_result", Definition: json.RawMessage(`{
  "type": "object",
  "required": ["text", "citations"],
  "properties": {
    "text": {"type": "string"},
    "citations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "uri"],
        "properties": {
          "title": {"type": "string"},
          "uri": {"type": "string"}
        }
      }
    }
  }
}`)}

var vectorSchema = &Schema{Name: "cognitive_context", Definition: json.RawMessage(`{
  "type": "object",
  "required": ["valence", "arousal", "dominance", "novelty", "complexity", "temporality"],
  "properties": {
    "valence": {"type": "number", "minimum": -1, "maximum": 1},
    "arousal": {"type": "number", "minimum": 0, "maximum": 1},
    "dominance": {"type": "number", "minimum": 0, "maximum": 1},
    "novelty": {"type": "number", "minimum": 0, "maximum": 1},
    "complexity": {"type": "number", "minimum": 0, "maximum": 1},
    "temporality": {"type": "number", "minimum": -1, "maximum": 1}
  }
}`)}

var imageSchema = &Schema{Name: "image_scores", Definition: json.RawMessage(`{
  "type": "object",
  "required": ["fidelity", "coherence", "novelty", "aesthetics"],
  "properties": {
    "fidelity": {"type": "number", "minimum": 0, "maximum": 1},
    "coherence": {"type": "number", "minimum": 0, "maximum": 1},
    "novelty": {"type": "number", "minimum": 0, "maximum": 1},
    "aesthetics": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`)}

// Validate checks output against the schema.
func (s *Schema) Validate(output string) error {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(s.Definition), gojsonschema.NewStringLoader(output))
	if err != nil {
		return &SchemaError{Schema: s.Name, Violations: []string{err.Error()}, Output: output}
	}
	if result.Valid() {
		return nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return &SchemaError{Schema: s.Name, Violations: violations, Output: output}
}

// Decode validates output and unmarshals it into target.
func (s *Schema) Decode(output string, target interface{}) error {
	if err := s.Validate(output); err != nil {
		return err
	}
	return json.Unmarshal([]byte(output), target)
}
