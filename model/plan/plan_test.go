package plan

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlan() *Plan {
	return New(
		NewStep(SearchParams{Query: "golang release cadence"}),
		NewStep(CodeParams{Code: "return 2+2"}),
		NewStep(SynthesisParams{}),
	)
}

func assertContiguous(t *testing.T, p *Plan) {
	t.Helper()
	require.NotEmpty(t, p.Steps)
	for i, step := range p.Steps {
		assert.Equal(t, i+1, step.Ordinal)
	}
}

func TestPlan_Edit(t *testing.T) {
	testCases := []struct {
		description string
		edit        func(p *Plan) error
		expectTools []ToolKind
		expectErr   error
	}{
		{
			description: "move swaps steps",
			edit:        func(p *Plan) error { return p.Move(0, 2) },
			expectTools: []ToolKind{ToolFinalSynthesis, ToolSandboxedCode, ToolWebSearch},
		},
		{
			description: "add appends default step",
			edit: func(p *Plan) error {
				p.Append()
				return nil
			},
			expectTools: []ToolKind{ToolWebSearch, ToolSandboxedCode, ToolFinalSynthesis, ToolWebSearch},
		},
		{
			description: "delete removes step",
			edit: func(p *Plan) error {
				_, err := p.Remove(1)
				return err
			},
			expectTools: []ToolKind{ToolWebSearch, ToolFinalSynthesis},
		},
		{
			description: "replace changes tool",
			edit:        func(p *Plan) error { return p.Replace(0, ModulationParams{Concept: "calm"}) },
			expectTools: []ToolKind{ToolContextModulation, ToolSandboxedCode, ToolFinalSynthesis},
		},
		{
			description: "replace rejects empty field",
			edit:        func(p *Plan) error { return p.Replace(0, CodeParams{Code: "  "}) },
			expectTools: []ToolKind{ToolWebSearch, ToolSandboxedCode, ToolFinalSynthesis},
		},
		{
			description: "move out of range",
			edit:        func(p *Plan) error { return p.Move(0, 7) },
			expectTools: []ToolKind{ToolWebSearch, ToolSandboxedCode, ToolFinalSynthesis},
			expectErr:   ErrIndexOutOfRange,
		},
	}

	for _, testCase := range testCases {
		p := samplePlan()
		err := testCase.edit(p)
		if testCase.expectErr != nil {
			assert.True(t, errors.Is(err, testCase.expectErr), testCase.description)
		}
		var tools []ToolKind
		for _, step := range p.Steps {
			tools = append(tools, step.Tool)
		}
		assert.EqualValues(t, testCase.expectTools, tools, testCase.description)
		assertContiguous(t, p)
	}
}

func TestPlan_Replace(t *testing.T) {
	p := samplePlan()
	err := p.Replace(1, ImageSynthesisParams{Concept: "lighthouse"})
	require.NoError(t, err)
	step, ok := p.Step(2)
	require.True(t, ok)
	assert.Equal(t, ToolImageSynthesis, step.Tool)
	assert.Equal(t, `Synthesize an image of "lighthouse"`, step.Description)
	assert.Equal(t, StatusPending, step.Status)

	err = p.Replace(0, ImageAnalysisParams{})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, 1, validationErr.Ordinal)
	assert.Equal(t, "source_step", validationErr.Field)
}

func TestPlan_RemoveLastStep(t *testing.T) {
	p := New(NewStep(SynthesisParams{}))
	removed, err := p.Remove(0)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 1, p.Len())
	assert.Empty(t, p.Revisions)
}

func TestPlan_Validate(t *testing.T) {
	assert.True(t, errors.Is((&Plan{}).Validate(), ErrEmptyPlan))

	p := samplePlan()
	require.NoError(t, p.Validate())

	p.Append()
	err := p.Validate()
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, 4, validationErr.Ordinal)

	require.NoError(t, p.Replace(3, SearchParams{Query: "weather"}))
	require.NoError(t, p.Validate())

	p.Steps[1].Ordinal = 9
	assert.Error(t, p.Validate())
}

func TestPlan_Revisions(t *testing.T) {
	p := samplePlan()
	require.NoError(t, p.Move(0, 1))
	p.Append()
	require.Len(t, p.Revisions, 2)
	assert.Equal(t, "move", p.Revisions[0].Operation)
	assert.Contains(t, p.Revisions[0].Diff, "--- plan.before")
	assert.Equal(t, 2, p.Revisions[0].Added)
	assert.Equal(t, 2, p.Revisions[0].Removed)
	assert.Equal(t, "add", p.Revisions[1].Operation)
	assert.Equal(t, 1, p.Revisions[1].Added)
	assert.Equal(t, 0, p.Revisions[1].Removed)
}

func TestStep_Advance(t *testing.T) {
	step := NewStep(SearchParams{Query: "q"})
	require.NoError(t, step.Advance(StatusExecuting))
	require.NoError(t, step.Advance(StatusComplete))
	assert.True(t, errors.Is(step.Advance(StatusPending), ErrIllegalTransition))
	assert.True(t, errors.Is(step.Advance(StatusExecuting), ErrIllegalTransition))
	assert.Equal(t, StatusComplete, step.Status)
}

func TestStep_JSON(t *testing.T) {
	p := New(
		NewStep(SearchParams{Query: "go"}),
		NewStep(CodeParams{Code: "return 1"}),
		NewStep(ModulationParams{Concept: "calm"}),
		NewStep(ImageSynthesisParams{Concept: "fox"}),
		NewStep(ImageAnalysisParams{SourceStep: 4}),
		NewStep(SynthesisParams{}),
	)
	p.Steps[0].Status = StatusComplete
	p.Steps[0].Result = &Result{Text: "found", Citations: []Citation{{Title: "Go", URI: "https://go.dev"}}}

	data, err := json.Marshal(p.Steps)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"query":"go"`)
	assert.Contains(t, string(data), `"source_step":4`)

	var decoded []*Step
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, len(p.Steps))
	for i, step := range decoded {
		assert.EqualValues(t, p.Steps[i], step)
	}

	err = json.Unmarshal([]byte(`{"ordinal":1,"tool":"teleport"}`), &Step{})
	assert.Error(t, err)
}

func TestPlan_Clone(t *testing.T) {
	p := samplePlan()
	p.Steps[0].Result = &Result{Citations: []Citation{{URI: "a"}}}
	clone := p.Clone()
	clone.Steps[0].Result.Citations[0].URI = "b"
	clone.Steps[1].Status = StatusError
	assert.Equal(t, "a", p.Steps[0].Result.Citations[0].URI)
	assert.Equal(t, StatusPending, p.Steps[1].Status)
}

func TestCodeParams_Description(t *testing.T) {
	testCases := []struct {
		description string
		code        string
		expect      string
	}{
		{description: "short", code: "return 2+2", expect: "Run sandboxed code: return 2+2"},
		{description: "multi line", code: "var a = 1\nreturn a", expect: "Run sandboxed code: var a = 1 …"},
		{description: "long ascii", code: "return " + strings.Repeat("a", 60), expect: "Run sandboxed code: return " + strings.Repeat("a", 41) + "…"},
		{description: "long multi byte", code: `return "x` + strings.Repeat("é", 60) + `"`, expect: `Run sandboxed code: return "x` + strings.Repeat("é", 39) + "…"},
	}
	for _, testCase := range testCases {
		step := NewStep(CodeParams{Code: testCase.code})
		assert.True(t, utf8.ValidString(step.Description), testCase.description)
		assert.Equal(t, testCase.expect, step.Description, testCase.description)
	}
}
