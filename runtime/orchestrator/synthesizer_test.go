package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/cogniflow/model/cognitive"
)

func TestSynthesisPrompt(t *testing.T) {
	testCases := []struct {
		description string
		history     string
		results     []string
		vector      *cognitive.Vector
		expect      []string
		absent      []string
	}{
		{
			description: "results only",
			results:     []string{"[1] Search the web for \"go\": found"},
			expect:      []string{"Question: q", "[1] Search the web for \"go\": found"},
			absent:      []string{"Conversation so far", "affective context"},
		},
		{
			description: "no results",
			expect:      []string{"(no step results)"},
		},
		{
			description: "history and tone",
			history:     "User: a\nAssistant: b",
			vector:      &cognitive.Vector{Valence: 0.8},
			expect:      []string{"Conversation so far:\nUser: a\nAssistant: b", "valence: 0.80 (positive)", "must not change facts"},
		},
	}
	for _, testCase := range testCases {
		prompt := synthesisPrompt("q", testCase.history, testCase.results, testCase.vector)
		for _, fragment := range testCase.expect {
			assert.Contains(t, prompt, fragment, testCase.description)
		}
		for _, fragment := range testCase.absent {
			assert.NotContains(t, prompt, fragment, testCase.description)
		}
	}
}
