package cognitive

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVector_Clamp(t *testing.T) {
	testCases := []struct {
		description string
		input       Vector
		expect      Vector
	}{
		{
			description: "in bounds",
			input:       Vector{Valence: 0.5, Arousal: 0.2, Dominance: 0.3, Novelty: 0.4, Complexity: 0.5, Temporality: -0.5},
			expect:      Vector{Valence: 0.5, Arousal: 0.2, Dominance: 0.3, Novelty: 0.4, Complexity: 0.5, Temporality: -0.5},
		},
		{
			description: "out of bounds",
			input:       Vector{Valence: -3, Arousal: 2, Dominance: -1, Novelty: 1.5, Complexity: -0.1, Temporality: 9},
			expect:      Vector{Valence: -1, Arousal: 1, Dominance: 0, Novelty: 1, Complexity: 0, Temporality: 1},
		},
		{
			description: "nan",
			input:       Vector{Valence: math.NaN(), Arousal: math.NaN()},
			expect:      Vector{Valence: -1, Arousal: 0},
		},
	}
	for _, testCase := range testCases {
		actual := testCase.input
		actual.Clamp()
		assert.EqualValues(t, testCase.expect, actual, testCase.description)
	}
}

func TestVector_Instruction(t *testing.T) {
	var empty *Vector
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, "", empty.Instruction())
	assert.Nil(t, empty.Clone())

	v := &Vector{Valence: 0.8, Arousal: 0.9, Temporality: -0.6}
	instruction := v.Instruction()
	assert.Contains(t, instruction, "valence: 0.80 (positive)")
	assert.Contains(t, instruction, "arousal: 0.90 (high)")
	assert.Contains(t, instruction, "temporality: -0.60 (past-oriented)")
	assert.Contains(t, instruction, "must not change facts")

	clone := v.Clone()
	clone.Valence = 0
	assert.Equal(t, 0.8, v.Valence)
}
