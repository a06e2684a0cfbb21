package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/cogniflow/model/plan"
)

func TestPolicy_Check(t *testing.T) {
	p := plan.New(
		plan.NewStep(plan.SearchParams{Query: "q"}),
		plan.NewStep(plan.CodeParams{Code: "return 1"}),
		plan.NewStep(plan.SynthesisParams{}),
	)
	testCases := []struct {
		description string
		policy      *Policy
		expectErr   bool
		expectAuto  bool
	}{
		{description: "nil policy", policy: nil},
		{description: "auto nothing blocked", policy: New("auto"), expectAuto: true},
		{description: "blocked sandbox", policy: New("ask", "SANDBOXED_CODE"), expectErr: true},
		{description: "unknown mode falls back to ask", policy: New("deny", "image_synthesis")},
	}
	for _, testCase := range testCases {
		err := testCase.policy.Check(p)
		if testCase.expectErr {
			assert.True(t, errors.Is(err, ErrToolBlocked), testCase.description)
			assert.Contains(t, err.Error(), "step 2", testCase.description)
		} else {
			assert.NoError(t, err, testCase.description)
		}
		assert.Equal(t, testCase.expectAuto, testCase.policy.AutoExecute(), testCase.description)
	}
}

func TestPolicy_Apply(t *testing.T) {
	p := New(ModeAsk)
	p.Apply(&Config{Mode: "AUTO", BlockList: []string{"web_search"}})
	assert.True(t, p.AutoExecute())
	assert.False(t, p.IsAllowed(plan.ToolWebSearch))

	config := ToConfig(p)
	require.NotNil(t, config)
	assert.Equal(t, ModeAuto, config.Mode)
	assert.Equal(t, []string{"web_search"}, config.BlockList)
	assert.True(t, FromConfig(config).AutoExecute())
	assert.Nil(t, FromConfig(nil))
}

func TestContext(t *testing.T) {
	p := New(ModeAuto)
	assert.Same(t, p, FromContext(WithPolicy(context.Background(), p)))
	assert.Nil(t, FromContext(context.Background()))
}
