package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/cogniflow/service/dao"
)

func TestMatch(t *testing.T) {
	fields := map[string]string{"Role": "model", "State": "done"}
	testCases := []struct {
		description string
		parameters  []*dao.Parameter
		expect      bool
	}{
		{description: "no parameters", expect: true},
		{description: "single match", parameters: []*dao.Parameter{dao.NewParameter("State", "done")}, expect: true},
		{description: "single mismatch", parameters: []*dao.Parameter{dao.NewParameter("State", "error")}, expect: false},
		{description: "any of", parameters: []*dao.Parameter{dao.NewParameter("State", "error", "done")}, expect: true},
		{description: "all must match", parameters: []*dao.Parameter{dao.NewParameter("Role", "user"), dao.NewParameter("State", "done")}, expect: false},
		{description: "no values", parameters: []*dao.Parameter{dao.NewParameter("State")}, expect: false},
		{description: "unknown field", parameters: []*dao.Parameter{dao.NewParameter("Tenant", "x")}, expect: true},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, Match(fields, testCase.parameters), testCase.description)
	}
}
