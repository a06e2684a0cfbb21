package sandbox

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_Run(t *testing.T) {
	if _, err := exec.LookPath(DefaultInterpreter); err != nil {
		t.Skip("node is not installed")
	}
	if err := exec.Command(DefaultInterpreter, "--permission", "-e", "").Run(); err != nil {
		t.Skip("node does not support the permission model")
	}
	t.Setenv("COGNIFLOW_TEST_SECRET", "leaked")

	testCases := []struct {
		description string
		code        string
		expect      string
		expectErr   bool
	}{
		{description: "arithmetic", code: "return 2+2", expect: "4"},
		{description: "object", code: "return {tools: ['web_search']}", expect: `{"tools":["web_search"]}`},
		{description: "no return", code: "var x = 1", expect: "null"},
		{description: "thrown error", code: `throw new Error("boom")`, expectErr: true},
		{description: "host file read denied", code: "return require('fs').readFileSync('/etc/hostname', 'utf8')", expectErr: true},
		{description: "host file write denied", code: "require('fs').writeFileSync('/tmp/cogniflow-sandbox', 'x'); return 1", expectErr: true},
		{description: "child process denied", code: "return require('child_process').execSync('id').toString()", expectErr: true},
		{description: "empty environment", code: "return process.env.COGNIFLOW_TEST_SECRET ?? null", expect: "null"},
	}

	ctx := context.Background()
	process, err := NewProcess(ctx, "", 5*time.Second)
	require.NoError(t, err)
	defer process.Close()

	for _, testCase := range testCases {
		value, err := process.Run(ctx, testCase.code)
		if testCase.expectErr {
			assert.Error(t, err, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.JSONEq(t, testCase.expect, string(value), testCase.description)
	}
}
