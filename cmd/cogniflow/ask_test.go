package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/cogniflow"
	"github.com/viant/cogniflow/model/plan"
	"github.com/viant/cogniflow/runtime/execution"
	"github.com/viant/cogniflow/runtime/orchestrator"
	"github.com/viant/cogniflow/service/backend/fake"
)

func newSession(t *testing.T, steps []plan.Params, chunks ...string) *orchestrator.Orchestrator {
	t.Helper()
	srv, err := cogniflow.New(cogniflow.WithLogger(zerolog.Nop()), cogniflow.WithBackend(fake.New(steps, chunks...)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close(context.Background()) })
	session, err := srv.NewSession()
	require.NoError(t, err)
	return session
}

func TestAsk(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		autoApprove bool
		expectState execution.ProcessState
		expect      []string
	}{
		{
			description: "approved at the prompt",
			input:       "y\n",
			expectState: execution.StateDone,
			expect:      []string{"Plan (2 steps):", "1. [sandboxed_code] Run sandboxed code: return 2+2", "Execute this plan? [y/N]", "step 1 ok", "2+2 is 4"},
		},
		{
			description: "auto approved",
			autoApprove: true,
			expectState: execution.StateDone,
			expect:      []string{"step 1 ok", "2+2 is 4"},
		},
		{
			description: "declined",
			input:       "n\n",
			expectState: execution.StateCancelled,
			expect:      []string{"Execute this plan? [y/N]", orchestrator.CancellationMarker},
		},
	}
	for _, testCase := range testCases {
		session := newSession(t, []plan.Params{plan.CodeParams{Code: "return 2+2"}, plan.SynthesisParams{}}, "2+2 ", "is 4")
		out := &bytes.Buffer{}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		state, err := ask(ctx, session, "compute 2+2 using code", nil, testCase.autoApprove, strings.NewReader(testCase.input), out, zerolog.Nop())
		cancel()
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expectState, state, testCase.description)
		for _, fragment := range testCase.expect {
			assert.Contains(t, out.String(), fragment, testCase.description)
		}
	}
}

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cogniflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  provider: fake\npolicy:\n  mode: auto\n"), 0o644))
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "show", "--config", path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "provider: fake")
	assert.Contains(t, out.String(), "mode: auto")
}

func TestLoadAttachment(t *testing.T) {
	dir := t.TempDir()
	image := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(image, []byte{0x89, 'P', 'N', 'G'}, 0o644))
	attachment, err := loadAttachment(image)
	require.NoError(t, err)
	assert.Equal(t, "image/png", attachment.MimeType)
	assert.Equal(t, "photo.png", attachment.Name)

	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("x"), 0o644))
	_, err = loadAttachment(text)
	assert.Error(t, err)

	attachment, err = loadAttachment("")
	assert.NoError(t, err)
	assert.Nil(t, attachment)
}
