package cogniflow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/cogniflow"
	"github.com/viant/cogniflow/policy"
	"github.com/viant/scy"
)

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		description string
		update      func(c *cogniflow.Config)
		expectErr   string
	}{
		{description: "defaults", update: func(c *cogniflow.Config) {}},
		{
			description: "unknown provider",
			update:      func(c *cogniflow.Config) { c.Backend.Provider = "bard" },
			expectErr:   "Backend.Provider",
		},
		{
			description: "fs archive requires location",
			update:      func(c *cogniflow.Config) { c.Archive.Kind = cogniflow.ArchiveFS },
			expectErr:   "Archive.Location",
		},
		{
			description: "unknown policy mode",
			update:      func(c *cogniflow.Config) { c.Policy.Mode = "yolo" },
			expectErr:   "Policy.Mode",
		},
		{
			description: "negative history",
			update:      func(c *cogniflow.Config) { c.History = -1 },
			expectErr:   "History",
		},
		{
			description: "zero sandbox timeout",
			update:      func(c *cogniflow.Config) { c.Sandbox.Timeout = 0 },
			expectErr:   "Sandbox.Timeout",
		},
	}
	for _, testCase := range testCases {
		config := cogniflow.DefaultConfig()
		testCase.update(config)
		err := config.Validate()
		if testCase.expectErr == "" {
			assert.NoError(t, err, testCase.description)
			continue
		}
		require.Error(t, err, testCase.description)
		assert.Contains(t, err.Error(), testCase.expectErr, testCase.description)
	}
}

func TestLoadConfig(t *testing.T) {
	config, err := cogniflow.LoadConfig("")
	require.NoError(t, err)
	defaults := cogniflow.DefaultConfig()
	assert.Equal(t, defaults.Backend, config.Backend)
	assert.Equal(t, defaults.Sandbox, config.Sandbox)
	assert.Equal(t, defaults.Policy.Mode, config.Policy.Mode)
	assert.Equal(t, defaults.Archive, config.Archive)
	assert.Equal(t, defaults.Server, config.Server)

	path := filepath.Join(t.TempDir(), "cogniflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  provider: ollama
  model: llama3.1
sandbox:
  kind: vm
  timeout: 500ms
policy:
  mode: auto
  block: [image_synthesis]
archive:
  kind: fs
  location: /tmp/cogniflow/archive
history: 5
`), 0o644))
	t.Setenv("COGNIFLOW_SERVER_ADDRESS", "0.0.0.0:9090")

	config, err = cogniflow.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cogniflow.ProviderOllama, config.Backend.Provider)
	assert.Equal(t, "llama3.1", config.Backend.Model)
	assert.Equal(t, 500*time.Millisecond, config.Sandbox.Timeout)
	assert.Equal(t, policy.ModeAuto, config.Policy.Mode)
	assert.Equal(t, []string{"image_synthesis"}, config.Policy.BlockList)
	assert.Equal(t, cogniflow.ArchiveFS, config.Archive.Kind)
	assert.Equal(t, 5, config.History)
	assert.Equal(t, "0.0.0.0:9090", config.Server.Address)

	_, err = cogniflow.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBackendConfig_ResolveAPIKey(t *testing.T) {
	ctx := context.Background()
	secretURL := "file://" + filepath.Join(t.TempDir(), "openai.key")
	resource := scy.NewResource(nil, secretURL, "blowfish://default")
	require.NoError(t, scy.New().Store(ctx, scy.NewSecret("sk-from-secret", resource)))
	t.Setenv("COGNIFLOW_TEST_API_KEY", "sk-from-env")

	testCases := []struct {
		description string
		config      cogniflow.BackendConfig
		expect      string
		expectErr   bool
	}{
		{description: "env", config: cogniflow.BackendConfig{APIKeyEnv: "COGNIFLOW_TEST_API_KEY"}, expect: "sk-from-env"},
		{description: "secret wins over env", config: cogniflow.BackendConfig{APIKeyEnv: "COGNIFLOW_TEST_API_KEY", APIKeySecret: secretURL, APIKeySecretKey: "blowfish://default"}, expect: "sk-from-secret"},
		{description: "missing secret", config: cogniflow.BackendConfig{APIKeySecret: "file://" + filepath.Join(t.TempDir(), "missing.key"), APIKeySecretKey: "blowfish://default"}, expectErr: true},
		{description: "no source", config: cogniflow.BackendConfig{}, expect: ""},
	}
	for _, testCase := range testCases {
		apiKey, err := testCase.config.ResolveAPIKey(ctx)
		if testCase.expectErr {
			assert.Error(t, err, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, apiKey, testCase.description)
	}

	missing := testCases[2].config
	missing.Provider = cogniflow.ProviderOpenAI
	_, err := cogniflow.NewBackend(ctx, &missing)
	assert.ErrorContains(t, err, "api key secret")
}
