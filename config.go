package cogniflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/viant/cogniflow/policy"
	"github.com/viant/cogniflow/runtime/orchestrator"
	"github.com/viant/cogniflow/service/action/sandbox"
	"github.com/viant/scy"
)

// EnvPrefix prefixes environment overrides, e.g. COGNIFLOW_BACKEND_MODEL.
const EnvPrefix = "COGNIFLOW"

// Backend providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderFake   = "fake"
)

// Sandbox kinds.
const (
	SandboxVM      = "vm"
	SandboxProcess = "process"
)

// Archive kinds.
const (
	ArchiveNone   = "none"
	ArchiveMemory = "memory"
	ArchiveFS     = "fs"
	ArchiveSQLite = "sqlite"
)

// Config is a serialisable representation of the service configuration. It
// can be populated from YAML, JSON or environment variables through
// LoadConfig; the zero value of every section inherits DefaultConfig.
type Config struct {
	Backend BackendConfig `json:"backend" yaml:"backend" mapstructure:"backend"`
	Sandbox SandboxConfig `json:"sandbox" yaml:"sandbox" mapstructure:"sandbox"`
	Policy  policy.Config `json:"policy" yaml:"policy" mapstructure:"policy"`
	Archive ArchiveConfig `json:"archive" yaml:"archive" mapstructure:"archive"`
	// History is the number of finished question/answer pairs included in
	// follow-up prompts.
	History int           `json:"history" yaml:"history" mapstructure:"history" validate:"gte=0,lte=20"`
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing" mapstructure:"tracing"`
}

// BackendConfig selects the generative backend.
type BackendConfig struct {
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider" validate:"required,oneof=openai ollama fake"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty" mapstructure:"model"`
	BaseURL  string `json:"baseURL,omitempty" yaml:"baseURL,omitempty" mapstructure:"baseURL" validate:"omitempty,url"`
	// APIKeyEnv names the environment variable holding the API key; the key
	// itself is never part of the configuration.
	APIKeyEnv string `json:"apiKeyEnv,omitempty" yaml:"apiKeyEnv,omitempty" mapstructure:"apiKeyEnv"`
	// APIKeySecret is the URL of a scy secret holding the API key, encrypted
	// with APIKeySecretKey (e.g. blowfish://default). It takes precedence
	// over APIKeyEnv.
	APIKeySecret    string  `json:"apiKeySecret,omitempty" yaml:"apiKeySecret,omitempty" mapstructure:"apiKeySecret"`
	APIKeySecretKey string  `json:"apiKeySecretKey,omitempty" yaml:"apiKeySecretKey,omitempty" mapstructure:"apiKeySecretKey"`
	RateLimit       float64 `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty" mapstructure:"rateLimit" validate:"gte=0"`
	Burst           int     `json:"burst,omitempty" yaml:"burst,omitempty" mapstructure:"burst" validate:"gte=0"`
}

// ResolveAPIKey loads the API key from APIKeySecret when set, otherwise from
// the APIKeyEnv environment variable.
func (c *BackendConfig) ResolveAPIKey(ctx context.Context) (string, error) {
	if c.APIKeySecret != "" {
		resource := scy.NewResource(nil, c.APIKeySecret, c.APIKeySecretKey)
		secret, err := scy.New().Load(ctx, resource)
		if err != nil {
			return "", fmt.Errorf("failed to load api key secret from %s: %w", c.APIKeySecret, err)
		}
		return strings.TrimSpace(secret.String()), nil
	}
	if c.APIKeyEnv == "" {
		return "", nil
	}
	return os.Getenv(c.APIKeyEnv), nil
}

// SandboxConfig selects the runner of sandboxed code steps.
type SandboxConfig struct {
	Kind        string        `json:"kind" yaml:"kind" mapstructure:"kind" validate:"required,oneof=vm process"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	Interpreter string        `json:"interpreter,omitempty" yaml:"interpreter,omitempty" mapstructure:"interpreter" validate:"required_if=Kind process"`
}

// ArchiveConfig selects where archived turns are kept.
type ArchiveConfig struct {
	Kind     string `json:"kind" yaml:"kind" mapstructure:"kind" validate:"required,oneof=none memory fs sqlite"`
	Location string `json:"location,omitempty" yaml:"location,omitempty" mapstructure:"location" validate:"required_if=Kind fs,required_if=Kind sqlite"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Address string `json:"address" yaml:"address" mapstructure:"address" validate:"required,hostname_port"`
}

// TracingConfig configures OpenTelemetry export. An empty Output writes to stdout.
type TracingConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Service string `json:"service,omitempty" yaml:"service,omitempty" mapstructure:"service"`
	Output  string `json:"output,omitempty" yaml:"output,omitempty" mapstructure:"output"`
}

// DefaultConfig returns a Config populated with the defaults used when no
// configuration file is supplied.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Provider:  ProviderOpenAI,
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Sandbox: SandboxConfig{
			Kind:        SandboxVM,
			Timeout:     sandbox.DefaultTimeout,
			Interpreter: sandbox.DefaultInterpreter,
		},
		Policy:  policy.Config{Mode: policy.ModeAsk},
		Archive: ArchiveConfig{Kind: ArchiveMemory},
		History: orchestrator.DefaultHistoryTurns,
		Server:  ServerConfig{Address: "localhost:8080"},
		Tracing: TracingConfig{Service: "cogniflow"},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate returns an aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, fieldErr := range fieldErrors {
		messages = append(messages, fmt.Sprintf("%s: failed %q", strings.TrimPrefix(fieldErr.Namespace(), "Config."), fieldErr.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(messages, "; "))
}

// NewViper creates a viper instance seeded with DefaultConfig and reading
// COGNIFLOW_ prefixed environment overrides. path is optional.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %v: %w", path, err)
	}
	return v, nil
}

// DecodeConfig unmarshals and validates the configuration held by v.
func DecodeConfig(v *viper.Viper) (*Config, error) {
	ret := &Config{}
	if err := v.Unmarshal(ret); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// LoadConfig reads the configuration file at path, applies environment
// overrides and validates the result. An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return DecodeConfig(v)
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("backend.provider", c.Backend.Provider)
	v.SetDefault("backend.model", c.Backend.Model)
	v.SetDefault("backend.baseURL", c.Backend.BaseURL)
	v.SetDefault("backend.apiKeyEnv", c.Backend.APIKeyEnv)
	v.SetDefault("backend.apiKeySecret", c.Backend.APIKeySecret)
	v.SetDefault("backend.apiKeySecretKey", c.Backend.APIKeySecretKey)
	v.SetDefault("backend.rateLimit", c.Backend.RateLimit)
	v.SetDefault("backend.burst", c.Backend.Burst)
	v.SetDefault("sandbox.kind", c.Sandbox.Kind)
	v.SetDefault("sandbox.timeout", c.Sandbox.Timeout)
	v.SetDefault("sandbox.interpreter", c.Sandbox.Interpreter)
	v.SetDefault("policy.mode", c.Policy.Mode)
	v.SetDefault("policy.block", c.Policy.BlockList)
	v.SetDefault("archive.kind", c.Archive.Kind)
	v.SetDefault("archive.location", c.Archive.Location)
	v.SetDefault("history", c.History)
	v.SetDefault("server.address", c.Server.Address)
	v.SetDefault("tracing.enabled", c.Tracing.Enabled)
	v.SetDefault("tracing.service", c.Tracing.Service)
	v.SetDefault("tracing.output", c.Tracing.Output)
}
