package cogniflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/viant/cogniflow/metrics"
	"github.com/viant/cogniflow/policy"
	"github.com/viant/cogniflow/runtime/orchestrator"
	"github.com/viant/cogniflow/service/action/sandbox"
	"github.com/viant/cogniflow/service/backend"
	"github.com/viant/cogniflow/service/backend/fake"
	"github.com/viant/cogniflow/service/backend/ollama"
	"github.com/viant/cogniflow/service/backend/openai"
	"github.com/viant/cogniflow/service/dao/turn"
	turnfs "github.com/viant/cogniflow/service/dao/turn/fs"
	turnmemory "github.com/viant/cogniflow/service/dao/turn/memory"
	turnsqlite "github.com/viant/cogniflow/service/dao/turn/sqlite"
	"github.com/viant/cogniflow/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/time/rate"
)

// Version is reported as the tracing service version.
const Version = "0.3.0"

// ErrSessionNotFound is returned for an unknown session ID.
var ErrSessionNotFound = errors.New("session not found")

// Service builds and tracks orchestrator sessions sharing one backend,
// archive, policy and metrics registry.
type Service struct {
	config   *Config
	logger   zerolog.Logger
	backend  backend.Backend
	archive  turn.Service
	sandbox  sandbox.Runner
	policy   *policy.Policy
	metrics  *metrics.Metrics
	exporter sdktrace.SpanExporter
	shutdown tracing.Shutdown
	closers  []func() error

	mu       sync.RWMutex
	sessions map[string]*orchestrator.Orchestrator
}

// New creates a service. Components not supplied as options are built from
// the configuration.
func New(options ...Option) (*Service, error) {
	ret := &Service{logger: log.Logger, sessions: map[string]*orchestrator.Orchestrator{}}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(); err != nil {
		_ = ret.Close(context.Background())
		return nil, err
	}
	return ret, nil
}

func (s *Service) init() error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.policy == nil {
		s.policy = policy.FromConfig(&s.config.Policy)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if err := s.initTracing(); err != nil {
		return err
	}
	if s.backend == nil {
		b, err := NewBackend(context.Background(), &s.config.Backend)
		if err != nil {
			return err
		}
		s.backend = b
	}
	if s.sandbox == nil {
		runner, err := s.newSandbox()
		if err != nil {
			return err
		}
		s.sandbox = runner
	}
	if s.archive == nil {
		archive, err := s.newArchive()
		if err != nil {
			return err
		}
		s.archive = archive
	}
	return nil
}

func (s *Service) initTracing() error {
	var err error
	switch {
	case s.exporter != nil:
		s.shutdown, err = tracing.InitWithExporter(s.config.Tracing.Service, Version, s.exporter)
	case s.config.Tracing.Enabled:
		s.shutdown, err = tracing.Init(s.config.Tracing.Service, Version, s.config.Tracing.Output)
	}
	if err != nil {
		return fmt.Errorf("failed to initialise tracing: %w", err)
	}
	return nil
}

// NewBackend builds the generative backend selected by config.
func NewBackend(ctx context.Context, config *BackendConfig) (backend.Backend, error) {
	var model backend.Model
	switch config.Provider {
	case ProviderFake:
		return fake.New(nil), nil
	case ProviderOpenAI:
		var options []openai.Option
		if config.BaseURL != "" {
			options = append(options, openai.WithBaseURL(config.BaseURL))
		}
		apiKey, err := config.ResolveAPIKey(ctx)
		if err != nil {
			return nil, err
		}
		model = openai.New(apiKey, config.Model, options...)
	case ProviderOllama:
		ollamaModel, err := ollama.New(config.Model, config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama backend: %w", err)
		}
		model = ollamaModel
	default:
		return nil, fmt.Errorf("unsupported backend provider: %v", config.Provider)
	}
	if config.RateLimit > 0 {
		burst := config.Burst
		if burst == 0 {
			burst = 1
		}
		model = backend.WithRateLimit(model, rate.NewLimiter(rate.Limit(config.RateLimit), burst))
	}
	return backend.New(model), nil
}

func (s *Service) newSandbox() (sandbox.Runner, error) {
	switch s.config.Sandbox.Kind {
	case SandboxProcess:
		process, err := sandbox.NewProcess(context.Background(), s.config.Sandbox.Interpreter, s.config.Sandbox.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to start sandbox process: %w", err)
		}
		s.closers = append(s.closers, process.Close)
		return process, nil
	default:
		return sandbox.NewVM(s.config.Sandbox.Timeout), nil
	}
}

func (s *Service) newArchive() (turn.Service, error) {
	switch s.config.Archive.Kind {
	case ArchiveMemory:
		return turnmemory.New(), nil
	case ArchiveFS:
		archive, err := turnfs.New(s.config.Archive.Location, s.logger)
		if err != nil {
			return nil, err
		}
		return archive, nil
	case ArchiveSQLite:
		archive, err := turnsqlite.New(s.config.Archive.Location)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, archive.Close)
		return archive, nil
	}
	return nil, nil
}

// Config returns the effective configuration.
func (s *Service) Config() *Config {
	return s.config
}

// Policy returns the review policy shared by sessions; Apply on it takes
// effect for every session.
func (s *Service) Policy() *policy.Policy {
	return s.policy
}

// Metrics returns the metrics sink.
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// Logger returns the service logger.
func (s *Service) Logger() zerolog.Logger {
	return s.logger
}

// NewSession creates and registers an orchestrator. options are applied
// after the service defaults.
func (s *Service) NewSession(options ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	defaults := []orchestrator.Option{
		orchestrator.WithLogger(s.logger),
		orchestrator.WithPolicy(s.policy),
		orchestrator.WithMetrics(s.metrics),
		orchestrator.WithSandbox(s.sandbox),
		orchestrator.WithHistory(s.config.History),
	}
	if s.archive != nil {
		defaults = append(defaults, orchestrator.WithArchive(s.archive))
	}
	session, err := orchestrator.New(s.backend, append(defaults, options...)...)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	s.logger.Debug().Str("session", session.ID()).Msg("session created")
	return session, nil
}

// Session returns the session with the supplied ID.
func (s *Service) Session(id string) (*orchestrator.Orchestrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

// Sessions returns the IDs of the registered sessions.
func (s *Service) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ret = append(ret, id)
	}
	return ret
}

// CloseSession cancels the session task and unregisters it.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session.Close(ctx)
}

// Close closes every session, the sandbox process, the archive and flushes traces.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = map[string]*orchestrator.Orchestrator{}
	s.mu.Unlock()
	var errs []error
	for _, session := range sessions {
		if err := session.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, closer := range s.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.shutdown != nil {
		if err := s.shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
