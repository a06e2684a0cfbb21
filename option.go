package cogniflow

import (
	"github.com/rs/zerolog"
	"github.com/viant/cogniflow/metrics"
	"github.com/viant/cogniflow/policy"
	"github.com/viant/cogniflow/service/action/sandbox"
	"github.com/viant/cogniflow/service/backend"
	"github.com/viant/cogniflow/service/dao/turn"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option represents a service option
type Option func(s *Service)

// WithConfig sets the configuration; DefaultConfig is used otherwise.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithLogger sets the logger passed down to every session.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithBackend sets the generative backend, bypassing Config.Backend.
func WithBackend(b backend.Backend) Option {
	return func(s *Service) {
		s.backend = b
	}
}

// WithArchive sets the archive, bypassing Config.Archive.
func WithArchive(archive turn.Service) Option {
	return func(s *Service) {
		s.archive = archive
	}
}

// WithSandbox sets the runner of sandboxed code, bypassing Config.Sandbox.
func WithSandbox(runner sandbox.Runner) Option {
	return func(s *Service) {
		s.sandbox = runner
	}
}

// WithPolicy sets the review policy shared by all sessions.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithMetrics sets the metrics sink shared by all sessions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracingExporter configures OpenTelemetry tracing with a custom
// SpanExporter, e.g. an in-memory exporter in tests or OTLP in production.
func WithTracingExporter(exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		s.exporter = exporter
	}
}
