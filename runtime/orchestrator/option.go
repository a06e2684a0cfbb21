package orchestrator

import (
	"github.com/rs/zerolog"
	"github.com/viant/cogniflow/metrics"
	"github.com/viant/cogniflow/policy"
	"github.com/viant/cogniflow/service/action/sandbox"
	"github.com/viant/cogniflow/service/approval"
	"github.com/viant/cogniflow/service/dao/turn"
	"github.com/viant/cogniflow/service/executor"
)

// DefaultHistoryTurns is the number of finished question/answer pairs passed
// to follow-up prompts.
const DefaultHistoryTurns = 3

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithSessionID sets the session identifier stamped on events.
func WithSessionID(id string) Option {
	return func(o *Orchestrator) {
		if id != "" {
			o.id = id
		}
	}
}

// WithExecutor replaces the dispatch table built from the backend.
func WithExecutor(service *executor.Service) Option {
	return func(o *Orchestrator) {
		o.executor = service
	}
}

// WithSandbox sets the runner of sandboxed code steps.
func WithSandbox(runner sandbox.Runner) Option {
	return func(o *Orchestrator) {
		o.sandbox = runner
	}
}

// WithApprovals sets the service recording plan review requests.
func WithApprovals(service approval.Service) Option {
	return func(o *Orchestrator) {
		o.approvals = service
	}
}

// WithArchive sets the store receiving archived turns.
func WithArchive(archive turn.Service) Option {
	return func(o *Orchestrator) {
		o.archive = archive
	}
}

// WithPolicy sets the review policy.
func WithPolicy(p *policy.Policy) Option {
	return func(o *Orchestrator) {
		o.policy = p
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithHistory sets how many finished pairs follow-up prompts include; 0
// disables history.
func WithHistory(turns int) Option {
	return func(o *Orchestrator) {
		if turns >= 0 {
			o.historyTurns = turns
		}
	}
}
