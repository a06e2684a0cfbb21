package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
	"github.com/viant/cogniflow/internal/clock"
	"github.com/viant/cogniflow/internal/idgen"
	"github.com/viant/cogniflow/metrics"
	"github.com/viant/cogniflow/model/cognitive"
	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/model/plan"
	"github.com/viant/cogniflow/policy"
	"github.com/viant/cogniflow/progress"
	"github.com/viant/cogniflow/runtime/execution"
	"github.com/viant/cogniflow/service/action/image"
	"github.com/viant/cogniflow/service/action/modulate"
	"github.com/viant/cogniflow/service/action/sandbox"
	"github.com/viant/cogniflow/service/action/search"
	"github.com/viant/cogniflow/service/approval"
	approvalmemory "github.com/viant/cogniflow/service/approval/memory"
	"github.com/viant/cogniflow/service/backend"
	"github.com/viant/cogniflow/service/dao"
	"github.com/viant/cogniflow/service/dao/turn"
	"github.com/viant/cogniflow/service/event"
	"github.com/viant/cogniflow/service/executor"
)

// CancellationMarker is appended to the model turn text on cancel.
const CancellationMarker = "[Cancelled by user]"

// Wait blocks until the task started by an operation finishes or ctx is done,
// and returns the process state at that point.
type Wait func(ctx context.Context) (execution.ProcessState, error)

// Orchestrator owns one conversation session. All state is guarded by mu;
// the task goroutine writes only through mutate, which re-checks the task
// token under the lock, so nothing is written once cancel was observed.
type Orchestrator struct {
	id           string
	backend      backend.Backend
	executor     *executor.Service
	sandbox      sandbox.Runner
	approvals    approval.Service
	archive      turn.Service
	policy       *policy.Policy
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	historyTurns int
	bus          *event.Bus[*Snapshot]

	mu       sync.Mutex
	state    execution.ProcessState
	ledger   *conversation.Ledger
	vector   *cognitive.Vector
	token    *execution.Token
	progress *progress.Progress
	task     *task
	seq      uint64

	// stepHook, when set, runs on the task goroutine before the step at
	// index starts; tests use it to cancel between steps.
	stepHook func(index int)
}

type task struct {
	done chan struct{}
}

// New creates an idle orchestrator using b for planning, tools and synthesis.
func New(b backend.Backend, options ...Option) (*Orchestrator, error) {
	if b == nil {
		return nil, fmt.Errorf("backend was nil")
	}
	ret := &Orchestrator{
		id:           idgen.Prefixed("session"),
		backend:      b,
		logger:       log.Logger,
		historyTurns: DefaultHistoryTurns,
		state:        execution.StateIdle,
		ledger:       &conversation.Ledger{},
	}
	for _, option := range options {
		option(ret)
	}
	ret.logger = ret.logger.With().Str("session", ret.id).Logger()
	if ret.approvals == nil {
		ret.approvals = approvalmemory.New()
	}
	if ret.executor == nil {
		var err error
		ret.executor, err = executor.New(
			executor.WithSearch(search.New(b)),
			executor.WithSandbox(sandbox.New(ret.sandbox)),
			executor.WithModulate(modulate.New(b)),
			executor.WithImage(image.New(b)),
			executor.WithListener(executor.LogListener(ret.logger)),
		)
		if err != nil {
			return nil, err
		}
	}
	ret.bus = event.NewBus[*Snapshot](ret.logger)
	return ret, nil
}

// ID returns the session identifier.
func (o *Orchestrator) ID() string {
	return o.id
}

// State returns the current process state.
func (o *Orchestrator) State() execution.ProcessState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Approvals returns the service holding plan review requests.
func (o *Orchestrator) Approvals() approval.Service {
	return o.approvals
}

// Turn returns a copy of the turn with the supplied ID.
func (o *Orchestrator) Turn(turnID string) (*conversation.Turn, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	t, _ := o.ledger.Lookup(turnID)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTurnNotFound, turnID)
	}
	return t.Clone(), nil
}

// Submit starts a task answering query. It is rejected with ErrBusy, without
// touching the ledger, unless the session is idle or the last task finished.
func (o *Orchestrator) Submit(ctx context.Context, query string, attachment *conversation.Attachment) (Wait, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.state.AcceptsSubmission() {
		o.logger.Warn().Str("state", string(o.state)).Msg("submission rejected while a task is in progress")
		o.metrics.Submission(false)
		return nil, fmt.Errorf("%w: state %s", ErrBusy, o.state)
	}
	o.metrics.Submission(true)
	if o.token != nil {
		o.token.Release()
	}
	token := execution.NewToken(context.WithoutCancel(ctx))
	o.token = token
	o.progress = nil

	user := conversation.NewUserTurn(query, attachment)
	model := conversation.NewModelTurn(query)
	o.ledger.Append(user, model)
	o.setState(execution.StateReceiving)
	o.publish(EventSubmitted, model.ID)

	request := &backend.PlanRequest{
		Query:      query,
		History:    o.ledger.History(model.ID, o.historyTurns),
		Attachment: attachment,
	}
	o.setState(execution.StatePlanning)
	o.publish(EventState, model.ID)
	t := o.start(token, model.ID, func() {
		o.plan(token, model.ID, request)
	})
	return o.waiter(t), nil
}

// Cancel raises the task token, aborting any in-flight backend call, and
// forces the Cancelled state. It returns false when nothing was cancellable.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	if !o.state.IsCancellable() {
		o.mu.Unlock()
		return false
	}
	awaiting := o.state == execution.StateAwaitingExecution
	o.token.Raise()
	model := o.ledger.Last()
	var planID string
	if model != nil {
		if awaiting && model.Plan != nil {
			planID = model.Plan.ID
		}
		o.abortSteps(model, "cancelled")
		model.Text = appendMarker(model.Text)
		model.State = conversation.StateCancelled
		model.CurrentStep = 0
	}
	o.setState(execution.StateCancelled)
	turnID := ""
	if model != nil {
		turnID = model.ID
	}
	o.publish(EventCancelled, turnID)
	o.mu.Unlock()

	o.metrics.Cancelled()
	o.logger.Info().Str("turn", turnID).Msg("task cancelled")
	if planID != "" {
		o.decide(context.Background(), planID, false, "cancelled")
	}
	return true
}

// NewConversation drops the ledger and the cognitive context.
func (o *Orchestrator) NewConversation() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.state.AcceptsSubmission() {
		return fmt.Errorf("%w: state %s", ErrBusy, o.state)
	}
	o.ledger.Reset()
	o.vector = nil
	o.progress = nil
	// reset bypasses the transition table: a new conversation starts over
	o.state = execution.StateIdle
	o.publish(EventReset, "")
	return nil
}

// ArchiveTurn moves the finished submission containing turnID to the archive.
func (o *Orchestrator) ArchiveTurn(ctx context.Context, turnID string) error {
	if o.archive == nil {
		return ErrNoArchive
	}
	o.mu.Lock()
	user, model, ok := o.ledger.Pair(turnID)
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTurnNotFound, turnID)
	}
	if !model.State.IsTerminal() {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrTurnInFlight, model.ID, model.State)
	}
	archivedAt := clock.Now()
	pair := []*conversation.Turn{user.Clone(), model.Clone()}
	o.mu.Unlock()

	for _, item := range pair {
		item.ArchivedAt = &archivedAt
		if err := o.archive.Save(ctx, item); err != nil {
			return fmt.Errorf("failed to archive turn %s: %w", item.ID, err)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.ledger.Remove(pair[0].ID, pair[1].ID)
	o.publish(EventArchived, pair[1].ID)
	return nil
}

// Archived lists archived turns, oldest first.
func (o *Orchestrator) Archived(ctx context.Context, parameters ...*dao.Parameter) ([]*conversation.Turn, error) {
	if o.archive == nil {
		return nil, ErrNoArchive
	}
	return o.archive.List(ctx, parameters...)
}

// Close cancels the running task, waits for it and tears the bus down.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.Cancel()
	o.mu.Lock()
	t := o.task
	o.mu.Unlock()
	var err error
	if t != nil {
		_, err = o.waiter(t)(ctx)
	}
	o.bus.Close()
	o.mu.Lock()
	if o.token != nil {
		o.token.Release()
	}
	o.mu.Unlock()
	return err
}

// start runs fn as the task goroutine; o.mu must be held. A panic in fn
// fails the turn instead of the process.
func (o *Orchestrator) start(token *execution.Token, turnID string, fn func()) *task {
	t := &task{done: make(chan struct{})}
	o.task = t
	go func() {
		defer close(t.done)
		var catcher panics.Catcher
		catcher.Try(fn)
		if recovered := catcher.Recovered(); recovered != nil {
			o.fail(token, turnID, "task", nil, recovered.AsError())
		}
	}()
	return t
}

func (o *Orchestrator) waiter(t *task) Wait {
	return func(ctx context.Context) (execution.ProcessState, error) {
		if t != nil {
			select {
			case <-t.done:
			case <-ctx.Done():
				return o.State(), ctx.Err()
			}
		}
		return o.State(), nil
	}
}

// mutate applies fn and publishes a snapshot unless token was raised. It
// reports whether fn ran.
func (o *Orchestrator) mutate(token *execution.Token, eventType, turnID string, fn func(model *conversation.Turn)) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if token.Raised() || token != o.token {
		return false
	}
	model, _ := o.ledger.Lookup(turnID)
	if model == nil {
		return false
	}
	fn(model)
	o.publish(eventType, turnID)
	return true
}

// setState must be called with o.mu held.
func (o *Orchestrator) setState(next execution.ProcessState) {
	if !o.state.CanTransition(next) {
		o.logger.Error().Str("from", string(o.state)).Str("to", string(next)).Msg("illegal state transition ignored")
		return
	}
	o.logger.Debug().Str("from", string(o.state)).Str("to", string(next)).Msg("state transition")
	o.state = next
	o.metrics.Transition(string(next))
}

// fail records err as the outcome of the task and moves to Error.
func (o *Orchestrator) fail(token *execution.Token, turnID, stage string, step *plan.Step, err error) {
	entry := o.logger.Error().Err(err).Str("stage", stage).Str("turn", turnID)
	if step != nil {
		entry = entry.Int("step", step.Ordinal).Str("tool", string(step.Tool)).Str("description", step.Description)
	}
	entry.Msg("task failed")
	o.mutate(token, EventError, turnID, func(model *conversation.Turn) {
		o.abortSteps(model, err.Error())
		model.Text = diagnostic(stage, err)
		model.State = conversation.StateError
		model.CurrentStep = 0
		o.setState(execution.StateError)
	})
}

// abortSteps closes steps left executing with an error result; o.mu must be held.
func (o *Orchestrator) abortSteps(model *conversation.Turn, reason string) {
	if model.Plan == nil {
		return
	}
	for _, step := range model.Plan.Steps {
		if step.Status != plan.StatusExecuting {
			continue
		}
		step.Result = &plan.Result{Error: reason}
		_ = step.Advance(plan.StatusError)
		o.progress.Finished(true)
	}
}

func (o *Orchestrator) decide(ctx context.Context, planID string, approved bool, reason string) {
	if _, err := o.approvals.Decide(ctx, planID, approved, reason); err != nil {
		o.logger.Warn().Err(err).Str("plan", planID).Msg("failed to record plan decision")
	}
}

func diagnostic(stage string, err error) string {
	switch stage {
	case stagePlanning:
		return fmt.Sprintf("Could not build a plan for this request: %v", err)
	case stageSynthesizing:
		return fmt.Sprintf("Could not synthesize the answer: %v", err)
	}
	return fmt.Sprintf("Execution stopped: %v", err)
}

func appendMarker(text string) string {
	if strings.TrimSpace(text) == "" {
		return CancellationMarker
	}
	return text + "\n\n" + CancellationMarker
}
