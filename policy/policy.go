package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/cogniflow/model/plan"
)

// Review modes.
const (
	ModeAsk  = "ask"  // operator reviews and commits every plan (default)
	ModeAuto = "auto" // plans execute as soon as they attach
)

// ErrToolBlocked is returned when a plan uses a blocked tool.
var ErrToolBlocked = errors.New("tool blocked by policy")

// Policy is the review policy of a session. A nil *Policy behaves as ask with
// nothing blocked. Methods are safe for concurrent use so the policy can be
// reloaded while a session runs.
type Policy struct {
	mu        sync.RWMutex
	mode      string
	blockList []string
}

// Config is the serialisable form of a Policy.
type Config struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty" mapstructure:"mode" validate:"omitempty,oneof=ask auto"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty" mapstructure:"block"`
}

// New creates a policy.
func New(mode string, blocked ...string) *Policy {
	ret := &Policy{}
	ret.Apply(&Config{Mode: mode, BlockList: blocked})
	return ret
}

// FromConfig converts a stored Config to a runtime Policy.
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return New(c.Mode, c.BlockList...)
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &Config{Mode: p.mode, BlockList: append([]string(nil), p.blockList...)}
}

// Apply replaces the policy settings in place.
func (p *Policy) Apply(c *Config) {
	if p == nil || c == nil {
		return
	}
	mode := strings.ToLower(strings.TrimSpace(c.Mode))
	if mode != ModeAuto {
		mode = ModeAsk
	}
	p.mu.Lock()
	p.mode = mode
	p.blockList = append([]string(nil), c.BlockList...)
	p.mu.Unlock()
}

// Mode returns the effective review mode.
func (p *Policy) Mode() string {
	if p == nil {
		return ModeAsk
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mode
}

// AutoExecute reports whether attached plans skip operator review.
func (p *Policy) AutoExecute() bool {
	return p.Mode() == ModeAuto
}

// IsAllowed reports whether tool is not blocked; names compare case-insensitively.
func (p *Policy) IsAllowed(tool plan.ToolKind) bool {
	if p == nil {
		return true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, blocked := range p.blockList {
		if strings.EqualFold(string(tool), strings.TrimSpace(blocked)) {
			return false
		}
	}
	return true
}

// Check returns an ErrToolBlocked error naming the first step that uses a
// blocked tool.
func (p *Policy) Check(pl *plan.Plan) error {
	if p == nil || pl == nil {
		return nil
	}
	for _, step := range pl.Steps {
		if !p.IsAllowed(step.Tool) {
			return fmt.Errorf("%w: step %d uses %s", ErrToolBlocked, step.Ordinal, step.Tool)
		}
	}
	return nil
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy from ctx, nil when absent.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
