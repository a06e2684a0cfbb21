package conversation

import (
	"time"

	"github.com/viant/cogniflow/internal/clock"
	"github.com/viant/cogniflow/internal/idgen"
	"github.com/viant/cogniflow/model/cognitive"
	"github.com/viant/cogniflow/model/plan"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// State is the sub-state of a model turn.
type State string

const (
	StatePlanning     State = "planning"
	StateAwaiting     State = "awaiting"
	StateExecuting    State = "executing"
	StateSynthesizing State = "synthesizing"
	StateDone         State = "done"
	StateError        State = "error"
	StateCancelled    State = "cancelled"
)

// IsTerminal reports whether the turn has finished.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateError || s == StateCancelled
}

// Attachment is an optional image supplied with a user query.
type Attachment struct {
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// Turn is one entry in the conversation ledger.
type Turn struct {
	ID          string            `json:"id"`
	Role        Role              `json:"role"`
	Text        string            `json:"text"`
	Query       string            `json:"query,omitempty"`
	Attachment  *Attachment       `json:"attachment,omitempty"`
	Plan        *plan.Plan        `json:"plan,omitempty"`
	State       State             `json:"state,omitempty"`
	Finalized   bool              `json:"finalized,omitempty"`
	CurrentStep int               `json:"currentStep,omitempty"`
	Context     *cognitive.Vector `json:"context,omitempty"`
	Citations   []plan.Citation   `json:"citations,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	ArchivedAt  *time.Time        `json:"archivedAt,omitempty"`
}

// NewUserTurn creates a user turn.
func NewUserTurn(query string, attachment *Attachment) *Turn {
	return &Turn{
		ID:         idgen.Prefixed("turn"),
		Role:       RoleUser,
		Text:       query,
		Query:      query,
		Attachment: attachment,
		CreatedAt:  clock.Now(),
	}
}

// NewModelTurn creates the model turn answering query.
func NewModelTurn(query string) *Turn {
	return &Turn{
		ID:        idgen.Prefixed("turn"),
		Role:      RoleModel,
		Query:     query,
		State:     StatePlanning,
		CreatedAt: clock.Now(),
	}
}

// Clone returns a deep copy of the turn.
func (t *Turn) Clone() *Turn {
	if t == nil {
		return nil
	}
	ret := *t
	ret.Plan = t.Plan.Clone()
	ret.Context = t.Context.Clone()
	if len(t.Citations) > 0 {
		ret.Citations = append([]plan.Citation(nil), t.Citations...)
	}
	if t.Attachment != nil {
		attachment := *t.Attachment
		ret.Attachment = &attachment
	}
	if t.ArchivedAt != nil {
		at := *t.ArchivedAt
		ret.ArchivedAt = &at
	}
	return &ret
}
