package approval

import (
	"encoding/json"
	"time"
)

// Event is published on the approval queue for every request and decision.
type Event struct {
	Topic   string            `json:"topic"`
	Data    interface{}       `json:"data"` // *Request | *Decision
	Headers map[string]string `json:"headers,omitempty"`
}

const (
	TopicRequestCreated  = "request.created"
	TopicDecisionCreated = "decision.created"
)

// ActionExecutePlan is the action of plan review requests.
const ActionExecutePlan = "plan.execute"

// Request represents a plan waiting for an operator decision
type Request struct {
	ID        string                 `json:"id"`     // plan ID
	TurnID    string                 `json:"turnId"` // model turn holding the plan
	Action    string                 `json:"action"`
	Tools     []string               `json:"tools,omitempty"`
	Args      json.RawMessage        `json:"args,omitempty"` // JSON encoded plan steps
	CreatedAt time.Time              `json:"createdAt"`
	ExpiresAt *time.Time             `json:"expiresAt,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// Decision represents approval decision
type Decision struct {
	ID        string    `json:"id"` // same as request.ID
	Approved  bool      `json:"approved"`
	Reason    string    `json:"reason,omitempty"`
	DecidedAt time.Time `json:"decidedAt"`
}
