// Package orchestrator implements the single-flight task orchestrator of a
// conversation session: it plans a query, holds the plan for review, executes
// the committed plan step by step and streams the synthesized answer. Every
// mutation is published as a full snapshot on the session bus.
package orchestrator
