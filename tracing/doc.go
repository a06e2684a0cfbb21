// Package tracing wraps OpenTelemetry so the orchestrator can open spans for
// planning, each executed step and synthesis without importing the SDK.
// Without Init every span is a no-op.
package tracing
