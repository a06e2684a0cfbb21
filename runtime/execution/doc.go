// Package execution holds the process state machine and the per submission
// cancellation token shared by the orchestrator and the tools it calls.
package execution
