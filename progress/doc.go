// Package progress keeps step counters for the plan being executed. The
// orchestrator embeds the latest counters in every snapshot it publishes.
package progress
