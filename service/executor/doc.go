// Package executor is the tool dispatch table: it routes a plan step to the
// action implementing its tool kind and converts the action output into a
// step result.
package executor
