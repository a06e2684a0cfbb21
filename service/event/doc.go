// Package event delivers typed events to in-process subscribers and, through
// publishers, to message queues.
package event
