// Package http exposes orchestrator sessions over REST (gin) and streams
// their snapshots over a websocket.
package http
