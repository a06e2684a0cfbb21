// Package cogniflow provides a cognitive task orchestrator.
//
// A session turns a natural-language request into a flat, sequential plan,
// holds it for operator review, executes each step against a closed set of
// tools and streams a synthesized answer. The packages are layered as:
//
//   - runtime/orchestrator – the per-session state machine
//   - service/backend      – generative backends (OpenAI, Ollama, fake)
//   - service/executor     – the tool dispatch table
//   - service/event        – ordered snapshot notifications
//   - service/approval     – plan review requests and decisions
//   - service/dao/turn     – archived turns (memory, afs, sqlite)
//
// Host applications use the Service façade exposed by the root package:
//
//	srv, _ := cogniflow.New(cogniflow.WithConfig(config))
//	session, _ := srv.NewSession()
//	wait, _ := session.Submit(ctx, "compute 2+2 using code", nil)
//	_, _ = wait(ctx)
//	turn := session.Snapshot().Turns[1]
//	wait, _ = session.ExecutePlan(ctx, turn.ID)
//	state, _ := wait(ctx)
//
// For more details see the individual sub-packages.
package cogniflow
