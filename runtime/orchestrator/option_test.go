package orchestrator

// withStepHook runs hook on the task goroutine before each step starts.
func withStepHook(hook func(o *Orchestrator, index int)) Option {
	return func(o *Orchestrator) {
		o.stepHook = func(index int) { hook(o, index) }
	}
}
