package orchestrator

import "errors"

var (
	// ErrBusy is returned when an operation needs the session to be idle or finished.
	ErrBusy = errors.New("orchestrator busy")

	ErrPlanFinalized = errors.New("plan already finalized")
	ErrNoPlan        = errors.New("no plan attached")
	ErrNotAwaiting   = errors.New("plan is not awaiting execution")
	ErrTurnNotFound  = errors.New("turn not found")
	ErrTurnInFlight  = errors.New("turn is still in flight")
	ErrNoArchive     = errors.New("archive not configured")

	// ErrCancelled stops the synthesis stream once the task token is raised.
	ErrCancelled = errors.New("task cancelled")
)
