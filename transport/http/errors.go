package http

import (
	"errors"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/viant/cogniflow"
	"github.com/viant/cogniflow/model/plan"
	"github.com/viant/cogniflow/policy"
	"github.com/viant/cogniflow/runtime/orchestrator"
)

// statusOf maps orchestrator errors to HTTP status codes.
func statusOf(err error) int {
	var validationErr *plan.ValidationError
	switch {
	case errors.Is(err, cogniflow.ErrSessionNotFound), errors.Is(err, orchestrator.ErrTurnNotFound):
		return stdhttp.StatusNotFound
	case errors.Is(err, orchestrator.ErrBusy),
		errors.Is(err, orchestrator.ErrPlanFinalized),
		errors.Is(err, orchestrator.ErrNotAwaiting),
		errors.Is(err, orchestrator.ErrNoPlan),
		errors.Is(err, orchestrator.ErrTurnInFlight):
		return stdhttp.StatusConflict
	case errors.As(err, &validationErr),
		errors.Is(err, plan.ErrIndexOutOfRange),
		errors.Is(err, plan.ErrEmptyPlan),
		errors.Is(err, policy.ErrToolBlocked):
		return stdhttp.StatusUnprocessableEntity
	case errors.Is(err, orchestrator.ErrNoArchive):
		return stdhttp.StatusNotImplemented
	}
	return stdhttp.StatusInternalServerError
}

func abort(c *gin.Context, err error) {
	status := statusOf(err)
	if status == stdhttp.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
