package http

import (
	"fmt"
	stdhttp "net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/model/plan"
	"github.com/viant/cogniflow/policy"
	"github.com/viant/cogniflow/runtime/execution"
	"github.com/viant/cogniflow/runtime/orchestrator"
	"github.com/viant/cogniflow/service/approval"
	"github.com/viant/cogniflow/service/dao"
)

// SubmitRequest is the body of a submission.
type SubmitRequest struct {
	Query      string                   `json:"query" binding:"required"`
	Attachment *conversation.Attachment `json:"attachment,omitempty"`
}

// ReorderRequest is the body of a reorder; indexes are 0-based.
type ReorderRequest struct {
	From *int `json:"from" binding:"required,gte=0"`
	To   *int `json:"to" binding:"required,gte=0"`
}

// TaskResponse reports the state after an operation starting a task.
type TaskResponse struct {
	SessionID string                 `json:"sessionId"`
	TurnID    string                 `json:"turnId,omitempty"`
	State     execution.ProcessState `json:"state"`
}

func (s *Server) session(c *gin.Context) (*orchestrator.Orchestrator, bool) {
	session, err := s.service.Session(c.Param("session"))
	if err != nil {
		abort(c, err)
		return nil, false
	}
	return session, true
}

func stepIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.AbortWithStatusJSON(stdhttp.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid step index %q", c.Param("index"))})
		return 0, false
	}
	return index, true
}

// await blocks on wait when the request asks for it with ?wait=true.
func await(c *gin.Context, session *orchestrator.Orchestrator, wait orchestrator.Wait) (execution.ProcessState, error) {
	if c.Query("wait") != "true" {
		return session.State(), nil
	}
	return wait(c.Request.Context())
}

func (s *Server) createSession(c *gin.Context) {
	session, err := s.service.NewSession()
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(stdhttp.StatusCreated, TaskResponse{SessionID: session.ID(), State: session.State()})
}

func (s *Server) listSessions(c *gin.Context) {
	ids := s.service.Sessions()
	sort.Strings(ids)
	c.JSON(stdhttp.StatusOK, gin.H{"sessions": ids})
}

func (s *Server) closeSession(c *gin.Context) {
	if err := s.service.CloseSession(c.Request.Context(), c.Param("session")); err != nil {
		abort(c, err)
		return
	}
	c.Status(stdhttp.StatusNoContent)
}

func (s *Server) snapshot(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(stdhttp.StatusOK, session.Snapshot())
}

func (s *Server) submit(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	request := &SubmitRequest{}
	if err := c.ShouldBindJSON(request); err != nil {
		c.AbortWithStatusJSON(stdhttp.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wait, err := session.Submit(c.Request.Context(), request.Query, request.Attachment)
	if err != nil {
		abort(c, err)
		return
	}
	var turnID string
	if turns := session.Snapshot().Turns; len(turns) > 0 {
		turnID = turns[len(turns)-1].ID
	}
	state, err := await(c, session, wait)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(stdhttp.StatusAccepted, TaskResponse{SessionID: session.ID(), TurnID: turnID, State: state})
}

func (s *Server) cancel(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	cancelled := session.Cancel()
	c.JSON(stdhttp.StatusOK, gin.H{"cancelled": cancelled, "state": session.State()})
}

func (s *Server) reset(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	if err := session.NewConversation(); err != nil {
		abort(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, session.Snapshot())
}

func (s *Server) turn(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	t, err := session.Turn(c.Param("turn"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, t)
}

// edited responds with the turn after a successful gate edit.
func (s *Server) edited(c *gin.Context, session *orchestrator.Orchestrator, err error) {
	if err != nil {
		abort(c, err)
		return
	}
	t, err := session.Turn(c.Param("turn"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, t)
}

func (s *Server) addStep(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	s.edited(c, session, session.AddPlanStep(c.Param("turn")))
}

// updateStep takes a step in its flat JSON form, e.g.
// {"tool":"web_search","query":"golang"}.
func (s *Server) updateStep(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	index, ok := stepIndex(c)
	if !ok {
		return
	}
	step := &plan.Step{}
	if err := c.ShouldBindJSON(step); err != nil {
		c.AbortWithStatusJSON(stdhttp.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.edited(c, session, session.UpdatePlanStep(c.Param("turn"), index, step.Params))
}

func (s *Server) deleteStep(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	index, ok := stepIndex(c)
	if !ok {
		return
	}
	s.edited(c, session, session.DeletePlanStep(c.Param("turn"), index))
}

func (s *Server) reorder(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	request := &ReorderRequest{}
	if err := c.ShouldBindJSON(request); err != nil {
		c.AbortWithStatusJSON(stdhttp.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.edited(c, session, session.ReorderPlan(c.Param("turn"), *request.From, *request.To))
}

func (s *Server) execute(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	wait, err := session.ExecutePlan(c.Request.Context(), c.Param("turn"))
	if err != nil {
		abort(c, err)
		return
	}
	state, err := await(c, session, wait)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(stdhttp.StatusAccepted, TaskResponse{SessionID: session.ID(), TurnID: c.Param("turn"), State: state})
}

func (s *Server) archive(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	if err := session.ArchiveTurn(c.Request.Context(), c.Param("turn")); err != nil {
		abort(c, err)
		return
	}
	c.Status(stdhttp.StatusNoContent)
}

// archived lists archived turns; ?role= and ?state= filter the result.
func (s *Server) archived(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var parameters []*dao.Parameter
	if role := c.QueryArray("role"); len(role) > 0 {
		parameters = append(parameters, dao.NewParameter("Role", role...))
	}
	if state := c.QueryArray("state"); len(state) > 0 {
		parameters = append(parameters, dao.NewParameter("State", state...))
	}
	turns, err := session.Archived(c.Request.Context(), parameters...)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, gin.H{"turns": turns})
}

func (s *Server) approvals(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var filters []approval.PendingFilter
	if turnID := c.Query("turn"); turnID != "" {
		filters = append(filters, approval.WithTurnID(turnID))
	}
	pending, err := approval.ListPending(c.Request.Context(), session.Approvals(), filters...)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, gin.H{"pending": pending})
}

func (s *Server) getPolicy(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, policy.ToConfig(s.service.Policy()))
}

func (s *Server) putPolicy(c *gin.Context) {
	config := &policy.Config{}
	if err := c.ShouldBindJSON(config); err != nil {
		c.AbortWithStatusJSON(stdhttp.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.service.Policy().Apply(config)
	s.logger.Info().Str("mode", config.Mode).Strs("blocked", config.BlockList).Msg("policy updated")
	c.JSON(stdhttp.StatusOK, policy.ToConfig(s.service.Policy()))
}
