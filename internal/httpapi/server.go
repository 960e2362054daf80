// Package httpapi exposes the Engine API (submit/await/cancel/step) and
// the dev-mode inspector's event stream over gin.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flowcore/engine/pkg/engineapi"
	"github.com/flowcore/engine/pkg/inspector"
	"github.com/flowcore/engine/pkg/models"
)

// Server wires a *engineapi.Manager to a gin router.
type Server struct {
	manager *engineapi.Manager
	logger  *slog.Logger
}

// NewServer constructs a Server over an already-bootstrapped Manager.
func NewServer(manager *engineapi.Manager, logger *slog.Logger) *Server {
	return &Server{manager: manager, logger: logger}
}

// Routes registers every handler on router.
func (s *Server) Routes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)
	router.GET("/ready", s.handleReady)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/executions", s.handleSubmit)
		v1.GET("/executions/:id", s.handleAwait)
		v1.POST("/executions/:id/cancel", s.handleCancel)
		v1.POST("/executions/:id/step/continue", s.handleStepContinue)
		v1.POST("/executions/:id/step/reset", s.handleStepReset)
		v1.GET("/executions/:id/events", s.handleEvents)
		v1.GET("/executions/:id/debug-bundle", s.handleDebugBundle)
	}

	router.GET("/ws/executions/:id", s.handleEventStream)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// submitRequest is the wire shape of the Engine API's submit operation.
type submitRequest struct {
	Workflow    *models.Workflow       `json:"workflow" binding:"required"`
	TriggerType models.TriggerType     `json:"triggerType" binding:"required"`
	Input       map[string]interface{} `json:"input"`
	DryRun      bool                   `json:"dryRun"`
	StepMode    bool                   `json:"stepMode"`
	TimeoutMs   int64                  `json:"timeoutMs"`
}

func (s *Server) handleSubmit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := engineapi.SubmitOptions{
		DryRun:   req.DryRun,
		StepMode: req.StepMode,
		Timeout:  time.Duration(req.TimeoutMs) * time.Millisecond,
	}

	id, err := s.manager.Submit(c.Request.Context(), req.Workflow, req.TriggerType, req.Input, opts)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"executionId": id})
}

func (s *Server) handleAwait(c *gin.Context) {
	exec, err := s.manager.Await(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, exec)
}

func (s *Server) handleCancel(c *gin.Context) {
	if err := s.manager.Cancel(c.Param("id")); err != nil {
		s.respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"acknowledged": true})
}

func (s *Server) handleStepContinue(c *gin.Context) {
	err := s.manager.StepContinue(c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"acknowledged": true})
	case errors.Is(err, inspector.ErrNotPaused):
		c.JSON(http.StatusConflict, gin.H{"error": "NotPaused"})
	default:
		s.respondLookupError(c, err)
	}
}

func (s *Server) handleStepReset(c *gin.Context) {
	if err := s.manager.StepReset(c.Param("id")); err != nil {
		s.respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"acknowledged": true})
}

func (s *Server) handleEvents(c *gin.Context) {
	log, ok := s.manager.EventLog(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": engineapi.ErrExecutionNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": log.Events()})
}

func (s *Server) handleDebugBundle(c *gin.Context) {
	bundle, err := s.manager.DebugBundle(c.Param("id"))
	if err != nil {
		s.respondLookupError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+bundle.ExecutionID+"-debug.json\"")
	c.JSON(http.StatusOK, bundle)
}

func (s *Server) respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, engineapi.ErrExecutionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
