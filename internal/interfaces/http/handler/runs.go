package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	syncapp "github.com/shopsync/backend/internal/application/sync"
)

// RunHandler handles sync run history API endpoints
type RunHandler struct {
	BaseHandler
	syncService *syncapp.Service
}

// NewRunHandler creates a new RunHandler
func NewRunHandler(syncService *syncapp.Service) *RunHandler {
	return &RunHandler{
		syncService: syncService,
	}
}

// ListRunsQuery bounds the run history page size
type ListRunsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// List returns the most recent sync runs, newest first.
func (h *RunHandler) List(c *gin.Context) {
	var query ListRunsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	runs, err := h.syncService.Runs(c.Request.Context(), query.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, map[string]interface{}{
		"total": len(runs),
		"runs":  runs,
	})
}

// Get returns a single sync run by its id.
func (h *RunHandler) Get(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid run ID format")
		return
	}

	run, err := h.syncService.Run(c.Request.Context(), runID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, run)
}
