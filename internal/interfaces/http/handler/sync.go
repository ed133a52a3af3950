package handler

import (
	"github.com/gin-gonic/gin"

	syncapp "github.com/shopsync/backend/internal/application/sync"
)

// SyncHandler handles catalog synchronization API endpoints
type SyncHandler struct {
	BaseHandler
	syncService *syncapp.Service
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService *syncapp.Service) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
	}
}

// SyncAllQuery represents query options for a full catalog sync
type SyncAllQuery struct {
	DryRun bool `form:"dry_run"`
}

// SyncAllRequest represents the optional request body for a full catalog sync
type SyncAllRequest struct {
	DeleteOrphans bool `json:"delete_orphans"`
	BatchSize     int  `json:"batch_size" binding:"omitempty,min=1"`
}

// SyncAll reconciles the whole source database against the remote catalog.
// With dry_run=true the plan is computed and reported but not applied.
func (h *SyncHandler) SyncAll(c *gin.Context) {
	var query SyncAllQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req SyncAllRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	report, err := h.syncService.SyncAll(c.Request.Context(), syncapp.SyncOptions{
		DryRun:        query.DryRun,
		DeleteOrphans: req.DeleteOrphans,
		BatchSize:     req.BatchSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// UploadAllRequest represents the optional request body for an upload-all run
type UploadAllRequest struct {
	DryRun    bool `json:"dry_run"`
	BatchSize int  `json:"batch_size" binding:"omitempty,min=1"`
}

// UploadAll pushes every source product to the remote catalog as a create,
// without diffing against the remote state.
func (h *SyncHandler) UploadAll(c *gin.Context) {
	var req UploadAllRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	report, err := h.syncService.UploadAll(c.Request.Context(), syncapp.SyncOptions{
		DryRun:    req.DryRun,
		BatchSize: req.BatchSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// SyncByIDsRequest represents a request to sync selected products
type SyncByIDsRequest struct {
	ProductIDs      []string `json:"product_ids" binding:"required,min=1,dive,required"`
	DryRun          bool     `json:"dry_run"`
	CreateIfMissing bool     `json:"create_if_missing"`
	BatchSize       int      `json:"batch_size" binding:"omitempty,min=1"`
}

// SyncByIDs reconciles the listed products: existing remote products are
// updated, missing ones are created when create_if_missing is set.
func (h *SyncHandler) SyncByIDs(c *gin.Context) {
	var req SyncByIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	report, err := h.syncService.SyncByIDs(c.Request.Context(), req.ProductIDs, syncapp.SyncOptions{
		DryRun:          req.DryRun,
		CreateIfMissing: req.CreateIfMissing,
		BatchSize:       req.BatchSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}
