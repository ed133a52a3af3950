package handler

import (
	"github.com/gin-gonic/gin"

	syncapp "github.com/shopsync/backend/internal/application/sync"
)

// ProductHandler handles remote product management API endpoints
type ProductHandler struct {
	BaseHandler
	syncService *syncapp.Service
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(syncService *syncapp.Service) *ProductHandler {
	return &ProductHandler{
		syncService: syncService,
	}
}

// CreateByIDsRequest represents a request to create selected products remotely
type CreateByIDsRequest struct {
	ProductIDs []string `json:"product_ids" binding:"required,min=1,dive,required"`
	BatchSize  int      `json:"batch_size" binding:"omitempty,min=1"`
}

// CreateByIDs creates the listed source products in the remote catalog in
// concurrent batches.
func (h *ProductHandler) CreateByIDs(c *gin.Context) {
	var req CreateByIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	report, err := h.syncService.CreateByIDs(c.Request.Context(), req.ProductIDs, syncapp.SyncOptions{
		BatchSize: req.BatchSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// UpdateByIDsRequest represents a request to update selected products remotely
type UpdateByIDsRequest struct {
	ProductIDs []string `json:"product_ids" binding:"required,min=1,dive,required"`
}

// UpdateByIDs updates the listed products in the remote catalog, one at a
// time. Identifiers without a source row are reported as skipped.
func (h *ProductHandler) UpdateByIDs(c *gin.Context) {
	var req UpdateByIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	report, err := h.syncService.UpdateByIDs(c.Request.Context(), req.ProductIDs, syncapp.SyncOptions{})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// DeleteByIDsRequest represents a request to delete selected products remotely
type DeleteByIDsRequest struct {
	ProductIDs []string `json:"product_ids" binding:"required,min=1,dive,required"`
}

// DeleteByIDs deletes the listed products from the remote catalog. Handles
// that do not exist remotely are reported as skipped.
func (h *ProductHandler) DeleteByIDs(c *gin.Context) {
	var req DeleteByIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	report, err := h.syncService.DeleteByIDs(c.Request.Context(), req.ProductIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// DeleteAll removes every product from the remote catalog. The product set is
// taken from a bulk export so the operation covers the whole catalog.
func (h *ProductHandler) DeleteAll(c *gin.Context) {
	report, err := h.syncService.DeleteAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}
