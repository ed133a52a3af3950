package handler

import (
	"github.com/gin-gonic/gin"

	syncapp "github.com/shopsync/backend/internal/application/sync"
)

// ExportHandler handles catalog export API endpoints
type ExportHandler struct {
	BaseHandler
	syncService *syncapp.Service
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(syncService *syncapp.Service) *ExportHandler {
	return &ExportHandler{
		syncService: syncService,
	}
}

// Export extracts the full remote catalog through a bulk export and returns
// it as source-shaped rows.
func (h *ExportHandler) Export(c *gin.Context) {
	products, err := h.syncService.ExportStandardized(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, map[string]interface{}{
		"total":    len(products),
		"products": products,
	})
}
