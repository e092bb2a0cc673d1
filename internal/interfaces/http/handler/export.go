package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/orgdir/backend/internal/application/directory"
)

// ExportHandler triggers directory snapshots
type ExportHandler struct {
	BaseHandler
	exportService *directory.ExportService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(exportService *directory.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// Snapshot godoc
// @ID           exportSnapshot
// @Summary      Export a directory snapshot
// @Description  Uploads buildings, activities and organizations as one JSON document to object storage and returns a presigned download URL
// @Tags         exports
// @Produce      json
// @Success      201 {object} APIResponse[directory.ExportResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     APIKeyAuth
// @Security     BearerAuth
// @Router       /exports/snapshot [post]
func (h *ExportHandler) Snapshot(c *gin.Context) {
	export, err := h.exportService.Snapshot(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, export)
}
