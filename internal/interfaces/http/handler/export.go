package handler

import (
	"context"
	"mime"
	"net/http"

	"github.com/fablecraft/backend/internal/application/export"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Exporter renders a project in one format
type Exporter interface {
	Export(ctx context.Context, ownerID, projectID uuid.UUID, format export.Format) (*export.Result, error)
}

// ExportHandler serves project downloads
type ExportHandler struct {
	BaseHandler
	exporter Exporter
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(exporter Exporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

// Export downloads the whole project. The format defaults to json.
// GET /projects/:id/export?format=json|yaml|markdown|pdf
func (h *ExportHandler) Export(c *gin.Context) {
	ownerID, projectID, ok := h.ownerAndUUID(c, "id")
	if !ok {
		return
	}

	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatJSON)))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.exporter.Export(c.Request.Context(), ownerID, projectID, format)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	c.Data(http.StatusOK, result.ContentType, result.Body)
}
