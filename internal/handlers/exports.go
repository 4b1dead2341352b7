package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/productcompass/compass/internal/models"
	"github.com/productcompass/compass/internal/services"
	appErrors "github.com/productcompass/compass/pkg/errors"
	"github.com/productcompass/compass/pkg/metrics"
	"github.com/productcompass/compass/pkg/response"
)

// Bulk uploads are capped to keep imports memory-bounded.
const maxImportBytes = 5 << 20

type ExportHandler struct {
	exports *services.ExportService
}

func NewExportHandler(exports *services.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// GET /api/roadmaps/:id/export/csv
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	raw, err := h.exports.ExportCSV(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "roadmap.csv"))
	c.Data(http.StatusOK, "text/csv", raw)
}

// GET /api/roadmaps/:id/export/json
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	raw, err := h.exports.ExportJSON(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "roadmap.json"))
	c.Data(http.StatusOK, "application/json", raw)
}

// POST /api/roadmaps/:id/import accepts a CSV or JSON upload, either as the
// raw request body with ?format= or as a multipart "file" field.
func (h *ExportHandler) Import(c *gin.Context) {
	format := strings.ToLower(strings.TrimSpace(c.Query("format")))

	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)

	if file, err := c.FormFile("file"); err == nil {
		if format == "" {
			switch {
			case strings.HasSuffix(strings.ToLower(file.Filename), ".json"):
				format = models.ExportJSON
			default:
				format = models.ExportCSV
			}
		}
		f, err := file.Open()
		if err != nil {
			response.Error(c, appErrors.NewBadRequest("could not read uploaded file"))
			return
		}
		defer f.Close()

		h.finishImport(c, format, f)
		return
	}

	if format == "" {
		format = models.ExportCSV
	}
	h.finishImport(c, format, body)
}

func (h *ExportHandler) finishImport(c *gin.Context, format string, r io.Reader) {
	summary, err := h.exports.Import(requestContext(c), currentUserID(c), c.Param("id"), format, r)
	if err != nil {
		response.Error(c, err)
		return
	}

	metrics.ImportedRows.WithLabelValues(format).Add(float64(summary.Imported))
	response.Success(c, http.StatusOK, summary)
}

// GET /api/exports/history
func (h *ExportHandler) History(c *gin.Context) {
	history, err := h.exports.History(requestContext(c), currentUserID(c), parseIntQuery(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exports": history})
}
