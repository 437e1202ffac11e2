package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// multipartSlack is the allowance for multipart framing on top of the file limit.
const multipartSlack = 1 << 20

// ImportHandler serves the import and export endpoints.
type ImportHandler struct {
	imports  ImportService
	exports  ExportService
	log      *logrus.Logger
	maxBytes int64
}

// NewImportHandler creates an ImportHandler. Uploads larger than maxBytes are
// rejected with 413.
func NewImportHandler(imports ImportService, exports ExportService, log *logrus.Logger, maxBytes int64) *ImportHandler {
	return &ImportHandler{imports: imports, exports: exports, log: log, maxBytes: maxBytes}
}

// Import handles POST /api/v1/import.
// The export file is either the raw request body or the multipart field "file".
func (h *ImportHandler) Import(c *gin.Context) {
	blob, err := h.readUpload(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge,
				fmt.Sprintf("import exceeds %d bytes", h.maxBytes))

			return
		}

		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	result, err := h.imports.Import(c.Request.Context(), blob, "http:"+c.ClientIP())
	if err != nil {
		respondServiceError(c, h.log, "importing export file", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ImportHandler) readUpload(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartSlack)

		header, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, err
			}

			return nil, fmt.Errorf("multipart field %q is required", "file")
		}

		if header.Size > h.maxBytes {
			return nil, &http.MaxBytesError{Limit: h.maxBytes}
		}

		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("opening upload: %w", err)
		}
		defer f.Close()

		return io.ReadAll(f)
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	blob, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}

	if len(blob) == 0 {
		return nil, errors.New("request body is empty")
	}

	return blob, nil
}

// Export handles GET /api/v1/export.
// Returns the master store as a snapshot-layout SQLite attachment.
func (h *ImportHandler) Export(c *gin.Context) {
	blob, err := h.exports.Export(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, "exporting snapshot", err)
		return
	}

	ts := time.Now().UTC().Format("20060102T150405Z")
	filename := fmt.Sprintf("wifimap-export-%s.sqlite", ts)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.sqlite3", blob)
}
