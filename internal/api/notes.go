package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/wifimap/internal/models"
)

// NoteHandler serves the annotation endpoints.
type NoteHandler struct {
	notes NoteService
	log   *logrus.Logger
}

// NewNoteHandler creates a NoteHandler.
func NewNoteHandler(notes NoteService, log *logrus.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, log: log}
}

// Get handles GET /api/v1/notes/:identity.
func (h *NoteHandler) Get(c *gin.Context) {
	note, err := h.notes.GetNote(c.Request.Context(), c.Param("identity"))
	if err != nil {
		respondServiceError(c, h.log, "getting note", err)
		return
	}

	c.JSON(http.StatusOK, note)
}

// Put handles PUT /api/v1/notes/:identity with body {"note": "..."}.
// A missing or null note stores an empty note.
func (h *NoteHandler) Put(c *gin.Context) {
	var req models.SetNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	note, err := h.notes.SetNote(c.Request.Context(), c.Param("identity"), req.Note)
	if err != nil {
		respondServiceError(c, h.log, "saving note", err)
		return
	}

	h.log.WithFields(logrus.Fields{"action": "note.set", "identity": note.Identity}).Info("audit")

	c.JSON(http.StatusOK, note)
}
