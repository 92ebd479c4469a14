package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/calendarease/core/internal/domain/entities"
	"github.com/calendarease/core/internal/infrastructure/logger"
	"github.com/calendarease/core/internal/ports"
)

// VoiceNoteHandler handles voice note requests
type VoiceNoteHandler struct {
	store  ports.TaskService
	loc    *time.Location
	logger *logger.Logger
}

// NewVoiceNoteHandler creates a new voice note handler
func NewVoiceNoteHandler(store ports.TaskService, loc *time.Location, logger *logger.Logger) *VoiceNoteHandler {
	return &VoiceNoteHandler{
		store:  store,
		loc:    loc,
		logger: logger,
	}
}

// ListVoiceNotes godoc
// @Summary List voice notes
// @Tags VoiceNotes
// @Produce json
// @Success 200 {array} entities.VoiceNote
// @Router /voice-notes [get]
func (h *VoiceNoteHandler) ListVoiceNotes(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.VoiceNotes())
}

// CreateVoiceNote godoc
// @Summary Save a voice note
// @Description A missing title defaults to one built from the date; a missing date to now
// @Tags VoiceNotes
// @Accept json
// @Produce json
// @Param note body CreateVoiceNoteRequest true "Voice note"
// @Success 201 {object} entities.VoiceNote
// @Failure 400 {object} ErrorResponse
// @Router /voice-notes [post]
func (h *VoiceNoteHandler) CreateVoiceNote(c echo.Context) error {
	var req CreateVoiceNoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	date, err := parseOptionalDateTime(req.Date, h.loc)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.TaskID != "" {
		if _, ok := h.store.GetTask(req.TaskID); !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "Unknown taskId")
		}
	}

	in := entities.NewVoiceNote{
		Title:         req.Title,
		RecordingURL:  req.RecordingURL,
		Transcription: req.Transcription,
		Duration:      req.Duration,
		TaskID:        req.TaskID,
	}
	if date != nil {
		in.Date = *date
	}

	note, err := h.store.AddVoiceNote(c.Request().Context(), in)
	if err != nil {
		h.logger.Errorw("Create voice note failed", "error", err)
		return err
	}

	return c.JSON(http.StatusCreated, note)
}

// DeleteVoiceNote godoc
// @Summary Delete a voice note
// @Tags VoiceNotes
// @Param id path string true "Voice note ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /voice-notes/{id} [delete]
func (h *VoiceNoteHandler) DeleteVoiceNote(c echo.Context) error {
	id := c.Param("id")

	deleted, err := h.store.DeleteVoiceNote(c.Request().Context(), id)
	if err != nil {
		h.logger.Errorw("Delete voice note failed", "error", err, "voice_note_id", id)
		return err
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "Voice note not found")
	}

	return c.NoContent(http.StatusNoContent)
}
