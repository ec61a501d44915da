package handler

import (
	"net/http"
	"strconv"
	"time"

	"notes-service/internal/apperr"
	"notes-service/internal/auth"
	"notes-service/internal/store"
	"notes-service/pkg/logger"
	"notes-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// NoteHandler serves the tenant-scoped note CRUD. Every handler reads the
// identity resolved by the auth middleware; nothing here trusts a
// client-supplied tenant or user id.
type NoteHandler struct {
	notes *store.NoteStore
}

func NewNoteHandler(notes *store.NoteStore) *NoteHandler {
	return &NoteHandler{notes: notes}
}

// NoteRequest is the input for note creation and update.
type NoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *NoteHandler) List(c echo.Context) error {
	ident, ok := auth.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordNoteOperation("list")

	defer prometheus.TrackDBOperation("query")(time.Now())
	notes, err := h.notes.List(c.Request().Context(), ident.TenantID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"notes": notes})
}

func (h *NoteHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	ident, ok := auth.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordNoteOperation("create")

	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse note request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	note, err := h.notes.Create(c.Request().Context(), ident, req.Title, req.Content)
	if err != nil {
		if apperr.Is(err, apperr.QuotaExceeded) {
			log.Info("Note create rejected by quota",
				zap.Uint("tenant_id", ident.TenantID),
				zap.String("tenant_slug", ident.TenantSlug))
			prometheus.QuotaRejectionCounter.Inc()
		}
		return fail(c, err)
	}

	log.Info("Note created",
		zap.Uint("note_id", note.ID),
		zap.Uint("tenant_id", note.TenantID),
		zap.Uint("user_id", note.UserID))

	return c.JSON(http.StatusCreated, echo.Map{"note": note})
}

func (h *NoteHandler) Get(c echo.Context) error {
	ident, ok := auth.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordNoteOperation("get")

	noteID, err := noteIDParam(c)
	if err != nil {
		return fail(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	note, err := h.notes.Get(c.Request().Context(), ident.TenantID, noteID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"note": note})
}

func (h *NoteHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	ident, ok := auth.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordNoteOperation("update")

	noteID, err := noteIDParam(c)
	if err != nil {
		return fail(c, err)
	}

	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse note request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	note, err := h.notes.Update(c.Request().Context(), ident, noteID, req.Title, req.Content)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"note": note})
}

func (h *NoteHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	ident, ok := auth.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordNoteOperation("delete")

	noteID, err := noteIDParam(c)
	if err != nil {
		return fail(c, err)
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.notes.Delete(c.Request().Context(), ident, noteID); err != nil {
		return fail(c, err)
	}

	log.Info("Note deleted",
		zap.Uint("note_id", noteID),
		zap.Uint("tenant_id", ident.TenantID))

	return c.JSON(http.StatusOK, echo.Map{"message": "Note deleted successfully"})
}

func noteIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperr.New(apperr.Validation, "valid note ID required")
	}
	return uint(id), nil
}
