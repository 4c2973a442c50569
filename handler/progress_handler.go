package handler

import (
	"errors"
	"net/http"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProgressHandler exposes wizard sessions and their saved progress.
type ProgressHandler struct {
	progress *service.ProgressService
	sessions *service.WizardSessions
	logger   *zap.Logger
}

// NewProgressHandler creates a new ProgressHandler instance
func NewProgressHandler(progress *service.ProgressService, sessions *service.WizardSessions, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		progress: progress,
		sessions: sessions,
		logger:   logger,
	}
}

// StartSession handles POST /sessions
func (h *ProgressHandler) StartSession(c *gin.Context) {
	var req dto.StartSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body", err)
			return
		}
	}
	device := req.Device
	if device == nil {
		device = deviceFromRequest(c)
	}
	c.JSON(http.StatusCreated, dto.SessionResponse{SessionID: h.sessions.Start(device)})
}

// SaveProgress handles PUT /progress/:sessionId with a full snapshot.
func (h *ProgressHandler) SaveProgress(c *gin.Context) {
	var snap dto.ProgressSnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body", err)
		return
	}
	if snap.Device == nil {
		snap.Device = deviceFromRequest(c)
	}

	outcome, err := h.progress.SaveOnboardingProgress(c.Request.Context(), c.Param("sessionId"), snap)
	switch {
	case errors.Is(err, service.ErrInvalidSession), errors.Is(err, service.ErrInvalidStep):
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
		return
	case err != nil:
		sendError(c, h.logger, http.StatusInternalServerError, CodeStorageFailed, "Failed to save progress", err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// LoadProgress handles GET /progress/:sessionId. A session without saved
// progress answers {"progress": null}.
func (h *ProgressHandler) LoadProgress(c *gin.Context) {
	p, err := h.progress.LoadOnboardingProgress(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidSession) {
			sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
			return
		}
		sendError(c, h.logger, http.StatusInternalServerError, CodeStorageFailed, "Failed to load progress", err)
		return
	}
	c.JSON(http.StatusOK, dto.ProgressResponse{Progress: p})
}

// ClearProgress handles DELETE /progress/:sessionId
func (h *ProgressHandler) ClearProgress(c *gin.Context) {
	sessionID := c.Param("sessionId")
	h.sessions.Close(sessionID)
	if err := h.progress.ClearProgress(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, service.ErrInvalidSession) {
			sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
			return
		}
		sendError(c, h.logger, http.StatusInternalServerError, CodeStorageFailed, "Failed to clear progress", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Recovery handles GET /progress/:sessionId/recovery
func (h *ProgressHandler) Recovery(c *gin.Context) {
	rec := h.progress.AttemptProgressRecovery(c.Request.Context(), c.Param("sessionId"), deviceFromRequest(c))
	c.JSON(http.StatusOK, rec)
}

// ApplyUpdates handles POST /progress/:sessionId/updates. The batch is
// applied atomically and schedules a debounced autosave.
func (h *ProgressHandler) ApplyUpdates(c *gin.Context) {
	var req dto.FieldUpdatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body", err)
		return
	}
	if len(req.Updates) == 0 {
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, "updates must not be empty", nil)
		return
	}
	device := req.Device
	if device == nil {
		device = deviceFromRequest(c)
	}

	state, err := h.sessions.Apply(c.Request.Context(), c.Param("sessionId"), req.Updates, device)
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		sendError(c, h.logger, http.StatusNotFound, CodeNotFound, err.Error(), nil)
		return
	case errors.Is(err, service.ErrInvalidUpdate), errors.Is(err, service.ErrInvalidSession):
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
		return
	case err != nil:
		sendError(c, h.logger, http.StatusInternalServerError, CodeStorageFailed, "Failed to load session", err)
		return
	}
	c.JSON(http.StatusOK, dto.FieldUpdatesResponse{State: state})
}

// State handles GET /progress/:sessionId/state
func (h *ProgressHandler) State(c *gin.Context) {
	state, err := h.sessions.State(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FieldUpdatesResponse{State: state})
}

func (h *ProgressHandler) sessionError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrSessionNotFound) {
		sendError(c, h.logger, http.StatusNotFound, CodeNotFound, err.Error(), nil)
		return
	}
	sendError(c, h.logger, http.StatusInternalServerError, CodeStorageFailed, "Failed to load session", err)
}

// Flush handles POST /progress/:sessionId/flush, sent by the client when the
// page is being closed.
func (h *ProgressHandler) Flush(c *gin.Context) {
	outcome, err := h.sessions.Flush(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}
