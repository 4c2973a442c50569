package handler

import (
	"errors"
	"net/http"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/service"
	"github.com/Aashish23092/solar-id-intake/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubmissionHandler accepts completed applications.
type SubmissionHandler struct {
	submissions *service.SubmissionService
	logger      *zap.Logger
}

// NewSubmissionHandler accepts a nil service when no database is configured;
// submissions are then answered with 503.
func NewSubmissionHandler(submissions *service.SubmissionService, logger *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, logger: logger}
}

// Submit handles POST /submissions
func (h *SubmissionHandler) Submit(c *gin.Context) {
	if h.submissions == nil {
		sendError(c, h.logger, http.StatusServiceUnavailable, CodeSubmissionFailed, "Submissions are not enabled on this server", nil)
		return
	}

	var req dto.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body", err)
		return
	}

	rec, err := h.submissions.Submit(c.Request.Context(), req)
	switch {
	case errors.Is(err, service.ErrInvalidSubmission):
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
		return
	case errors.Is(err, store.ErrDuplicateSubmission):
		sendError(c, h.logger, http.StatusConflict, CodeConflict, "This session was already submitted", nil)
		return
	case err != nil:
		sendError(c, h.logger, http.StatusInternalServerError, CodeSubmissionFailed, "Failed to store submission", err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}
