package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/service"
	"github.com/Aashish23092/solar-id-intake/utils"
	"github.com/Aashish23092/solar-id-intake/utils/idtype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IDHandler serves image quality checks, ID extraction and the validators.
type IDHandler struct {
	quality     *service.ImageQualityService
	ocr         *service.OCRService
	images      *service.ImageCache
	analytics   *service.AnalyticsService
	maxFileSize int64
	logger      *zap.Logger
}

// NewIDHandler creates a new IDHandler instance
func NewIDHandler(quality *service.ImageQualityService, ocr *service.OCRService, images *service.ImageCache,
	analytics *service.AnalyticsService, maxFileSize int64, logger *zap.Logger) *IDHandler {
	return &IDHandler{
		quality:     quality,
		ocr:         ocr,
		images:      images,
		analytics:   analytics,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// CheckQuality handles POST /id/quality
func (h *IDHandler) CheckQuality(c *gin.Context) {
	file, err := readUpload(c, "file", h.maxFileSize)
	if err != nil {
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, "File missing", err)
		return
	}

	result, err := h.quality.ValidateImageQuality(c.Request.Context(), file)
	if err != nil {
		sendError(c, h.logger, http.StatusRequestTimeout, CodeServiceFailure, "Quality check cancelled", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExtractID handles POST /id/extract: quality gate, extraction under retry,
// then cross-checks against the name and ID type the user entered.
func (h *IDHandler) ExtractID(c *gin.Context) {
	file, err := readUpload(c, "file", h.maxFileSize)
	if err != nil {
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, "File missing", err)
		return
	}
	sessionID := c.PostForm("sessionId")
	user := dto.StructuredName{
		FirstName:  c.PostForm("firstName"),
		MiddleName: c.PostForm("middleName"),
		LastName:   c.PostForm("lastName"),
		Nickname:   c.PostForm("nickname"),
	}
	selected := c.PostForm("selectedIdType")
	useAI := true
	if v := c.PostForm("useAI"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			useAI = parsed
		}
	}

	ctx := c.Request.Context()
	quality, err := h.quality.ValidateImageQuality(ctx, file)
	if err != nil {
		sendError(c, h.logger, http.StatusRequestTimeout, CodeServiceFailure, "Quality check cancelled", err)
		return
	}
	report := dto.ExtractionReport{Quality: quality}
	if !quality.CanProceed {
		report.Error = "The photo is not clear enough to read"
		report.Fallback = "retake"
		c.JSON(http.StatusUnprocessableEntity, report)
		return
	}

	outcome, err := h.ocr.Extract(ctx, file.Data, useAI)
	if outcome != nil {
		report.Method = outcome.Method
		report.Retry = outcome.Retry
		report.Analysis = outcome.Analysis
	}
	if err != nil {
		if errors.Is(err, service.ErrAIUnavailable) {
			report.Fallback = dto.MethodTesseract
		} else {
			report.Fallback = dto.MethodManual
		}
		report.Error = err.Error()
		h.analytics.Track(sessionID, service.EventIDExtractionFailed, map[string]any{"method": report.Method})
		c.JSON(http.StatusOK, report)
		return
	}

	validation := outcome.Validation
	cross := service.CrossCheck(user, selected, outcome.Data)
	report.Extraction = outcome.Data
	report.Validation = &validation
	report.CrossCheck = &cross

	if sessionID != "" && h.images != nil {
		meta, err := h.images.Put(ctx, sessionID, service.ImageFieldIDFront, file.Data, file.MIMEType)
		if err != nil {
			h.logger.Warn("failed to cache ID image", zap.String("session_id", sessionID), zap.Error(err))
		} else {
			report.Image = meta
		}
	}

	h.analytics.Track(sessionID, service.EventIDExtracted, map[string]any{
		"method":     outcome.Method,
		"confidence": outcome.Data.Confidence,
		"warnings":   len(cross.Warnings),
	})
	c.JSON(http.StatusOK, report)
}

// ValidateName handles POST /id/validate-name
func (h *IDHandler) ValidateName(c *gin.Context) {
	var req dto.NameValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, utils.ValidateNameMatch(req.User, req.ExtractedName))
}

// ValidateType handles POST /id/validate-type
func (h *IDHandler) ValidateType(c *gin.Context) {
	var req dto.IDTypeValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, idtype.ValidateIDTypeMatch(req.Selected, req.Detected))
}

// ListTypes handles GET /id/types with the select options for step 3.
func (h *IDHandler) ListTypes(c *gin.Context) {
	values := idtype.Values()
	options := make([]gin.H, 0, len(values))
	for _, v := range values {
		options = append(options, gin.H{"value": v, "label": idtype.Label(v)})
	}
	c.JSON(http.StatusOK, gin.H{"types": options})
}

// GetImage handles GET /id/image/:sessionId and returns the cached ID photo.
func (h *IDHandler) GetImage(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("sessionId"))
	field := c.DefaultQuery("field", service.ImageFieldIDFront)
	data, meta, err := h.images.Get(c.Request.Context(), sessionID, field)
	switch {
	case errors.Is(err, service.ErrInvalservice.ImageFieldIDFront):
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
		return
	case err != nil:
		sendError(c, h.logger, http.StatusNotFound, CodeNotFound, "No cached image for this session", nil)
		return
	}
	c.Header("X-Image-Width", strconv.Itoa(meta.Width))
	c.Header("X-Image-Height", strconv.Itoa(meta.Height))
	c.Data(http.StatusOK, "image/jpeg", data)
}
