package handler

import (
	"errors"
	"net/http"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OCRHandler serves the OCR proxy used by the wizard.
type OCRHandler struct {
	ocrService  *service.OCRService
	maxFileSize int64
	logger      *zap.Logger
}

// NewOCRHandler creates a new OCRHandler instance
func NewOCRHandler(ocrService *service.OCRService, maxFileSize int64, logger *zap.Logger) *OCRHandler {
	return &OCRHandler{
		ocrService:  ocrService,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// ExtractOCR handles POST /ocr. Extraction failures are reported with
// success=false and a fallback rather than an error status, so the wizard can
// switch to manual entry.
func (h *OCRHandler) ExtractOCR(c *gin.Context) {
	var req dto.OCRProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
		return
	}

	data, mimeType, err := decodeDataURL(req.Image)
	if err != nil {
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, "Invalid image", err)
		return
	}
	if mimeType != "" && !isValidMimeType(mimeType) {
		sendError(c, h.logger, http.StatusBadRequest, CodeImageRejected, "Unsupported image type "+mimeType, nil)
		return
	}
	if int64(len(data)) > h.maxFileSize {
		sendError(c, h.logger, http.StatusRequestEntityTooLarge, CodeImageRejected, "Image exceeds the maximum upload size", nil)
		return
	}

	outcome, err := h.ocrService.Extract(c.Request.Context(), data, req.WantsAI())
	switch {
	case errors.Is(err, service.ErrAIUnavailable):
		c.JSON(http.StatusServiceUnavailable, dto.OCRProxyResponse{
			Success:  false,
			Error:    "AI OCR is not configured on this server",
			Fallback: dto.MethodTesseract,
		})
		return
	case errors.Is(err, service.ErrTextOCRUnavailable):
		c.JSON(http.StatusServiceUnavailable, dto.OCRProxyResponse{
			Success:  false,
			Error:    "Text OCR is not available on this server",
			Fallback: dto.MethodManual,
		})
		return
	case err != nil:
		h.logger.Warn("OCR proxy extraction failed", zap.Error(err))
		resp := dto.OCRProxyResponse{Success: false, Error: err.Error(), Fallback: dto.MethodManual}
		if outcome != nil {
			resp.Method = outcome.Method
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	c.JSON(http.StatusOK, dto.OCRProxyResponse{
		Success: true,
		Method:  outcome.Method,
		Data:    outcome.Data,
	})
}
