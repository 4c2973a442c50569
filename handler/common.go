package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error codes returned in dto.ErrorResponse.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeImageRejected    = "IMAGE_REJECTED"
	CodeOCRUnavailable   = "OCR_UNAVAILABLE"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeStorageFailed    = "STORAGE_FAILED"
	CodeServiceFailure   = "SERVICE_FAILURE"
	CodeSubmissionFailed = "SUBMISSION_FAILED"
)

var errInvalidDataURL = errors.New("image must be a base64 data URL")

// sendError sends a structured error response
func sendError(c *gin.Context, logger *zap.Logger, statusCode int, code, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		logger.Warn(message,
			zap.String("path", c.FullPath()),
			zap.Int("status", statusCode),
			zap.Error(err))
	}
	c.JSON(statusCode, dto.ErrorResponse{
		Error:   code,
		Message: errorMsg,
		Code:    statusCode,
	})
}

func isValidMimeType(mimeType string) bool {
	validTypes := []string{
		"image/png",
		"image/jpeg",
		"image/jpg",
		"image/webp",
		"image/gif",
	}

	mimeType = strings.ToLower(mimeType)
	for _, valid := range validTypes {
		if strings.Contains(mimeType, valid) {
			return true
		}
	}
	return false
}

func inferMimeType(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	}
	return ""
}

// decodeDataURL accepts "data:<mime>;base64,<data>" or bare base64.
func decodeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	mime := ""
	if strings.HasPrefix(s, "data:") {
		comma := strings.Index(s, ",")
		if comma < 0 || !strings.HasSuffix(s[:comma], ";base64") {
			return nil, "", errInvalidDataURL
		}
		mime = strings.TrimSuffix(strings.TrimPrefix(s[:comma], "data:"), ";base64")
		s = s[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", errInvalidDataURL, err)
	}
	return data, mime, nil
}

// readUpload reads the multipart file in field. At most maxSize+1 bytes are
// read; the declared size is kept so oversized uploads can be scored.
func readUpload(c *gin.Context, field string, maxSize int64) (service.ImageFile, error) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		return service.ImageFile{}, fmt.Errorf("file %q is required: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return service.ImageFile{}, fmt.Errorf("failed to read upload: %w", err)
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = inferMimeType(header.Filename)
	}
	return service.ImageFile{
		Filename: header.Filename,
		MIMEType: mimeType,
		Data:     data,
		Size:     header.Size,
	}, nil
}

// deviceFromRequest builds DeviceInfo from the User-Agent header and the
// locale, screen, timezone and canvas query parameters.
func deviceFromRequest(c *gin.Context) *dto.DeviceInfo {
	d := &dto.DeviceInfo{
		UserAgent:  c.GetHeader("User-Agent"),
		Locale:     c.Query("locale"),
		ScreenSize: c.Query("screen"),
		Timezone:   c.Query("timezone"),
		CanvasHash: c.Query("canvas"),
	}
	if *d == (dto.DeviceInfo{}) {
		return nil
	}
	return d
}
