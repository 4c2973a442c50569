package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Aashish23092/solar-id-intake/client"
	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/metrics"
	"github.com/Aashish23092/solar-id-intake/utils"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

var (
	// ErrAIUnavailable is returned when AI extraction is requested but no vision model is configured.
	ErrAIUnavailable = errors.New("AI extraction is not configured")
	// ErrTextOCRUnavailable is returned when the Tesseract path is requested but not configured.
	ErrTextOCRUnavailable = errors.New("text OCR is not configured")
	// ErrNoIDFields means the OCR text held neither a name nor an ID number.
	ErrNoIDFields = errors.New("no ID fields could be read from the image")
)

// TextOCR returns raw text and a 0-100 confidence for an encoded image.
type TextOCR interface {
	ExtractTextFromBytes(data []byte) (string, float64, error)
}

// IDExtractor reads structured ID fields from a base64 image or data URL.
type IDExtractor interface {
	ExtractIDInfo(ctx context.Context, imageBase64 string, progress client.ProgressFunc) (*dto.ExtractedIDData, error)
}

// ExtractionOutcome is the result of one Extract call. Retry and Analysis are
// nil when the QR fast path answered.
type ExtractionOutcome struct {
	Method     string
	Data       *dto.ExtractedIDData
	Validation dto.ExtractionValidation
	Retry      *dto.RetryResult
	Analysis   *dto.RetryAnalysis
}

// OCRService picks an extraction method for an ID photo: the PhilID QR code
// first, then the vision model or Tesseract under the retry orchestrator.
type OCRService struct {
	vision IDExtractor
	text   TextOCR
	retry  *RetryService
	opts   RetryOptions
	logger *zap.Logger
}

// NewOCRService accepts nil for either engine.
func NewOCRService(vision IDExtractor, text TextOCR, retry *RetryService, opts RetryOptions, logger *zap.Logger) *OCRService {
	return &OCRService{
		vision: vision,
		text:   text,
		retry:  retry,
		opts:   opts,
		logger: logger,
	}
}

// AIEnabled reports whether a vision model is configured.
func (s *OCRService) AIEnabled() bool {
	return s.vision != nil
}

// Extract runs the extraction pipeline. The returned outcome is non-nil
// whenever retries were attempted, even if err is set.
func (s *OCRService) Extract(ctx context.Context, imageData []byte, useAI bool) (*ExtractionOutcome, error) {
	start := time.Now()

	qrData, qrErr := s.tryQR(imageData)
	if qrErr == nil {
		s.logger.Info("extracted ID from PhilID QR code")
		return s.finish(dto.MethodQR, qrData, nil, start), nil
	}
	s.logger.Debug("QR fast path skipped", zap.Error(qrErr))

	method := dto.MethodAI
	var ocrFn OCRFunc
	switch {
	case useAI && s.vision == nil:
		return nil, ErrAIUnavailable
	case useAI:
		ocrFn = s.visionAttempt
	case s.text == nil:
		return nil, ErrTextOCRUnavailable
	default:
		method = dto.MethodTesseract
		ocrFn = s.textAttempt
	}

	result := s.retry.RetryOCRWithStrategies(ctx, ocrFn, imageData, s.opts)
	if !result.Success {
		analysis := AnalyzeRetryResult(result)
		metrics.OCRExtractions.WithLabelValues(method, "failure").Inc()
		metrics.OCRDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		s.logger.Warn("extraction failed after retries",
			zap.String("method", method),
			zap.Int("attempts", len(result.Attempts)),
			zap.String("error", result.Error))
		return &ExtractionOutcome{Method: method, Retry: result, Analysis: &analysis},
			fmt.Errorf("extraction failed after %d attempt(s): %s", len(result.Attempts), result.Error)
	}

	return s.finish(method, result.Data, result, start), nil
}

func (s *OCRService) finish(method string, data *dto.ExtractedIDData, retry *dto.RetryResult, start time.Time) *ExtractionOutcome {
	validation := ValidateExtractedData(data)
	data.ValidationFlags = validation.Flags

	outcome := &ExtractionOutcome{Method: method, Data: data, Validation: validation, Retry: retry}
	if retry != nil {
		analysis := AnalyzeRetryResult(retry)
		outcome.Analysis = &analysis
	}

	label := "success"
	if !validation.Valid {
		label = "invalid"
	}
	metrics.OCRExtractions.WithLabelValues(method, label).Inc()
	metrics.OCRDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	return outcome
}

func (s *OCRService) tryQR(imageData []byte) (*dto.ExtractedIDData, error) {
	img, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return DecodePhilIDQR(img)
}

func (s *OCRService) visionAttempt(ctx context.Context, imageData []byte) (*dto.ExtractedIDData, error) {
	return s.vision.ExtractIDInfo(ctx, EncodeDataURL(imageData), func(stage string, pct int) {
		s.logger.Debug("vision extraction progress", zap.String("stage", stage), zap.Int("percent", pct))
	})
}

func (s *OCRService) textAttempt(ctx context.Context, imageData []byte) (*dto.ExtractedIDData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, conf, err := s.text.ExtractTextFromBytes(imageData)
	if err != nil {
		return nil, err
	}
	data := utils.ParsePhilippineIDText(text, conf)
	if data.Name == "" && data.IDNumber == "" {
		return nil, ErrNoIDFields
	}
	return &data, nil
}

// EncodeDataURL wraps imageData in a data URL with its sniffed MIME type.
func EncodeDataURL(imageData []byte) string {
	mime := mimetype.Detect(imageData).String()
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(imageData)
}
