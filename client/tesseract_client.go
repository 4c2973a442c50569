package client

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// TesseractClient runs the local Tesseract engine through gosseract.
type TesseractClient struct {
	dataPath  string
	languages []string
	logger    *zap.Logger
}

// NewTesseractClient creates a new TesseractClient instance
func NewTesseractClient(dataPath string, logger *zap.Logger) *TesseractClient {
	return &TesseractClient{
		dataPath:  dataPath,
		languages: []string{"eng"},
		logger:    logger,
	}
}

// ExtractTextFromBytes runs Tesseract on an encoded image and returns the text
// with the mean word confidence (0-100).
func (tc *TesseractClient) ExtractTextFromBytes(data []byte) (string, float64, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if tc.dataPath != "" {
		if err := client.SetTessdataPrefix(tc.dataPath); err != nil {
			return "", 0, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(tc.languages...); err != nil {
		return "", 0, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, NewOCRError(ErrCodeServiceFailure, "tesseract failed to extract text", "", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", 0, NewOCRError(ErrCodeNoText, "no text found in image", "", nil)
	}

	// Get bounding boxes to calculate confidence
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		tc.logger.Debug("bounding boxes unavailable, confidence unknown", zap.Error(err))
		return text, 0, nil
	}

	var totalConf float64
	for _, box := range boxes {
		totalConf += box.Confidence
	}
	avgConf := 0.0
	if len(boxes) > 0 {
		avgConf = totalConf / float64(len(boxes))
	}

	return text, avgConf, nil
}

// Close performs cleanup
func (tc *TesseractClient) Close() {
	tc.logger.Debug("tesseract client closed")
}
