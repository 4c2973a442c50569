package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Extraction methods reported to clients.
const (
	MethodQR        = "qr"
	MethodAI        = "ai"
	MethodTesseract = "tesseract"
	MethodManual    = "manual"
)

// OCRProxyResponse is the body returned by POST /ocr.
type OCRProxyResponse struct {
	Success  bool             `json:"success"`
	Method   string           `json:"method,omitempty"`
	Data     *ExtractedIDData `json:"data,omitempty"`
	Error    string           `json:"error,omitempty"`
	Fallback string           `json:"fallback,omitempty"`
}

// ExtractionReport is the full result of POST /id/extract.
type ExtractionReport struct {
	Quality    *ImageQualityResult   `json:"quality"`
	Method     string                `json:"method,omitempty"`
	Extraction *ExtractedIDData      `json:"extraction,omitempty"`
	Validation *ExtractionValidation `json:"validation,omitempty"`
	Retry      *RetryResult          `json:"retry,omitempty"`
	Analysis   *RetryAnalysis        `json:"analysis,omitempty"`
	CrossCheck *CrossCheckResult     `json:"crossCheck,omitempty"`
	Image      *CachedImageMeta      `json:"image,omitempty"`
	Fallback   string                `json:"fallback,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// SessionResponse is returned when a session starts.
type SessionResponse struct {
	SessionID string `json:"sessionId"`
}

// ProgressResponse wraps saved progress; Progress is nil when none is stored.
type ProgressResponse struct {
	Progress *OnboardingProgress `json:"progress"`
}

// FieldUpdatesResponse returns the state after applying updates.
type FieldUpdatesResponse struct {
	State WizardState `json:"state"`
}
