package client

import "fmt"

// OCRErrorCode classifies extraction failures.
type OCRErrorCode string

const (
	ErrCodeMissingCredentials OCRErrorCode = "MISSING_CREDENTIALS"
	ErrCodeServiceFailure     OCRErrorCode = "OCR_SERVICE_FAILURE"
	ErrCodeEmptyResponse      OCRErrorCode = "EMPTY_RESPONSE"
	ErrCodeNonJSONResponse    OCRErrorCode = "NON_JSON_RESPONSE"
	ErrCodeInvalidJSON        OCRErrorCode = "INVALID_JSON"
	ErrCodeNoText             OCRErrorCode = "NO_TEXT"
)

// OCRError is returned by the OCR clients. RawContent holds the model or
// engine output that could not be used, when there was any.
type OCRError struct {
	Code       OCRErrorCode
	Message    string
	RawContent string
	Err        error
}

// NewOCRError creates an OCRError. raw is the model output, if any.
func NewOCRError(code OCRErrorCode, message, raw string, err error) *OCRError {
	return &OCRError{Code: code, Message: message, RawContent: raw, Err: err}
}

func (e *OCRError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *OCRError) Unwrap() error {
	return e.Err
}
