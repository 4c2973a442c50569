package dto

import (
	"errors"
	"strings"
)

// Request validation errors
var (
	ErrMissingImage         = errors.New("image is required")
	ErrMissingName          = errors.New("first and last name are required")
	ErrMissingSelectedType  = errors.New("selected ID type is required")
	ErrMissingExtractedName = errors.New("extracted name is required")
)

// OCRProxyRequest is the body of POST /ocr.
type OCRProxyRequest struct {
	Image string `json:"image"`
	UseAI *bool  `json:"useAI"`
}

// Validate performs basic validation on the request
func (r *OCRProxyRequest) Validate() error {
	if strings.TrimSpace(r.Image) == "" {
		return ErrMissingImage
	}
	return nil
}

// WantsAI defaults to true when the flag is omitted.
func (r *OCRProxyRequest) WantsAI() bool {
	return r.UseAI == nil || *r.UseAI
}

// NameValidationRequest is the body of POST /id/validate-name
type NameValidationRequest struct {
	User          StructuredName `json:"user"`
	ExtractedName string         `json:"extractedName"`
}

// Validate validates the name validation request
func (r *NameValidationRequest) Validate() error {
	if strings.TrimSpace(r.User.FirstName) == "" || strings.TrimSpace(r.User.LastName) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(r.ExtractedName) == "" {
		return ErrMissingExtractedName
	}
	return nil
}

// IDTypeValidationRequest is the body of POST /id/validate-type
type IDTypeValidationRequest struct {
	Selected string `json:"selected"`
	Detected string `json:"detected"`
}

// Validate validates the ID type validation request
func (r *IDTypeValidationRequest) Validate() error {
	if strings.TrimSpace(r.Selected) == "" {
		return ErrMissingSelectedType
	}
	return nil
}

// FieldUpdatesRequest carries form updates applied in order.
type FieldUpdatesRequest struct {
	Updates []FieldUpdate `json:"updates"`
	Device  *DeviceInfo   `json:"device,omitempty"`
}

// StartSessionRequest is the optional body of POST /sessions
type StartSessionRequest struct {
	Device *DeviceInfo `json:"device,omitempty"`
}

// SubmissionRequest is the final wizard submission.
type SubmissionRequest struct {
	SessionID  string            `json:"sessionId"`
	Form       OnboardingForm    `json:"form"`
	Extraction *ExtractedIDData  `json:"extraction"`
	Edits      map[string]string `json:"edits"`
}
