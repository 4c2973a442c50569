package dto

import "time"

// TotalSteps is the number of steps in the onboarding wizard.
const TotalSteps = 5

// DeviceInfo carries the client attributes used to fingerprint a device.
type DeviceInfo struct {
	UserAgent  string `json:"userAgent"`
	Locale     string `json:"locale"`
	ScreenSize string `json:"screenSize"`
	Timezone   string `json:"timezone"`
	CanvasHash string `json:"canvasHash,omitempty"`
}

// ProgressMetadata describes when and where a snapshot was saved.
type ProgressMetadata struct {
	StartTime         time.Time `json:"startTime"`
	LastSaved         time.Time `json:"lastSaved"`
	SessionID         string    `json:"sessionId"`
	Version           string    `json:"version"`
	IsComplete        bool      `json:"isComplete"`
	DeviceFingerprint string    `json:"deviceFingerprint,omitempty"`
}

// OnboardingProgress is the persisted snapshot of a wizard session. FormData
// never contains secrets.
type OnboardingProgress struct {
	FormData          map[string]any   `json:"formData"`
	CurrentStep       int              `json:"currentStep"`
	CompletedSteps    []int            `json:"completedSteps"`
	ValidationResults map[string]any   `json:"validationResults,omitempty"`
	Metadata          ProgressMetadata `json:"metadata"`
}

// ProgressSnapshot is the live wizard state handed to the progress service.
type ProgressSnapshot struct {
	FormData          map[string]any `json:"formData"`
	CurrentStep       int            `json:"currentStep"`
	CompletedSteps    []int          `json:"completedSteps"`
	ValidationResults map[string]any `json:"validationResults,omitempty"`
	Device            *DeviceInfo    `json:"device,omitempty"`
}

// SaveOutcome reports what a save actually did.
type SaveOutcome struct {
	Saved      bool      `json:"saved"`
	Skipped    bool      `json:"skipped"`
	Compressed bool      `json:"compressed"`
	Fallback   bool      `json:"fallback"`
	SavedAt    time.Time `json:"savedAt,omitempty"`
}

// RecoveryRecommendation tells the client whether and where to resume.
type RecoveryRecommendation struct {
	CanRecover      bool                `json:"canRecover"`
	Reason          string              `json:"reason,omitempty"`
	Message         string              `json:"message"`
	ResumeStep      int                 `json:"resumeStep,omitempty"`
	AgeHours        float64             `json:"ageHours,omitempty"`
	DifferentDevice bool                `json:"differentDevice"`
	Hints           []string            `json:"hints"`
	Progress        *OnboardingProgress `json:"progress,omitempty"`
}

// CachedImageMeta describes an upload stored in the session image cache.
type CachedImageMeta struct {
	Field         string    `json:"field"`
	MIMEType      string    `json:"mimeType"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	OriginalBytes int       `json:"originalBytes"`
	StoredBytes   int       `json:"storedBytes"`
	StoredAt      time.Time `json:"storedAt"`
}
