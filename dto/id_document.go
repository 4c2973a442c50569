package dto

// ExtractedIDData holds the fields read off an identity document.
type ExtractedIDData struct {
	Name            string   `json:"name"`
	Address         string   `json:"address"`
	IDNumber        string   `json:"idNumber"`
	IDType          string   `json:"idType"`
	BirthDate       string   `json:"birthDate"`
	Confidence      int      `json:"confidence"`
	Explanation     string   `json:"explanation"`
	ValidationFlags []string `json:"validationFlags,omitempty"`
}

// ExtractionValidation is the result of sanity-checking ExtractedIDData.
type ExtractionValidation struct {
	Valid          bool     `json:"valid"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
	IDNumberFormat string   `json:"idNumberFormat"`
	NeedsRetake    bool     `json:"needsRetake"`
	Flags          []string `json:"flags,omitempty"`
}

// MismatchWarning is a dismissible cross-check warning with a one-click correction.
type MismatchWarning struct {
	Field          string   `json:"field"`
	Message        string   `json:"message"`
	SuggestedValue string   `json:"suggestedValue,omitempty"`
	Actions        []string `json:"actions"`
}

// Actions offered with every MismatchWarning.
const (
	ActionAcceptSuggestion = "accept_suggestion"
	ActionKeepAnswer       = "keep_answer"
	ActionEditPrevious     = "edit_previous_step"
)

// CrossCheckResult bundles the name and ID-type comparisons for one extraction.
type CrossCheckResult struct {
	Name     *NameValidationResult   `json:"name,omitempty"`
	IDType   *IDTypeValidationResult `json:"idType,omitempty"`
	Warnings []MismatchWarning       `json:"warnings"`
}

// ReconciledID is the final ID record after user edits have been applied on top of OCR output.
type ReconciledID struct {
	ExtractedIDData
	EditedFields []string `json:"editedFields"`
}
