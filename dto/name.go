package dto

// StructuredName is a person's legal name split into its parts. FirstName and
// LastName are required for a meaningful comparison.
type StructuredName struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName"`
	Nickname   string `json:"nickname,omitempty"`
}

// Confidence levels shared by the name and ID-type validators.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// NameValidationResult compares the name typed by the user with the name read from the ID.
type NameValidationResult struct {
	Matches         bool     `json:"matches"`
	Confidence      string   `json:"confidence"`
	Score           int      `json:"score"`
	FirstNameMatch  bool     `json:"firstNameMatch"`
	LastNameMatch   bool     `json:"lastNameMatch"`
	MiddleNameMatch *bool    `json:"middleNameMatch,omitempty"`
	Warnings        []string `json:"warnings"`
	Suggestions     []string `json:"suggestions"`
}

// IDTypeValidationResult compares the ID type chosen in the wizard with the type detected on the document.
type IDTypeValidationResult struct {
	Matches                 bool   `json:"matches"`
	Confidence              string `json:"confidence"`
	DetectedType            string `json:"detectedType"`
	Suggestion              string `json:"suggestion,omitempty"`
	SuggestedCanonicalValue string `json:"suggestedCanonicalValue,omitempty"`
}
