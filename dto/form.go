package dto

// OnboardingForm is the wizard's form state.
type OnboardingForm struct {
	FirstName       string `json:"firstName"`
	MiddleName      string `json:"middleName"`
	LastName        string `json:"lastName"`
	Nickname        string `json:"nickname"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	City            string `json:"city"`
	Province        string `json:"province"`
	PostalCode      string `json:"postalCode"`
	PropertyType    string `json:"propertyType"`
	MonthlyBill     string `json:"monthlyBill"`
	SelectedIDType  string `json:"selectedIdType"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	CaptchaToken    string `json:"captchaToken"`

	Extraction   *ExtractedIDData  `json:"extraction,omitempty"`
	ExtractEdits map[string]string `json:"extractEdits,omitempty"`
}

// WizardState is what the form reducer folds updates into.
type WizardState struct {
	Form           OnboardingForm `json:"form"`
	CurrentStep    int            `json:"currentStep"`
	CompletedSteps []int          `json:"completedSteps"`
}

// FieldUpdateKind tags a FieldUpdate.
type FieldUpdateKind string

const (
	UpdateSetField               FieldUpdateKind = "set_field"
	UpdateEditExtractedField     FieldUpdateKind = "edit_extracted_field"
	UpdateApplyExtraction        FieldUpdateKind = "apply_extraction"
	UpdateAcceptIDTypeSuggestion FieldUpdateKind = "accept_id_type_suggestion"
	UpdateCompleteStep           FieldUpdateKind = "complete_step"
	UpdateGoToStep               FieldUpdateKind = "go_to_step"
	UpdateReset                  FieldUpdateKind = "reset"
)

// FieldUpdate is one form event. Which fields are read depends on Kind.
type FieldUpdate struct {
	Kind       FieldUpdateKind  `json:"kind"`
	Field      string           `json:"field,omitempty"`
	Value      string           `json:"value,omitempty"`
	Step       int              `json:"step,omitempty"`
	Extraction *ExtractedIDData `json:"extraction,omitempty"`
}
