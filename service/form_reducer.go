package service

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/utils/idtype"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var (
	ErrUnknownUpdate = errors.New("unknown update kind")
	ErrUnknownField  = errors.New("unknown form field")
	ErrStepLocked    = errors.New("step is locked until the previous steps are completed")
	// ErrInvalidUpdate wraps every error returned by ApplyUpdates.
	ErrInvalidUpdate = errors.New("invalid form update")
)

var (
	reNameField  = regexp.MustCompile(`^[\p{L}][\p{L} .'\-]*$`)
	rePHMobile   = regexp.MustCompile(`^(\+63|0)9\d{9}$`)
	rePostalCode = regexp.MustCompile(`^\d{4}$`)
)

// Property types offered in step 2.
var propertyTypes = []interface{}{"residential", "commercial", "industrial", "agricultural"}

func idTypeOptions() []interface{} {
	values := idtype.Values()
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

var positiveAmount = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || f <= 0 {
		return errors.New("must be a positive amount")
	}
	return nil
})

type formField struct {
	ptr   func(f *dto.OnboardingForm) *string
	rules []validation.Rule
	// normalize is applied before validation.
	normalize func(string) string
}

var formFields = map[string]formField{
	"firstName":       {func(f *dto.OnboardingForm) *string { return &f.FirstName }, []validation.Rule{validation.Length(1, 100), validation.Match(reNameField).Error("must contain letters only")}, strings.TrimSpace},
	"middleName":      {func(f *dto.OnboardingForm) *string { return &f.MiddleName }, []validation.Rule{validation.Length(0, 100), validation.Match(reNameField).Error("must contain letters only")}, strings.TrimSpace},
	"lastName":        {func(f *dto.OnboardingForm) *string { return &f.LastName }, []validation.Rule{validation.Length(1, 100), validation.Match(reNameField).Error("must contain letters only")}, strings.TrimSpace},
	"nickname":        {func(f *dto.OnboardingForm) *string { return &f.Nickname }, []validation.Rule{validation.Length(0, 50)}, strings.TrimSpace},
	"email":           {func(f *dto.OnboardingForm) *string { return &f.Email }, []validation.Rule{is.EmailFormat}, normalizeEmail},
	"phone":           {func(f *dto.OnboardingForm) *string { return &f.Phone }, []validation.Rule{validation.Match(rePHMobile).Error("must be a Philippine mobile number, e.g. 09171234567")}, normalizePhone},
	"address":         {func(f *dto.OnboardingForm) *string { return &f.Address }, []validation.Rule{validation.Length(0, 250)}, strings.TrimSpace},
	"city":            {func(f *dto.OnboardingForm) *string { return &f.City }, []validation.Rule{validation.Length(0, 100)}, strings.TrimSpace},
	"province":        {func(f *dto.OnboardingForm) *string { return &f.Province }, []validation.Rule{validation.Length(0, 100)}, strings.TrimSpace},
	"postalCode":      {func(f *dto.OnboardingForm) *string { return &f.PostalCode }, []validation.Rule{validation.Match(rePostalCode).Error("must be a 4-digit postal code")}, strings.TrimSpace},
	"propertyType":    {func(f *dto.OnboardingForm) *string { return &f.PropertyType }, []validation.Rule{validation.In(propertyTypes...)}, strings.ToLower},
	"monthlyBill":     {func(f *dto.OnboardingForm) *string { return &f.MonthlyBill }, []validation.Rule{positiveAmount}, strings.TrimSpace},
	"selectedIdType":  {func(f *dto.OnboardingForm) *string { return &f.SelectedIDType }, []validation.Rule{validation.In(idTypeOptions()...)}, strings.TrimSpace},
	"password":        {func(f *dto.OnboardingForm) *string { return &f.Password }, []validation.Rule{validation.Length(8, 128)}, nil},
	"confirmPassword": {func(f *dto.OnboardingForm) *string { return &f.ConfirmPassword }, nil, nil},
	"captchaToken":    {func(f *dto.OnboardingForm) *string { return &f.CaptchaToken }, nil, strings.TrimSpace},
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizePhone(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(s))
}

// NewWizardState returns the state of a fresh session.
func NewWizardState() dto.WizardState {
	return dto.WizardState{CurrentStep: 1, CompletedSteps: []int{}}
}

// ApplyUpdates folds updates into state in order. It is all-or-nothing: on
// the first invalid update the original state is returned with the error.
func ApplyUpdates(state dto.WizardState, updates []dto.FieldUpdate) (dto.WizardState, error) {
	next := cloneState(state)
	for i, u := range updates {
		var err error
		next, err = applyUpdate(next, u)
		if err != nil {
			return state, fmt.Errorf("%w: update %d (%s): %w", ErrInvalidUpdate, i, u.Kind, err)
		}
	}
	return next, nil
}

func applyUpdate(s dto.WizardState, u dto.FieldUpdate) (dto.WizardState, error) {
	switch u.Kind {
	case dto.UpdateSetField:
		field, ok := formFields[u.Field]
		if !ok {
			return s, fmt.Errorf("%w: %q", ErrUnknownField, u.Field)
		}
		v := u.Value
		if field.normalize != nil {
			v = field.normalize(v)
		}
		if err := validation.Validate(v, field.rules...); err != nil {
			return s, validation.Errors{u.Field: err}
		}
		*field.ptr(&s.Form) = v

	case dto.UpdateEditExtractedField:
		if !IsEditableIDField(u.Field) {
			return s, fmt.Errorf("%w: %q", ErrUnknownField, u.Field)
		}
		if s.Form.ExtractEdits == nil {
			s.Form.ExtractEdits = make(map[string]string)
		}
		s.Form.ExtractEdits[u.Field] = strings.TrimSpace(u.Value)

	case dto.UpdateApplyExtraction:
		if u.Extraction == nil {
			return s, validation.Errors{"extraction": validation.ErrRequired}
		}
		extraction := *u.Extraction
		s.Form.Extraction = &extraction
		s.Form.ExtractEdits = nil

	case dto.UpdateAcceptIDTypeSuggestion:
		v := strings.TrimSpace(u.Value)
		if err := validation.Validate(v, validation.Required, validation.In(idTypeOptions()...)); err != nil {
			return s, validation.Errors{"selectedIdType": err}
		}
		s.Form.SelectedIDType = v

	case dto.UpdateCompleteStep:
		if err := validateStepNumber(u.Step); err != nil {
			return s, err
		}
		if u.Step > highestReachable(s.CompletedSteps) {
			return s, ErrStepLocked
		}
		if err := ValidateStep(s.Form, u.Step); err != nil {
			return s, err
		}
		s.CompletedSteps = NormalizeSteps(append(s.CompletedSteps, u.Step))
		if u.Step < dto.TotalSteps && s.CurrentStep <= u.Step {
			s.CurrentStep = u.Step + 1
		}

	case dto.UpdateGoToStep:
		if err := validateStepNumber(u.Step); err != nil {
			return s, err
		}
		if u.Step > highestReachable(s.CompletedSteps) {
			return s, ErrStepLocked
		}
		s.CurrentStep = u.Step

	case dto.UpdateReset:
		return NewWizardState(), nil

	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownUpdate, u.Kind)
	}
	return s, nil
}

func validateStepNumber(step int) error {
	return validation.Validate(step, validation.Required, validation.Min(1), validation.Max(dto.TotalSteps))
}

// highestReachable is the first step not yet completed in sequence.
func highestReachable(completed []int) int {
	done := make(map[int]bool, len(completed))
	for _, s := range completed {
		done[s] = true
	}
	step := 1
	for step < dto.TotalSteps && done[step] {
		step++
	}
	return step
}

// ValidateStep checks that the fields a step requires are present and valid.
func ValidateStep(f dto.OnboardingForm, step int) error {
	switch step {
	case 1:
		return validation.ValidateStruct(&f,
			validation.Field(&f.FirstName, validation.Required, validation.Match(reNameField)),
			validation.Field(&f.MiddleName, validation.Match(reNameField)),
			validation.Field(&f.LastName, validation.Required, validation.Match(reNameField)),
			validation.Field(&f.Email, validation.Required, is.EmailFormat),
			validation.Field(&f.Phone, validation.Required, validation.Match(rePHMobile)),
		)
	case 2:
		return validation.ValidateStruct(&f,
			validation.Field(&f.Address, validation.Required),
			validation.Field(&f.City, validation.Required),
			validation.Field(&f.Province, validation.Required),
			validation.Field(&f.PostalCode, validation.Match(rePostalCode)),
			validation.Field(&f.PropertyType, validation.Required, validation.In(propertyTypes...)),
			validation.Field(&f.MonthlyBill, validation.Required, positiveAmount),
		)
	case 3:
		return validation.ValidateStruct(&f,
			validation.Field(&f.SelectedIDType, validation.Required, validation.In(idTypeOptions()...)),
			validation.Field(&f.Extraction, validation.NotNil.Error("upload your ID or enter its details")),
		)
	case 4:
		return validation.ValidateStruct(&f,
			validation.Field(&f.Password, validation.Required, validation.Length(8, 128)),
			validation.Field(&f.ConfirmPassword, validation.Required, validation.By(func(value interface{}) error {
				if value.(string) != f.Password {
					return errors.New("passwords do not match")
				}
				return nil
			})),
		)
	}
	return nil
}

func cloneState(s dto.WizardState) dto.WizardState {
	out := s
	out.CompletedSteps = append([]int(nil), s.CompletedSteps...)
	if s.Form.Extraction != nil {
		e := *s.Form.Extraction
		out.Form.Extraction = &e
	}
	if s.Form.ExtractEdits != nil {
		out.Form.ExtractEdits = make(map[string]string, len(s.Form.ExtractEdits))
		for k, v := range s.Form.ExtractEdits {
			out.Form.ExtractEdits[k] = v
		}
	}
	return out
}

// SnapshotOf converts wizard state into a progress snapshot. Secrets are
// removed by the progress service.
func SnapshotOf(s dto.WizardState, device *dto.DeviceInfo) dto.ProgressSnapshot {
	form, err := toGenericMap(s.Form)
	if err != nil {
		form = map[string]any{}
	}
	return dto.ProgressSnapshot{
		FormData:       form,
		CurrentStep:    s.CurrentStep,
		CompletedSteps: append([]int(nil), s.CompletedSteps...),
		Device:         device,
	}
}

// StateFromProgress rebuilds wizard state from a stored snapshot.
func StateFromProgress(p *dto.OnboardingProgress) dto.WizardState {
	state := NewWizardState()
	if p == nil {
		return state
	}
	if err := fromGenericMap(p.FormData, &state.Form); err != nil {
		state.Form = dto.OnboardingForm{}
	}
	state.CurrentStep = p.CurrentStep
	state.CompletedSteps = NormalizeSteps(p.CompletedSteps)
	return state
}
