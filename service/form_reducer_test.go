package service

import (
	"errors"
	"testing"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/utils/idtype"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func set(field, value string) dto.FieldUpdate {
	return dto.FieldUpdate{Kind: dto.UpdateSetField, Field: field, Value: value}
}

func TestApplyUpdates_SetFields(t *testing.T) {
	state, err := ApplyUpdates(NewWizardState(), []dto.FieldUpdate{
		set("firstName", "  Juan "),
		set("lastName", "Dela Cruz"),
		set("email", "Juan@Example.com "),
		set("phone", "0917-123-4567"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Juan", state.Form.FirstName)
	assert.Equal(t, "juan@example.com", state.Form.Email)
	assert.Equal(t, "09171234567", state.Form.Phone)
}

func TestApplyUpdates_AllOrNothing(t *testing.T) {
	start := NewWizardState()
	start.Form.FirstName = "Ana"

	state, err := ApplyUpdates(start, []dto.FieldUpdate{
		set("firstName", "Maria"),
		set("phone", "12345"),
	})
	require.Error(t, err)

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "phone")
	assert.Equal(t, "Ana", state.Form.FirstName)
}

func TestApplyUpdates_RejectsUnknown(t *testing.T) {
	_, err := ApplyUpdates(NewWizardState(), []dto.FieldUpdate{set("ssn", "1")})
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = ApplyUpdates(NewWizardState(), []dto.FieldUpdate{{Kind: "teleport"}})
	assert.ErrorIs(t, err, ErrUnknownUpdate)
}

func TestApplyUpdates_StepFlow(t *testing.T) {
	state := NewWizardState()
	state, err := ApplyUpdates(state, []dto.FieldUpdate{{Kind: dto.UpdateGoToStep, Step: 3}})
	assert.ErrorIs(t, err, ErrStepLocked)

	_, err = ApplyUpdates(state, []dto.FieldUpdate{{Kind: dto.UpdateCompleteStep, Step: 1}})
	require.Error(t, err, "step 1 requires a name")

	state, err = ApplyUpdates(state, []dto.FieldUpdate{
		set("firstName", "Juan"),
		set("lastName", "Dela Cruz"),
		set("email", "juan@example.com"),
		set("phone", "+639171234567"),
		{Kind: dto.UpdateCompleteStep, Step: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, state.CurrentStep)
	assert.Equal(t, []int{1}, state.CompletedSteps)

	state, err = ApplyUpdates(state, []dto.FieldUpdate{
		{Kind: dto.UpdateCompleteStep, Step: 1},
		{Kind: dto.UpdateGoToStep, Step: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, state.CompletedSteps)
	assert.Equal(t, 1, state.CurrentStep)

	state, err = ApplyUpdates(state, []dto.FieldUpdate{{Kind: dto.UpdateGoToStep, Step: 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, state.CurrentStep)
}

func TestApplyUpdates_CompleteStepOutOfOrder(t *testing.T) {
	state := NewWizardState()
	state.Form.Extraction = &dto.ExtractedIDData{Name: "DELA CRUZ, JUAN", IDNumber: "N01-23-456789", IDType: "Passport"}
	state.Form.SelectedIDType = idtype.Passport

	next, err := ApplyUpdates(state, []dto.FieldUpdate{{Kind: dto.UpdateCompleteStep, Step: 3}})
	assert.ErrorIs(t, err, ErrStepLocked)
	assert.Equal(t, 1, next.CurrentStep)
	assert.Empty(t, next.CompletedSteps)
}

func TestApplyUpdates_Extraction(t *testing.T) {
	extraction := &dto.ExtractedIDData{Name: "DELA CRUZ, JUAN", IDNumber: "N01-23-45678", IDType: "Passport"}
	state, err := ApplyUpdates(NewWizardState(), []dto.FieldUpdate{
		{Kind: dto.UpdateApplyExtraction, Extraction: extraction},
		{Kind: dto.UpdateEditExtractedField, Field: FieldIDNumber, Value: " N01-23-456789 "},
		{Kind: dto.UpdateAcceptIDTypeSuggestion, Value: idtype.Passport},
	})
	require.NoError(t, err)

	assert.Equal(t, "N01-23-456789", state.Form.ExtractEdits[FieldIDNumber])
	assert.Equal(t, idtype.Passport, state.Form.SelectedIDType)
	extraction.Name = "mutated"
	assert.Equal(t, "DELA CRUZ, JUAN", state.Form.Extraction.Name)

	state.CompletedSteps = []int{1, 2}
	state, err = ApplyUpdates(state, []dto.FieldUpdate{{Kind: dto.UpdateCompleteStep, Step: 3}})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, state.CompletedSteps)
	assert.Equal(t, 4, state.CurrentStep)

	_, err = ApplyUpdates(state, []dto.FieldUpdate{{Kind: dto.UpdateAcceptIDTypeSuggestion, Value: "library_card"}})
	assert.Error(t, err)
	_, err = ApplyUpdates(state, []dto.FieldUpdate{{Kind: dto.UpdateEditExtractedField, Field: "password", Value: "x"}})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestValidateStep_Passwords(t *testing.T) {
	f := dto.OnboardingForm{Password: "correct horse", ConfirmPassword: "correct house"}
	err := ValidateStep(f, 4)
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "confirmPassword")

	f.ConfirmPassword = f.Password
	assert.NoError(t, ValidateStep(f, 4))
}

func TestValidateStep_Property(t *testing.T) {
	f := dto.OnboardingForm{Address: "123 Rizal St", City: "Quezon City", Province: "Metro Manila", PropertyType: "residential", MonthlyBill: "4,500"}
	assert.NoError(t, ValidateStep(f, 2))
	f.MonthlyBill = "-3"
	assert.Error(t, ValidateStep(f, 2))
}

func TestReset(t *testing.T) {
	state := NewWizardState()
	state.Form.FirstName = "Juan"
	state.CurrentStep = 4
	state, err := ApplyUpdates(state, []dto.FieldUpdate{{Kind: dto.UpdateReset}})
	require.NoError(t, err)
	assert.Equal(t, NewWizardState(), state)
}

func TestSnapshotRoundTrip(t *testing.T) {
	state := NewWizardState()
	state.Form.FirstName = "Juan"
	state.Form.Password = "secret123"
	state.CurrentStep = 2
	state.CompletedSteps = []int{1}

	snap := SnapshotOf(state, nil)
	assert.Equal(t, "Juan", snap.FormData["firstName"])

	restored := StateFromProgress(&dto.OnboardingProgress{FormData: snap.FormData, CurrentStep: 2, CompletedSteps: []int{1, 1}})
	assert.Equal(t, "Juan", restored.Form.FirstName)
	assert.Equal(t, []int{1}, restored.CompletedSteps)
}
