package service

import (
	"testing"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/utils/idtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrossCheck_AllMatch(t *testing.T) {
	user := dto.StructuredName{FirstName: "Juan", MiddleName: "Santos", LastName: "Dela Cruz"}
	data := &dto.ExtractedIDData{Name: "DELA CRUZ, JUAN SANTOS", IDType: "Driver's License"}

	res := CrossCheck(user, idtype.DriversLicense, data)

	require.NotNil(t, res.Name)
	require.NotNil(t, res.IDType)
	assert.True(t, res.Name.Matches)
	assert.True(t, res.IDType.Matches)
	assert.Empty(t, res.Warnings)
}

func TestCrossCheck_Mismatches(t *testing.T) {
	user := dto.StructuredName{FirstName: "Maria", LastName: "Santos"}
	data := &dto.ExtractedIDData{Name: "DELA CRUZ, JUAN", IDType: "Passport"}

	res := CrossCheck(user, idtype.DriversLicense, data)

	require.Len(t, res.Warnings, 2)
	assert.Equal(t, WarningFieldName, res.Warnings[0].Field)
	assert.Equal(t, "DELA CRUZ, JUAN", res.Warnings[0].SuggestedValue)
	assert.Equal(t, WarningFieldIDType, res.Warnings[1].Field)
	assert.Equal(t, idtype.Passport, res.Warnings[1].SuggestedValue)
	assert.ElementsMatch(t, []string{dto.ActionAcceptSuggestion, dto.ActionKeepAnswer, dto.ActionEditPrevious}, res.Warnings[1].Actions)
}

func TestCrossCheck_SkipsMissingInputs(t *testing.T) {
	res := CrossCheck(dto.StructuredName{}, "", &dto.ExtractedIDData{Name: "DELA CRUZ, JUAN"})
	assert.Nil(t, res.Name)
	assert.Nil(t, res.IDType)
	assert.Empty(t, res.Warnings)

	assert.Empty(t, CrossCheck(dto.StructuredName{FirstName: "A", LastName: "B"}, "sss", nil).Warnings)
}
