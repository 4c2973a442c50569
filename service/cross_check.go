package service

import (
	"fmt"
	"strings"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/utils"
	"github.com/Aashish23092/solar-id-intake/utils/idtype"
)

// Fields a MismatchWarning can point at.
const (
	WarningFieldName   = "name"
	WarningFieldIDType = "selectedIdType"
)

var mismatchActions = []string{dto.ActionAcceptSuggestion, dto.ActionKeepAnswer, dto.ActionEditPrevious}

// CrossCheck compares extracted ID data against what the user typed in the
// earlier wizard steps. Mismatches become dismissible warnings; they never
// block the flow.
func CrossCheck(user dto.StructuredName, selectedIDType string, data *dto.ExtractedIDData) dto.CrossCheckResult {
	result := dto.CrossCheckResult{Warnings: []dto.MismatchWarning{}}
	if data == nil {
		return result
	}

	if strings.TrimSpace(data.Name) != "" && strings.TrimSpace(user.FirstName) != "" && strings.TrimSpace(user.LastName) != "" {
		nameResult := utils.ValidateNameMatch(user, data.Name)
		result.Name = &nameResult
		if !nameResult.Matches || nameResult.Confidence == dto.ConfidenceLow {
			result.Warnings = append(result.Warnings, dto.MismatchWarning{
				Field:          WarningFieldName,
				Message:        fmt.Sprintf("The name on your ID (%s) does not match the name you entered", data.Name),
				SuggestedValue: data.Name,
				Actions:        mismatchActions,
			})
		}
	}

	if strings.TrimSpace(selectedIDType) != "" && strings.TrimSpace(data.IDType) != "" {
		typeResult := idtype.ValidateIDTypeMatch(selectedIDType, data.IDType)
		result.IDType = &typeResult
		if !typeResult.Matches {
			msg := fmt.Sprintf("The uploaded document looks like a %s", typeResult.DetectedType)
			if typeResult.Suggestion != "" {
				msg = typeResult.Suggestion
			}
			result.Warnings = append(result.Warnings, dto.MismatchWarning{
				Field:          WarningFieldIDType,
				Message:        msg,
				SuggestedValue: typeResult.SuggestedCanonicalValue,
				Actions:        mismatchActions,
			})
		}
	}

	return result
}
