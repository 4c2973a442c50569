package service

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/utils/idtype"
)

const (
	minNameLength     = 3
	minIDNumberLength = 5
	retakeConfidence  = 40
)

// Validation flags attached to ExtractedIDData.
const (
	FlagNameMissing        = "name_missing"
	FlagNameShort          = "name_too_short"
	FlagNameNoLetters      = "name_without_letters"
	FlagIDNumberMissing    = "id_number_missing"
	FlagIDNumberShort      = "id_number_too_short"
	FlagIDNumberFormat     = "id_number_unusual_format"
	FlagLowConfidence      = "low_confidence"
	FlagIDTypeUnrecognized = "id_type_unrecognized"
)

// ValidateExtractedData sanity-checks OCR output. Errors mean the data cannot
// be used as-is; warnings are shown to the user.
func ValidateExtractedData(data *dto.ExtractedIDData) dto.ExtractionValidation {
	v := dto.ExtractionValidation{Errors: []string{}, Warnings: []string{}, IDNumberFormat: idtype.FormatUnrecognized}
	if data == nil {
		v.Errors = append(v.Errors, "No data was extracted from the ID")
		v.NeedsRetake = true
		return v
	}

	name := strings.TrimSpace(data.Name)
	switch {
	case name == "":
		v.Errors = append(v.Errors, "No name was found on the ID")
		v.Flags = append(v.Flags, FlagNameMissing)
	case len([]rune(name)) < minNameLength:
		v.Errors = append(v.Errors, "The name read from the ID is too short")
		v.Flags = append(v.Flags, FlagNameShort)
	case !hasLetter(name):
		v.Errors = append(v.Errors, "The name read from the ID contains no letters")
		v.Flags = append(v.Flags, FlagNameNoLetters)
	}

	category := idtype.Categorize(data.IDType)
	if category == "" && strings.TrimSpace(data.IDType) != "" {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%q is not a recognised Philippine ID type", data.IDType))
		v.Flags = append(v.Flags, FlagIDTypeUnrecognized)
	}

	number := strings.TrimSpace(data.IDNumber)
	switch {
	case number == "":
		v.Errors = append(v.Errors, "No ID number was found on the ID")
		v.Flags = append(v.Flags, FlagIDNumberMissing)
	case len(number) < minIDNumberLength:
		v.Warnings = append(v.Warnings, "The ID number looks incomplete")
		v.Flags = append(v.Flags, FlagIDNumberShort)
	default:
		v.IDNumberFormat = idtype.MatchNumberFormat(category, number)
		switch v.IDNumberFormat {
		case idtype.FormatGeneric:
			if category != "" {
				v.Warnings = append(v.Warnings, fmt.Sprintf("The ID number does not look like a typical %s number", idtype.Label(category)))
				v.Flags = append(v.Flags, FlagIDNumberFormat)
			}
		case idtype.FormatUnrecognized:
			v.Warnings = append(v.Warnings, "The ID number format was not recognised; please double-check it")
			v.Flags = append(v.Flags, FlagIDNumberFormat)
		}
	}

	if data.Confidence < retakeConfidence {
		v.Warnings = append(v.Warnings,
			fmt.Sprintf("Low extraction confidence (%d%%). Consider retaking the photo", data.Confidence))
		v.Flags = append(v.Flags, FlagLowConfidence)
		v.NeedsRetake = true
	}

	v.Valid = len(v.Errors) == 0
	return v
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
