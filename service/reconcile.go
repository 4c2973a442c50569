package service

import (
	"strings"

	"github.com/Aashish23092/solar-id-intake/dto"
)

// Extracted fields the user may correct, in display order.
const (
	FieldIDName      = "name"
	FieldIDAddress   = "address"
	FieldIDNumber    = "idNumber"
	FieldIDType      = "idType"
	FieldIDBirthDate = "birthDate"
)

var editableIDFields = []string{FieldIDName, FieldIDAddress, FieldIDNumber, FieldIDType, FieldIDBirthDate}

// IsEditableIDField reports whether field names an editable extracted field.
func IsEditableIDField(field string) bool {
	for _, f := range editableIDFields {
		if f == field {
			return true
		}
	}
	return false
}

// ReconcileExtraction applies user edits on top of OCR output. A non-empty
// edit always wins; unknown keys are ignored.
func ReconcileExtraction(ocr dto.ExtractedIDData, edits map[string]string) dto.ReconciledID {
	out := dto.ReconciledID{ExtractedIDData: ocr, EditedFields: []string{}}
	for _, field := range editableIDFields {
		v := strings.TrimSpace(edits[field])
		if v == "" {
			continue
		}
		target := idField(&out.ExtractedIDData, field)
		if *target != v {
			*target = v
			out.EditedFields = append(out.EditedFields, field)
		}
	}
	return out
}

func idField(d *dto.ExtractedIDData, field string) *string {
	switch field {
	case FieldIDName:
		return &d.Name
	case FieldIDAddress:
		return &d.Address
	case FieldIDNumber:
		return &d.IDNumber
	case FieldIDType:
		return &d.IDType
	default:
		return &d.BirthDate
	}
}
