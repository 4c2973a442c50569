package service

import (
	"testing"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/stretchr/testify/assert"
)

func TestReconcileExtraction(t *testing.T) {
	ocr := dto.ExtractedIDData{
		Name: "DELA CRUZ, JUAN", IDNumber: "N01-23-45678", IDType: "Driver's License", BirthDate: "1990-01-15", Confidence: 72,
	}

	out := ReconcileExtraction(ocr, map[string]string{
		FieldIDNumber:    "N01-23-456789",
		FieldIDName:      "  ",
		FieldIDBirthDate: "1990-01-15",
		"password":       "ignored",
	})

	assert.Equal(t, "N01-23-456789", out.IDNumber)
	assert.Equal(t, "DELA CRUZ, JUAN", out.Name)
	assert.Equal(t, []string{FieldIDNumber}, out.EditedFields)
	assert.Equal(t, 72, out.Confidence)
	assert.Equal(t, "N01-23-45678", ocr.IDNumber)
}

func TestReconcileExtraction_NoEdits(t *testing.T) {
	out := ReconcileExtraction(dto.ExtractedIDData{Name: "REYES, ANA"}, nil)
	assert.Equal(t, "REYES, ANA", out.Name)
	assert.Empty(t, out.EditedFields)
}

func TestIsEditableIDField(t *testing.T) {
	assert.True(t, IsEditableIDField(FieldIDAddress))
	assert.False(t, IsEditableIDField("password"))
}
