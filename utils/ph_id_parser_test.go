package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePhilippineIDText_PhilID(t *testing.T) {
	text := `
		REPUBLIKA NG PILIPINAS
		Republic of the Philippines
		PAMBANSANG PAGKAKAKILANLAN
		Philippine Identification Card
		1234-5678-9012-3456
		Apelyido/Last Name
		DELA CRUZ
		Mga Pangalan/Given Names
		JUAN MIGUEL
		Gitnang Apelyido/Middle Name
		SANTOS
		Petsa ng Kapanganakan/Date of Birth
		JANUARY 15, 1990
		Tirahan/Address
		123 RIZAL ST, BRGY SAN ANTONIO, QUEZON CITY
	`

	data := ParsePhilippineIDText(text, 85.4)

	assert.Equal(t, "DELA CRUZ, JUAN MIGUEL SANTOS", data.Name)
	assert.Equal(t, "1234-5678-9012-3456", data.IDNumber)
	assert.Equal(t, "Philippine National ID (PhilID)", data.IDType)
	assert.Equal(t, "1990-01-15", data.BirthDate)
	assert.Equal(t, "123 RIZAL ST, BRGY SAN ANTONIO, QUEZON CITY", data.Address)
	assert.Equal(t, 85, data.Confidence)
}

func TestParsePhilippineIDText_DriversLicense(t *testing.T) {
	text := `
		REPUBLIC OF THE PHILIPPINES
		DEPARTMENT OF TRANSPORTATION
		LAND TRANSPORTATION OFFICE
		DRIVER'S LICENSE
		Last Name, First Name, Middle Name
		DELA CRUZ, JUAN SANTOS
		Nationality Sex Date of Birth Weight (kg) Height(m)
		PHL M 1990/01/15 70 1.70
		Address
		123 RIZAL ST QUEZON CITY
		License No. Expiration Date Agency Code
		N01-23-456789 2030/01/15 N01
	`

	data := ParsePhilippineIDText(text, 77)

	assert.Equal(t, "DELA CRUZ, JUAN SANTOS", data.Name)
	assert.Equal(t, "N01-23-456789", data.IDNumber)
	assert.Equal(t, "Driver's License", data.IDType)
	assert.Equal(t, "1990-01-15", data.BirthDate)
	assert.Equal(t, "123 RIZAL ST QUEZON CITY", data.Address)
	assert.Equal(t, 77, data.Confidence)
}

func TestParsePhilippineIDText_MissingFieldsCapConfidence(t *testing.T) {
	data := ParsePhilippineIDText("blurry\nnothing useful", 90)

	assert.Empty(t, data.IDNumber)
	assert.Equal(t, 40, data.Confidence)
}

func TestFindDate(t *testing.T) {
	assert.Equal(t, "1990-01-15", findDate("DOB 1990-01-15"))
	assert.Equal(t, "1985-09-03", findDate("SEP 3, 1985"))
	assert.Equal(t, "1992-12-25", findDate("12/25/1992"))
	assert.Equal(t, "", findDate("no date"))
}

func TestIsLikelyPersonName(t *testing.T) {
	assert.True(t, isLikelyPersonName("Juan Dela Cruz"))
	assert.False(t, isLikelyPersonName("Republic of the Philippines"))
	assert.False(t, isLikelyPersonName("Juan"))
}
