package service

import (
	"image/color"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const philIDPayload = `{"DateIssued":"June 10, 2023","Issuer":"PSA","subject":{"Suffix":"JR","lName":"Dela Cruz","fName":"Juan","mName":"Santos","sex":"Male","BF":"[1,1]","DOB":"January 15, 1990","POB":"Quezon City","PCN":"1234-5678-9012-3456"},"alg":"EDDSA","signature":"abc"}`

func TestDecodePhilIDQR(t *testing.T) {
	matrix, err := qrcode.NewQRCodeWriter().Encode(philIDPayload, gozxing.BarcodeFormat_QR_CODE, 400, 400, nil)
	require.NoError(t, err)

	data, err := DecodePhilIDQR(matrix)
	require.NoError(t, err)

	assert.Equal(t, "DELA CRUZ JR, JUAN SANTOS", data.Name)
	assert.Equal(t, "1234-5678-9012-3456", data.IDNumber)
	assert.Equal(t, "1990-01-15", data.BirthDate)
	assert.Equal(t, 100, data.Confidence)
	assert.Contains(t, data.IDType, "PhilID")
}

func TestDecodePhilIDQR_NoCode(t *testing.T) {
	_, err := DecodePhilIDQR(solidImage(200, 200, color.NRGBA{R: 128, G: 128, B: 128, A: 255}))
	assert.Error(t, err)
}

func TestParsePhilIDPayload_Rejects(t *testing.T) {
	_, err := parsePhilIDPayload("https://example.com/not-an-id")
	assert.ErrorIs(t, err, ErrNotPhilIDQR)

	_, err = parsePhilIDPayload(`{"subject":{"lName":"Cruz"}}`)
	assert.ErrorIs(t, err, ErrNotPhilIDQR)
}

func TestNormalizeQRDate(t *testing.T) {
	assert.Equal(t, "1990-01-05", normalizeQRDate("January 5, 1990"))
	assert.Equal(t, "1990-01-05", normalizeQRDate("1990-01-05"))
	assert.Equal(t, "sometime", normalizeQRDate("sometime"))
}
