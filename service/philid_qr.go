package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/utils/idtype"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNotPhilIDQR is returned when a QR code was decoded but is not a PhilSys payload.
var ErrNotPhilIDQR = errors.New("QR code is not a PhilSys credential")

// philIDQR mirrors the JSON carried in the PhilSys card QR code.
type philIDQR struct {
	DateIssued string `json:"DateIssued"`
	Issuer     string `json:"Issuer"`
	Subject    struct {
		Suffix string `json:"Suffix"`
		LName  string `json:"lName"`
		FName  string `json:"fName"`
		MName  string `json:"mName"`
		Sex    string `json:"sex"`
		DOB    string `json:"DOB"`
		POB    string `json:"POB"`
		PCN    string `json:"PCN"`
	} `json:"subject"`
}

// DecodePhilIDQR reads the QR code on a PhilID card. The payload is signed
// by PSA, so a successful decode is reported at full confidence.
func DecodePhilIDQR(img image.Image) (*dto.ExtractedIDData, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to create binary bitmap: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{gozxing.DecodeHintType_TRY_HARDER: true}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return nil, fmt.Errorf("failed to decode QR code: %w", err)
	}

	return parsePhilIDPayload(result.GetText())
}

func parsePhilIDPayload(text string) (*dto.ExtractedIDData, error) {
	var qr philIDQR
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &qr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPhilIDQR, err)
	}
	s := qr.Subject
	if strings.TrimSpace(s.PCN) == "" || strings.TrimSpace(s.LName) == "" || strings.TrimSpace(s.FName) == "" {
		return nil, ErrNotPhilIDQR
	}

	given := strings.TrimSpace(strings.Join(nonEmpty(s.FName, s.MName), " "))
	last := strings.TrimSpace(strings.Join(nonEmpty(s.LName, s.Suffix), " "))

	return &dto.ExtractedIDData{
		Name:        strings.ToUpper(last + ", " + given),
		Address:     "",
		IDNumber:    strings.TrimSpace(s.PCN),
		IDType:      idtype.Label(idtype.PhilID),
		BirthDate:   normalizeQRDate(s.DOB),
		Confidence:  100,
		Explanation: "Read from the PhilSys QR code issued by " + strings.TrimSpace(qr.Issuer),
	}, nil
}

var qrDateLayouts = []string{"January 02, 2006", "January 2, 2006", "2006-01-02", "01/02/2006"}

func normalizeQRDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range qrDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
