package utils

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/utils/idtype"
)

var (
	reISODate   = regexp.MustCompile(`\b(\d{4})[/-](\d{1,2})[/-](\d{1,2})\b`)
	reUSDate    = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)
	reMonthDate = regexp.MustCompile(`(?i)\b(JAN(?:UARY)?|FEB(?:RUARY)?|MAR(?:CH)?|APR(?:IL)?|MAY|JUNE?|JULY?|AUG(?:UST)?|SEP(?:TEMBER)?|OCT(?:OBER)?|NOV(?:EMBER)?|DEC(?:EMBER)?)\.?\s+(\d{1,2}),?\s+(\d{4})\b`)
	reNonName   = regexp.MustCompile(`[^\p{L}\s,.\-']+`)
	reSpaces    = regexp.MustCompile(`\s+`)
)

var (
	lastNameLabels   = []string{"LAST NAME", "APELYIDO", "SURNAME"}
	givenNameLabels  = []string{"GIVEN NAMES", "GIVEN NAME", "MGA PANGALAN", "FIRST NAME"}
	middleNameLabels = []string{"MIDDLE NAME", "GITNANG APELYIDO"}
	birthLabels      = []string{"DATE OF BIRTH", "BIRTH DATE", "BIRTHDATE", "PETSA NG KAPANGANAKAN", "DOB"}
	addressLabels    = []string{"ADDRESS", "TIRAHAN"}
	// Lines holding these are never taken as values.
	allLabels = []string{
		"LAST NAME", "APELYIDO", "SURNAME", "GIVEN NAME", "MGA PANGALAN", "FIRST NAME", "MIDDLE NAME",
		"DATE OF BIRTH", "BIRTH", "PETSA", "ADDRESS", "TIRAHAN", "SEX", "NATIONALITY", "LICENSE NO",
		"EXPIRATION", "VALID", "HEIGHT", "WEIGHT", "BLOOD", "AGENCY CODE", "REPUBLIC", "SIGNATURE",
	}
	nonPersonTokens = []string{
		"republic", "philippines", "philippine", "identification", "card", "office", "department",
		"transportation", "license", "passport", "authority", "statistics", "address", "pilipinas",
	}
)

// ParsePhilippineIDText builds ExtractedIDData from raw Tesseract output of a
// Philippine ID. confidence is the engine's mean word confidence.
func ParsePhilippineIDText(raw string, confidence float64) dto.ExtractedIDData {
	lines := normalizeLines(raw)
	upper := make([]string, len(lines))
	for i, l := range lines {
		upper[i] = strings.ToUpper(l)
	}

	category := idtype.DetectInText(strings.Join(upper, "\n"))
	data := dto.ExtractedIDData{
		Name:        extractIDName(lines, upper),
		Address:     extractAddress(lines, upper),
		IDNumber:    idtype.FindNumber(category, strings.Join(upper, "\n")),
		BirthDate:   extractBirthDate(upper),
		Explanation: "Parsed from Tesseract OCR text",
	}
	if category != "" {
		data.IDType = idtype.Label(category)
	}

	conf := int(confidence + 0.5)
	if conf > 100 {
		conf = 100
	}
	if conf < 0 {
		conf = 0
	}
	if (data.Name == "" || data.IDNumber == "") && conf > 40 {
		conf = 40
	}
	data.Confidence = conf
	return data
}

// normalizeLines cleans and splits OCR text into lines
func normalizeLines(text string) []string {
	text = strings.ReplaceAll(text, "\r", "")
	rawLines := strings.Split(text, "\n")

	lines := make([]string, 0, len(rawLines))
	for _, l := range rawLines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

func extractIDName(lines, upper []string) string {
	// LTO layout: "LAST NAME, FIRST NAME, MIDDLE NAME" header, value below.
	for i, u := range upper {
		if strings.Contains(u, "LAST NAME") && strings.Contains(u, "FIRST NAME") {
			if v := valueBelow(lines, upper, i); v != "" {
				return formatCommaName(v)
			}
		}
	}

	// PhilID and passport layout: one label per name part.
	middle := labelledValue(lines, upper, middleNameLabels, nil)
	last := labelledValue(lines, upper, lastNameLabels, middleNameLabels)
	given := labelledValue(lines, upper, givenNameLabels, nil)
	if last != "" && given != "" {
		name := cleanNameValue(last) + ", " + cleanNameValue(given)
		if middle != "" {
			name += " " + cleanNameValue(middle)
		}
		return strings.ToUpper(name)
	}

	if v := labelledValue(lines, upper, []string{"NAME"}, nil); v != "" {
		if n := cleanNameValue(v); isLikelyPersonName(n) {
			return strings.ToUpper(n)
		}
	}

	for _, l := range lines {
		if n := cleanNameValue(l); isLikelyPersonName(n) {
			return strings.ToUpper(n)
		}
	}
	return ""
}

func formatCommaName(v string) string {
	parts := strings.Split(cleanNameValue(v), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) >= 2 {
		return strings.ToUpper(parts[0] + ", " + strings.Join(parts[1:], " "))
	}
	return strings.ToUpper(parts[0])
}

// labelledValue finds the first line carrying one of labels (and none of
// exclude) and returns the text after a colon or the next non-label line.
func labelledValue(lines, upper []string, labels, exclude []string) string {
	for i, u := range upper {
		if !containsAny(u, labels) || containsAny(u, exclude) {
			continue
		}
		if idx := strings.Index(lines[i], ":"); idx >= 0 {
			if v := strings.TrimSpace(lines[i][idx+1:]); v != "" {
				return v
			}
		}
		if v := valueBelow(lines, upper, i); v != "" {
			return v
		}
	}
	return ""
}

func valueBelow(lines, upper []string, i int) string {
	if i+1 >= len(lines) || containsAny(upper[i+1], allLabels) {
		return ""
	}
	return lines[i+1]
}

func extractBirthDate(upper []string) string {
	for i, u := range upper {
		if !containsAny(u, birthLabels) {
			continue
		}
		if d := findDate(u); d != "" {
			return d
		}
		if i+1 < len(upper) {
			if d := findDate(upper[i+1]); d != "" {
				return d
			}
		}
	}
	for _, u := range upper {
		if containsAny(u, []string{"EXPIR", "VALID", "ISSU"}) {
			continue
		}
		if d := findDate(u); d != "" {
			return d
		}
	}
	return ""
}

// findDate returns the first date in s as YYYY-MM-DD. Slash dates with the
// year last are read month first.
func findDate(s string) string {
	if m := reISODate.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse("2006-1-2", m[1]+"-"+m[2]+"-"+m[3]); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if m := reMonthDate.FindStringSubmatch(s); m != nil {
		month := strings.ToUpper(m[1])
		if len(month) > 3 {
			month = month[:3]
		}
		if t, err := time.Parse("Jan 2 2006", strings.Title(strings.ToLower(month))+" "+m[2]+" "+m[3]); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if m := reUSDate.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse("1/2/2006", m[1]+"/"+m[2]+"/"+m[3]); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

func extractAddress(lines, upper []string) string {
	for i, u := range upper {
		if !containsAny(u, addressLabels) {
			continue
		}
		var parts []string
		if idx := strings.Index(lines[i], ":"); idx >= 0 {
			if v := strings.TrimSpace(lines[i][idx+1:]); v != "" {
				parts = append(parts, v)
			}
		}
		for j := i + 1; j < len(lines) && j <= i+2; j++ {
			if containsAny(upper[j], allLabels) {
				break
			}
			parts = append(parts, lines[j])
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func cleanNameValue(v string) string {
	v = reNonName.ReplaceAllString(v, " ")
	v = reSpaces.ReplaceAllString(v, " ")
	return strings.Trim(strings.TrimSpace(v), ",.-")
}

// isLikelyPersonName rejects agency headers and other card boilerplate.
func isLikelyPersonName(name string) bool {
	words := strings.Fields(strings.ReplaceAll(name, ",", " "))
	if len(words) < 2 || len(words) > 5 {
		return false
	}
	lower := strings.ToLower(name)
	for _, t := range nonPersonTokens {
		if strings.Contains(lower, t) {
			return false
		}
	}
	letters := 0
	for _, r := range name {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 4
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
