package idtype

import (
	"regexp"
	"strings"
)

// numberFormats holds the printed number formats per ID type, without anchors.
var numberFormats = map[string][]string{
	PhilID:          {`\d{4}-?\d{4}-?\d{4}-?\d{4}`, `\d{4}-?\d{7}-?\d`},
	DriversLicense:  {`[A-Z]\d{2}-?\d{2}-?\d{6}`},
	Passport:        {`[A-Z]\d{7}[A-Z]`, `[A-Z]{2}\d{7}`},
	TIN:             {`\d{3}-?\d{3}-?\d{3}(?:-?\d{3,5})?`},
	SSS:             {`\d{2}-?\d{7}-?\d`},
	UMID:            {`\d{4}-?\d{7}-?\d`},
	PhilHealth:      {`\d{2}-?\d{9}-?\d`},
	PRC:             {`\d{7}`},
	PostalID:        {`(?:PRN\s?)?\d{12}\s?[A-Z]?`},
	VotersID:        {`\d{4}-?\d{4}[A-Z]-?[A-Z]\d{3}[A-Z]{3}\d{5}`, `[0-9A-Z]{4}-[0-9A-Z]{4,5}-[0-9A-Z]{8,13}`},
	PWDID:           {`\d{2}-?\d{4}-?\d{3}-?\d{7}`},
	SeniorCitizenID: {`[A-Z0-9]{2,6}-?\d{3,10}`},
	FirearmLicense:  {`[A-Z0-9]{2,6}(?:-?[A-Z0-9]{2,10}){1,3}`},
	BarangayID:      {`[A-Z0-9]{1,6}-?\d{3,12}`},
}

// genericNumberFormat is a long run of digits and dashes.
const genericNumberFormat = `\d[\d-]{7,}\d`

var (
	exactPatterns  = compileAll(`^(?:%s)$`)
	searchPatterns = compileAll(`\b(?:%s)\b`)
	genericExact   = regexp.MustCompile(`^` + genericNumberFormat + `$`)
	genericSearch  = regexp.MustCompile(genericNumberFormat)
)

func compileAll(wrap string) map[string][]*regexp.Regexp {
	out := make(map[string][]*regexp.Regexp, len(numberFormats))
	for value, formats := range numberFormats {
		for _, f := range formats {
			out[value] = append(out[value], regexp.MustCompile(strings.Replace(wrap, "%s", f, 1)))
		}
	}
	return out
}

// Number format classifications returned by MatchNumberFormat.
const (
	FormatTypePattern  = "type_pattern"
	FormatGeneric      = "generic"
	FormatUnrecognized = "unrecognized"
)

// MatchNumberFormat classifies number against the formats known for the
// canonical ID type value.
func MatchNumberFormat(value, number string) string {
	n := strings.ToUpper(strings.TrimSpace(number))
	if n == "" {
		return FormatUnrecognized
	}
	for _, re := range exactPatterns[value] {
		if re.MatchString(n) {
			return FormatTypePattern
		}
	}
	if genericExact.MatchString(n) {
		return FormatGeneric
	}
	return FormatUnrecognized
}

// FindNumber searches free text for an ID number of the given type, falling
// back to the generic format. It returns "" when nothing plausible is found.
func FindNumber(value, text string) string {
	upper := strings.ToUpper(text)
	for _, re := range searchPatterns[value] {
		if m := re.FindString(upper); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return genericSearch.FindString(upper)
}

// numberExamples shows each format the way it is printed on the card.
var numberExamples = map[string]string{
	PhilID:          "1234-5678-9012-3456 (PCN, 16 digits)",
	DriversLicense:  "N01-23-456789",
	Passport:        "P1234567A or EB1234567",
	TIN:             "123-456-789-000",
	SSS:             "34-5678901-2",
	UMID:            "0111-2345678-9 (CRN)",
	PhilHealth:      "12-345678901-2",
	PRC:             "0123456 (7 digits)",
	PostalID:        "PRN 100141234567 P",
	VotersID:        "1234-5678A-B123CDE45678",
	PWDID:           "13-7404-000-0001234",
	SeniorCitizenID: "OSCA-123456 (varies by city)",
	FirearmLicense:  "LTOPF-2020-1234567 (varies)",
	BarangayID:      "varies by barangay",
}

// Describe returns a prompt-friendly list of the printed number formats.
func Describe() string {
	var b strings.Builder
	for _, c := range categories {
		if ex, ok := numberExamples[c.value]; ok {
			b.WriteString("- ")
			b.WriteString(c.label)
			b.WriteString(": ")
			b.WriteString(ex)
			b.WriteString("\n")
		}
	}
	return b.String()
}
