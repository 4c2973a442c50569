// Package idtype maps free-form ID type names to the canonical values offered
// in the wizard's ID type select, and checks a selected type against the one
// detected on the document.
package idtype

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Aashish23092/solar-id-intake/dto"
)

// Canonical ID type values.
const (
	PhilID          = "philid"
	DriversLicense  = "drivers_license"
	Passport        = "passport"
	TIN             = "tin"
	SSS             = "sss"
	VotersID        = "voters_id"
	SeniorCitizenID = "senior_citizen_id"
	PWDID           = "pwd_id"
	PostalID        = "postal_id"
	PhilHealth      = "philhealth"
	UMID            = "umid"
	PRC             = "prc"
	FirearmLicense  = "firearm_license"
	BarangayID      = "barangay_id"
)

type category struct {
	value string
	label string
	// phrases match anywhere in the space-free normalized string.
	phrases []string
	// tokens match whole words only; used for short acronyms.
	tokens []string
}

// Ordered so that more specific categories win, e.g. firearm licenses before
// driver's licenses.
var categories = []category{
	{PhilID, "Philippine National ID (PhilID)",
		[]string{"philid", "philsys", "nationalid", "philippineidentification", "pambansangpagkakakilanlan", "ephilid"},
		[]string{"psn", "pcn"}},
	{FirearmLicense, "Firearm License (LTOPF)",
		[]string{"firearm", "ltopf", "licensetoownandpossess"},
		nil},
	{DriversLicense, "Driver's License",
		[]string{"driverslicense", "driverlicense", "drivinglicense", "landtransportation", "studentpermit"},
		[]string{"lto", "dl"}},
	{Passport, "Passport",
		[]string{"passport", "pasaporte"},
		[]string{"dfa"}},
	{UMID, "UMID",
		[]string{"unifiedmultipurpose", "umid"},
		[]string{"crn"}},
	{SSS, "SSS ID",
		[]string{"socialsecurity"},
		[]string{"sss"}},
	{TIN, "TIN ID",
		[]string{"taxidentification", "taxpayer", "bureauofinternalrevenue"},
		[]string{"tin", "bir"}},
	{PhilHealth, "PhilHealth ID",
		[]string{"philhealth", "philippinehealthinsurance"},
		nil},
	{VotersID, "Voter's ID",
		[]string{"voter", "commissiononelections", "comelec"},
		[]string{"vin"}},
	{SeniorCitizenID, "Senior Citizen ID",
		[]string{"seniorcitizen", "osca"},
		nil},
	{PWDID, "PWD ID",
		[]string{"personswithdisabilit", "personwithdisabilit", "pdao"},
		[]string{"pwd"}},
	{PostalID, "Postal ID",
		[]string{"postal", "phlpost", "philpost"},
		nil},
	{PRC, "PRC ID",
		[]string{"professionalregulation", "prcid"},
		[]string{"prc"}},
	{BarangayID, "Barangay ID",
		[]string{"barangay"},
		[]string{"brgy"}},
}

// relatedGroups are distinct categories that are commonly confused because
// one card carries the other's number.
var relatedGroups = [][]string{
	{UMID, SSS, PhilHealth},
}

// stopwords never count toward token overlap.
var stopwords = map[string]bool{
	"id": true, "card": true, "the": true, "of": true, "no": true, "number": true,
	"republic": true, "philippine": true, "philippines": true, "identification": true,
	"and": true, "ng": true,
}

// Normalize lowercases s and replaces everything that is not a letter with a space.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r == '\'' || r == '’':
			// driver's → drivers
		case unicode.IsLetter(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Categorize returns the canonical value for s, or "" when no category matches.
func Categorize(s string) string {
	if c := lookup(Normalize(s)); c != nil {
		return c.value
	}
	return ""
}

// Label returns the human readable name of a canonical value.
func Label(value string) string {
	for _, c := range categories {
		if c.value == value {
			return c.label
		}
	}
	return value
}

// Values returns every canonical value in select order.
func Values() []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, c.value)
	}
	return out
}

func lookup(normalized string) *category {
	if normalized == "" {
		return nil
	}
	joined := strings.ReplaceAll(normalized, " ", "")
	words := strings.Fields(normalized)
	for i := range categories {
		c := &categories[i]
		if strings.ReplaceAll(c.value, "_", "") == joined {
			return c
		}
		for _, p := range c.phrases {
			if strings.Contains(joined, p) {
				return c
			}
		}
		for _, tok := range c.tokens {
			for _, w := range words {
				if w == tok {
					return c
				}
			}
		}
	}
	return nil
}

// ValidateIDTypeMatch compares the ID type the user selected with the type
// detected on the uploaded document.
func ValidateIDTypeMatch(selected, detected string) dto.IDTypeValidationResult {
	selNorm, detNorm := Normalize(selected), Normalize(detected)
	selCat, detCat := lookup(selNorm), lookup(detNorm)

	result := dto.IDTypeValidationResult{
		Confidence:   dto.ConfidenceLow,
		DetectedType: strings.TrimSpace(detected),
	}
	if detCat != nil {
		result.DetectedType = detCat.label
	}

	if detNorm == "" {
		result.Suggestion = fmt.Sprintf("We could not read the ID type from the document. Check that you uploaded your %s.", labelOf(selCat, selected))
		return result
	}

	switch {
	case selCat != nil && detCat != nil && selCat.value == detCat.value:
		result.Matches = true
		result.Confidence = dto.ConfidenceHigh
		return result
	case (selCat == nil || detCat == nil) && tokensOverlap(selNorm, detNorm):
		result.Matches = true
		result.Confidence = dto.ConfidenceMedium
		return result
	case selCat != nil && detCat != nil && related(selCat.value, detCat.value):
		result.Matches = true
		result.Confidence = dto.ConfidenceMedium
		return result
	}

	if detCat != nil {
		result.SuggestedCanonicalValue = detCat.value
		result.Suggestion = fmt.Sprintf("The document looks like a %s, but you selected %s. Switch your ID type to %s or upload a %s.",
			detCat.label, labelOf(selCat, selected), detCat.label, labelOf(selCat, selected))
	} else {
		result.Suggestion = fmt.Sprintf("We could not recognise %q as a supported ID. Check that you uploaded your %s.",
			strings.TrimSpace(detected), labelOf(selCat, selected))
	}
	return result
}

func labelOf(c *category, fallback string) string {
	if c != nil {
		return c.label
	}
	return strings.TrimSpace(fallback)
}

func tokensOverlap(a, b string) bool {
	seen := make(map[string]bool)
	for _, w := range strings.Fields(a) {
		if len(w) >= 3 && !stopwords[w] {
			seen[w] = true
		}
	}
	for _, w := range strings.Fields(b) {
		if seen[w] {
			return true
		}
	}
	return false
}

func related(a, b string) bool {
	for _, group := range relatedGroups {
		var hasA, hasB bool
		for _, v := range group {
			hasA = hasA || v == a
			hasB = hasB || v == b
		}
		if hasA && hasB {
			return true
		}
	}
	return false
}

// DetectInText returns the category mentioned most often across the lines of
// raw OCR text, preferring the earliest on ties.
func DetectInText(text string) string {
	counts := make(map[string]int)
	var order []string
	for _, line := range strings.Split(text, "\n") {
		c := lookup(Normalize(line))
		if c == nil {
			continue
		}
		if counts[c.value] == 0 {
			order = append(order, c.value)
		}
		counts[c.value]++
	}
	best := ""
	for _, v := range order {
		if best == "" || counts[v] > counts[best] {
			best = v
		}
	}
	return best
}
