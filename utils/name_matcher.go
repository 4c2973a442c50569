package utils

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

const (
	// FieldMatchThreshold is the per-field similarity needed to count a name part as matching.
	FieldMatchThreshold = 70
	// MissingMiddleNameScore is the partial credit given when either side has no middle name.
	MissingMiddleNameScore = 70

	nicknameScore  = 90
	substringScore = 80
	lenientScore   = 60
)

// SimilarityFunc scores two normalized, non-identical strings from 0 to 100.
type SimilarityFunc func(a, b string) int

// NameMatcher compares user-entered names with names read from identity documents.
type NameMatcher struct {
	fallback SimilarityFunc
}

// NewNameMatcher returns a matcher using fallback for strings that are neither
// equal, nicknames nor substrings of each other. A nil fallback selects
// EditDistanceSimilarity.
func NewNameMatcher(fallback SimilarityFunc) *NameMatcher {
	if fallback == nil {
		fallback = EditDistanceSimilarity
	}
	return &NameMatcher{fallback: fallback}
}

var defaultMatcher = NewNameMatcher(nil)

// NormalizeName lowercases s, strips punctuation and collapses whitespace.
func NormalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '-':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ParseExtractedName splits a name as printed on an ID. It understands
// "LAST, FIRST MIDDLE" and "FIRST MIDDLE LAST". It returns nil when no
// first and last name can be told apart.
func ParseExtractedName(raw string) *dto.StructuredName {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if idx := strings.Index(raw, ","); idx >= 0 {
		last := NormalizeName(raw[:idx])
		rest := strings.Fields(NormalizeName(raw[idx+1:]))
		if last == "" || len(rest) == 0 {
			return nil
		}
		return &dto.StructuredName{
			FirstName:  rest[0],
			MiddleName: strings.Join(rest[1:], " "),
			LastName:   last,
		}
	}

	tokens := strings.Fields(NormalizeName(raw))
	if len(tokens) < 2 {
		return nil
	}
	return &dto.StructuredName{
		FirstName:  tokens[0],
		MiddleName: strings.Join(tokens[1:len(tokens)-1], " "),
		LastName:   tokens[len(tokens)-1],
	}
}

// CalculateNameSimilarity scores a and b with the default matcher.
func CalculateNameSimilarity(a, b string) int {
	return defaultMatcher.Similarity(a, b)
}

// Similarity returns 100 for equal names, 80 when one contains the other, 90
// for nickname pairs and the fallback metric otherwise.
func (m *NameMatcher) Similarity(a, b string) int {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == nb {
		return 100
	}
	if na == "" || nb == "" {
		return 0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return substringScore
	}
	if AreNicknames(na, nb) {
		return nicknameScore
	}
	return m.fallback(na, nb)
}

// EditDistanceSimilarity is the Levenshtein ratio of a and b: the share of
// both strings that survives the cheapest edit script.
func EditDistanceSimilarity(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	dist := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptions)
	score := int(math.Round(float64(total-dist) * 100 / float64(total)))
	if score < 0 {
		return 0
	}
	return score
}

// PositionalOverlap counts same-index character matches over the longer
// length. Kept for parity with older scoring; order-sensitive.
func PositionalOverlap(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	longer, shorter := len(ra), len(rb)
	if shorter > longer {
		longer, shorter = shorter, longer
	}
	if longer == 0 {
		return 100
	}
	matches := 0
	for i := 0; i < shorter; i++ {
		if ra[i] == rb[i] {
			matches++
		}
	}
	return matches * 100 / longer
}

// ValidateNameMatch compares the user's name with the raw name read from the ID.
func ValidateNameMatch(user dto.StructuredName, extractedRaw string) dto.NameValidationResult {
	return defaultMatcher.Validate(user, extractedRaw)
}

// Validate never fails: unparseable input yields a zero-score, non-matching result.
func (m *NameMatcher) Validate(user dto.StructuredName, extractedRaw string) dto.NameValidationResult {
	result := dto.NameValidationResult{
		Confidence:  dto.ConfidenceLow,
		Warnings:    []string{},
		Suggestions: []string{},
	}

	if strings.TrimSpace(user.FirstName) == "" || strings.TrimSpace(user.LastName) == "" {
		result.Warnings = append(result.Warnings, "First and last name are required to compare against the ID")
		result.Suggestions = append(result.Suggestions, "Complete your name in the personal details step")
		return result
	}

	extracted := ParseExtractedName(extractedRaw)
	if extracted == nil {
		result.Warnings = append(result.Warnings, "Could not read a full name from the ID")
		result.Suggestions = append(result.Suggestions, "Retake the photo so the name on the ID is clearly visible")
		return result
	}

	firstScore := m.firstNameScore(user, extracted)
	lastScore := m.Similarity(user.LastName, extracted.LastName)

	middleScore := MissingMiddleNameScore
	middleCompared := strings.TrimSpace(user.MiddleName) != "" && extracted.MiddleName != ""
	if middleCompared {
		middleScore = m.middleNameScore(user.MiddleName, extracted.MiddleName)
		matched := middleScore >= FieldMatchThreshold
		result.MiddleNameMatch = &matched
	}

	result.Score = int(math.Floor(float64(firstScore+lastScore+middleScore) / 3))
	result.FirstNameMatch = firstScore >= FieldMatchThreshold
	result.LastNameMatch = lastScore >= FieldMatchThreshold
	middleOK := middleScore >= FieldMatchThreshold
	allMatch := result.FirstNameMatch && result.LastNameMatch && middleOK

	switch {
	case result.FirstNameMatch && result.LastNameMatch:
		result.Matches = true
		switch {
		case allMatch && result.Score >= 90:
			result.Confidence = dto.ConfidenceHigh
		case result.Score >= 85, allMatch:
			result.Confidence = dto.ConfidenceMedium
		default:
			result.Confidence = dto.ConfidenceLow
		}
	case (result.FirstNameMatch || result.LastNameMatch) && result.Score >= lenientScore:
		result.Matches = true
		result.Confidence = dto.ConfidenceLow
		result.Warnings = append(result.Warnings, "Only part of your name matches the ID; accepted for manual review")
	default:
		result.Matches = false
		result.Confidence = dto.ConfidenceLow
	}

	if !result.FirstNameMatch {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("First name on the ID (%s) differs from the one you entered (%s)", extracted.FirstName, user.FirstName))
	}
	if !result.LastNameMatch {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Last name on the ID (%s) differs from the one you entered (%s)", extracted.LastName, user.LastName))
	}
	if middleCompared && !middleOK {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Middle name on the ID (%s) differs from the one you entered (%s)", extracted.MiddleName, user.MiddleName))
	}
	if len(result.Warnings) > 0 {
		result.Suggestions = append(result.Suggestions, "Enter your name exactly as it is printed on your ID")
		if !result.Matches {
			result.Suggestions = append(result.Suggestions, "Make sure the uploaded ID belongs to the applicant")
		}
	}

	return result
}

// firstNameScore also tries the user's nickname, and the ID's first name
// joined with its middle tokens for users with two given names.
func (m *NameMatcher) firstNameScore(user dto.StructuredName, extracted *dto.StructuredName) int {
	best := m.Similarity(user.FirstName, extracted.FirstName)
	if user.Nickname != "" {
		if s := m.Similarity(user.Nickname, extracted.FirstName); s > best {
			best = s
		}
	}
	if extracted.MiddleName != "" && strings.Contains(NormalizeName(user.FirstName), " ") {
		if s := m.Similarity(user.FirstName, extracted.FirstName+" "+extracted.MiddleName); s > best {
			best = s
		}
	}
	return best
}

// middleNameScore accepts a bare initial against the full middle name.
func (m *NameMatcher) middleNameScore(userMiddle, extractedMiddle string) int {
	u, e := NormalizeName(userMiddle), NormalizeName(extractedMiddle)
	if u == "" || e == "" {
		return MissingMiddleNameScore
	}
	if len([]rune(u)) == 1 || len([]rune(e)) == 1 {
		if []rune(u)[0] == []rune(e)[0] {
			return nicknameScore
		}
		return 0
	}
	return m.Similarity(u, e)
}
