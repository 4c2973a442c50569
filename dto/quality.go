package dto

// Overall quality buckets.
const (
	QualityExcellent    = "excellent"
	QualityGood         = "good"
	QualityAcceptable   = "acceptable"
	QualityPoor         = "poor"
	QualityUnacceptable = "unacceptable"
)

// QualityCheck is the outcome of one image check.
type QualityCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Score   int    `json:"score"`
	Message string `json:"message"`
}

// ImageQualityResult aggregates the checks with a 0-100 score.
type ImageQualityResult struct {
	Overall     string         `json:"overall"`
	Score       int            `json:"score"`
	Checks      []QualityCheck `json:"checks"`
	CanProceed  bool           `json:"canProceed"`
	Warnings    []string       `json:"warnings"`
	Suggestions []string       `json:"suggestions"`
}

// Check returns the named check, or nil.
func (r *ImageQualityResult) Check(name string) *QualityCheck {
	for i := range r.Checks {
		if r.Checks[i].Name == name {
			return &r.Checks[i]
		}
	}
	return nil
}
