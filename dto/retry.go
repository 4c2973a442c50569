package dto

import "time"

// RetryAttempt records one OCR attempt.
type RetryAttempt struct {
	Attempt    int       `json:"attempt"`
	Strategy   string    `json:"strategy"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"durationMs"`
	Error      string    `json:"error,omitempty"`
}

// RetryResult is the outcome of a retry run with every attempt.
type RetryResult struct {
	Success         bool             `json:"success"`
	Data            *ExtractedIDData `json:"data,omitempty"`
	Error           string           `json:"error,omitempty"`
	Attempts        []RetryAttempt   `json:"attempts"`
	TotalDurationMs int64            `json:"totalDurationMs"`
}

// RetryAnalysis is advisory diagnostics derived from a RetryResult.
type RetryAnalysis struct {
	TotalAttempts      int      `json:"totalAttempts"`
	SuccessfulStrategy string   `json:"successfulStrategy,omitempty"`
	ConsistentError    bool     `json:"consistentError"`
	DistinctErrors     int      `json:"distinctErrors"`
	AverageAttemptMs   int64    `json:"averageAttemptMs"`
	Insights           []string `json:"insights"`
	Recommendation     string   `json:"recommendation"`
}
