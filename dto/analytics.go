package dto

import "time"

// AnalyticsEvent is one tracked onboarding interaction.
type AnalyticsEvent struct {
	SessionID  string         `json:"sessionId"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}
