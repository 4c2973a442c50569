package service

import (
	"sync"
	"time"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/metrics"
	"go.uber.org/zap"
)

// Tracked event names.
const (
	EventSessionStarted       = "session_started"
	EventSessionResumed       = "session_resumed"
	EventFieldUpdated         = "field_updated"
	EventStepCompleted        = "step_completed"
	EventExtractionApplied    = "extraction_applied"
	EventExtractedFieldEdited = "extracted_field_edited"
	EventIDTypeSuggestion     = "id_type_suggestion_accepted"
	EventWizardReset          = "wizard_reset"
	EventIDExtracted          = "id_extracted"
	EventIDExtractionFailed   = "id_extraction_failed"
	EventSubmitted            = "onboarding_submitted"
)

const defaultAnalyticsCapacity = 1000

// AnalyticsService keeps a bounded in-memory log of onboarding events and
// counts them in Prometheus. Properties must never carry form values.
type AnalyticsService struct {
	mu       sync.Mutex
	events   []dto.AnalyticsEvent
	capacity int
	logger   *zap.Logger
	now      func() time.Time
}

// NewAnalyticsService keeps up to capacity events per session.
func NewAnalyticsService(capacity int, logger *zap.Logger) *AnalyticsService {
	if capacity <= 0 {
		capacity = defaultAnalyticsCapacity
	}
	return &AnalyticsService{capacity: capacity, logger: logger, now: time.Now}
}

// Track records an event for the session. A nil service ignores it.
func (a *AnalyticsService) Track(sessionID, name string, props map[string]any) {
	if a == nil {
		return
	}
	ev := dto.AnalyticsEvent{SessionID: sessionID, Name: name, Properties: props, Timestamp: a.now().UTC()}

	a.mu.Lock()
	if len(a.events) >= a.capacity {
		copy(a.events, a.events[1:])
		a.events = a.events[:len(a.events)-1]
	}
	a.events = append(a.events, ev)
	a.mu.Unlock()

	metrics.OnboardingEvents.WithLabelValues(name).Inc()
	a.logger.Debug("onboarding event", zap.String("session_id", sessionID), zap.String("event", name), zap.Any("properties", props))
}

// Events returns the retained events for sessionID, oldest first. An empty
// sessionID returns every retained event.
func (a *AnalyticsService) Events(sessionID string) []dto.AnalyticsEvent {
	if a == nil {
		return []dto.AnalyticsEvent{}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]dto.AnalyticsEvent, 0, len(a.events))
	for _, ev := range a.events {
		if sessionID == "" || ev.SessionID == sessionID {
			out = append(out, ev)
		}
	}
	return out
}
