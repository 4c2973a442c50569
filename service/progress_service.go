package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/metrics"
	"github.com/Aashish23092/solar-id-intake/store"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Input errors returned by the progress operations.
var (
	ErrInvalidSession = errors.New("session id is required")
	ErrInvalidStep    = fmt.Errorf("current step must be between 1 and %d", dto.TotalSteps)
)

// Reasons reported by AttemptProgressRecovery.
const (
	RecoveryNoProgress      = "no_progress"
	RecoveryExpired         = "expired"
	RecoveryCorrupted       = "corrupted"
	RecoveryAlreadyComplete = "already_complete"
	RecoveryPartial         = "partial"
	RecoveryAvailable       = "available"
)

var stepNames = map[int]string{
	1: "Personal Information",
	2: "Property & Energy Usage",
	3: "ID Verification",
	4: "Account Setup",
	5: "Review & Submit",
}

var stepHints = map[int]string{
	1: "Check that your name matches your government ID exactly",
	2: "Have a recent electricity bill at hand to confirm your monthly usage",
	3: "Uploaded ID photos are not kept when you switch devices; you may need to upload your ID again",
	4: "For your security, passwords are never saved; please enter your password again",
	5: "Review your details one last time before submitting",
}

// ProgressOptions tunes retention, compression and autosave timing.
type ProgressOptions struct {
	Retention time.Duration
	// CompressionThreshold is the serialized size in bytes above which keys are shortened.
	CompressionThreshold int
	Version              string
	// DebounceDelay and AutoSaveInterval drive EnableAutoSave.
	DebounceDelay    time.Duration
	AutoSaveInterval time.Duration
}

// DefaultProgressOptions keeps progress for seven days and autosaves every 30 seconds.
func DefaultProgressOptions() ProgressOptions {
	return ProgressOptions{
		Retention:            7 * 24 * time.Hour,
		CompressionThreshold: 8 * 1024,
		Version:              "1.0",
		DebounceDelay:        2 * time.Second,
		AutoSaveInterval:     30 * time.Second,
	}
}

// ProgressService persists wizard snapshots in a KeyValueStore.
type ProgressService struct {
	store  store.KeyValueStore
	opts   ProgressOptions
	logger *zap.Logger
	now    func() time.Time

	mu         sync.Mutex
	lastHashes map[string]uint64
}

// NewProgressService creates a new ProgressService, filling unset options with defaults.
func NewProgressService(kv store.KeyValueStore, opts ProgressOptions, logger *zap.Logger) *ProgressService {
	def := DefaultProgressOptions()
	if opts.Retention <= 0 {
		opts.Retention = def.Retention
	}
	if opts.CompressionThreshold <= 0 {
		opts.CompressionThreshold = def.CompressionThreshold
	}
	if opts.Version == "" {
		opts.Version = def.Version
	}
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = def.DebounceDelay
	}
	if opts.AutoSaveInterval <= 0 {
		opts.AutoSaveInterval = def.AutoSaveInterval
	}
	return &ProgressService{
		store:      kv,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
		lastHashes: make(map[string]uint64),
	}
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// ComputeDeviceFingerprint hashes the client attributes that identify a device.
func ComputeDeviceFingerprint(d *dto.DeviceInfo) string {
	if d == nil {
		return ""
	}
	h := xxhash.New()
	for _, part := range []string{d.UserAgent, d.Locale, d.ScreenSize, d.Timezone, d.CanvasHash} {
		_, _ = h.WriteString(part)
		_, _ = h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// NormalizeSteps drops out-of-range and duplicate steps and sorts the rest.
func NormalizeSteps(steps []int) []int {
	seen := make(map[int]bool, len(steps))
	out := make([]int, 0, len(steps))
	for _, s := range steps {
		if s < 1 || s > dto.TotalSteps || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// SaveOnboardingProgress stores a snapshot. Write failures fall back to the
// minimal step markers and are reported in the outcome rather than as errors;
// only invalid input is returned as an error.
func (s *ProgressService) SaveOnboardingProgress(ctx context.Context, sessionID string, snap dto.ProgressSnapshot) (dto.SaveOutcome, error) {
	if sessionID == "" {
		return dto.SaveOutcome{}, ErrInvalidSession
	}
	if snap.CurrentStep < 1 || snap.CurrentStep > dto.TotalSteps {
		return dto.SaveOutcome{}, ErrInvalidStep
	}

	formData, _ := stripSecrets(snap.FormData).(map[string]any)
	if formData == nil {
		formData = map[string]any{}
	}
	validation, _ := stripSecrets(snap.ValidationResults).(map[string]any)
	completed := NormalizeSteps(snap.CompletedSteps)

	hash, err := contentHash(formData, snap.CurrentStep, completed, validation)
	if err != nil {
		return dto.SaveOutcome{}, fmt.Errorf("failed to hash progress: %w", err)
	}

	// A remembered hash only counts while the snapshot it describes is still
	// stored; once the key has expired the same content is written again.
	prev, prevStatus, _ := s.readProgress(ctx, sessionID)
	if prevStatus != statusFound {
		s.forget(sessionID)
	} else if s.unchanged(sessionID, hash) {
		metrics.ProgressSaves.WithLabelValues("skipped").Inc()
		return dto.SaveOutcome{Skipped: true}, nil
	}

	now := s.now().UTC()
	meta := dto.ProgressMetadata{
		StartTime:  now,
		LastSaved:  now,
		SessionID:  sessionID,
		Version:    s.opts.Version,
		IsComplete: len(completed) == dto.TotalSteps,
	}
	if prevStatus == statusFound {
		meta.StartTime = prev.Metadata.StartTime
		meta.DeviceFingerprint = prev.Metadata.DeviceFingerprint
	}
	if fp := ComputeDeviceFingerprint(snap.Device); fp != "" {
		meta.DeviceFingerprint = fp
	}

	progress := dto.OnboardingProgress{
		FormData:          formData,
		CurrentStep:       snap.CurrentStep,
		CompletedSteps:    completed,
		ValidationResults: validation,
		Metadata:          meta,
	}
	payload, err := json.Marshal(progress)
	if err != nil {
		return dto.SaveOutcome{}, fmt.Errorf("failed to encode progress: %w", err)
	}

	outcome := dto.SaveOutcome{SavedAt: now}
	if len(payload) > s.opts.CompressionThreshold {
		if compressed, err := compressPayload(payload); err == nil {
			s.logger.Debug("progress payload compressed",
				zap.String("session_id", sessionID),
				zap.Int("original_bytes", len(payload)),
				zap.Int("stored_bytes", len(compressed)))
			payload = compressed
			outcome.Compressed = true
		}
	}

	if err := s.store.Set(ctx, store.ProgressKey(sessionID), string(payload), s.opts.Retention); err != nil {
		s.logger.Error("failed to save progress, writing fallback markers",
			zap.String("session_id", sessionID), zap.Error(err))
		metrics.ProgressSaves.WithLabelValues("fallback").Inc()
		s.saveFallback(ctx, sessionID, snap.CurrentStep, completed, now)
		return dto.SaveOutcome{Fallback: true, SavedAt: now}, nil
	}

	s.remember(sessionID, hash)
	metrics.ProgressSaves.WithLabelValues("saved").Inc()
	outcome.Saved = true
	return outcome, nil
}

type fallbackMarkers struct {
	CurrentStep    int       `json:"currentStep"`
	CompletedSteps []int     `json:"completedSteps"`
	LastSaved      time.Time `json:"lastSaved"`
}

func (s *ProgressService) saveFallback(ctx context.Context, sessionID string, step int, completed []int, now time.Time) {
	raw, _ := json.Marshal(fallbackMarkers{CurrentStep: step, CompletedSteps: completed, LastSaved: now})
	if err := s.store.Set(ctx, store.ProgressMetaKey(sessionID), string(raw), s.opts.Retention); err != nil {
		s.logger.Error("fallback progress save failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// LoadOnboardingProgress returns the saved snapshot, or nil when there is
// none. Expired and invalid snapshots are cleared.
func (s *ProgressService) LoadOnboardingProgress(ctx context.Context, sessionID string) (*dto.OnboardingProgress, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	p, status, err := s.readProgress(ctx, sessionID)
	switch status {
	case statusFound:
		return p, nil
	case statusMissing:
		return nil, nil
	case statusError:
		return nil, err
	}

	s.logger.Info("discarding stored progress",
		zap.String("session_id", sessionID), zap.String("status", string(status)), zap.Error(err))
	if delErr := s.store.Del(ctx, store.ProgressKey(sessionID)); delErr != nil {
		s.logger.Warn("failed to clear stale progress", zap.String("session_id", sessionID), zap.Error(delErr))
	}
	s.forget(sessionID)
	return nil, nil
}

// ClearProgress removes the snapshot, fallback markers and cached images.
func (s *ProgressService) ClearProgress(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidSession
	}
	keys := []string{store.ProgressKey(sessionID), store.ProgressMetaKey(sessionID), store.ImageIndexKey(sessionID)}
	for _, field := range readImageIndex(ctx, s.store, sessionID) {
		keys = append(keys, store.ImageKey(sessionID, field), store.ImageMetaKey(sessionID, field))
	}
	s.forget(sessionID)
	if err := s.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to clear progress: %w", err)
	}
	return nil
}

// AttemptProgressRecovery advises whether and where a session can resume.
// It never modifies stored state.
func (s *ProgressService) AttemptProgressRecovery(ctx context.Context, sessionID string, device *dto.DeviceInfo) dto.RecoveryRecommendation {
	rec := dto.RecoveryRecommendation{Hints: []string{}}
	p, status, err := s.readProgress(ctx, sessionID)

	switch status {
	case statusMissing, statusError:
		if err != nil {
			s.logger.Warn("progress lookup failed during recovery", zap.String("session_id", sessionID), zap.Error(err))
		}
		if markers := s.readFallback(ctx, sessionID); markers != nil {
			rec.CanRecover = true
			rec.Reason = RecoveryPartial
			rec.ResumeStep = markers.CurrentStep
			rec.Message = fmt.Sprintf("Only your place in the wizard was saved. You can continue from step %d (%s), but some answers need to be entered again.",
				markers.CurrentStep, stepNames[markers.CurrentStep])
			rec.Hints = append(rec.Hints, stepHints[markers.CurrentStep])
			return rec
		}
		rec.Reason = RecoveryNoProgress
		rec.Message = "No saved progress was found. Let's start your application."
		return rec
	case statusExpired:
		rec.Reason = RecoveryExpired
		rec.Message = fmt.Sprintf("Your saved progress is older than %d days and can no longer be restored.", int(s.opts.Retention.Hours()/24))
		return rec
	case statusInvalid:
		rec.Reason = RecoveryCorrupted
		rec.Message = "Your saved progress could not be read. Please start again."
		return rec
	}

	rec.AgeHours = math.Round(s.now().Sub(p.Metadata.LastSaved).Hours()*10) / 10
	if p.Metadata.IsComplete {
		rec.Reason = RecoveryAlreadyComplete
		rec.Message = "This application was already completed."
		return rec
	}

	rec.CanRecover = true
	rec.Reason = RecoveryAvailable
	rec.ResumeStep = p.CurrentStep
	rec.Progress = p
	rec.Message = fmt.Sprintf("Welcome back! You can continue from step %d (%s).", p.CurrentStep, stepNames[p.CurrentStep])

	if fp := ComputeDeviceFingerprint(device); fp != "" && p.Metadata.DeviceFingerprint != "" && fp != p.Metadata.DeviceFingerprint {
		rec.DifferentDevice = true
		rec.Hints = append(rec.Hints, "You started this application on a different device. Please double-check your details.")
	}
	if rec.AgeHours >= 24 {
		rec.Hints = append(rec.Hints, "It has been a while since your last visit. Make sure your details are still current.")
	}
	if hint, ok := stepHints[p.CurrentStep]; ok {
		rec.Hints = append(rec.Hints, hint)
	}
	return rec
}

type readStatus string

const (
	statusFound   readStatus = "found"
	statusMissing readStatus = "missing"
	statusExpired readStatus = "expired"
	statusInvalid readStatus = "invalid"
	statusError   readStatus = "error"
)

// readProgress loads and classifies the stored snapshot without modifying it.
func (s *ProgressService) readProgress(ctx context.Context, sessionID string) (*dto.OnboardingProgress, readStatus, error) {
	raw, err := s.store.Get(ctx, store.ProgressKey(sessionID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, statusMissing, nil
	}
	if err != nil {
		return nil, statusError, fmt.Errorf("failed to read progress: %w", err)
	}

	expanded, err := expandPayload([]byte(raw))
	if err != nil {
		return nil, statusInvalid, err
	}
	var p dto.OnboardingProgress
	if err := json.Unmarshal(expanded, &p); err != nil {
		return nil, statusInvalid, fmt.Errorf("failed to decode progress: %w", err)
	}
	if err := validateProgress(&p); err != nil {
		return nil, statusInvalid, err
	}
	if s.now().Sub(p.Metadata.LastSaved) > s.opts.Retention {
		return nil, statusExpired, nil
	}
	p.CompletedSteps = NormalizeSteps(p.CompletedSteps)
	return &p, statusFound, nil
}

func (s *ProgressService) readFallback(ctx context.Context, sessionID string) *fallbackMarkers {
	raw, err := s.store.Get(ctx, store.ProgressMetaKey(sessionID))
	if err != nil {
		return nil
	}
	var m fallbackMarkers
	if json.Unmarshal([]byte(raw), &m) != nil || m.CurrentStep < 1 || m.CurrentStep > dto.TotalSteps {
		return nil
	}
	if s.now().Sub(m.LastSaved) > s.opts.Retention {
		return nil
	}
	return &m
}

func validateProgress(p *dto.OnboardingProgress) error {
	switch {
	case p.FormData == nil:
		return errors.New("progress has no form data")
	case p.CurrentStep < 1 || p.CurrentStep > dto.TotalSteps:
		return ErrInvalidStep
	case p.Metadata.SessionID == "":
		return errors.New("progress has no session id")
	case p.Metadata.LastSaved.IsZero():
		return errors.New("progress has no save time")
	}
	return nil
}

// contentHash covers everything except timestamps so that re-saving an
// unchanged form is detected.
func contentHash(formData map[string]any, step int, completed []int, validation map[string]any) (uint64, error) {
	raw, err := json.Marshal(struct {
		FormData          map[string]any `json:"f"`
		CurrentStep       int            `json:"s"`
		CompletedSteps    []int          `json:"c"`
		ValidationResults map[string]any `json:"v"`
	}{formData, step, completed, validation})
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(raw), nil
}

func (s *ProgressService) unchanged(sessionID string, hash uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.lastHashes[sessionID]
	return ok && prev == hash
}

func (s *ProgressService) remember(sessionID string, hash uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastHashes[sessionID] = hash
}

func (s *ProgressService) forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lastHashes, sessionID)
}

func readImageIndex(ctx context.Context, kv store.KeyValueStore, sessionID string) []string {
	raw, err := kv.Get(ctx, store.ImageIndexKey(sessionID))
	if err != nil {
		return nil
	}
	var fields []string
	if json.Unmarshal([]byte(raw), &fields) != nil {
		return nil
	}
	return fields
}
