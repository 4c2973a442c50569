package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Aashish23092/solar-id-intake/dto"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for a session id with no live or saved state.
var ErrSessionNotFound = errors.New("session not found")

const defaultSweepInterval = time.Minute

type wizardSession struct {
	mu           sync.Mutex
	state        dto.WizardState
	device       *dto.DeviceInfo
	lastActivity time.Time
	closed       bool
	saver        *AutoSaver
	dispose      func()
}

func (ws *wizardSession) snapshot() dto.ProgressSnapshot {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return SnapshotOf(ws.state, ws.device)
}

func (ws *wizardSession) idleFor(now time.Time) time.Duration {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return now.Sub(ws.lastActivity)
}

// markClosed reports whether this call closed the session.
func (ws *wizardSession) markClosed() bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return false
	}
	ws.closed = true
	return true
}

// WizardSessions holds the live form state of active sessions and autosaves
// each one through the progress service. Sessions idle past the retention
// window are expired; StartEviction also releases shorter idle sessions.
type WizardSessions struct {
	progress  *ProgressService
	analytics *AnalyticsService
	logger    *zap.Logger

	mu        sync.Mutex
	sessions  map[string]*wizardSession
	stopSweep chan struct{}
	sweepDone chan struct{}
}

// NewWizardSessions creates an empty session registry.
func NewWizardSessions(progress *ProgressService, analytics *AnalyticsService, logger *zap.Logger) *WizardSessions {
	return &WizardSessions{
		progress:  progress,
		analytics: analytics,
		logger:    logger,
		sessions:  make(map[string]*wizardSession),
	}
}

// Start registers a new session and returns its id.
func (w *WizardSessions) Start(device *dto.DeviceInfo) string {
	id := NewSessionID()
	w.register(id, NewWizardState(), device)
	w.analytics.Track(id, EventSessionStarted, nil)
	return id
}

// Len returns the number of live sessions.
func (w *WizardSessions) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.sessions)
}

func (w *WizardSessions) register(id string, state dto.WizardState, device *dto.DeviceInfo) *wizardSession {
	ws := &wizardSession{state: state, device: device, lastActivity: w.progress.now()}
	ws.saver, ws.dispose = w.progress.EnableAutoSave(id, ws.snapshot)

	w.mu.Lock()
	defer w.mu.Unlock()
	if existing, ok := w.sessions[id]; ok {
		ws.dispose()
		return existing
	}
	w.sessions[id] = ws
	return ws
}

func (w *WizardSessions) expired(ws *wizardSession) bool {
	return ws.idleFor(w.progress.now()) > w.progress.opts.Retention
}

// remove drops ws from the registry if it is still the registered session
// for id, and stops its autosaver.
func (w *WizardSessions) remove(id string, ws *wizardSession) {
	w.mu.Lock()
	if w.sessions[id] == ws {
		delete(w.sessions, id)
	}
	w.mu.Unlock()
	if ws.markClosed() {
		ws.dispose()
	}
}

func (w *WizardSessions) expire(id string, ws *wizardSession) {
	w.remove(id, ws)
	w.progress.forget(id)
	w.logger.Info("wizard session expired", zap.String("session_id", id))
}

// live returns the registered session unless it has expired.
func (w *WizardSessions) live(id string) (*wizardSession, bool) {
	w.mu.Lock()
	ws, ok := w.sessions[id]
	w.mu.Unlock()
	if !ok {
		return nil, false
	}
	if w.expired(ws) {
		w.expire(id, ws)
		return nil, false
	}
	return ws, true
}

// session returns the live session, resuming it from saved progress if needed.
func (w *WizardSessions) session(ctx context.Context, id string, device *dto.DeviceInfo) (*wizardSession, error) {
	if ws, ok := w.live(id); ok {
		return ws, nil
	}

	p, err := w.progress.LoadOnboardingProgress(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrSessionNotFound
	}
	w.analytics.Track(id, EventSessionResumed, map[string]any{"step": p.CurrentStep})
	return w.register(id, StateFromProgress(p), device), nil
}

// Apply folds updates into the session state and schedules an autosave.
func (w *WizardSessions) Apply(ctx context.Context, id string, updates []dto.FieldUpdate, device *dto.DeviceInfo) (dto.WizardState, error) {
	var ws *wizardSession
	for {
		var err error
		ws, err = w.session(ctx, id, device)
		if err != nil {
			return dto.WizardState{}, err
		}
		ws.mu.Lock()
		if !ws.closed {
			break
		}
		// Evicted between lookup and lock; resume from storage.
		ws.mu.Unlock()
	}

	next, err := ApplyUpdates(ws.state, updates)
	if err != nil {
		current := cloneState(ws.state)
		ws.mu.Unlock()
		return current, err
	}
	ws.state = next
	ws.lastActivity = w.progress.now()
	if device != nil {
		ws.device = device
	}
	result := cloneState(next)
	ws.mu.Unlock()

	for _, u := range updates {
		w.track(id, u)
	}
	ws.saver.Notify()
	return result, nil
}

func (w *WizardSessions) track(id string, u dto.FieldUpdate) {
	switch u.Kind {
	case dto.UpdateSetField:
		w.analytics.Track(id, EventFieldUpdated, map[string]any{"field": u.Field})
	case dto.UpdateEditExtractedField:
		w.analytics.Track(id, EventExtractedFieldEdited, map[string]any{"field": u.Field})
	case dto.UpdateApplyExtraction:
		w.analytics.Track(id, EventExtractionApplied, nil)
	case dto.UpdateAcceptIDTypeSuggestion:
		w.analytics.Track(id, EventIDTypeSuggestion, map[string]any{"idType": u.Value})
	case dto.UpdateCompleteStep:
		w.analytics.Track(id, EventStepCompleted, map[string]any{"step": u.Step})
	case dto.UpdateReset:
		w.analytics.Track(id, EventWizardReset, nil)
	}
}

// State returns a copy of the session's current state.
func (w *WizardSessions) State(ctx context.Context, id string) (dto.WizardState, error) {
	ws, err := w.session(ctx, id, nil)
	if err != nil {
		return dto.WizardState{}, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return cloneState(ws.state), nil
}

// Flush saves the session immediately. A session released from memory is
// resumed from storage first; unknown and expired sessions return
// ErrSessionNotFound.
func (w *WizardSessions) Flush(ctx context.Context, id string) (dto.SaveOutcome, error) {
	ws, err := w.session(ctx, id, nil)
	if err != nil {
		return dto.SaveOutcome{}, err
	}
	return ws.saver.Flush(), nil
}

// Close stops autosaving a session without saving it.
func (w *WizardSessions) Close(id string) {
	w.mu.Lock()
	ws, ok := w.sessions[id]
	w.mu.Unlock()
	if ok {
		w.remove(id, ws)
	}
}

// EvictIdle releases sessions without activity for longer than idleTimeout
// and returns how many were released. Sessions still inside the retention
// window are flushed first so a later request resumes them from storage.
func (w *WizardSessions) EvictIdle(idleTimeout time.Duration) int {
	now := w.progress.now()
	retention := w.progress.opts.Retention

	type idleSession struct {
		ws   *wizardSession
		idle time.Duration
	}
	w.mu.Lock()
	idle := make(map[string]idleSession)
	for id, ws := range w.sessions {
		if d := ws.idleFor(now); d > idleTimeout {
			idle[id] = idleSession{ws: ws, idle: d}
			delete(w.sessions, id)
		}
	}
	w.mu.Unlock()

	for id, s := range idle {
		if !s.ws.markClosed() {
			continue
		}
		if s.idle <= retention {
			s.ws.saver.Flush()
		} else {
			w.progress.forget(id)
		}
		s.ws.dispose()
		w.logger.Debug("idle wizard session released",
			zap.String("session_id", id), zap.Duration("idle", s.idle))
	}
	return len(idle)
}

// StartEviction runs EvictIdle every interval until Shutdown. An idle
// timeout outside (0, retention] uses the retention window.
func (w *WizardSessions) StartEviction(idleTimeout, interval time.Duration) {
	if idleTimeout <= 0 || idleTimeout > w.progress.opts.Retention {
		idleTimeout = w.progress.opts.Retention
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	w.mu.Lock()
	if w.stopSweep != nil {
		w.mu.Unlock()
		return
	}
	stop, done := make(chan struct{}), make(chan struct{})
	w.stopSweep, w.sweepDone = stop, done
	w.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if n := w.EvictIdle(idleTimeout); n > 0 {
					w.logger.Info("released idle wizard sessions", zap.Int("count", n))
				}
			}
		}
	}()
}

// Shutdown stops eviction, then flushes and stops every session.
func (w *WizardSessions) Shutdown() {
	w.mu.Lock()
	stop, done := w.stopSweep, w.sweepDone
	w.stopSweep, w.sweepDone = nil, nil
	sessions := w.sessions
	w.sessions = make(map[string]*wizardSession)
	w.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	for id, ws := range sessions {
		if !ws.markClosed() {
			continue
		}
		out := ws.saver.Flush()
		ws.dispose()
		w.logger.Debug("session flushed on shutdown", zap.String("session_id", id), zap.Bool("saved", out.Saved))
	}
}
