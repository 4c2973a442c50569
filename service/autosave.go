package service

import (
	"context"
	"sync"
	"time"

	"github.com/Aashish23092/solar-id-intake/dto"
	"github.com/Aashish23092/solar-id-intake/metrics"
	"go.uber.org/zap"
)

const autoSaveTimeout = 5 * time.Second

// AutoSaveSource returns the live wizard state to persist.
type AutoSaveSource func() dto.ProgressSnapshot

// AutoSaver saves a session after changes settle, on demand, and on a
// periodic floor. Unchanged content is never rewritten.
type AutoSaver struct {
	svc       *ProgressService
	sessionID string
	source    AutoSaveSource
	debounce  time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool

	// saveMu serializes saves so the debounce, ticker and Flush never overlap.
	saveMu sync.Mutex
	last   dto.SaveOutcome

	stop chan struct{}
	done chan struct{}
}

// EnableAutoSave starts autosaving sessionID. The returned function stops
// it; it is safe to call more than once.
func (s *ProgressService) EnableAutoSave(sessionID string, source AutoSaveSource) (*AutoSaver, func()) {
	a := &AutoSaver{
		svc:       s,
		sessionID: sessionID,
		source:    source,
		debounce:  s.opts.DebounceDelay,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	metrics.AutoSaversActive.Inc()
	go a.loop(s.opts.AutoSaveInterval)
	return a, a.dispose
}

func (a *AutoSaver) loop(interval time.Duration) {
	defer close(a.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.save("interval")
		}
	}
}

// Notify records a change and schedules a save once changes stop for the
// debounce delay.
func (a *AutoSaver) Notify() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.debounce, func() { a.save("debounce") })
}

// Flush cancels any pending debounce and saves immediately.
func (a *AutoSaver) Flush() dto.SaveOutcome {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	return a.save("flush")
}

// LastOutcome is the result of the most recent save attempt.
func (a *AutoSaver) LastOutcome() dto.SaveOutcome {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	return a.last
}

func (a *AutoSaver) save(trigger string) dto.SaveOutcome {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), autoSaveTimeout)
	defer cancel()

	snap := a.source()
	if snap.CurrentStep == 0 {
		snap.CurrentStep = 1
	}
	out, err := a.svc.SaveOnboardingProgress(ctx, a.sessionID, snap)
	if err != nil {
		a.svc.logger.Warn("autosave rejected snapshot",
			zap.String("session_id", a.sessionID), zap.String("trigger", trigger), zap.Error(err))
		return a.last
	}
	if out.Saved {
		a.svc.logger.Debug("autosaved progress",
			zap.String("session_id", a.sessionID), zap.String("trigger", trigger), zap.Bool("compressed", out.Compressed))
	}
	a.last = out
	return out
}

func (a *AutoSaver) dispose() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	close(a.stop)
	<-a.done
	metrics.AutoSaversActive.Dec()
}
